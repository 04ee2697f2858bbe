package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// plexClient manages access grants for a Plex Media Server. Plex has no
// server-local user database: accounts live on plex.tv, and granting access
// means sharing the server with a plex.tv account. An "account" here is one
// shared-server grant, and its external id is the grant id plex.tv assigns.
//
// Plex cannot disable a grant in place or change per-user permissions, so
// the variant declares neither ToggleEnabled nor PermissionControl.
type plexClient struct {
	baseURL  string
	plexTVRL string
	token    string
	http     *http.Client

	// machineID caches the server identity for this scoped instance
	machineID string
}

const plexTVURL = "https://plex.tv"

type plexSharedServer struct {
	ID      int64 `json:"id"`
	Invited struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"invited"`
	Accepted bool `json:"accepted"`
}

// NewPlexClient builds a Plex client scoped to a single operation
func NewPlexClient(params ConnectionParams) Client {
	return &plexClient{
		baseURL:  strings.TrimRight(params.BaseURL, "/"),
		plexTVRL: plexTVURL,
		token:    params.APIKey,
		http:     newTimeoutClient(params),
	}
}

// Capabilities declares the subset of operations Plex sharing supports
func (c *plexClient) Capabilities() []Capability {
	return []Capability{
		CapabilityCreateAccount,
		CapabilityDeleteAccount,
		CapabilityLibraryAccessControl,
	}
}

func (c *plexClient) do(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", "zondarr")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// TestConnection never returns an error; any transport or auth failure
// collapses to false
func (c *plexClient) TestConnection(ctx context.Context) bool {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/identity", nil)
	if err != nil {
		return false
	}
	drainBody(resp)
	return resp.StatusCode == http.StatusOK
}

// machineIdentifier resolves and caches the server's unique id, which every
// plex.tv sharing call is keyed on
func (c *plexClient) machineIdentifier(ctx context.Context, op string) (string, error) {
	if c.machineID != "" {
		return c.machineID, nil
	}

	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/identity", nil)
	if err != nil {
		return "", serviceError(op, c.baseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError(op, c.baseURL, resp)
	}
	defer resp.Body.Close()

	var payload struct {
		MediaContainer struct {
			MachineIdentifier string `json:"machineIdentifier"`
		} `json:"MediaContainer"`
	}
	if err := decodeJSON(resp.Body, &payload); err != nil {
		return "", serviceError(op, c.baseURL, err)
	}
	if payload.MediaContainer.MachineIdentifier == "" {
		return "", serviceError(op, c.baseURL, fmt.Errorf("server reported no machine identifier"))
	}
	c.machineID = payload.MediaContainer.MachineIdentifier
	return c.machineID, nil
}

func (c *plexClient) ListLibraries(ctx context.Context) ([]LibraryInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/library/sections", nil)
	if err != nil {
		return nil, serviceError("list_libraries", c.baseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list_libraries", c.baseURL, resp)
	}
	defer resp.Body.Close()

	var payload struct {
		MediaContainer struct {
			Directory []struct {
				Key   string `json:"key"`
				Title string `json:"title"`
				Type  string `json:"type"`
			} `json:"Directory"`
		} `json:"MediaContainer"`
	}
	if err := decodeJSON(resp.Body, &payload); err != nil {
		return nil, serviceError("list_libraries", c.baseURL, err)
	}

	libraries := make([]LibraryInfo, 0, len(payload.MediaContainer.Directory))
	for _, dir := range payload.MediaContainer.Directory {
		libraries = append(libraries, LibraryInfo{
			ExternalID:  dir.Key,
			Name:        dir.Title,
			ContentType: dir.Type,
		})
	}
	return libraries, nil
}

// CreateAccount invites a plex.tv account to this server. Plex has no
// server-local passwords, so the password is ignored; the invite goes to the
// email when given, else to the username.
func (c *plexClient) CreateAccount(ctx context.Context, username, password, email string) (*AccountRef, error) {
	machineID, err := c.machineIdentifier(ctx, "create_account")
	if err != nil {
		return nil, err
	}

	invitee := email
	if invitee == "" {
		invitee = username
	}
	body := map[string]interface{}{
		"machineIdentifier": machineID,
		"invitedEmail":      invitee,
		"librarySectionIds": []string{},
	}
	resp, err := c.do(ctx, http.MethodPost, c.plexTVRL+"/api/v2/shared_servers", body)
	if err != nil {
		return nil, serviceError("create_account", c.baseURL, err)
	}
	// plex.tv answers 422 when the account is already invited or sharing
	if resp.StatusCode == http.StatusUnprocessableEntity {
		drainBody(resp)
		return nil, &UsernameTakenError{Username: invitee}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError("create_account", c.baseURL, resp)
	}
	defer resp.Body.Close()

	var grant plexSharedServer
	if err := decodeJSON(resp.Body, &grant); err != nil {
		return nil, serviceError("create_account", c.baseURL, err)
	}
	return &AccountRef{
		ExternalID: strconv.FormatInt(grant.ID, 10),
		Username:   username,
		Enabled:    true,
	}, nil
}

func (c *plexClient) DeleteAccount(ctx context.Context, externalID string) (bool, error) {
	resp, err := c.do(ctx, http.MethodDelete, c.plexTVRL+"/api/v2/shared_servers/"+externalID, nil)
	if err != nil {
		return false, serviceError("delete_account", c.baseURL, err)
	}
	drainBody(resp)
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, statusError("delete_account", c.baseURL, resp)
}

// SetEnabled is not declared by this variant; callers must capability-check
// before invoking it
func (c *plexClient) SetEnabled(ctx context.Context, externalID string, enabled bool) (bool, error) {
	return false, serviceError("set_enabled", c.baseURL, fmt.Errorf("plex does not support toggling accounts"))
}

func (c *plexClient) SetLibraryAccess(ctx context.Context, externalID string, libraryIDs []string) (bool, error) {
	if libraryIDs == nil {
		libraryIDs = []string{}
	}
	body := map[string]interface{}{"librarySectionIds": libraryIDs}
	resp, err := c.do(ctx, http.MethodPut, c.plexTVRL+"/api/v2/shared_servers/"+externalID, body)
	if err != nil {
		return false, serviceError("set_library_access", c.baseURL, err)
	}
	drainBody(resp)
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, statusError("set_library_access", c.baseURL, resp)
}

// UpdatePermissions is not declared by this variant; callers must
// capability-check before invoking it
func (c *plexClient) UpdatePermissions(ctx context.Context, externalID string, permissions map[string]bool) (bool, error) {
	return false, serviceError("update_permissions", c.baseURL, fmt.Errorf("plex does not support per-user permissions"))
}

func (c *plexClient) ListAccounts(ctx context.Context) ([]AccountRef, error) {
	machineID, err := c.machineIdentifier(ctx, "list_accounts")
	if err != nil {
		return nil, err
	}

	url := c.plexTVRL + "/api/v2/shared_servers?machineIdentifier=" + machineID
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, serviceError("list_accounts", c.baseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list_accounts", c.baseURL, resp)
	}
	defer resp.Body.Close()

	var grants []plexSharedServer
	if err := decodeJSON(resp.Body, &grants); err != nil {
		return nil, serviceError("list_accounts", c.baseURL, err)
	}

	accounts := make([]AccountRef, 0, len(grants))
	for _, grant := range grants {
		username := grant.Invited.Username
		if username == "" {
			username = grant.Invited.Email
		}
		accounts = append(accounts, AccountRef{
			ExternalID: strconv.FormatInt(grant.ID, 10),
			Username:   username,
			Enabled:    true,
		})
	}
	return accounts, nil
}

// Close releases the scoped connection
func (c *plexClient) Close() {
	c.http.CloseIdleConnections()
}
