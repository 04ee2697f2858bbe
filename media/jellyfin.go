package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// jellyfinClient talks to the Jellyfin user management REST API. Emby forked
// the same API surface, so the Emby variant embeds this client and only
// overrides where the two servers diverge.
type jellyfinClient struct {
	baseURL    string
	authHeader string
	authValue  string
	http       *http.Client
}

// jellyfinUser is the subset of the /Users document this client reads. The
// policy is kept as a raw map so partial permission updates can merge into
// whatever fields the server version exposes.
type jellyfinUser struct {
	ID     string                 `json:"Id"`
	Name   string                 `json:"Name"`
	Policy map[string]interface{} `json:"Policy"`
}

// NewJellyfinClient builds a Jellyfin client scoped to a single operation
func NewJellyfinClient(params ConnectionParams) Client {
	return &jellyfinClient{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		authHeader: "Authorization",
		authValue:  fmt.Sprintf(`MediaBrowser Token="%s", Client="zondarr"`, params.APIKey),
		http:       newTimeoutClient(params),
	}
}

// Capabilities declares full account management support
func (c *jellyfinClient) Capabilities() []Capability {
	return []Capability{
		CapabilityCreateAccount,
		CapabilityDeleteAccount,
		CapabilityToggleEnabled,
		CapabilityLibraryAccessControl,
		CapabilityPermissionControl,
	}
}

func (c *jellyfinClient) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
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

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set(c.authHeader, c.authValue)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// TestConnection never returns an error; any transport or auth failure
// collapses to false
func (c *jellyfinClient) TestConnection(ctx context.Context) bool {
	resp, err := c.do(ctx, http.MethodGet, "/System/Info", nil)
	if err != nil {
		return false
	}
	drainBody(resp)
	return resp.StatusCode == http.StatusOK
}

func (c *jellyfinClient) ListLibraries(ctx context.Context) ([]LibraryInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/Library/MediaFolders", nil)
	if err != nil {
		return nil, serviceError("list_libraries", c.baseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list_libraries", c.baseURL, resp)
	}
	defer resp.Body.Close()

	var payload struct {
		Items []struct {
			ID             string `json:"Id"`
			Name           string `json:"Name"`
			CollectionType string `json:"CollectionType"`
		} `json:"Items"`
	}
	if err := decodeJSON(resp.Body, &payload); err != nil {
		return nil, serviceError("list_libraries", c.baseURL, err)
	}

	libraries := make([]LibraryInfo, 0, len(payload.Items))
	for _, item := range payload.Items {
		libraries = append(libraries, LibraryInfo{
			ExternalID:  item.ID,
			Name:        item.Name,
			ContentType: item.CollectionType,
		})
	}
	return libraries, nil
}

func (c *jellyfinClient) CreateAccount(ctx context.Context, username, password, email string) (*AccountRef, error) {
	body := map[string]string{"Name": username, "Password": password}
	resp, err := c.do(ctx, http.MethodPost, "/Users/New", body)
	if err != nil {
		return nil, serviceError("create_account", c.baseURL, err)
	}
	// Jellyfin reports duplicate names as a plain 400, so the body has to be
	// inspected to tell a conflict from any other argument error
	if resp.StatusCode == http.StatusBadRequest {
		msg := drainBody(resp)
		if strings.Contains(strings.ToLower(msg), "already exists") {
			return nil, &UsernameTakenError{Username: username}
		}
		return nil, serviceError("create_account", c.baseURL, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("create_account", c.baseURL, resp)
	}
	defer resp.Body.Close()

	var user jellyfinUser
	if err := decodeJSON(resp.Body, &user); err != nil {
		return nil, serviceError("create_account", c.baseURL, err)
	}
	return &AccountRef{ExternalID: user.ID, Username: user.Name, Enabled: true}, nil
}

func (c *jellyfinClient) DeleteAccount(ctx context.Context, externalID string) (bool, error) {
	resp, err := c.do(ctx, http.MethodDelete, "/Users/"+externalID, nil)
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

func (c *jellyfinClient) SetEnabled(ctx context.Context, externalID string, enabled bool) (bool, error) {
	return c.updatePolicy(ctx, "set_enabled", externalID, map[string]interface{}{"IsDisabled": !enabled})
}

// SetLibraryAccess restricts the account to exactly the given folder ids. An
// empty list means access to no libraries; granting all libraries is done by
// never calling this at all.
func (c *jellyfinClient) SetLibraryAccess(ctx context.Context, externalID string, libraryIDs []string) (bool, error) {
	if libraryIDs == nil {
		libraryIDs = []string{}
	}
	return c.updatePolicy(ctx, "set_library_access", externalID, map[string]interface{}{
		"EnableAllFolders": false,
		"EnabledFolders":   libraryIDs,
	})
}

// UpdatePermissions changes only the policy keys present in the map; absent
// keys keep their server-side values
func (c *jellyfinClient) UpdatePermissions(ctx context.Context, externalID string, permissions map[string]bool) (bool, error) {
	changes := make(map[string]interface{}, len(permissions))
	for name, value := range permissions {
		changes[name] = value
	}
	return c.updatePolicy(ctx, "update_permissions", externalID, changes)
}

// updatePolicy implements the read-merge-write cycle Jellyfin requires:
// POST /Users/{id}/Policy overwrites the whole policy document, so the
// current policy is fetched first and only the given fields are changed
func (c *jellyfinClient) updatePolicy(ctx context.Context, op, externalID string, changes map[string]interface{}) (bool, error) {
	user, found, err := c.getUser(ctx, op, externalID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	policy := user.Policy
	if policy == nil {
		policy = map[string]interface{}{}
	}
	for name, value := range changes {
		policy[name] = value
	}

	resp, err := c.do(ctx, http.MethodPost, "/Users/"+externalID+"/Policy", policy)
	if err != nil {
		return false, serviceError(op, c.baseURL, err)
	}
	drainBody(resp)
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, statusError(op, c.baseURL, resp)
}

func (c *jellyfinClient) getUser(ctx context.Context, op, externalID string) (*jellyfinUser, bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "/Users/"+externalID, nil)
	if err != nil {
		return nil, false, serviceError(op, c.baseURL, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		drainBody(resp)
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, statusError(op, c.baseURL, resp)
	}
	defer resp.Body.Close()

	var user jellyfinUser
	if err := decodeJSON(resp.Body, &user); err != nil {
		return nil, false, serviceError(op, c.baseURL, err)
	}
	return &user, true, nil
}

func (c *jellyfinClient) ListAccounts(ctx context.Context) ([]AccountRef, error) {
	resp, err := c.do(ctx, http.MethodGet, "/Users", nil)
	if err != nil {
		return nil, serviceError("list_accounts", c.baseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list_accounts", c.baseURL, resp)
	}
	defer resp.Body.Close()

	var users []jellyfinUser
	if err := decodeJSON(resp.Body, &users); err != nil {
		return nil, serviceError("list_accounts", c.baseURL, err)
	}

	accounts := make([]AccountRef, 0, len(users))
	for _, user := range users {
		enabled := true
		if disabled, ok := user.Policy["IsDisabled"].(bool); ok {
			enabled = !disabled
		}
		accounts = append(accounts, AccountRef{
			ExternalID: user.ID,
			Username:   user.Name,
			Enabled:    enabled,
		})
	}
	return accounts, nil
}

// Close releases the scoped connection
func (c *jellyfinClient) Close() {
	c.http.CloseIdleConnections()
}
