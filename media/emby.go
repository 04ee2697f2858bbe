package media

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// embyClient reuses the Jellyfin client for everything the two API families
// still share. Emby differs in its auth header and in account creation:
// /Users/New takes no password, so the password is set in a second call.
type embyClient struct {
	*jellyfinClient
}

// NewEmbyClient builds an Emby client scoped to a single operation
func NewEmbyClient(params ConnectionParams) Client {
	return &embyClient{
		jellyfinClient: &jellyfinClient{
			baseURL:    strings.TrimRight(params.BaseURL, "/"),
			authHeader: "X-Emby-Token",
			authValue:  params.APIKey,
			http:       newTimeoutClient(params),
		},
	}
}

func (c *embyClient) CreateAccount(ctx context.Context, username, password, email string) (*AccountRef, error) {
	body := map[string]string{"Name": username}
	resp, err := c.do(ctx, http.MethodPost, "/Users/New", body)
	if err != nil {
		return nil, serviceError("create_account", c.baseURL, err)
	}
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

	// Emby only accepts the password once the account exists. A failure here
	// leaves a half-configured account behind, so report it and let the
	// caller's rollback delete the account.
	pwBody := map[string]interface{}{"NewPw": password, "ResetPassword": false}
	pwResp, err := c.do(ctx, http.MethodPost, "/Users/"+user.ID+"/Password", pwBody)
	if err != nil {
		return nil, serviceError("create_account", c.baseURL, err)
	}
	drainBody(pwResp)
	if pwResp.StatusCode != http.StatusOK && pwResp.StatusCode != http.StatusNoContent {
		return nil, statusError("create_account", c.baseURL, pwResp)
	}

	return &AccountRef{ExternalID: user.ID, Username: user.Name, Enabled: true}, nil
}
