// Package media provides a uniform client abstraction over the account
// management APIs of external media servers (Jellyfin, Emby, Plex). Each
// server family implements the Client interface and declares which
// operations it supports through an explicit capability set; callers must
// check capabilities before invoking the matching operation.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Capability is a declared optional feature of a client variant
type Capability string

// Capabilities a client variant can declare
const (
	CapabilityCreateAccount        Capability = "create_account"
	CapabilityDeleteAccount        Capability = "delete_account"
	CapabilityToggleEnabled        Capability = "toggle_enabled"
	CapabilityLibraryAccessControl Capability = "library_access_control"
	CapabilityPermissionControl    Capability = "permission_control"
)

// LibraryInfo describes one content library as reported by a media server
type LibraryInfo struct {
	ExternalID  string `json:"externalId"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// AccountRef describes one account as known to a media server
type AccountRef struct {
	ExternalID string `json:"externalId"`
	Username   string `json:"username"`
	Enabled    bool   `json:"enabled"`
}

// ConnectionParams carries the per-server connection values a client needs.
// Timeout bounds every remote call; when zero, DefaultTimeout applies.
type ConnectionParams struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// DefaultTimeout bounds every external media server call
const DefaultTimeout = 30 * time.Second

// Client is the uniform contract every media server variant implements.
//
// Capabilities is pure and performs no I/O. Invoking an operation the
// variant does not declare is a programmer error, not a runtime failure
// path. Delete/enable/access operations return (false, nil) when the
// account does not exist server-side, because the caller may be the
// rollback path retrying against already-absent state. Transport and auth
// failures surface as *ExternalServiceError; duplicate usernames during
// account creation surface as *UsernameTakenError.
type Client interface {
	Capabilities() []Capability
	TestConnection(ctx context.Context) bool
	ListLibraries(ctx context.Context) ([]LibraryInfo, error)
	CreateAccount(ctx context.Context, username, password, email string) (*AccountRef, error)
	DeleteAccount(ctx context.Context, externalID string) (bool, error)
	SetEnabled(ctx context.Context, externalID string, enabled bool) (bool, error)
	SetLibraryAccess(ctx context.Context, externalID string, libraryIDs []string) (bool, error)
	UpdatePermissions(ctx context.Context, externalID string, permissions map[string]bool) (bool, error)
	ListAccounts(ctx context.Context) ([]AccountRef, error)
	Close()
}

// Supports reports whether the client declares the given capability
func Supports(c Client, capability Capability) bool {
	for _, dc := range c.Capabilities() {
		if dc == capability {
			return true
		}
	}
	return false
}

// decodeJSON drains and decodes a response body into v
func decodeJSON(body io.Reader, v interface{}) error {
	return json.NewDecoder(body).Decode(v)
}

// drainBody reads a capped prefix of the response body for error inspection
// and closes it
func drainBody(resp *http.Response) string {
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return ""
	}
	return string(b)
}

// newTimeoutClient builds the scoped http client a variant holds for the
// duration of one saga or reconciliation call
func newTimeoutClient(params ConnectionParams) *http.Client {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// serviceError wraps a transport or auth failure into an ExternalServiceError
func serviceError(op, serverURL string, err error) *ExternalServiceError {
	return &ExternalServiceError{Operation: op, ServerURL: serverURL, Err: err}
}

// statusError builds an ExternalServiceError from an unexpected HTTP status
func statusError(op, serverURL string, resp *http.Response) *ExternalServiceError {
	body := drainBody(resp)
	return &ExternalServiceError{
		Operation: op,
		ServerURL: serverURL,
		Err:       fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body),
	}
}
