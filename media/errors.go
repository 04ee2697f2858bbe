package media

import "fmt"

// ExternalServiceError is returned when talking to a media server fails at
// the transport or auth level. Retrying is the caller's decision, never
// automatic here.
type ExternalServiceError struct {
	Operation string
	ServerURL string
	Err       error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("media client %s against %s failed: %v", e.Operation, e.ServerURL, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// UsernameTakenError is returned by CreateAccount when the server rejects
// the username as a duplicate
type UsernameTakenError struct {
	Username string
}

func (e *UsernameTakenError) Error() string {
	return fmt.Sprintf("username %q already exists on the media server", e.Username)
}

// UnknownServerTypeError is returned by the registry when no client variant
// is registered for the requested server type
type UnknownServerTypeError struct {
	ServerType string
}

func (e *UnknownServerTypeError) Error() string {
	return fmt.Sprintf("unknown server type: %s", e.ServerType)
}
