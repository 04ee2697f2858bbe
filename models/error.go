package models

// ErrorMessageResponse is the body config.ErrorStatus writes on every
// handler error path
type ErrorMessageResponse struct {
	Response string `json:"response"`
}
