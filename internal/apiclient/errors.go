package apiclient

import "fmt"

// APIError is a non-2xx answer, or a 2xx answer with success:false, from
// the pubimport server.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pubimport API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("pubimport API error: HTTP %d: %s", e.StatusCode, e.Message)
}

// ServerMessage returns the server's own error text.
func (e *APIError) ServerMessage() string {
	return e.Message
}
