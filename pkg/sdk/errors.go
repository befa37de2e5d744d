package sdk

import "fmt"

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vacmatch: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}
