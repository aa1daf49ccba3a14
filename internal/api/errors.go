package api

import (
	"fmt"
	"net/http"
)

// APIError is a decoded error response. Message is the server's "error"
// field; ErrorCode is the numeric code (1xxx validation, 2xxx state, 3xxx auth,
// 4xxx internal).
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	message := e.Message
	if message == "" {
		message = http.StatusText(e.Status)
	}
	if message == "" {
		message = "request failed"
	}
	switch {
	case e.ErrorCode != 0:
		return fmt.Sprintf("%s (HTTP %d, error %d)", message, e.Status, e.ErrorCode)
	case e.Status > 0:
		return fmt.Sprintf("%s (HTTP %d)", message, e.Status)
	default:
		return message
	}
}

// SessionRejected reports whether the server refused the session token.
func (e *APIError) SessionRejected() bool {
	return e != nil && e.Status == http.StatusUnauthorized
}

// Throttled reports whether the server is rate limiting the caller.
func (e *APIError) Throttled() bool {
	return e != nil && e.Status == http.StatusTooManyRequests
}

// FromFilesManager reports whether the response carried this API's error body.
func (e *APIError) FromFilesManager() bool {
	return e != nil && (e.Code != "" || e.ErrorCode != 0)
}
