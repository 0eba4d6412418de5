package datastore

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when a game has no datastore credential.
var ErrMissingAPIKey = errors.New("datastore: missing api key")

// APIError is a non-2xx response from the datastore API.
type APIError struct {
	StatusCode int
	StatusText string
	Body       string
	// Permanent indicates the call will not succeed if repeated unchanged.
	Permanent bool
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("datastore: %d %s", e.StatusCode, e.StatusText)
	}
	return fmt.Sprintf("datastore: %d %s: %s", e.StatusCode, e.StatusText, e.Body)
}

// IsPermanent reports whether err is an APIError that will not succeed on
// retry.
func IsPermanent(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Permanent
	}
	return false
}

// ClassifyHTTPError returns nil for 2xx responses, otherwise an APIError.
// 4xx responses are permanent except 408 and 429; 5xx are transient.
func ClassifyHTTPError(statusCode int, statusText, body string) *APIError {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	ae := &APIError{
		StatusCode: statusCode,
		StatusText: statusText,
		Body:       body,
	}
	switch {
	case statusCode == 408, statusCode == 429:
		ae.Permanent = false
	case statusCode >= 400 && statusCode < 500:
		ae.Permanent = true
	default:
		ae.Permanent = false
	}
	return ae
}
