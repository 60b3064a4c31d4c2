package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRequestFailed marks transport-level failures: network errors, timeouts
// and bodies that are not JSON.
var ErrRequestFailed = errors.New("backend request failed")

// Error is an application-level failure reported by the backend, either as a
// non-2xx response or as an `error` field embedded in a POST response.
type Error struct {
	StatusCode int             `json:"-"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Detail     json.RawMessage `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("backend error %s (%d): %s", e.Code, e.StatusCode, e.Message)
	case e.Message != "":
		return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
}

// embeddedError extracts the `error` member of a JSON object body. The
// backend sends an object; a bare string is tolerated.
func embeddedError(body []byte) *Error {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if len(envelope.Error) == 0 || string(envelope.Error) == "null" {
		return nil
	}
	var apiErr Error
	if err := json.Unmarshal(envelope.Error, &apiErr); err == nil {
		return &apiErr
	}
	var msg string
	if err := json.Unmarshal(envelope.Error, &msg); err == nil {
		return &Error{Message: msg}
	}
	return &Error{Message: string(envelope.Error)}
}
