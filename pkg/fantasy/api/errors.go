package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the server reports that a resource does not
// exist. On the prediction-fetch path this is a normal outcome, not a
// failure: a user simply has not predicted that match yet.
var ErrNotFound = errors.New("not found")

// APIError is the normalized shape of a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is ErrNotFound or a 404 APIError.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// errorBody matches the server's error envelope. Detail is either a plain
// string or an array of validation entries, so it is kept raw and inspected.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationEntry struct {
	Msg string `json:"msg"`
}

// extractMessage pulls a human-readable message out of an error body.
// Precedence: first validation entry's msg, then a flat detail string,
// then a generic "Error <code>".
func extractMessage(status int, body []byte) string {
	fallback := fmt.Sprintf("Error %d", status)
	if len(body) == 0 {
		return fallback
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return fallback
	}

	var entries []validationEntry
	if err := json.Unmarshal(eb.Detail, &entries); err == nil {
		if len(entries) > 0 && entries[0].Msg != "" {
			return entries[0].Msg
		}
		return fallback
	}

	var flat string
	if err := json.Unmarshal(eb.Detail, &flat); err == nil && flat != "" {
		return flat
	}

	return fallback
}

// newAPIError builds an APIError from a response status and raw body.
func newAPIError(status int, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Message:    extractMessage(status, body),
		Body:       body,
	}
}
