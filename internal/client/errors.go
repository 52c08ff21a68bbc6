package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNotFound is returned when the server does not know the requested job.
// Callers test for it with errors.Is.
var ErrNotFound = errors.New("job not found")

// ValidationError means the server rejected the submitted input. Detail is
// the server's own message and is meant to be shown to the user verbatim.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

// APIError is any other non-success response from the server.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

// The server wraps every error in a {"detail": ...} body. Detail is usually
// a plain string, but 422 validation responses carry a list of structured
// entries instead.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// detailText flattens the detail field into one human-readable message.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Validation entries look like {"loc": ["body", "params", "fps"],
	// "msg": "...", "type": "..."}.
	var entries []struct {
		Loc []interface{} `json:"loc"`
		Msg string        `json:"msg"`
	}
	if err := json.Unmarshal(raw, &entries); err == nil && len(entries) > 0 {
		parts := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Msg == "" {
				continue
			}
			if len(e.Loc) > 0 {
				if field, ok := e.Loc[len(e.Loc)-1].(string); ok {
					parts = append(parts, field+": "+e.Msg)
					continue
				}
			}
			parts = append(parts, e.Msg)
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	// Some other JSON shape, better verbatim than swallowed.
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

// decodeError turns a non-2xx response into the matching error value. Bodies
// that are not the documented shape fall back to the HTTP status text.
func decodeError(resp *http.Response) error {
	var body errorBody
	detail := ""
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		detail = detailText(body.Detail)
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", detail, ErrNotFound)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{Detail: detail}
	default:
		return &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}
}
