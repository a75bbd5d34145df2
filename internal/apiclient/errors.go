package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is any non-2xx answer from the custody API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
}

// TimeoutError is returned when the fixed client timeout elapses.
type TimeoutError struct {
	Method string
	Path   string
	Err    error
}

func (e *TimeoutError) Error() string {
	return "request timed out"
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// DetailMessage returns the server-provided message carried by err, or fallback
// when the server said nothing usable.
func DetailMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// extractDetail pulls a human message out of an error body. FastAPI sends
// {"detail": "..."} or {"detail": [{"msg": "..."}]}; other stacks use error/message.
func extractDetail(raw []byte) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	if d, ok := body["detail"]; ok {
		var s string
		if json.Unmarshal(d, &s) == nil {
			return strings.TrimSpace(s)
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(d, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}

	for _, key := range []string{"error", "message"} {
		if v, ok := body[key]; ok {
			var s string
			if json.Unmarshal(v, &s) == nil {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
