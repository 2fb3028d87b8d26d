package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error is a non-2xx backend response. Status and the raw body are kept
// for callers that need more than the extracted message.
type Error struct {
	Status  int
	Message string
	Body    []byte
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, body []byte) *Error {
	msg := ""

	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		msg = strings.TrimSpace(env.Message)
	}
	if msg == "" {
		// Not JSON, or no message field: fall back to the raw text body.
		if s := strings.TrimSpace(string(body)); s != "" && !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
			msg = s
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}

	return &Error{Status: status, Message: msg, Body: body}
}
