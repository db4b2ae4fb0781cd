package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// NetworkMessage is shown when a request never produced a response.
const NetworkMessage = "Network error, please try again"

// ErrMalformedResponse is returned by write calls whose success body lacks
// the fields the caller depends on. Read calls degrade to empty results instead.
var ErrMalformedResponse = errors.New("malformed backend response")

// FetchError is a non-2xx response from the backend. Message is already
// resolved through the detail, raw text, static fallback chain.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// NetworkError is a request that failed before a response arrived.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}

// UserMessage turns any error from this package into the text shown to the
// user. It never exposes a raw Go error string.
func UserMessage(err error, fallback string) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		if fe.Message != "" {
			return fe.Message
		}
		return fallback
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return NetworkMessage
	}
	return fallback
}

// MessageFromBody resolves an error body to a message: a JSON "detail" (or
// "message") field first, then the raw body text, then fallback.
func MessageFromBody(body []byte, fallback string) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return fallback
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err == nil {
		if msg := detailText(env["detail"]); msg != "" {
			return msg
		}
		if msg := stringField(env["message"]); msg != "" {
			return msg
		}
	}

	return text
}

// detailText accepts "detail" as a string, an object with msg/message, or a
// list of such objects as validation failures are reported.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if s := stringField(raw); s != "" {
		return s
	}

	var obj struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Msg != "" {
			return obj.Msg
		}
		return obj.Message
	}

	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
