// ABOUTME: Typed errors for sales API requests
// ABOUTME: Maps HTTP status codes to sentinel errors usable with errors.Is
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	ErrNetwork      = errors.New("network error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
)

// StatusError is a response the server answered with a non-2xx status.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
	// Fields holds per-field messages from a validation response.
	Fields map[string]string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

func (e *StatusError) Is(target error) bool {
	return target != nil && target == sentinelFor(e.Status)
}

func sentinelFor(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status >= 500:
		return ErrServer
	}
	return nil
}

// NetworkError means the request never produced a response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// MessageOf returns the server-provided message carried by err, if any.
func MessageOf(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

// FieldErrors returns per-field validation messages carried by err.
func FieldErrors(err error) map[string]string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Fields
	}
	return nil
}

type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

type fieldItem struct {
	Field   string `json:"field"`
	Path    string `json:"path"`
	Param   string `json:"param"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

// maxBodyMessage caps how much of a non-JSON error body is kept, in bytes.
const maxBodyMessage = 200

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func decodeError(method, path string, status int, body []byte) *StatusError {
	se := &StatusError{Method: method, Path: path, Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		se.Message = truncate(strings.TrimSpace(string(body)), maxBodyMessage)
		return se
	}

	// "error" is either a string or an object carrying its own message.
	if len(eb.Error) > 0 {
		var s string
		if json.Unmarshal(eb.Error, &s) == nil {
			se.Message = s
		} else {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(eb.Error, &nested) == nil {
				se.Message = nested.Message
			}
		}
	}
	if se.Message == "" {
		se.Message = eb.Message
	}

	se.Fields = decodeFields(eb.Errors)
	if se.Message == "" && len(se.Fields) > 0 {
		keys := make([]string, 0, len(se.Fields))
		for k := range se.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		se.Message = se.Fields[keys[0]]
	}
	return se
}

// decodeFields accepts {"email": "taken"}, {"email": ["taken"]} or
// [{"field": "email", "message": "taken"}].
func decodeFields(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := map[string]string{}

	var asMap map[string]json.RawMessage
	if json.Unmarshal(raw, &asMap) == nil {
		for k, v := range asMap {
			var s string
			if json.Unmarshal(v, &s) == nil {
				out[k] = s
				continue
			}
			var list []string
			if json.Unmarshal(v, &list) == nil && len(list) > 0 {
				out[k] = list[0]
			}
		}
		return out
	}

	var items []fieldItem
	if json.Unmarshal(raw, &items) == nil {
		for _, it := range items {
			key := firstNonEmpty(it.Field, it.Path, it.Param)
			msg := firstNonEmpty(it.Message, it.Msg)
			if key != "" {
				out[key] = msg
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
