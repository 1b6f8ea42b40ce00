package parkingapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/pkg/wire"
)

// classifier maps a non-2xx status to an error kind for one operation.
type classifier func(status int) error

// common handles the statuses that mean the same thing for every operation.
func common(status int, fallback error) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrAuth
	case status >= http.StatusInternalServerError:
		return domain.ErrServer
	default:
		return fallback
	}
}

var (
	loginKind = func(status int) error {
		if status >= http.StatusInternalServerError {
			return domain.ErrServer
		}
		return domain.ErrAuth
	}
	registerKind = func(status int) error {
		if status >= http.StatusInternalServerError {
			return domain.ErrServer
		}
		return domain.ErrRegistration
	}
	listKind   = func(status int) error { return common(status, domain.ErrRejected) }
	createKind = func(status int) error { return common(status, domain.ErrSlotCreation) }
	bookKind   = func(status int) error { return common(status, domain.ErrBookingConflict) }
	cancelKind = func(status int) error {
		if status == http.StatusNotFound {
			return domain.ErrNotFound
		}
		return common(status, domain.ErrBookingConflict)
	}
	deleteKind = func(status int) error {
		if status == http.StatusNotFound {
			return domain.ErrNotFound
		}
		return common(status, domain.ErrRejected)
	}
)

const maxMessageLen = 200

// errorMessage extracts the server's explanation from an error body.
func errorMessage(status int, body []byte) string {
	var env wire.ErrorResponse
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil && s != "" {
		return s
	}
	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return http.StatusText(status)
	}
	return truncate(text, maxMessageLen)
}

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
