package lookup

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrorKind controls whether the retry controller re-attempts a call.
type ErrorKind int

const (
	// KindRetryable covers transport errors, timeouts, HTTP 5xx and HTTP 429.
	KindRetryable ErrorKind = iota
	// KindFatal covers HTTP 4xx other than 429 and malformed success bodies.
	KindFatal
)

// previewLimit caps the diagnostic body excerpt carried on errors.
const previewLimit = 1000

// ClassifiedError tags an upstream failure as retryable or fatal. Status is
// nil when no HTTP response was received (transport error, timeout).
type ClassifiedError struct {
	Kind    ErrorKind
	Status  *int
	Preview string
	Message string
}

func (e *ClassifiedError) Error() string {
	if e.Status != nil {
		return fmt.Sprintf("upstream: %s (status %d)", e.Message, *e.Status)
	}
	return "upstream: " + e.Message
}

// IsRetryable reports whether the retry controller may re-attempt the call.
func (e *ClassifiedError) IsRetryable() bool {
	return e.Kind == KindRetryable
}

// AsClassified extracts a ClassifiedError from an error chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var cerr *ClassifiedError
	if errors.As(err, &cerr) {
		return cerr, true
	}
	return nil, false
}

func retryableErr(format string, args ...interface{}) *ClassifiedError {
	return &ClassifiedError{Kind: KindRetryable, Message: fmt.Sprintf(format, args...)}
}

// truncatePreview trims a raw body excerpt to previewLimit characters without
// splitting a multi-byte rune.
func truncatePreview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(s) <= previewLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:previewLimit])
}
