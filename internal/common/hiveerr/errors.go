// Package hiveerr provides the turn-level error taxonomy shared by every
// agent implementation and the dispatcher.
package hiveerr

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies an error into one of the six handling strategies the
// core distinguishes between.
type Category string

const (
	CategoryTransient       Category = "transient"
	CategoryRateLimit       Category = "rate_limit"
	CategoryProviderLogical Category = "provider_logical"
	CategoryProtocol        Category = "protocol"
	CategoryEncoding        Category = "encoding"
	CategoryFatal           Category = "fatal"
)

// HiveError is an application-specific error carrying a category, used so
// callers can branch with errors.Is/errors.As instead of string matching.
type HiveError struct {
	Category Category
	Message  string
	Err      error
}

func (e *HiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *HiveError) Unwrap() error { return e.Err }

func New(cat Category, message string) *HiveError {
	return &HiveError{Category: cat, Message: message}
}

func Wrap(cat Category, message string, err error) *HiveError {
	return &HiveError{Category: cat, Message: message, Err: err}
}

// CategoryOf extracts the category of err, defaulting to CategoryFatal when
// err is not a *HiveError.
func CategoryOf(err error) Category {
	var he *HiveError
	if errors.As(err, &he) {
		return he.Category
	}
	return CategoryFatal
}

// rateLimitSubstrings are the heuristic markers providers use in their error
// bodies to indicate throttling; there is no standard rate-limit error type
// across the three providers this core talks to.
var rateLimitSubstrings = []string{"429", "rate limit", "rate_limit", "too many requests"}

// IsRateLimited reports whether err's text matches a known rate-limit marker.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	for _, s := range rateLimitSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// expirySubstrings mark a Codex thread id that the provider no longer
// recognizes as resumable.
var expirySubstrings = []string{"not found", "expired"}

// IsThreadExpired reports whether err indicates the Codex thread/session
// token is no longer valid.
func IsThreadExpired(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	for _, s := range expirySubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
