package hiveerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHiveErrorMessageIncludesWrappedErr(t *testing.T) {
	inner := errors.New("connection reset")
	he := Wrap(CategoryTransient, "send failed", inner)
	assert.Contains(t, he.Error(), "transient")
	assert.Contains(t, he.Error(), "send failed")
	assert.Contains(t, he.Error(), "connection reset")
	assert.ErrorIs(t, he, inner)
}

func TestCategoryOfDefaultsToFatalForPlainError(t *testing.T) {
	assert.Equal(t, CategoryFatal, CategoryOf(errors.New("boom")))
}

func TestCategoryOfExtractsHiveErrorCategory(t *testing.T) {
	he := New(CategoryProtocol, "bad json")
	assert.Equal(t, CategoryProtocol, CategoryOf(he))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(errors.New("429 Too Many Requests")))
	assert.True(t, IsRateLimited(errors.New("error: rate_limit_exceeded")))
	assert.False(t, IsRateLimited(errors.New("connection refused")))
	assert.False(t, IsRateLimited(nil))
}

func TestIsThreadExpired(t *testing.T) {
	assert.True(t, IsThreadExpired(errors.New("thread th_123 not found")))
	assert.True(t, IsThreadExpired(errors.New("session expired")))
	assert.False(t, IsThreadExpired(errors.New("disk full")))
}
