package sanitize

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTextRemovesLoneSurrogates(t *testing.T) {
	// A lone high surrogate cannot be represented as a valid rune in a Go
	// string; simulate the failure mode by injecting a raw invalid byte
	// sequence, which is how such content actually arrives over the wire.
	s := "hello" + string([]byte{0xED, 0xA0, 0x80}) + "world"
	out := SanitizeText(s)
	require.True(t, utf8.ValidString(out))
	assert.Equal(t, "helloworld", out)
}

func TestSanitizeTextEmpty(t *testing.T) {
	assert.Equal(t, "", SanitizeText(""))
}

func TestSanitizeTextPassesCleanInput(t *testing.T) {
	assert.Equal(t, "plain ascii and 日本語", SanitizeText("plain ascii and 日本語"))
}

func TestStripRoleMarkersIdempotent(t *testing.T) {
	inputs := []string{
		"Human: hello\n\nAssistant:",
		"plain text",
		"System: System: nested",
		"",
		"   Assistant:   trailing text   Human:   ",
	}
	for _, in := range inputs {
		once := StripRoleMarkers(in)
		twice := StripRoleMarkers(once)
		assert.Equal(t, once, twice, "not idempotent for %q", in)
	}
}

func TestStripRoleMarkersRemovesSurroundingMarkers(t *testing.T) {
	assert.Equal(t, "hello", StripRoleMarkers("Human: hello\n\nAssistant:"))
	assert.Equal(t, "hello", StripRoleMarkers("  human:  hello  "))
}

func TestStripRoleMarkersLeavesPlainText(t *testing.T) {
	assert.Equal(t, "nothing to strip here", StripRoleMarkers("nothing to strip here"))
}
