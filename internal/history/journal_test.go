package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndLoadTail(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, "3", "Backend", nil)

	j.Append("user", "Human: hello\n\nAssistant:")
	j.Append("assistant", "hi there")

	entries := j.LoadTail(10)
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Content)
	assert.Equal(t, "hi there", entries[1].Content)

	path := filepath.Join(dir, "history", "3-backend.jsonl")
	assert.FileExists(t, path)
}

func TestAppendBareMarkerWritesNothing(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, "1", "Architect", nil)

	j.Append("assistant", "Assistant:")
	entries := j.LoadTail(10)
	assert.Empty(t, entries)
}

func TestLoadTailMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, "1", "Architect", nil)
	assert.Empty(t, j.LoadTail(10))
}

func TestLoadTailRespectsLimit(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, "1", "Architect", nil)
	for i := 0; i < 5; i++ {
		j.Append("user", "message")
	}
	assert.Len(t, j.LoadTail(2), 2)
}

func TestBuildContextRestoreEmptyWhenNoHistory(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, "1", "Architect", nil)
	_, ok := j.BuildContextRestore(10)
	assert.False(t, ok)
}

func TestBuildContextRestoreIncludesHeaderAndEntries(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, "2", "Infra", nil)
	j.Append("user", "set up the cluster")
	j.Append("assistant", "done")

	preamble, ok := j.BuildContextRestore(10)
	require.True(t, ok)
	assert.Contains(t, preamble, "HIVEMIND CONTEXT RESTORE - Infra")
	assert.Contains(t, preamble, "set up the cluster")
	assert.Contains(t, preamble, "done")
}
