package failures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendAndLoad(t *testing.T) {
	st := &Store{Path: filepath.Join(t.TempDir(), "failures.jsonl")}

	require.NoError(t, st.Append(Entry{
		SessionID:   "s1",
		Key:         "aaaa1111",
		Repository:  "org/repo",
		Reason:      "extraction failed",
		RawResponse: "pure pure pure pure",
	}))
	require.NoError(t, st.Append(Entry{
		SessionID: "s1",
		Key:       "bbbb2222",
		Reason:    "extraction failed on simplified retry",
	}))

	entries, err := st.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "aaaa1111", entries[0].Key)
	assert.Equal(t, "pure pure pure pure", entries[0].RawResponse)
	assert.Equal(t, len("pure pure pure pure"), entries[0].ResponseChars)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestStore_RawResponseKeptWhole(t *testing.T) {
	st := &Store{Path: filepath.Join(t.TempDir(), "failures.jsonl")}
	big := strings.Repeat("degenerate output ", 5000)

	require.NoError(t, st.Append(Entry{Key: "cccc3333", RawResponse: big}))

	entries, err := st.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, big, entries[0].RawResponse)
}

func TestStore_OneObjectPerLine(t *testing.T) {
	st := &Store{Path: filepath.Join(t.TempDir(), "failures.jsonl")}
	require.NoError(t, st.Append(Entry{Key: "k1", RawResponse: "multi\nline\nresponse"}))
	require.NoError(t, st.Append(Entry{Key: "k2"}))

	data, err := os.ReadFile(st.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var e Entry
		assert.NoError(t, json.Unmarshal([]byte(line), &e))
	}
}

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	st := &Store{Path: filepath.Join(t.TempDir(), "absent.jsonl")}
	entries, err := st.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSessionJournal_CountersAndOrder(t *testing.T) {
	j := NewSessionJournal(t.TempDir(), "ollama", "test-model")

	j.Record(Outcome{Key: "a", State: "DONE"})
	j.Record(Outcome{Key: "b", State: "FAILED"})
	j.Record(Outcome{Key: "c", State: "ERROR"})
	j.Record(Outcome{Key: "d", State: "DONE"})
	j.Skip()
	j.Skip()

	assert.Equal(t, 2, j.Succeeded)
	assert.Equal(t, 1, j.Failed)
	assert.Equal(t, 1, j.Errors)
	assert.Equal(t, 2, j.Skipped)
	require.Len(t, j.Outcomes, 4)
	assert.Equal(t, "a", j.Outcomes[0].Key)
	assert.Equal(t, "d", j.Outcomes[3].Key)
}

func TestSessionJournal_FlushRewritesFile(t *testing.T) {
	dir := t.TempDir()
	j := NewSessionJournal(dir, "ollama", "test-model")

	j.Record(Outcome{Key: "a", State: "DONE"})
	require.NoError(t, j.Flush())
	j.Record(Outcome{Key: "b", State: "DONE"})
	require.NoError(t, j.Close())

	data, err := os.ReadFile(j.Path())
	require.NoError(t, err)

	var loaded SessionJournal
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, j.SessionID, loaded.SessionID)
	assert.Equal(t, 2, loaded.Succeeded)
	assert.Len(t, loaded.Outcomes, 2)
	assert.False(t, loaded.EndedAt.IsZero())
}

func TestSessionJournal_UniqueSessionIDs(t *testing.T) {
	dir := t.TempDir()
	a := NewSessionJournal(dir, "ollama", "m")
	b := NewSessionJournal(dir, "ollama", "m")
	assert.NotEqual(t, a.SessionID, b.SessionID)
	assert.NotEqual(t, a.Path(), b.Path())
}
