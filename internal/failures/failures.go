// Package failures preserves what could not be classified. The failure store
// keeps every raw oracle response that defeated the extractor, untruncated,
// so new extraction strategies can be developed against real failures.
package failures

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

// Entry is one extraction failure. RawResponse is stored whole; truncating it
// would defeat the point of keeping it.
type Entry struct {
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"session_id"`
	Key           string    `json:"hash"`
	Repository    string    `json:"repository"`
	Reason        string    `json:"reason"`
	RawResponse   string    `json:"raw_response"`
	PromptChars   int       `json:"prompt_chars"`
	ResponseChars int       `json:"response_chars"`
}

// Store appends failure entries to a JSONL file, one object per line. Each
// append is synced before returning; a crash never loses a recorded failure.
type Store struct {
	Path string
}

// Append writes one entry. The parent directory is created on first use.
func (s *Store) Append(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.ResponseChars = len(e.RawResponse)

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return eris.Wrap(err, "failures: create dir")
	}

	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return eris.Wrapf(err, "failures: open %s", s.Path)
	}
	defer f.Close()

	line, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "failures: marshal entry")
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return eris.Wrapf(err, "failures: append %s", s.Path)
	}
	if err := f.Sync(); err != nil {
		return eris.Wrapf(err, "failures: sync %s", s.Path)
	}
	return nil
}

// Load reads all entries back, skipping blank lines. Used by the failures
// subcommand for inspection.
func (s *Store) Load() ([]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "failures: read %s", s.Path)
	}

	var entries []Entry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, eris.Wrapf(err, "failures: parse %s", s.Path)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
