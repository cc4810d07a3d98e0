package failures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Outcome is one record's result within a session, in processing order.
type Outcome struct {
	Key       string    `json:"hash"`
	State     string    `json:"state"`
	Method    string    `json:"extraction_method,omitempty"`
	Category  string    `json:"category,omitempty"`
	Elapsed   float64   `json:"elapsed_secs"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionJournal is the per-run statistics file. It is descriptive only;
// resumption reads the working set, never the journal.
type SessionJournal struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Model     string    `json:"model"`
	Backend   string    `json:"backend"`

	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Errors    int `json:"errors"`
	Skipped   int `json:"skipped"`

	Outcomes []Outcome `json:"outcomes"`

	path string
}

// NewSessionJournal creates a journal backed by a file under dir, named after
// a fresh session id.
func NewSessionJournal(dir, backend, oracleModel string) *SessionJournal {
	id := uuid.NewString()
	return &SessionJournal{
		SessionID: id,
		StartedAt: time.Now(),
		Model:     oracleModel,
		Backend:   backend,
		path:      filepath.Join(dir, "session_"+id+".json"),
	}
}

// Record appends one outcome and bumps the matching counter.
func (j *SessionJournal) Record(o Outcome) {
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}
	j.Outcomes = append(j.Outcomes, o)
	switch o.State {
	case "DONE":
		j.Succeeded++
	case "FAILED":
		j.Failed++
	case "ERROR":
		j.Errors++
	}
}

// Skip counts a record that was not processed at all.
func (j *SessionJournal) Skip() { j.Skipped++ }

// Flush rewrites the journal file with the current contents. Called after
// every record and once more at session end; losing a flush costs statistics,
// not data.
func (j *SessionJournal) Flush() error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return eris.Wrap(err, "failures: create journal dir")
	}
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return eris.Wrap(err, "failures: marshal journal")
	}
	if err := os.WriteFile(j.path, data, 0o644); err != nil {
		return eris.Wrapf(err, "failures: write %s", j.path)
	}
	return nil
}

// Close stamps the end time and flushes a final time.
func (j *SessionJournal) Close() error {
	j.EndedAt = time.Now()
	return j.Flush()
}

// Path returns the journal file location.
func (j *SessionJournal) Path() string { return j.path }
