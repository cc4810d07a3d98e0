// Package dataset owns the working-set CSV. The file is the single source of
// truth for batch resumption, so saves are atomic and a pre-run backup is
// taken before the first mutation of a session.
package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/refstudy/purity-cli/internal/model"
)

// Store reads and writes the working set at Path. BackupDir defaults to the
// dataset's own directory.
type Store struct {
	Path      string
	BackupDir string

	backedUp bool
}

// Load parses the working set into records. A record with no processing
// state yet is normalized to PENDING so resumption logic never sees "".
func (s *Store) Load() ([]model.Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", s.Path)
	}

	var records []model.Record
	if err := csvutil.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse %s", s.Path)
	}

	for i := range records {
		if records[i].State == "" {
			records[i].State = model.StatePending
		}
	}

	zap.L().Info("dataset: loaded working set",
		zap.String("path", s.Path),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// Save writes all records back atomically: marshal to a temp file in the
// dataset's directory, then rename over the original. A crash mid-save leaves
// either the old file or the new one, never a truncated mix.
func (s *Store) Save(records []model.Record) error {
	data, err := csvutil.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "dataset: marshal records")
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "dataset: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "dataset: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "dataset: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "dataset: close temp file")
	}

	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "dataset: rename over %s", s.Path)
	}
	return nil
}

// BackupOnce copies the current on-disk file to a timestamped sibling. Only
// the first call of a session does anything; later calls are no-ops so a run
// cannot clobber its own pre-run snapshot.
func (s *Store) BackupOnce() error {
	if s.backedUp {
		return nil
	}

	dir := s.BackupDir
	if dir == "" {
		dir = filepath.Dir(s.Path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "dataset: create backup dir")
	}

	name := fmt.Sprintf("%s.backup_%s", filepath.Base(s.Path), time.Now().Format("20060102_150405"))
	dst := filepath.Join(dir, name)

	if err := copyFile(s.Path, dst); err != nil {
		return eris.Wrapf(err, "dataset: backup to %s", dst)
	}

	s.backedUp = true
	zap.L().Info("dataset: backup created", zap.String("path", dst))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
