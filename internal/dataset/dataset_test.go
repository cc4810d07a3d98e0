package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refstudy/purity-cli/internal/model"
)

func seed(t *testing.T, dir string, records []model.Record) *Store {
	t.Helper()
	st := &Store{Path: filepath.Join(dir, "working_set.csv")}
	require.NoError(t, st.Save(records))
	return st
}

func sampleRecords() []model.Record {
	return []model.Record{
		{Key: "aaaa1111", Repository: "org/repo", ParentKey: "aaaa0000", GroundTruth: model.LabelPure, State: model.StatePending},
		{Key: "bbbb2222", Repository: "org/repo", ParentKey: "bbbb0000", GroundTruth: model.LabelFloss, State: model.StateDone, Category: model.CategoryFloss},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	st := seed(t, t.TempDir(), sampleRecords())

	loaded, err := st.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "aaaa1111", loaded[0].Key)
	assert.Equal(t, model.StateDone, loaded[1].State)
	assert.Equal(t, model.CategoryFloss, loaded[1].Category)
}

func TestStore_LoadNormalizesEmptyState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "working_set.csv")
	csv := "hash,repository,parent_hash,ground_truth,had_conflict,ground_truth_detail,verdict_category,verdict_rationale,verdict_evidence,verdict_confidence,extraction_method,processing_state,diff_chars,diff_lines,analyzed_at\n" +
		"cccc3333,org/repo,cccc0000,PURE,false,,,,,,,,0,0,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	st := &Store{Path: path}
	loaded, err := st.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, model.StatePending, loaded[0].State)
}

func TestStore_SaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	st := seed(t, dir, sampleRecords())
	require.NoError(t, st.Save(sampleRecords()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "working_set.csv", entries[0].Name())
}

func TestStore_SaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	st := seed(t, dir, sampleRecords())

	records := sampleRecords()
	records[0].State = model.StateDone
	records[0].Category = model.CategoryPure
	require.NoError(t, st.Save(records))

	loaded, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, model.StateDone, loaded[0].State)
	assert.Equal(t, model.CategoryPure, loaded[0].Category)
}

func TestStore_BackupOnce(t *testing.T) {
	dir := t.TempDir()
	st := seed(t, dir, sampleRecords())
	st.BackupDir = filepath.Join(dir, "backups")

	require.NoError(t, st.BackupOnce())
	require.NoError(t, st.BackupOnce())
	require.NoError(t, st.BackupOnce())

	entries, err := os.ReadDir(st.BackupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "working_set.csv.backup_"))
}

func TestStore_BackupPreservesPreRunContent(t *testing.T) {
	dir := t.TempDir()
	st := seed(t, dir, sampleRecords())
	st.BackupDir = filepath.Join(dir, "backups")

	original, err := os.ReadFile(st.Path)
	require.NoError(t, err)

	require.NoError(t, st.BackupOnce())

	mutated := sampleRecords()
	mutated[0].State = model.StateError
	require.NoError(t, st.Save(mutated))
	// A second backup request after mutation must not clobber the snapshot.
	require.NoError(t, st.BackupOnce())

	entries, err := os.ReadDir(st.BackupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	backup, err := os.ReadFile(filepath.Join(st.BackupDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, original, backup)
}

func TestStore_LoadMissingFile(t *testing.T) {
	st := &Store{Path: filepath.Join(t.TempDir(), "absent.csv")}
	_, err := st.Load()
	assert.Error(t, err)
}
