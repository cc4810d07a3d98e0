package model

import "strings"

// Label is a reconciled ground-truth classification from the static analyzer.
type Label string

const (
	LabelPure    Label = "PURE"
	LabelFloss   Label = "FLOSS"
	LabelUnknown Label = "UNKNOWN"
)

// Category is the classification recovered from an oracle response.
// The empty string means no verdict has been extracted yet.
type Category string

const (
	CategoryPure  Category = "PURE"
	CategoryFloss Category = "FLOSS"
)

// ParseCategory normalizes a free-form category string. Anything that is not
// recognizably "pure" or "floss" returns ("", false).
func ParseCategory(s string) (Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PURE":
		return CategoryPure, true
	case "FLOSS":
		return CategoryFloss, true
	}
	return "", false
}

// Confidence is the oracle's self-reported confidence in its verdict.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// ParseConfidence normalizes a free-form confidence string.
func ParseConfidence(s string) (Confidence, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return ConfidenceHigh, true
	case "MEDIUM", "MED":
		return ConfidenceMedium, true
	case "LOW":
		return ConfidenceLow, true
	}
	return "", false
}

// State tracks where a record is in its processing lifecycle. States only
// advance from pending to a terminal state, never back.
type State string

const (
	StatePending State = "PENDING"
	StateDone    State = "DONE"
	StateFailed  State = "FAILED" // oracle/extractor ran, no verdict recoverable
	StateError   State = "ERROR"  // unexpected failure in the per-record pipeline
)

// Terminal reports whether the state is final for resumption purposes.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateError
}

// Record is the authoritative per-commit row of the working set. Identity is
// Key; there is exactly one Record per key.
type Record struct {
	Key         string   `csv:"hash"`
	Repository  string   `csv:"repository"`
	ParentKey   string   `csv:"parent_hash"`
	GroundTruth Label    `csv:"ground_truth"`
	HadConflict bool     `csv:"had_conflict"`
	TruthDetail string   `csv:"ground_truth_detail"`
	Category    Category `csv:"verdict_category"`
	Rationale   string   `csv:"verdict_rationale"`
	Evidence    string   `csv:"verdict_evidence"`
	Confidence  string   `csv:"verdict_confidence"`
	Method      string   `csv:"extraction_method"`
	State       State    `csv:"processing_state"`
	DiffChars   int      `csv:"diff_chars"`
	DiffLines   int      `csv:"diff_lines"`
	AnalyzedAt  string   `csv:"analyzed_at"`
}

// Verdict is the structured result extracted from raw oracle text. Method
// names the cascade stage that produced it and is always recorded.
type Verdict struct {
	Category   Category
	Rationale  string
	Evidence   string
	Confidence Confidence
	Method     string
}

// RawObservation is one row of the static analyzer's raw output before
// reconciliation. Many observations may exist per key.
type RawObservation struct {
	Key             string
	RawLabel        string // "TRUE", "FALSE", "NONE" or ""
	RefactoringType string
	Description     string
}

// GroundTruth is the reconciled, authoritative label for one key.
type GroundTruth struct {
	Key             string
	Label           Label
	HadConflict     bool
	RefactoringType string
	Description     string
	Observations    int
}
