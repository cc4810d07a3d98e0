// Package groundtruth collapses the static analyzer's raw per-refactoring
// labels into one authoritative classification per commit.
package groundtruth

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/refstudy/purity-cli/internal/model"
)

// minKeyLen is the shortest commit hash accepted from the raw export.
// Shorter values are malformed rows, not abbreviations.
const minKeyLen = 7

// Result carries the reconciled label set plus bookkeeping about the input.
type Result struct {
	Labels       []model.GroundTruth
	FilteredRows int
	ConflictKeys int
}

// Reconcile groups raw observations by key and resolves each group to a
// single label. Any FALSE in a group wins: an impurity signal from even one
// detected refactoring dominates, so conflicting groups resolve to FLOSS and
// are flagged. Groups of only TRUE (with or without NONE) resolve to PURE;
// groups of only NONE resolve to UNKNOWN.
func Reconcile(observations []model.RawObservation) Result {
	groups := make(map[string][]model.RawObservation)
	var order []string
	filtered := 0

	for _, obs := range observations {
		key := strings.TrimSpace(obs.Key)
		if len(key) < minKeyLen || strings.EqualFold(key, "none") {
			filtered++
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], obs)
	}

	if filtered > 0 {
		zap.L().Info("reconcile: dropped rows with missing or malformed keys",
			zap.Int("filtered", filtered),
		)
	}

	res := Result{FilteredRows: filtered}
	sort.Strings(order)

	for _, key := range order {
		gt := resolveGroup(key, groups[key])
		if gt.HadConflict {
			res.ConflictKeys++
		}
		res.Labels = append(res.Labels, gt)
	}

	if res.ConflictKeys > 0 {
		zap.L().Warn("reconcile: resolved conflicting classifications",
			zap.Int("keys", res.ConflictKeys),
		)
	}

	return res
}

func resolveGroup(key string, group []model.RawObservation) model.GroundTruth {
	hasTrue, hasFalse := false, false
	for _, obs := range group {
		switch strings.ToUpper(strings.TrimSpace(obs.RawLabel)) {
		case "TRUE":
			hasTrue = true
		case "FALSE":
			hasFalse = true
		}
	}

	gt := model.GroundTruth{Key: key, Observations: len(group)}

	switch {
	case hasFalse:
		gt.Label = model.LabelFloss
		gt.HadConflict = hasTrue
	case hasTrue:
		// TRUE alone or TRUE mixed with NONE: the detected refactorings that
		// were classified are all pure.
		gt.Label = model.LabelPure
	default:
		gt.Label = model.LabelUnknown
	}

	if gt.HadConflict {
		// Keep every observation's description so the disagreement stays
		// visible downstream, each prefixed with the label that produced it.
		gt.Description = joinDistinct(group, func(o model.RawObservation) string {
			if o.Description == "" {
				return ""
			}
			return "[" + strings.ToUpper(strings.TrimSpace(o.RawLabel)) + "] " + o.Description
		})
		gt.RefactoringType = joinDistinct(group, func(o model.RawObservation) string {
			return o.RefactoringType
		})
	} else {
		// No conflict: first-seen non-empty fields win.
		for _, obs := range group {
			if gt.Description == "" {
				gt.Description = obs.Description
			}
			if gt.RefactoringType == "" {
				gt.RefactoringType = obs.RefactoringType
			}
		}
	}

	return gt
}

// joinDistinct concatenates distinct non-empty projections of the group with
// " | ", preserving first-seen order.
func joinDistinct(group []model.RawObservation, f func(model.RawObservation) string) string {
	var parts []string
	seen := make(map[string]bool)
	for _, obs := range group {
		v := f(obs)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		parts = append(parts, v)
	}
	return strings.Join(parts, " | ")
}
