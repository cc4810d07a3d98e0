// Package complete fills the gaps an extraction left behind. Every DONE
// record must carry all verdict fields, so missing ones are substituted from
// commit context or from fixed defaults, and each substitution is reported so
// the caller can log what was invented.
package complete

import (
	"fmt"
	"strings"

	"github.com/refstudy/purity-cli/internal/model"
)

// Context is the commit metadata available for filling gaps.
type Context struct {
	Key           string
	Repository    string
	ParentKey     string
	CommitMessage string
}

// Substitution records one field the completer filled and where the value
// came from.
type Substitution struct {
	Field  string
	Source string // "context" or "default"
}

const (
	defaultRationale = "Analysis completed but detailed justification not available"
	defaultEvidence  = "Not provided"
)

// Complete returns a verdict with every field populated. The input verdict is
// not modified. A missing category defaults to FLOSS: when the oracle said
// something but never committed to a class, treating the commit as pure would
// contaminate the positive set.
func Complete(v model.Verdict, ctx Context) (model.Verdict, []Substitution) {
	var subs []Substitution

	if v.Category == "" {
		v.Category = model.CategoryFloss
		subs = append(subs, Substitution{Field: "category", Source: "default"})
	}

	if strings.TrimSpace(v.Rationale) == "" {
		if msg := strings.TrimSpace(ctx.CommitMessage); msg != "" {
			v.Rationale = fmt.Sprintf("Derived from commit message: %s", firstLine(msg))
			subs = append(subs, Substitution{Field: "rationale", Source: "context"})
		} else {
			v.Rationale = defaultRationale
			subs = append(subs, Substitution{Field: "rationale", Source: "default"})
		}
	}

	if strings.TrimSpace(v.Evidence) == "" {
		v.Evidence = defaultEvidence
		subs = append(subs, Substitution{Field: "evidence", Source: "default"})
	}

	if v.Confidence == "" {
		v.Confidence = model.ConfidenceLow
		subs = append(subs, Substitution{Field: "confidence", Source: "default"})
	}

	return v, subs
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
