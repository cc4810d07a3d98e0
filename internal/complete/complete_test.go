package complete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refstudy/purity-cli/internal/model"
)

func TestComplete_FullVerdictUntouched(t *testing.T) {
	v := model.Verdict{
		Category:   model.CategoryPure,
		Rationale:  "Pure rename",
		Evidence:   "lines 1-2",
		Confidence: model.ConfidenceHigh,
	}

	out, subs := Complete(v, Context{})
	assert.Equal(t, v, out)
	assert.Empty(t, subs)
}

func TestComplete_MissingCategoryDefaultsFloss(t *testing.T) {
	out, subs := Complete(model.Verdict{Rationale: "something"}, Context{})
	assert.Equal(t, model.CategoryFloss, out.Category)
	require.Len(t, subs, 3) // category, evidence, confidence
	assert.Equal(t, "category", subs[0].Field)
	assert.Equal(t, "default", subs[0].Source)
}

func TestComplete_RationaleFromCommitMessage(t *testing.T) {
	out, subs := Complete(model.Verdict{Category: model.CategoryPure}, Context{
		CommitMessage: "Refactor: extract validation helper\n\nLong body here.",
	})
	assert.Equal(t, "Derived from commit message: Refactor: extract validation helper", out.Rationale)

	var rationaleSub *Substitution
	for i := range subs {
		if subs[i].Field == "rationale" {
			rationaleSub = &subs[i]
		}
	}
	require.NotNil(t, rationaleSub)
	assert.Equal(t, "context", rationaleSub.Source)
}

func TestComplete_FixedDefaults(t *testing.T) {
	out, subs := Complete(model.Verdict{Category: model.CategoryFloss}, Context{})
	assert.Equal(t, "Analysis completed but detailed justification not available", out.Rationale)
	assert.Equal(t, "Not provided", out.Evidence)
	assert.Equal(t, model.ConfidenceLow, out.Confidence)
	assert.Len(t, subs, 3)
}

func TestComplete_NeverReturnsEmptyFields(t *testing.T) {
	out, _ := Complete(model.Verdict{}, Context{})
	assert.NotEmpty(t, out.Category)
	assert.NotEmpty(t, out.Rationale)
	assert.NotEmpty(t, out.Evidence)
	assert.NotEmpty(t, out.Confidence)
}
