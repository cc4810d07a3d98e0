package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refstudy/purity-cli/internal/model"
)

func TestExtract_StrictJSON(t *testing.T) {
	raw := `{"refactoring_type": "pure", "justification": "Renames only", "technical_evidence": "lines 10-20", "confidence_level": "high"}`

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryPure, v.Category)
	assert.Equal(t, "Renames only", v.Rationale)
	assert.Equal(t, "lines 10-20", v.Evidence)
	assert.Equal(t, model.ConfidenceHigh, v.Confidence)
	assert.Equal(t, "strict_json", v.Method)
}

func TestExtract_FencedJSON(t *testing.T) {
	raw := "Here is my analysis of the commit.\n```json\n{\"refactoring_type\": \"floss\", \"justification\": \"Adds a null check\"}\n```\nDone."

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryFloss, v.Category)
	assert.Equal(t, "Adds a null check", v.Rationale)
	assert.Equal(t, "block_json", v.Method)
}

func TestExtract_TagOverridesJSON(t *testing.T) {
	// An explicit tag beats a contradicting JSON block.
	raw := "The change only renames a method.\nFINAL: PURE\n\n{\"refactoring_type\": \"floss\", \"justification\": \"wrong\"}"

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryPure, v.Category)
	assert.Equal(t, "explicit_tag", v.Method)
	assert.Contains(t, v.Rationale, "only renames a method")
}

func TestExtract_TagLastOccurrenceWins(t *testing.T) {
	raw := "FINAL: PURE\nActually, the extra null check changes behavior.\nFINAL: FLOSS"

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryFloss, v.Category)
}

func TestExtract_TagSynonyms(t *testing.T) {
	for _, line := range []string{
		"CLASSIFICATION: FLOSS",
		"Verdict: **FLOSS**",
		"ANSWER - FLOSS",
	} {
		v, ok := Extract("Some brief analysis first.\n" + line)
		require.True(t, ok, line)
		assert.Equal(t, model.CategoryFloss, v.Category, line)
	}
}

func TestExtract_TagOnly(t *testing.T) {
	// Nothing but the tag survives preprocessing.
	raw := "<think>internal reasoning here</think>FINAL: PURE"

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryPure, v.Category)
	assert.Equal(t, "tag_only", v.Method)
}

func TestExtract_ThinkBlockStripped(t *testing.T) {
	raw := "<think>\nIs this pure? The diff adds validation... so floss.\n</think>\n{\"refactoring_type\": \"floss\", \"justification\": \"Adds validation\"}"

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryFloss, v.Category)
	assert.Equal(t, "strict_json", v.Method)
}

func TestExtract_RepairedJSON_TrailingComma(t *testing.T) {
	raw := `{"refactoring_type": "pure", "justification": "Moves code only",}`

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryPure, v.Category)
}

func TestExtract_RepairedJSON_Truncated(t *testing.T) {
	// Truncated response: missing closing brace.
	raw := `The analysis follows.
{"refactoring_type": "floss", "justification": "Changes the return type"`

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryFloss, v.Category)
	assert.Equal(t, "repaired_json", v.Method)
}

func TestExtract_RepairedJSON_InnerQuotes(t *testing.T) {
	raw := `{"refactoring_type": "pure", "justification": "renames "foo" to "bar""}`

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryPure, v.Category)
	assert.Contains(t, v.Rationale, `foo`)
}

func TestExtract_LineFields(t *testing.T) {
	raw := "Refactoring Type: FLOSS\nJustification: Adds a new parameter with default behavior\nConfidence: medium"

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryFloss, v.Category)
	assert.Equal(t, "Adds a new parameter with default behavior", v.Rationale)
	assert.Equal(t, model.ConfidenceMedium, v.Confidence)
	assert.Equal(t, "line_fields", v.Method)
}

func TestExtract_LineFields_RejectsPlaceholders(t *testing.T) {
	// A schema echo must not be mistaken for an answer.
	raw := "refactoring_type: pure|floss\njustification: ..."

	v, ok := Extract(raw)
	require.True(t, ok)
	// Falls through to the semantic stage, which defaults FLOSS.
	assert.Equal(t, "semantic_fallback", v.Method)
	assert.Equal(t, model.CategoryFloss, v.Category)
}

func TestExtract_SemanticFallback_Pure(t *testing.T) {
	raw := "The commit moves two helpers into their own class. Behavior is preserved and there is no functional change anywhere in the diff."

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryPure, v.Category)
	assert.Equal(t, "semantic_fallback", v.Method)
	assert.Equal(t, model.ConfidenceLow, v.Confidence)
	assert.Contains(t, v.Rationale, "no functional change")
}

func TestExtract_SemanticFallback_DefaultsFloss(t *testing.T) {
	raw := "This commit rearranges several files and touches the build configuration."

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryFloss, v.Category)
	assert.Equal(t, "semantic_fallback", v.Method)
}

func TestExtract_SemanticFallback_Negation(t *testing.T) {
	raw := "This is not a pure refactoring: the loop bound changed."

	v, ok := Extract(raw)
	require.True(t, ok)
	assert.Equal(t, model.CategoryFloss, v.Category)
}

func TestExtract_EmptyResponseFails(t *testing.T) {
	_, ok := Extract("")
	assert.False(t, ok)
}

func TestExtract_OnlyThinkBlockFails(t *testing.T) {
	_, ok := Extract("<think>endless deliberation with no answer</think>")
	assert.False(t, ok)
}

func TestExtract_Deterministic(t *testing.T) {
	raw := "Analysis text.\nFINAL: FLOSS\n{\"refactoring_type\": \"pure\"}"
	v1, ok1 := Extract(raw)
	v2, ok2 := Extract(raw)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, v1, v2)
}

func TestPreprocess_DegenerateLines(t *testing.T) {
	degenerate := strings.Repeat("pure ", 30)
	out := Preprocess("Real analysis line.\n" + degenerate)
	assert.Contains(t, out, "Real analysis line.")
	assert.NotContains(t, out, degenerate)
}

func TestPreprocess_ControlChars(t *testing.T) {
	out := Preprocess("abc\x00def\x1fghi")
	assert.Equal(t, "abcdefghi", out)
}

func TestPreprocess_BoilerplateEcho(t *testing.T) {
	out := Preprocess("You are an expert software engineering analyst.\nThe diff is pure.")
	assert.NotContains(t, out, "You are an expert")
	assert.Contains(t, out, "The diff is pure.")
}

func TestJSONCandidates_NestedAndMultiple(t *testing.T) {
	text := `noise {"a": {"b": 1}} more {"refactoring_type": "pure", "justification": "x"}`
	cands := jsonCandidates(text)
	require.Len(t, cands, 2)
	assert.Equal(t, `{"a": {"b": 1}}`, cands[0])
}

func TestMatchingBrace_QuotedBraces(t *testing.T) {
	text := `{"j": "uses } inside a string"}`
	end := matchingBrace(text, 0)
	assert.Equal(t, len(text)-1, end)
}
