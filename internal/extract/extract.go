// Package extract recovers a structured verdict from raw oracle text.
//
// Oracle output is unreliable: reasoning preambles, fenced JSON, inline JSON,
// an explicit category tag, pure prose, truncation, or raw control characters
// can all appear, sometimes together. Extraction is an ordered cascade of
// pure strategies over the same cleaned text; the first one that succeeds
// wins and its name is recorded on the verdict. Identical input always yields
// an identical result, so every stage is unit-testable in isolation.
package extract

import (
	"strings"

	"github.com/refstudy/purity-cli/internal/model"
)

// Strategy is one stage of the cascade: a pure function of the cleaned text.
type Strategy struct {
	Name string
	Fn   func(text string) (model.Verdict, bool)
}

// Strategies returns the cascade in evaluation order. The explicit-tag stage
// is handled separately by Extract because it overrides everything else.
func Strategies() []Strategy {
	return []Strategy{
		{Name: "strict_json", Fn: strictJSON},
		{Name: "block_json", Fn: blockJSON},
		{Name: "repaired_json", Fn: repairedJSON},
		{Name: "line_fields", Fn: lineFields},
		{Name: "semantic_fallback", Fn: semanticFallback},
	}
}

// Extract runs the cascade over raw oracle text. It returns false only when
// not even a category could be recovered; the caller then records the
// failure and may retry with a simplified prompt.
//
// An explicit "FINAL: PURE|FLOSS" style tag has absolute priority: models
// sometimes emit an authoritative tag followed by an inconsistent JSON block,
// so when the tag fires it fixes both the category and the rationale and no
// structured stage can overrule it.
func Extract(raw string) (model.Verdict, bool) {
	cleaned := Preprocess(raw)

	if cat, tagLine, ok := scanExplicitTag(cleaned); ok {
		remainder := strings.TrimSpace(strings.Replace(cleaned, tagLine, "", 1))
		if remainder != "" {
			return model.Verdict{
				Category:  cat,
				Rationale: strings.TrimSpace(cleaned),
				Method:    "explicit_tag",
			}, true
		}
		// The tag was the whole surviving response: keep the category and
		// fall back to the untouched text as rationale.
		return model.Verdict{
			Category:  cat,
			Rationale: strings.TrimSpace(raw),
			Method:    "tag_only",
		}, true
	}

	for _, s := range Strategies() {
		if v, ok := s.Fn(cleaned); ok {
			v.Method = s.Name
			return v, true
		}
	}

	return model.Verdict{}, false
}
