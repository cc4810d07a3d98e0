package extract

import (
	"regexp"
	"strings"

	"github.com/refstudy/purity-cli/internal/model"
)

// Line-oriented field patterns, tried in order of how much structure they
// assume. The quoted styles match JSON fragments that survived outside any
// balanced object; the loose styles match markdown-ish "Field: value" prose.
var (
	quotedTypeRe       = regexp.MustCompile(`(?i)"refactoring_type"\s*:\s*"([^"]*)"`)
	quotedJustRe       = regexp.MustCompile(`(?i)"justification"\s*:\s*"([^"]*)"`)
	quotedEvidenceRe   = regexp.MustCompile(`(?i)"technical_evidence"\s*:\s*"([^"]*)"`)
	quotedConfidenceRe = regexp.MustCompile(`(?i)"confidence_level"\s*:\s*"([^"]*)"`)

	looseTypeRe       = regexp.MustCompile(`(?im)^\s*\*{0,2}(?:refactoring[ _]type|type|category)\*{0,2}\s*[:\-]\s*\*{0,2}([A-Za-z]+)\*{0,2}\s*$`)
	looseJustRe       = regexp.MustCompile(`(?im)^\s*\*{0,2}(?:justification|reasoning|rationale)\*{0,2}\s*[:\-]\s*(.+)$`)
	looseEvidenceRe   = regexp.MustCompile(`(?im)^\s*\*{0,2}(?:technical[ _]evidence|evidence)\*{0,2}\s*[:\-]\s*(.+)$`)
	looseConfidenceRe = regexp.MustCompile(`(?im)^\s*\*{0,2}(?:confidence(?:[ _]level)?)\*{0,2}\s*[:\-]\s*\*{0,2}([A-Za-z]+)\*{0,2}`)

	bareCategoryRe = regexp.MustCompile(`(?im)^\s*\*{0,2}(PURE|FLOSS)\*{0,2}\s*[.!]?\s*$`)
)

// placeholders the models echo from the schema instead of answering.
var fieldPlaceholders = map[string]bool{
	"unknown":    true,
	"none":       true,
	"n/a":        true,
	"null":       true,
	"pure|floss": true,
	"pure/floss": true,
	"...":        true,
}

// lineFields scavenges individual fields from text where no JSON object could
// be recovered whole. A category alone is enough to succeed; the completer
// fills whatever stays empty.
func lineFields(text string) (model.Verdict, bool) {
	var v model.Verdict
	found := false

	if raw, ok := firstField(text, quotedTypeRe, looseTypeRe); ok {
		if cat, catOK := model.ParseCategory(raw); catOK {
			v.Category = cat
			found = true
		}
	}
	if !found {
		if m := bareCategoryRe.FindStringSubmatch(text); m != nil {
			if cat, catOK := model.ParseCategory(m[1]); catOK {
				v.Category = cat
				found = true
			}
		}
	}

	if raw, ok := firstField(text, quotedJustRe, looseJustRe); ok {
		v.Rationale = raw
		found = true
	}
	if raw, ok := firstField(text, quotedEvidenceRe, looseEvidenceRe); ok {
		v.Evidence = raw
	}
	if raw, ok := firstField(text, quotedConfidenceRe, looseConfidenceRe); ok {
		if conf, confOK := model.ParseConfidence(raw); confOK {
			v.Confidence = conf
		}
	}

	if !found {
		return model.Verdict{}, false
	}
	return v, true
}

// firstField tries the given patterns in order and returns the first captured
// value that is not a schema placeholder.
func firstField(text string, res ...*regexp.Regexp) (string, bool) {
	for _, re := range res {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		val := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), `*"`))
		if val == "" || fieldPlaceholders[strings.ToLower(val)] {
			continue
		}
		return val, true
	}
	return "", false
}
