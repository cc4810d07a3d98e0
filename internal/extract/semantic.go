package extract

import (
	"regexp"
	"strings"

	"github.com/refstudy/purity-cli/internal/model"
)

// Keyword evidence for the last-resort semantic scan. Pure signals describe
// behavior preservation; floss signals describe functional change. Negated
// pure phrases ("not purely structural") count for the other side.
var (
	pureSignals = []string{
		"no functional change",
		"no behavioral change",
		"behavior is preserved",
		"behavior-preserving",
		"behaviour is preserved",
		"only structural",
		"purely structural",
		"pure refactoring",
		"semantics unchanged",
		"only renames",
		"rename only",
		"moves code without",
		"identical behavior",
	}
	flossSignals = []string{
		"bug fix",
		"fixes a bug",
		"fixed a bug",
		"new feature",
		"adds functionality",
		"added functionality",
		"changes behavior",
		"changed behavior",
		"behavioral change",
		"functional change",
		"alters the logic",
		"modifies the logic",
		"new logic",
		"floss refactoring",
		"not a pure refactoring",
		"not purely structural",
	}

	negationRe = regexp.MustCompile(`(?i)\b(?:not?|never|without|isn't|aren't|doesn't|don't)\b[^.,;]{0,40}$`)

	sentenceSplitRe = regexp.MustCompile(`[.!?\n]+`)
)

// semanticFallback is the terminal stage: keyword scoring over the cleaned
// text. It only runs when every structured stage failed, and it only declines
// on empty input, so any surviving prose yields a verdict. Ambiguity resolves
// to FLOSS, the safe direction for a purity study: a pure commit mislabeled
// floss is a missed positive, the reverse pollutes the pure set.
func semanticFallback(text string) (model.Verdict, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.Verdict{}, false
	}

	lower := strings.ToLower(trimmed)
	pureScore, flossScore := 0, 0

	for _, sig := range pureSignals {
		for _, idx := range allIndexes(lower, sig) {
			if negationRe.MatchString(lower[:idx]) {
				flossScore++
			} else {
				pureScore++
			}
		}
	}
	for _, sig := range flossSignals {
		pureScoreBump := 0
		for _, idx := range allIndexes(lower, sig) {
			if negationRe.MatchString(lower[:idx]) {
				pureScoreBump++
			} else {
				flossScore++
			}
		}
		pureScore += pureScoreBump
	}

	cat := model.CategoryFloss
	if pureScore > flossScore {
		cat = model.CategoryPure
	}

	return model.Verdict{
		Category:   cat,
		Rationale:  signalRationale(trimmed, lower, cat),
		Confidence: model.ConfidenceLow,
	}, true
}

// allIndexes returns every occurrence of sub in s.
func allIndexes(s, sub string) []int {
	var idxs []int
	for off := 0; ; {
		i := strings.Index(s[off:], sub)
		if i < 0 {
			return idxs
		}
		idxs = append(idxs, off+i)
		off += i + len(sub)
	}
}

// signalRationale picks sentences from the source text that carry a scoring
// keyword for the winning side. Only text the oracle actually produced is
// quoted; nothing is synthesized beyond the joining.
func signalRationale(text, lower string, cat model.Category) string {
	signals := flossSignals
	if cat == model.CategoryPure {
		signals = pureSignals
	}

	var picked []string
	for _, sent := range sentenceSplitRe.Split(text, -1) {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}
		sentLower := strings.ToLower(sent)
		for _, sig := range signals {
			if strings.Contains(sentLower, sig) {
				picked = append(picked, sent)
				break
			}
		}
		if len(picked) == 3 {
			break
		}
	}

	if len(picked) == 0 {
		// No keyword hit at all: the default classification stands, quote the
		// leading text so the record shows what was said.
		head := text
		if len(head) > 300 {
			head = head[:300]
		}
		return strings.TrimSpace(head)
	}
	return strings.Join(picked, ". ")
}
