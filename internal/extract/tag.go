package extract

import (
	"regexp"

	"github.com/refstudy/purity-cli/internal/model"
)

// explicitTagRe matches the response contract's closing line in its observed
// spellings. The prompt asks for "FINAL: PURE|FLOSS", but models paraphrase
// the tag name; all synonyms carry the same authority.
var explicitTagRe = regexp.MustCompile(`(?im)^.*\b(?:FINAL|CLASSIFICATION|VERDICT|ANSWER|DECISION)\s*[:\-]\s*\*{0,2}(PURE|FLOSS)\*{0,2}\b.*$`)

// scanExplicitTag searches the cleaned text for an explicit category tag.
// Returns the category, the full line the tag appeared on, and whether a tag
// was found. The last occurrence wins: a model that corrects itself ends
// with its final answer.
func scanExplicitTag(text string) (model.Category, string, bool) {
	matches := explicitTagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", "", false
	}
	last := matches[len(matches)-1]
	cat, ok := model.ParseCategory(last[1])
	if !ok {
		return "", "", false
	}
	return cat, last[0], true
}
