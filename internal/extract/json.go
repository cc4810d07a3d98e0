package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/refstudy/purity-cli/internal/model"
)

// payload is the JSON shape the prompt asks for. Unknown fields are ignored;
// absent fields surface as empty strings for the completer to fill.
type payload struct {
	RefactoringType string `json:"refactoring_type"`
	Justification   string `json:"justification"`
	Evidence        string `json:"technical_evidence"`
	Confidence      string `json:"confidence_level"`
}

// strictJSON parses the whole cleaned text as a single JSON object.
func strictJSON(text string) (model.Verdict, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return model.Verdict{}, false
	}
	return parsePayload(text)
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// blockJSON extracts candidate objects from fenced code blocks and from true
// brace-balanced matching over the whole text, then parses each candidate
// strictly and, failing that, with tolerance for trailing commas and line
// comments. Balanced matching respects quoted strings and escapes; a naive
// first-to-last-brace slice breaks as soon as two objects or a nested object
// appear.
func blockJSON(text string) (model.Verdict, bool) {
	for _, cand := range jsonCandidates(text) {
		if v, ok := parsePayload(cand); ok {
			return v, true
		}
		if v, ok := parsePayload(sanitizeJSON(cand)); ok {
			return v, true
		}
	}
	return model.Verdict{}, false
}

// repairedJSON reruns the candidates through a fixed repair sequence,
// reparsing after each step and stopping at the first success.
func repairedJSON(text string) (model.Verdict, bool) {
	for _, cand := range jsonCandidates(text) {
		repaired := cand
		for _, repair := range repairs {
			repaired = repair(repaired)
			if v, ok := parsePayload(repaired); ok {
				return v, true
			}
		}
	}
	return model.Verdict{}, false
}

// jsonCandidates returns candidate object substrings: fenced blocks first
// (highest signal), then every brace-balanced object in the text.
func jsonCandidates(text string) []string {
	var cands []string
	seen := make(map[string]bool)
	add := func(c string) {
		c = strings.Trim(c, "` \n")
		if c != "" && !seen[c] {
			seen[c] = true
			cands = append(cands, c)
		}
	}

	for _, m := range fencedBlockRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end := matchingBrace(text, i)
		if end == -1 {
			// Unbalanced opener, usually a truncated response. The tail is
			// still a candidate; the brace-closing repair may rescue it.
			add(strings.TrimSpace(text[i:]))
			break
		}
		add(text[i : end+1])
		i = end
	}

	return cands
}

// matchingBrace finds the closing brace for the opener at start, tracking
// quoted-string content and escape sequences. Returns -1 when unbalanced.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var (
	lineCommentRe   = regexp.MustCompile(`(?m)//[^\n"]*$`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// sanitizeJSON tolerates the two most common deviations models produce:
// trailing commas and // line comments.
func sanitizeJSON(s string) string {
	s = lineCommentRe.ReplaceAllString(s, "")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return s
}

// repairs are applied cumulatively. Each targets one malformation seen in
// practice.
var repairs = []func(string) string{
	escapeInnerQuotes,
	collapseStringNewlines,
	func(s string) string { return trailingCommaRe.ReplaceAllString(s, "$1") },
	closeUnbalancedBraces,
}

var quotedFieldRe = regexp.MustCompile(`(?s)"([a-z_]+)":\s*"(.*?)"\s*([,}])`)

// escapeInnerQuotes escapes stray double quotes inside string values, e.g.
// {"justification": "renames "foo" to "bar""}.
func escapeInnerQuotes(s string) string {
	return quotedFieldRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := quotedFieldRe.FindStringSubmatch(m)
		field, value, term := sub[1], sub[2], sub[3]
		value = strings.ReplaceAll(value, `\"`, "\x00")
		value = strings.ReplaceAll(value, `"`, `\"`)
		value = strings.ReplaceAll(value, "\x00", `\"`)
		return `"` + field + `": "` + value + `"` + term
	})
}

var stringNewlineRe = regexp.MustCompile(`"\s*\n\s*([^"{}\n]*)\s*\n\s*"`)

// collapseStringNewlines joins values that were split across lines inside
// their quotes.
func collapseStringNewlines(s string) string {
	return stringNewlineRe.ReplaceAllString(s, `"$1"`)
}

// closeUnbalancedBraces appends missing closing braces, the signature of a
// truncated response.
func closeUnbalancedBraces(s string) string {
	open := strings.Count(s, "{")
	closed := strings.Count(s, "}")
	for ; open > closed; closed++ {
		s += "}"
	}
	return s
}

// parsePayload unmarshals one candidate and converts it to a verdict. A
// payload with a justification but no parseable category is still accepted;
// the completer defaults the category later.
func parsePayload(s string) (model.Verdict, bool) {
	var p payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return model.Verdict{}, false
	}
	return payloadVerdict(p)
}

func payloadVerdict(p payload) (model.Verdict, bool) {
	cat, catOK := model.ParseCategory(p.RefactoringType)
	if !catOK && strings.TrimSpace(p.Justification) == "" {
		// Neither a category nor a rationale: the object was something else
		// entirely (models sometimes echo the schema skeleton).
		return model.Verdict{}, false
	}

	v := model.Verdict{
		Category:  cat,
		Rationale: strings.TrimSpace(p.Justification),
		Evidence:  strings.TrimSpace(p.Evidence),
	}
	if conf, ok := model.ParseConfidence(p.Confidence); ok {
		v.Confidence = conf
	}
	return v, true
}
