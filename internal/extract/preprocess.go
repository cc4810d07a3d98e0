package extract

import (
	"regexp"
	"strings"
)

// Patterns stripped before any parsing. Local reasoning models leak their
// scratchpad in several spellings, and some echo the instructions back.
var (
	thinkBlockRe   = regexp.MustCompile(`(?is)<think\b[^>]*>.*?</think>`)
	thinkSelfClose = regexp.MustCompile(`(?is)<think\b[^>]*/>`)
	thinkDoubleRe  = regexp.MustCompile(`(?is)<<think>>.*?<</think>>`)
	thinkLineRe    = regexp.MustCompile(`(?im)^\s*\[?\(?think\)?\]?[:\-\s].*$`)

	boilerplateRes = []*regexp.Regexp{
		regexp.MustCompile(`(?is)CRITICAL:\s*You\s+MUST\s+provide.*?JSON\s+structure`),
		regexp.MustCompile(`(?is)Analyze\s+this\s+(?:Git\s+)?diff\s+and\s+(?:classify|provide).*?(?:refactoring|classification)\.`),
		regexp.MustCompile(`(?im)^You\s+are\s+an?\s+expert.*$`),
		regexp.MustCompile(`(?im)^Based\s+on\s+the\s+provided.*$`),
	}

	controlCharRe = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
)

// Preprocess strips reasoning blocks, echoed instruction boilerplate, and
// degenerate repeated-word lines from raw oracle text. It is a pure function
// and the shared first stage of every extraction strategy.
func Preprocess(text string) string {
	if text == "" {
		return text
	}

	text = thinkBlockRe.ReplaceAllString(text, "")
	text = thinkSelfClose.ReplaceAllString(text, "")
	text = thinkDoubleRe.ReplaceAllString(text, "")
	text = thinkLineRe.ReplaceAllString(text, "")

	for _, re := range boilerplateRes {
		text = re.ReplaceAllString(text, "")
	}

	text = controlCharRe.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isDegenerate(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}

	return strings.Join(kept, "\n")
}

// isDegenerate flags lines that are mostly the same word repeated, a common
// failure mode of a model stuck in a loop. A line of more than five words
// with fewer than a third of them unique is noise, not content.
func isDegenerate(line string) bool {
	words := strings.Fields(line)
	if len(words) <= 5 {
		return false
	}
	unique := make(map[string]bool, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = true
	}
	if len(unique)*3 < len(words) {
		return true
	}
	// Longer lines with heavy repetition are also dropped.
	if len(line) > 20 && len(unique)*2 < len(words) {
		return true
	}
	return false
}
