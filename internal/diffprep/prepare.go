// Package diffprep sizes and reduces git diffs so they fit the oracle's
// context window. Preparation never fails; an oversized diff only loses
// fidelity, recorded in the reduction metadata.
package diffprep

import (
	"strings"

	"go.uber.org/zap"
)

// DeliveryMode selects how the prepared payload reaches the oracle.
type DeliveryMode string

const (
	// Inline embeds the diff directly in the prompt.
	Inline DeliveryMode = "INLINE"
	// OutOfBand hands the diff to the client as a side reference (a temp
	// file the prompt points at) instead of embedded text.
	OutOfBand DeliveryMode = "OUT_OF_BAND"
)

// Options bounds the preparation. Zero values fall back to the defaults the
// pipeline was tuned with.
type Options struct {
	// ReduceAt is the diff size, in chars, at which reduction kicks in.
	ReduceAt int
	// InlineBudget is the max payload size, in chars, kept inline.
	InlineBudget int
	// PerFileLineCap limits how many lines of any one file section survive.
	PerFileLineCap int
	// OutOfBandAt forces out-of-band delivery when the original diff is at
	// least this large, regardless of how well reduction went.
	OutOfBandAt int
}

func (o Options) withDefaults() Options {
	if o.ReduceAt <= 0 {
		o.ReduceAt = 60000
	}
	if o.InlineBudget <= 0 {
		o.InlineBudget = 100000
	}
	if o.PerFileLineCap <= 0 {
		o.PerFileLineCap = 400
	}
	if o.OutOfBandAt <= 0 {
		o.OutOfBandAt = 100000
	}
	return o
}

// Reduction records what preparation did to the diff.
type Reduction struct {
	Reduced        bool
	OriginalChars  int
	NewChars       int
	TruncatedFiles int
}

// Prepared is the sized diff plus the request shape derived from it.
type Prepared struct {
	Payload       string
	Mode          DeliveryMode
	ContextBudget int
	Meta          Reduction
}

const (
	fileElisionMarker = "... (additional lines omitted)"
	globalTruncMarker = "... (diff truncated at global budget)"
)

// Prepare reduces a diff to fit the inline budget and picks a delivery mode.
// A diff within budget passes through unchanged. The output is never longer
// than the input.
func Prepare(diff string, opts Options) Prepared {
	opts = opts.withDefaults()

	p := Prepared{
		Payload: diff,
		Mode:    Inline,
		Meta:    Reduction{OriginalChars: len(diff), NewChars: len(diff)},
	}

	if len(diff) > opts.ReduceAt {
		p.Payload, p.Meta = reduce(diff, opts)
		zap.L().Warn("diffprep: reduced oversized diff",
			zap.Int("original_chars", p.Meta.OriginalChars),
			zap.Int("new_chars", p.Meta.NewChars),
			zap.Int("truncated_files", p.Meta.TruncatedFiles),
		)
	}

	// Out-of-band when the reduced payload is still large, or the original
	// was big enough that inline context would crowd out the instructions.
	if len(p.Payload) > opts.OutOfBandAt || len(diff) >= opts.OutOfBandAt*2 {
		p.Mode = OutOfBand
	}

	p.ContextBudget = ContextBudget(p.Payload)
	return p
}

// reduce walks the diff line by line, capping each file section and stopping
// at the global budget. Hunk headers past the cap are kept so the set of
// changed regions stays visible.
func reduce(diff string, opts Options) (string, Reduction) {
	meta := Reduction{Reduced: true, OriginalChars: len(diff)}

	lines := strings.Split(diff, "\n")
	var out []string
	outLen := 0
	perFileCount := 0

	appendLine := func(line string) {
		out = append(out, line)
		outLen += len(line) + 1
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "diff --git"):
			appendLine(line)
			perFileCount = 1
		case perFileCount < opts.PerFileLineCap:
			appendLine(line)
			perFileCount++
		case strings.HasPrefix(line, "@@"):
			appendLine(line)
		default:
			if perFileCount == opts.PerFileLineCap {
				appendLine(fileElisionMarker)
				meta.TruncatedFiles++
				perFileCount++
			}
		}

		if outLen > opts.InlineBudget {
			appendLine(globalTruncMarker)
			break
		}
	}

	reduced := strings.Join(out, "\n")
	if len(reduced) >= len(diff) {
		// Reduction must never grow the payload (tiny diffs of many files
		// could otherwise gain marker overhead).
		reduced = diff
		meta = Reduction{OriginalChars: len(diff)}
	}
	meta.NewChars = len(reduced)
	return reduced, meta
}

// EstimateTokens is the rough chars/4 token heuristic used for sizing.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		return 1
	}
	return n
}

// ContextBudget maps an estimated token count onto the context-window hint
// passed to the oracle. Monotonic step function, capped: giant diffs do not
// earn unbounded context.
func ContextBudget(payload string) int {
	tokens := EstimateTokens(payload)
	switch {
	case tokens < 3000:
		return 4096
	case tokens < 6000:
		return 6144
	default:
		return 8192
	}
}

// CountLines counts the lines of a diff, the trailing partial line included.
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
