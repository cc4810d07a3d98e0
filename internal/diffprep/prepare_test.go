package diffprep

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeDiff(files, linesPerFile int) string {
	var b strings.Builder
	for f := 0; f < files; f++ {
		fmt.Fprintf(&b, "diff --git a/file%d.go b/file%d.go\n", f, f)
		fmt.Fprintf(&b, "@@ -1,%d +1,%d @@\n", linesPerFile, linesPerFile)
		for l := 0; l < linesPerFile; l++ {
			fmt.Fprintf(&b, "+added line %d in file %d with some padding text\n", l, f)
		}
	}
	return b.String()
}

func TestPrepare_SmallDiffUnchanged(t *testing.T) {
	diff := makeDiff(1, 10)
	p := Prepare(diff, Options{})

	assert.Equal(t, diff, p.Payload)
	assert.Equal(t, Inline, p.Mode)
	assert.False(t, p.Meta.Reduced)
	assert.Equal(t, len(diff), p.Meta.OriginalChars)
	assert.Equal(t, len(diff), p.Meta.NewChars)
}

func TestPrepare_NeverGrows(t *testing.T) {
	diff := makeDiff(40, 30)
	p := Prepare(diff, Options{ReduceAt: 100, InlineBudget: 50000})
	assert.LessOrEqual(t, len(p.Payload), len(diff))
}

func TestPrepare_PerFileCap(t *testing.T) {
	diff := makeDiff(2, 1000)
	p := Prepare(diff, Options{ReduceAt: 1000, PerFileLineCap: 50, InlineBudget: 1 << 20})

	require.True(t, p.Meta.Reduced)
	assert.Equal(t, 2, p.Meta.TruncatedFiles)
	assert.Contains(t, p.Payload, "... (additional lines omitted)")
	// Both file headers survive.
	assert.Contains(t, p.Payload, "diff --git a/file0.go")
	assert.Contains(t, p.Payload, "diff --git a/file1.go")
}

func TestPrepare_HunkHeadersKeptPastCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("diff --git a/big.go b/big.go\n")
	for l := 0; l < 300; l++ {
		fmt.Fprintf(&b, "+line %d\n", l)
	}
	b.WriteString("@@ -500,3 +500,3 @@ func tail()\n")
	b.WriteString("+final change\n")
	diff := b.String()

	p := Prepare(diff, Options{ReduceAt: 100, PerFileLineCap: 50, InlineBudget: 1 << 20})
	assert.Contains(t, p.Payload, "@@ -500,3 +500,3 @@ func tail()")
	assert.NotContains(t, p.Payload, "+final change")
}

func TestPrepare_GlobalBudget(t *testing.T) {
	diff := makeDiff(100, 300)
	p := Prepare(diff, Options{ReduceAt: 1000, PerFileLineCap: 200, InlineBudget: 20000})

	assert.Contains(t, p.Payload, "... (diff truncated at global budget)")
	// Some slack past the budget for the marker line itself, nothing more.
	assert.Less(t, len(p.Payload), 21000)
}

func TestPrepare_OutOfBandForHugePayload(t *testing.T) {
	diff := makeDiff(200, 400)
	p := Prepare(diff, Options{OutOfBandAt: len(diff) / 3})
	assert.Equal(t, OutOfBand, p.Mode)
}

func TestPrepare_InlineForModestPayload(t *testing.T) {
	diff := makeDiff(2, 50)
	p := Prepare(diff, Options{})
	assert.Equal(t, Inline, p.Mode)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("x", 100)))
}

func TestContextBudget_FloorsAtSmallestStep(t *testing.T) {
	// Short texts, retry prompts included, never request less context than
	// the smallest step.
	assert.Equal(t, 4096, ContextBudget(""))
	assert.Equal(t, 4096, ContextBudget("tiny prompt"))
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, CountLines(""))
	assert.Equal(t, 1, CountLines("no newline"))
	assert.Equal(t, 2, CountLines("a\nb"))
	assert.Equal(t, 3, CountLines("a\nb\n"))
}

func TestContextBudget_Steps(t *testing.T) {
	// <3000 tokens (=12000 chars) → 4096.
	assert.Equal(t, 4096, Prepare(strings.Repeat("x", 8000), Options{}).ContextBudget)
	// 3000–6000 tokens → 6144.
	assert.Equal(t, 6144, Prepare(strings.Repeat("x", 16000), Options{}).ContextBudget)
	// Above → capped at 8192.
	assert.Equal(t, 8192, Prepare(strings.Repeat("x", 50000), Options{}).ContextBudget)
}
