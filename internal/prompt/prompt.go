// Package prompt assembles the oracle prompts. The system prompt carries the
// classification criteria and the response contract; the commit context block
// differs by delivery mode. Out-of-band payloads are written to a temp diff
// file the prompt references, and the caller owns its cleanup.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/refstudy/purity-cli/internal/diffprep"
)

// Request carries everything the builder needs about one commit.
type Request struct {
	Repository    string
	ParentKey     string
	Key           string
	CommitMessage string
	Prepared      diffprep.Prepared
}

// Built is the assembled prompt plus the temp diff file path when the diff
// was delivered out of band ("" otherwise).
type Built struct {
	Text     string
	DiffFile string
}

// Builder renders prompts. TempDiffDir is where out-of-band payloads land.
// OmitSystem leaves the system prompt out of the built text for backends
// that send it as a separate message block; pair it with System().
type Builder struct {
	TempDiffDir string
	OmitSystem  bool
}

// System returns the classification system prompt for backends that deliver
// it separately from the per-commit context.
func System() string { return systemPrompt }

// Build renders the full classification prompt for one commit. For an
// out-of-band payload it writes the diff to a file under TempDiffDir and
// embeds the path; call Cleanup with the returned DiffFile when the request
// is finished.
func (b *Builder) Build(req Request) (Built, error) {
	prefix := systemPrompt + "\n\n"
	if b.OmitSystem {
		prefix = ""
	}

	if req.Prepared.Mode == diffprep.OutOfBand {
		path, err := b.writeDiffFile(req.Key, req.Prepared.Payload)
		if err != nil {
			return Built{}, eris.Wrap(err, "prompt: write diff file")
		}
		return Built{
			Text:     prefix + fileContext(req, path),
			DiffFile: path,
		}, nil
	}
	return Built{Text: prefix + inlineContext(req)}, nil
}

// BuildRetry renders the short directive prompt used after an extraction
// failure. It drops the criteria prose entirely; by this point the model has
// shown it will not follow the long contract, so the retry asks for nothing
// but the JSON object.
func (b *Builder) BuildRetry(req Request) string {
	diff := req.Prepared.Payload
	if req.Prepared.Mode == diffprep.OutOfBand {
		// The retry always inlines: referencing a file already failed once.
		if len(diff) > retryInlineCap {
			diff = diff[:retryInlineCap]
		}
	}
	return fmt.Sprintf(retryPrompt, req.Repository, req.ParentKey, req.Key, diff)
}

// Cleanup removes a temp diff file created by Build. Safe on "".
func (b *Builder) Cleanup(diffFile string) {
	if diffFile == "" {
		return
	}
	_ = os.Remove(diffFile)
}

func (b *Builder) writeDiffFile(key, payload string) (string, error) {
	dir := b.TempDiffDir
	if dir == "" {
		dir = "temp_diffs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("diff_%s.txt", key))
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func inlineContext(req Request) string {
	return fmt.Sprintf(`Repository: %s
Commit Hash (Before): %s
Commit Hash (Current): %s
Commit Message: %s

Diff Statistics:
- Size: %d characters (%d lines)
- Approach: DIRECT (diff included in prompt)

Code Diff:
%s

Instructions:
1. Analyze ALL changes shown in the diff above
2. Look for behavioral vs structural modifications
3. Use the technical indicators specified in the instructions
4. Provide brief analysis, then FINAL: PURE or FINAL: FLOSS, then the JSON

Analyze this diff and provide your classification.`,
		req.Repository, req.ParentKey, req.Key, FirstLine(req.CommitMessage),
		len(req.Prepared.Payload), diffprep.CountLines(req.Prepared.Payload),
		req.Prepared.Payload)
}

func fileContext(req Request, path string) string {
	return fmt.Sprintf(`Repository: %s
Commit Hash (Before): %s
Commit Hash (Current): %s
Commit Message: %s

Diff Statistics:
- Size: %d characters (%d lines)
- Approach: FILE-BASED (diff saved to a file due to size)
- File Path: %s

IMPORTANT: The complete diff has been saved to the file above. Read and
analyze the ENTIRE diff file content before classifying; do not guess from
partial content.

Instructions:
1. Read the COMPLETE diff file content
2. Analyze ALL changes for behavioral vs structural modifications
3. Use the technical indicators specified in the instructions
4. Provide brief analysis, then FINAL: PURE or FINAL: FLOSS, then the JSON

Analyze the complete diff and provide your classification.`,
		req.Repository, req.ParentKey, req.Key, FirstLine(req.CommitMessage),
		len(req.Prepared.Payload), diffprep.CountLines(req.Prepared.Payload), path)
}

const retryInlineCap = 30000

const retryPrompt = `Classify the refactoring in this commit as PURE (zero functional changes) or FLOSS (any functional change). When uncertain, answer floss.

Repository: %s
Commit Hash (Before): %s
Commit Hash (Current): %s

Diff:
%s

Return ONLY this JSON object, nothing else. No explanation, no reasoning, no markdown fences:
{"refactoring_type": "pure|floss", "justification": "...", "technical_evidence": "...", "confidence_level": "high|medium|low"}`

// FirstLine returns the trimmed first line of s. Commit messages and error
// chains are reduced to it wherever a single CSV cell or log field is built.
func FirstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
