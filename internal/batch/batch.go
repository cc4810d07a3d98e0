// Package batch runs the classification pipeline over the working set. The
// working-set CSV is the only resumption state: it is saved atomically after
// every record, so a killed run resumes by skipping terminal records.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/refstudy/purity-cli/internal/complete"
	"github.com/refstudy/purity-cli/internal/dataset"
	"github.com/refstudy/purity-cli/internal/diffprep"
	"github.com/refstudy/purity-cli/internal/extract"
	"github.com/refstudy/purity-cli/internal/failures"
	"github.com/refstudy/purity-cli/internal/gitx"
	"github.com/refstudy/purity-cli/internal/model"
	"github.com/refstudy/purity-cli/internal/prompt"
)

// Generator produces raw oracle text for a prompt. The context-token value
// is a sizing hint; backends may ignore it.
type Generator interface {
	Generate(ctx context.Context, prompt string, contextTokens int) (string, error)
}

// Options selects which records a run processes.
type Options struct {
	// Filter restricts candidates to one ground-truth label ("" = all).
	Filter model.Label
	// SkipTerminal excludes records already in a terminal state, which is
	// what makes an interrupted run resumable.
	SkipTerminal bool
	// Max caps how many records are processed this run (0 = no cap).
	Max int
	// Pause is the politeness delay between records.
	Pause time.Duration
	// DryRun reports the candidate selection and stops before the pipeline.
	// Nothing is generated, journaled, or saved.
	DryRun bool
}

// Summary are the counters reported at the end of a run.
type Summary struct {
	Processed   int
	Succeeded   int
	Failed      int
	Errors      int
	Skipped     int
	Interrupted bool
}

// Runner wires the pipeline collaborators together for one run.
type Runner struct {
	Store    *dataset.Store
	VCS      gitx.VCS
	Gen      Generator
	Builder  *prompt.Builder
	Failures *failures.Store
	Journal  *failures.SessionJournal
	PrepOpts diffprep.Options
	Opts     Options
}

// Run executes the batch. It returns a non-nil error only when the working
// set itself cannot be loaded or saved; everything else is absorbed into
// per-record states. Cancellation between records finishes cleanly with
// Summary.Interrupted set.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	zap.L().Info("batch: loading working set")
	records, err := r.Store.Load()
	if err != nil {
		return sum, err
	}

	candidates := r.selectCandidates(records)
	sum.Skipped = len(records) - len(candidates)

	if r.Opts.DryRun {
		for _, idx := range candidates {
			rec := &records[idx]
			zap.L().Info("batch: would process",
				zap.String("hash", rec.Key),
				zap.String("repo", rec.Repository),
				zap.String("ground_truth", string(rec.GroundTruth)),
			)
		}
		zap.L().Info("batch: dry run, stopping before the pipeline",
			zap.Int("candidates", len(candidates)),
			zap.Int("skipped", sum.Skipped),
		)
		return sum, nil
	}

	for i := 0; i < sum.Skipped; i++ {
		r.Journal.Skip()
	}

	zap.L().Info("batch: processing",
		zap.Int("total", len(records)),
		zap.Int("candidates", len(candidates)),
		zap.Int("skipped", sum.Skipped),
		zap.String("session", r.Journal.SessionID),
	)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if r.Opts.Pause > 0 {
		limiter = rate.NewLimiter(rate.Every(r.Opts.Pause), 1)
	}

	for _, idx := range candidates {
		if ctx.Err() != nil {
			sum.Interrupted = true
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			sum.Interrupted = true
			break
		}

		rec := &records[idx]
		started := time.Now()

		r.processOne(ctx, rec)

		if ctx.Err() != nil && !rec.State.Terminal() {
			// Cancelled mid-record. The record keeps its pending state and
			// stays unstamped, so the next run reprocesses it from scratch.
			sum.Interrupted = true
			break
		}

		sum.Processed++
		switch rec.State {
		case model.StateDone:
			sum.Succeeded++
		case model.StateFailed:
			sum.Failed++
		case model.StateError:
			sum.Errors++
		}

		r.Journal.Record(failures.Outcome{
			Key:      rec.Key,
			State:    string(rec.State),
			Method:   rec.Method,
			Category: string(rec.Category),
			Elapsed:  time.Since(started).Seconds(),
		})
		if err := r.Journal.Flush(); err != nil {
			zap.L().Warn("batch: journal flush failed", zap.Error(err))
		}

		if err := r.persist(records); err != nil {
			return sum, err
		}
	}

	if sum.Interrupted {
		zap.L().Warn("batch: interrupted, progress saved",
			zap.Int("processed", sum.Processed))
	} else {
		zap.L().Info("batch: finalizing")
	}

	if err := r.Journal.Close(); err != nil {
		zap.L().Warn("batch: journal close failed", zap.Error(err))
	}

	zap.L().Info("batch: done",
		zap.Int("processed", sum.Processed),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Int("errors", sum.Errors),
		zap.Int("skipped", sum.Skipped),
		zap.Bool("interrupted", sum.Interrupted),
	)
	return sum, nil
}

// selectCandidates returns the indexes to process, preserving the original
// file order so output rows stay stable across runs.
func (r *Runner) selectCandidates(records []model.Record) []int {
	var idxs []int
	for i := range records {
		rec := &records[i]
		if r.Opts.Filter != "" && rec.GroundTruth != r.Opts.Filter {
			continue
		}
		if r.Opts.SkipTerminal && rec.State.Terminal() {
			continue
		}
		idxs = append(idxs, i)
		if r.Opts.Max > 0 && len(idxs) == r.Opts.Max {
			break
		}
	}
	return idxs
}

// persist saves the working set, taking the one pre-run backup before the
// first write of the session.
func (r *Runner) persist(records []model.Record) error {
	if err := r.Store.BackupOnce(); err != nil {
		return err
	}
	return r.Store.Save(records)
}

// processOne runs the full pipeline for a single record and mutates it into
// a terminal state. A panic anywhere inside is converted to an ERROR record
// so one malformed input cannot take down the batch. The one exception is
// context cancellation: it returns with the record non-terminal, and the run
// loop stops without journaling or saving it.
func (r *Runner) processOne(ctx context.Context, rec *model.Record) {
	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("batch: panic processing record",
				zap.String("hash", rec.Key),
				zap.Any("panic", p),
			)
			rec.State = model.StateError
			rec.Rationale = fmt.Sprintf("processing panic: %v", p)
			r.stamp(rec)
		}
	}()

	log := zap.L().With(zap.String("hash", rec.Key), zap.String("repo", rec.Repository))

	msg, err := r.VCS.Message(ctx, rec.Repository, rec.Key)
	if err != nil {
		// The commit message only feeds completion fallbacks.
		log.Warn("batch: commit message unavailable", zap.Error(err))
	}

	diff, err := r.VCS.Diff(ctx, rec.Repository, rec.ParentKey, rec.Key)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error("batch: diff unavailable", zap.Error(err))
		rec.State = model.StateError
		rec.Rationale = "diff unavailable: " + prompt.FirstLine(err.Error())
		r.stamp(rec)
		return
	}
	rec.DiffChars = len(diff)
	rec.DiffLines = diffprep.CountLines(diff)

	prepared := diffprep.Prepare(diff, r.PrepOpts)

	req := prompt.Request{
		Repository:    rec.Repository,
		ParentKey:     rec.ParentKey,
		Key:           rec.Key,
		CommitMessage: msg,
		Prepared:      prepared,
	}
	built, err := r.Builder.Build(req)
	if err != nil {
		rec.State = model.StateError
		rec.Rationale = "prompt build failed: " + prompt.FirstLine(err.Error())
		r.stamp(rec)
		return
	}
	defer r.Builder.Cleanup(built.DiffFile)

	raw, err := r.Gen.Generate(ctx, built.Text, prepared.ContextBudget)
	if err != nil {
		// A cancelled run is not an oracle failure. Leave the record
		// non-terminal for the next run.
		if ctx.Err() != nil {
			log.Warn("batch: generation cancelled")
			return
		}
		log.Error("batch: generation failed", zap.Error(err))
		rec.State = model.StateFailed
		rec.Rationale = "oracle unavailable: " + prompt.FirstLine(err.Error())
		r.stamp(rec)
		return
	}

	verdict, ok := extract.Extract(raw)
	if !ok {
		r.recordFailure(rec, failureReason(raw), built.Text, raw)
		verdict, ok = r.retrySimplified(ctx, rec, req, log)
	}
	if !ok {
		if ctx.Err() != nil {
			return
		}
		rec.State = model.StateFailed
		rec.Rationale = "no verdict recoverable from oracle response"
		r.stamp(rec)
		return
	}

	completed, subs := complete.Complete(verdict, complete.Context{
		Key:           rec.Key,
		Repository:    rec.Repository,
		ParentKey:     rec.ParentKey,
		CommitMessage: msg,
	})
	for _, sub := range subs {
		log.Warn("batch: completed missing field",
			zap.String("field", sub.Field),
			zap.String("source", sub.Source),
		)
	}

	rec.Category = completed.Category
	rec.Rationale = completed.Rationale
	rec.Evidence = completed.Evidence
	rec.Confidence = string(completed.Confidence)
	rec.Method = completed.Method
	rec.State = model.StateDone
	r.stamp(rec)

	log.Info("batch: record classified",
		zap.String("category", string(rec.Category)),
		zap.String("method", rec.Method),
	)
}

// retrySimplified gives the oracle one more chance with the short directive
// prompt after a failed extraction.
func (r *Runner) retrySimplified(ctx context.Context, rec *model.Record, req prompt.Request, log *zap.Logger) (model.Verdict, bool) {
	retryText := r.Builder.BuildRetry(req)
	log.Warn("batch: retrying with simplified prompt")

	raw, err := r.Gen.Generate(ctx, retryText, diffprep.ContextBudget(retryText))
	if err != nil {
		if ctx.Err() == nil {
			log.Error("batch: simplified retry failed", zap.Error(err))
		}
		return model.Verdict{}, false
	}

	verdict, ok := extract.Extract(raw)
	if !ok {
		r.recordFailure(rec, failureReason(raw)+" on simplified retry", retryText, raw)
		return model.Verdict{}, false
	}
	verdict.Method = verdict.Method + "_retry"
	return verdict, true
}

func (r *Runner) recordFailure(rec *model.Record, reason, promptText, raw string) {
	err := r.Failures.Append(failures.Entry{
		SessionID:   r.Journal.SessionID,
		Key:         rec.Key,
		Repository:  rec.Repository,
		Reason:      reason,
		RawResponse: raw,
		PromptChars: len(promptText),
	})
	if err != nil {
		zap.L().Warn("batch: failure record not written", zap.Error(err))
	}
}

func (r *Runner) stamp(rec *model.Record) {
	rec.AnalyzedAt = time.Now().UTC().Format(time.RFC3339)
}

// failureReason names the journaled failure. An empty response is called out
// so the journal separates silent oracles from unparseable ones.
func failureReason(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "empty response"
	}
	return "extraction failed"
}
