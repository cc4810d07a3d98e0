package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/refstudy/purity-cli/internal/batch"
	"github.com/refstudy/purity-cli/internal/dataset"
	"github.com/refstudy/purity-cli/internal/diffprep"
	"github.com/refstudy/purity-cli/internal/failures"
	"github.com/refstudy/purity-cli/internal/gitx"
	"github.com/refstudy/purity-cli/internal/model"
	"github.com/refstudy/purity-cli/internal/prompt"
	"github.com/refstudy/purity-cli/internal/store"
	anthropicpkg "github.com/refstudy/purity-cli/pkg/anthropic"
	"github.com/refstudy/purity-cli/pkg/ollama"
)

var (
	runFilter  string
	runMax     int
	runAll     bool
	runOffline bool
	runDryRun  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify pending commits in the working set",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var filter model.Label
		if runFilter != "" {
			switch model.Label(runFilter) {
			case model.LabelPure, model.LabelFloss, model.LabelUnknown:
				filter = model.Label(runFilter)
			default:
				return eris.Errorf("unknown ground-truth filter %q", runFilter)
			}
		}

		cache, err := store.OpenDiffCache(cfg.Data.DiffCache)
		if err != nil {
			return err
		}
		defer cache.Close()

		vcs := &store.CachedVCS{
			VCS: &gitx.ExecGit{
				WorkDir:    cfg.Git.WorkDir,
				RemoteBase: cfg.Git.RemoteBase,
			},
			Cache: cache,
		}

		builder := &prompt.Builder{TempDiffDir: cfg.Prepare.TempDiffDir}
		backend := cfg.Oracle.Backend
		var gen batch.Generator
		if runOffline {
			backend = "offline"
			gen = batch.OfflineGenerator{}
		} else {
			gen, err = buildGenerator(builder)
			if err != nil {
				return err
			}
		}

		journal := failures.NewSessionJournal(cfg.Data.JournalDir, backend, oracleModel())
		zap.L().Info("session started",
			zap.String("session", journal.SessionID),
			zap.String("journal", journal.Path()),
		)

		runner := &batch.Runner{
			Store: &dataset.Store{
				Path:      cfg.Data.WorkingSet,
				BackupDir: cfg.Data.BackupDir,
			},
			VCS:      vcs,
			Gen:      gen,
			Builder:  builder,
			Failures: &failures.Store{Path: cfg.Data.FailuresFile},
			Journal:  journal,
			PrepOpts: diffprep.Options{
				ReduceAt:       cfg.Prepare.ReduceAt,
				InlineBudget:   cfg.Prepare.InlineBudget,
				PerFileLineCap: cfg.Prepare.PerFileLineCap,
				OutOfBandAt:    cfg.Prepare.OutOfBandAt,
			},
			Opts: batch.Options{
				Filter:       filter,
				SkipTerminal: !runAll,
				Max:          runMax,
				Pause:        time.Duration(cfg.Batch.PauseSecs) * time.Second,
				DryRun:       runDryRun,
			},
		}

		sum, err := runner.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "batch run")
		}

		zap.L().Info("run complete",
			zap.Int("processed", sum.Processed),
			zap.Int("succeeded", sum.Succeeded),
			zap.Int("failed", sum.Failed),
			zap.Int("errors", sum.Errors),
			zap.Int("skipped", sum.Skipped),
			zap.Bool("interrupted", sum.Interrupted),
		)
		return nil
	},
}

// buildGenerator picks the oracle backend from configuration.
func buildGenerator(builder *prompt.Builder) (batch.Generator, error) {
	switch cfg.Oracle.Backend {
	case "ollama", "":
		client := ollama.NewClient(
			ollama.WithBaseURL(cfg.Oracle.Host),
			ollama.WithModel(cfg.Oracle.Model),
			ollama.WithAttempts(cfg.Oracle.Attempts),
		)
		return &ollama.Generator{
			Client:      client,
			Model:       cfg.Oracle.Model,
			Temperature: cfg.Oracle.Temperature,
			KeepAlive:   cfg.Oracle.KeepAlive,
			NumPredict:  cfg.Oracle.NumPredict,
		}, nil
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("anthropic backend selected but anthropic.key is empty")
		}
		// The API backend sends the system prompt as a cached block, so the
		// builder must not duplicate it inline.
		builder.OmitSystem = true
		return &anthropicpkg.Generator{
			Client:      anthropicpkg.NewClient(cfg.Anthropic.Key),
			Model:       cfg.Anthropic.Model,
			System:      prompt.System(),
			MaxTokens:   cfg.Anthropic.MaxTokens,
			Temperature: cfg.Oracle.Temperature,
		}, nil
	default:
		return nil, eris.Errorf("unknown oracle backend %q", cfg.Oracle.Backend)
	}
}

func oracleModel() string {
	if cfg.Oracle.Backend == "anthropic" {
		return cfg.Anthropic.Model
	}
	return cfg.Oracle.Model
}

func init() {
	runCmd.Flags().StringVar(&runFilter, "filter", "", "only process records with this ground truth (PURE, FLOSS, UNKNOWN)")
	runCmd.Flags().IntVar(&runMax, "max", 0, "max records to process this run (0 = all)")
	runCmd.Flags().BoolVar(&runAll, "all", false, "reprocess records already in a terminal state")
	runCmd.Flags().BoolVar(&runOffline, "offline", false, "use a stub oracle, no network calls")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "report which records would be processed and exit")
	rootCmd.AddCommand(runCmd)
}
