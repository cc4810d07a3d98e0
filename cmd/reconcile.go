package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/refstudy/purity-cli/internal/dataset"
	"github.com/refstudy/purity-cli/internal/groundtruth"
	"github.com/refstudy/purity-cli/internal/model"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Merge reconciled analyzer labels into the working set",
	Long:  "Reads the static analyzer's raw per-refactoring export, collapses it to one label per commit, and writes the result onto matching working-set records. Commits absent from the export get UNKNOWN.",
	RunE: func(cmd *cobra.Command, args []string) error {
		observations, err := groundtruth.ParseRawCSV(cfg.Data.RawTruth)
		if err != nil {
			return err
		}

		res := groundtruth.Reconcile(observations)
		byKey := make(map[string]model.GroundTruth, len(res.Labels))
		for _, gt := range res.Labels {
			byKey[gt.Key] = gt
		}

		st := &dataset.Store{
			Path:      cfg.Data.WorkingSet,
			BackupDir: cfg.Data.BackupDir,
		}
		records, err := st.Load()
		if err != nil {
			return err
		}

		matched := 0
		for i := range records {
			gt, ok := byKey[records[i].Key]
			if !ok {
				records[i].GroundTruth = model.LabelUnknown
				continue
			}
			records[i].GroundTruth = gt.Label
			records[i].HadConflict = gt.HadConflict
			records[i].TruthDetail = gt.Description
			matched++
		}

		if err := st.BackupOnce(); err != nil {
			return err
		}
		if err := st.Save(records); err != nil {
			return eris.Wrap(err, "save working set")
		}

		zap.L().Info("reconcile complete",
			zap.Int("observations", len(observations)),
			zap.Int("filtered_rows", res.FilteredRows),
			zap.Int("reconciled_keys", len(res.Labels)),
			zap.Int("conflicts", res.ConflictKeys),
			zap.Int("matched_records", matched),
			zap.Int("unmatched_records", len(records)-matched),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
