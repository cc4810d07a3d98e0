package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/refstudy/purity-cli/internal/dataset"
	"github.com/refstudy/purity-cli/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print verdict distribution by ground-truth label",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := &dataset.Store{Path: cfg.Data.WorkingSet}
		records, err := st.Load()
		if err != nil {
			return err
		}

		type counts struct {
			pure, floss, pending, failed, errored int
		}
		byLabel := map[model.Label]*counts{}
		labels := []model.Label{model.LabelPure, model.LabelFloss, model.LabelUnknown}
		for _, l := range labels {
			byLabel[l] = &counts{}
		}

		for _, rec := range records {
			c, ok := byLabel[rec.GroundTruth]
			if !ok {
				c = byLabel[model.LabelUnknown]
			}
			switch {
			case rec.State == model.StateFailed:
				c.failed++
			case rec.State == model.StateError:
				c.errored++
			case rec.Category == model.CategoryPure:
				c.pure++
			case rec.Category == model.CategoryFloss:
				c.floss++
			default:
				c.pending++
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "GROUND TRUTH\tPURE\tFLOSS\tPENDING\tFAILED\tERROR")
		for _, l := range labels {
			c := byLabel[l]
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n", l, c.pure, c.floss, c.pending, c.failed, c.errored)
		}
		fmt.Fprintf(w, "TOTAL\t\t\t\t\t%d records\n", len(records))
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
