package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/refstudy/purity-cli/internal/failures"
)

var (
	failuresSession string
	failuresRaw     bool
)

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List recorded extraction failures",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := &failures.Store{Path: cfg.Data.FailuresFile}
		entries, err := st.Load()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, e := range entries {
			if failuresSession != "" && e.SessionID != failuresSession {
				continue
			}
			if !failuresRaw {
				// The raw response can be tens of kilobytes; elide it unless
				// explicitly requested.
				e.RawResponse = ""
			}
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	failuresCmd.Flags().StringVar(&failuresSession, "session", "", "only show failures from this session id")
	failuresCmd.Flags().BoolVar(&failuresRaw, "raw", false, "include full raw oracle responses")
	rootCmd.AddCommand(failuresCmd)
}
