package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkbridge/erlab/internal/report"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate the configured study dataset",
	Long: `Load the configured dataset source (a CSV file or a built-in simulated
study) and write it out as CSV, with a per-column summary table.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, err := loadData(cmd.Context())
		if err != nil {
			return err
		}

		outPath, _ := cmd.Flags().GetString("out")
		w := os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("simulate: %w", err)
			}
			defer f.Close()
			w = f
		}
		if err := tab.WriteCSV(w); err != nil {
			return err
		}

		if outPath == "" {
			return nil // keep stdout clean CSV
		}
		out, err := newOutput()
		if err != nil {
			return err
		}
		defer out.Close()
		return out.Write(cmd.Context(), report.DataTable("Data summary", tab.Summarize()))
	},
}

func init() {
	simulateCmd.Flags().StringP("out", "o", "", "write CSV to this path instead of stdout")
}
