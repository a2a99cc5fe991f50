package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every file referenced by a database record exists on disk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scanner, cleanup, err := newScanner(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := scanner.ValidateConsistency(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if *jsonOutput {
				return printJSON(out, report)
			}

			for _, m := range report.Missing {
				fmt.Fprintf(out, "missing %-10s %s\n", m.Source, m.Path)
			}
			fmt.Fprintf(out, "Checked %d referenced files, %d missing.\n", report.Checked, len(report.Missing))
			return nil
		},
	}
}
