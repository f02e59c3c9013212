package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/routemesh/evaluation"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		asJSON      bool
		minAccuracy float64
	)

	cmd := &cobra.Command{
		Use:   "eval <cases.yaml>",
		Short: "Measure classification accuracy on labelled queries",
		Long: `eval classifies every query in the cases file and compares the chosen agent
with the expected one. Personas are not asked to answer.

The file holds a top level "cases" list of {query, expected} entries.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := evaluation.LoadCases(args[0])
			if err != nil {
				return err
			}

			mesh, err := a.mesh(cmd.Context())
			if err != nil {
				return err
			}

			report, err := evaluation.Evaluate(cmd.Context(), mesh.Orchestrator(), cases)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else if err := printReport(a, report); err != nil {
				return err
			}

			if report.Accuracy() < minAccuracy {
				return fmt.Errorf("accuracy %.2f below required %.2f", report.Accuracy(), minAccuracy)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().Float64Var(&minAccuracy, "min-accuracy", 0, "fail when accuracy is below this ratio")
	return cmd
}

func printReport(a *app, report *evaluation.Report) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tEXPECTED\tGOT\tQUERY")

	for _, r := range report.Results {
		mark := color.GreenString("✓")
		got := r.Got
		switch {
		case r.Err != "":
			mark, got = color.RedString("✗"), "error: "+r.Err
		case !r.Correct:
			mark = color.RedString("✗")
		}
		if r.Fallback {
			got += " (fallback)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, r.Case.Expected, got, r.Case.Query)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\naccuracy %.1f%% (%d/%d), fallbacks %d, errors %d\n",
		report.Accuracy()*100, report.Correct, report.Total, report.Fallbacks, report.Errors)
	return nil
}
