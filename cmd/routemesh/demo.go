package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/routemesh"
)

// demoQueries exercise each persona of the built-in roster once.
var demoQueries = []string{
	"I need help developing an AI strategy for my e-commerce business",
	"How do I achieve ISO 27001 certification for my startup?",
	"What's the best way to organize our customer data?",
	"Tell me about Almost Magic Tech Lab",
}

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Route the sample queries through the roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mesh, err := a.mesh(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s Registered %d agents\n", color.GreenString("✓"), mesh.Orchestrator().Len())
			a.runDemo(cmd.Context(), mesh, demoQueries)
			return nil
		},
	}
}

// runDemo routes each query in turn. A failed query is reported and the loop
// moves on to the next one.
func (a *app) runDemo(ctx context.Context, mesh *routemesh.RouteMesh, queries []string) (failed int) {
	rule := strings.Repeat("-", 60)
	fmt.Fprintln(a.out, strings.Repeat("=", 60))

	for i, query := range queries {
		if ctx.Err() != nil {
			break
		}

		fmt.Fprintf(a.out, "\n%s Query %d: %s\n%s\n", color.CyanString("?"), i+1, query, rule)

		res, err := a.route(ctx, mesh, query, nil)
		if err != nil {
			failed++
			fmt.Fprintf(a.out, "%s Error: %v\n", color.RedString("✗"), err)
			continue
		}

		printResult(a.out, res.Agent, res.Response, res.Fallback)
	}

	fmt.Fprintln(a.out, strings.Repeat("=", 60))
	fmt.Fprintf(a.out, "%s Demo complete (%d/%d routed)\n", color.GreenString("✓"), len(queries)-failed, len(queries))
	return failed
}

func printResult(w io.Writer, agentName, response string, fallback bool) {
	note := ""
	if fallback {
		note = color.YellowString(" (fallback)")
	}
	fmt.Fprintf(w, "Selected agent: %s%s\n", color.New(color.Bold).Sprint(agentName), note)
	fmt.Fprintf(w, "Response:\n%s\n", response)
}
