package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <query...>",
		Short: "Route one query and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mesh, err := a.mesh(cmd.Context())
			if err != nil {
				return err
			}

			res, err := a.route(cmd.Context(), mesh, strings.Join(args, " "), nil)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			printResult(a.out, res.Agent, res.Response, res.Fallback)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
