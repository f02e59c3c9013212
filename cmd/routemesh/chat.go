package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/routemesh"
	"github.com/hupe1980/routemesh/core"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive session; the transcript is kept across turns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mesh, err := a.mesh(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, "Type a question, or /quit to exit. /reset clears the transcript.")
			return a.chatLoop(cmd.Context(), mesh, cmd.InOrStdin())
		},
	}
}

// chatLoop reads one query per line. The transcript lives here, with the
// caller; each successful turn appends the query and the reply.
func (a *app) chatLoop(ctx context.Context, mesh *routemesh.RouteMesh, in io.Reader) error {
	var history core.Conversation
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(a.out, color.CyanString("> "))
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			history = nil
			fmt.Fprintln(a.out, "transcript cleared")
			continue
		}

		res, err := a.route(ctx, mesh, line, history)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(a.out, "%s Error: %v\n", color.RedString("✗"), err)
			continue
		}

		printResult(a.out, res.Agent, res.Response, res.Fallback)
		history = history.With(core.NewUserText(line), core.NewAssistantText(res.Response))
	}
}
