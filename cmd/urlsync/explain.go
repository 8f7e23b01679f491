package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/urlsync/internal/errors"
)

func explainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe error codes",
		Long: `Describe an error code, or list every code when none is given.

Examples:
  urlsync explain
  urlsync explain E121`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, code := range errors.GetAllCodes() {
					tmpl, _ := errors.GetTemplate(code)
					fmt.Fprintf(out, "%s  %-8s %s\n", code, tmpl.Category, tmpl.Message)
				}
				return nil
			}

			code := strings.ToUpper(args[0])
			tmpl, ok := errors.GetTemplate(code)
			if !ok {
				return errors.New(errors.CodeBadArgument).
					WithDetail(fmt.Sprintf("Unknown error code %q", args[0])).
					WithSuggestion("Run urlsync explain to list every code")
			}
			fmt.Fprintf(out, "%s: %s\n", code, tmpl.Message)
			if tmpl.Detail != "" {
				fmt.Fprintf(out, "\n  %s\n", tmpl.Detail)
			}
			if tmpl.DocURL != "" {
				fmt.Fprintf(out, "\n  Learn more: %s\n", tmpl.DocURL)
			}
			return nil
		},
	}

	return cmd
}
