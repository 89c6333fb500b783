package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/internal/errors"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe a W-code error",
		Long: `Print the description of an error code, or list every code.

Examples:
  gamewire explain
  gamewire explain W002`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, code := range errors.GetAllCodes() {
					t, _ := errors.GetTemplate(code)
					fmt.Fprintf(w, "%s  %-10s %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			code := strings.ToUpper(args[0])
			t, ok := errors.GetTemplate(code)
			if !ok {
				return fmt.Errorf("unknown error code %q", args[0])
			}
			fmt.Fprintf(w, "%s: %s\n", code, t.Message)
			fmt.Fprintf(w, "Category: %s\n", t.Category)
			if t.Detail != "" {
				fmt.Fprintf(w, "\n%s\n", t.Detail)
			}
			if t.Suggestion != "" {
				fmt.Fprintf(w, "\nHint: %s\n", t.Suggestion)
			}
			return nil
		},
	}
}
