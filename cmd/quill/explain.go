package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	qerrors "github.com/vango-dev/quill/internal/errors"
)

func explainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe an error code",
		Long: `Describe a quill error code, or list every code when none is given.

Examples:
  quill explain
  quill explain Q002`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, code := range qerrors.GetAllCodes() {
					t, _ := qerrors.GetTemplate(code)
					fmt.Fprintf(out, "%s  %-10s %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			code := strings.ToUpper(args[0])
			if _, ok := qerrors.GetTemplate(code); !ok {
				return qerrors.New("Q201").
					WithDetailf("%s is not a quill error code", args[0]).
					WithSuggestion("Run 'quill explain' to list the known codes")
			}
			fmt.Fprint(out, qerrors.New(code).Format())
			return nil
		},
	}
	return cmd
}
