// Command sqllint verifies the --sql <uuid> markers on query constants.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "sqllint [paths...]",
		Short:        "Check that SQL constants carry unique --sql <uuid> markers",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			l := NewLinter()
			for _, target := range args {
				info, err := os.Stat(target)
				if err != nil {
					return err
				}
				switch {
				case info.IsDir():
					err = l.Walk(target)
				case filepath.Ext(target) == ".go":
					err = l.File(target, nil)
				}
				if err != nil {
					return err
				}
			}
			findings := l.Findings()
			if len(findings) == 0 {
				return nil
			}
			out := cmd.ErrOrStderr()
			fmt.Fprintln(out, "sqllint: SQL marker problems")
			for _, f := range findings {
				fmt.Fprintf(out, "  %s\n", f)
			}
			return errors.New("sqllint: found problems")
		},
	}
}
