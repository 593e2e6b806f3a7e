package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.vud>",
		Short: "Run Lex/Parse/Lower/Check and report diagnostics only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, src, _, err := loadAndCompile(args[0])
			code := reportAndExit(cmd, res, src, err)
			if code == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green("ok"), args[0])
			}
			os.Exit(code)
			return nil
		},
	}
}
