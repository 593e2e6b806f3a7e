package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file.vud>",
		Short: "Run the full pipeline and report success without writing a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, src, _, err := loadAndCompile(args[0])
			code := reportAndExit(cmd, res, src, err)
			if code == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d bytes of wasm)\n", green("compiled"), args[0], len(res.Wasm))
			}
			os.Exit(code)
			return nil
		},
	}
}
