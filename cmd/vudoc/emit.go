package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newEmitCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "emit <file.vud>",
		Short: "Compile to a WebAssembly module and write it to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, src, _, err := loadAndCompile(args[0])
			code := reportAndExit(cmd, res, src, err)
			if code != 0 {
				os.Exit(code)
				return nil
			}
			if out == "" {
				out = args[0] + ".wasm"
			}
			if writeErr := os.WriteFile(out, res.Wasm, 0o644); writeErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", red("error"), writeErr)
				os.Exit(2)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d bytes)\n", green("wrote"), out, len(res.Wasm))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: <file>.wasm)")
	return cmd
}
