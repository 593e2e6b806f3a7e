package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.vud>",
		Short: "Print the lowered module's declarations after Check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, src, _, err := loadAndCompile(args[0])
			code := reportAndExit(cmd, res, src, err)
			if code != 0 {
				os.Exit(code)
				return nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", bold("module"), res.Module.Path)
			for _, t := range res.Module.Types {
				fmt.Fprintf(out, "  type   %s\n", cyan(t.Name))
			}
			for _, tr := range res.Module.Traits {
				fmt.Fprintf(out, "  trait  %s\n", cyan(tr.Name))
			}
			for _, fn := range res.Module.Functions {
				vis := "    "
				if fn.Public {
					vis = "pub "
				}
				purity := ""
				if fn.Pure {
					purity = " pure"
				}
				fmt.Fprintf(out, "  %sfun %s(%d params)%s\n", vis, yellow(fn.Name), len(fn.Params), purity)
			}
			fmt.Fprintf(out, "%s %d bytes of wasm\n", bold("emitted"), len(res.Wasm))
			return nil
		},
	}
}
