// Command vudoc is the thin CLI driver §1 names as an external collaborator
// of the core — it exists only to exercise compile/check/emit/inspect/run
// end to end, the way the teacher's cmd/ailang exercises eval/parse/lex.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version is set by ldflags during build, mirroring the teacher's
// Version/Commit/BuildTime convention.
var (
	Version = "dev"
	Commit  = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra already printed the error; exit code 2 means "the CLI
		// itself failed" (bad flags, I/O), distinct from the 0/1
		// compile-diagnostics split each subcommand reports itself.
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vudoc",
		Short:         "Compiler and sandboxed runtime driver for vudoc programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
	}
	root.SetVersionTemplate(fmt.Sprintf("%s %s\n", bold("vudoc"), "{{.Version}}\n"))

	root.AddCommand(
		newCheckCmd(),
		newCompileCmd(),
		newEmitCmd(),
		newInspectCmd(),
		newRunCmd(),
	)
	return root
}
