package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vudoc/vudoc/internal/diagnostics"
	"github.com/vudoc/vudoc/internal/runtime/host"
)

// newRunCmd registers one spirit against a real host.Runtime and runs its
// entry to completion. There is no WebAssembly engine wired into this
// repository (§1 lists the CLI driver itself as an external collaborator,
// and no engine dependency appears anywhere in the retrieved pack), so this
// does not interpret res.Wasm's bytecode — it exercises the host side of
// the ABI end to end (allocator, broker, scheduler, clock) the same way
// internal/runtime/host's own tests do, against an entry that immediately
// reports success. Driving actual guest instructions is left to whatever
// engine a future collaborator binds against this Host.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file.vud>",
		Short: "Compile, then register one spirit with the host runtime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, src, cfg, err := loadAndCompile(args[0])
			code := reportAndExit(cmd, res, src, err)
			if code != 0 {
				os.Exit(code)
				return nil
			}

			rt, rtErr := host.New(host.Config{
				HeapCapacity:  cfg.HeapCapacity,
				Seed:          cfg.Seed,
				Deterministic: cfg.Deterministic,
				PoolSize:      cfg.PoolSize,
				Logger:        diagnostics.NewLogger(os.Stderr, diagnostics.LevelInfo),
			})
			if rtErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", red("internal error"), rtErr)
				os.Exit(2)
				return nil
			}
			defer rt.Release()

			spirit := rt.NewSpirit("")
			if runErr := rt.Run(spirit.ID, func() error { return nil }); runErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", red("error"), runErr)
				os.Exit(1)
				return nil
			}
			for _, outcome := range rt.Wait() {
				if outcome.Panic != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: spirit %s panicked: %s\n", red("error"), outcome.SpiritID, outcome.Panic.Message)
					os.Exit(1)
					return nil
				}
				if outcome.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: spirit %s: %v\n", red("error"), outcome.SpiritID, outcome.Err)
					os.Exit(1)
					return nil
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (spirit %s)\n", green("ran"), args[0], spirit.ID)
			return nil
		},
	}
}
