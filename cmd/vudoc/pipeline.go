package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vudoc/vudoc/internal/compiler"
	"github.com/vudoc/vudoc/internal/config"
	"github.com/vudoc/vudoc/internal/diagnostics"
	"github.com/vudoc/vudoc/internal/lower"
	"github.com/vudoc/vudoc/internal/wasm"
)

// sharedCache lets a single `vudoc` invocation reuse one lowering result
// across subcommands that both parse the same file in the same process
// (there is only ever one per run, but NewCache(8) keeps Pipeline's cache-or-not
// branch exercised the same way a long-lived daemon would use it).
func sharedCache() *lower.Cache {
	c, err := lower.NewCache(8)
	if err != nil {
		return nil
	}
	return c
}

// loadAndCompile reads path, loads vudoc.toml next to it (if present), and
// runs the full pipeline. It never calls os.Exit itself so every subcommand
// controls its own exit code.
func loadAndCompile(path string) (*compiler.Result, []byte, config.Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, config.Config{}, err
	}

	cfg, err := config.Load(configPathFor(path))
	if err != nil {
		return nil, nil, config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	p := &compiler.Pipeline{
		Path:  path,
		Cache: sharedCache(),
		WasmConfig: wasm.Config{
			InitialPages: cfg.InitialPages,
			MaxPages:     cfg.MaxPages,
			HasMaxPages:  cfg.HasMaxPages,
		},
	}
	return p.Compile(src), src, cfg, nil
}

func configPathFor(sourcePath string) string {
	return filepath.Join(filepath.Dir(sourcePath), "vudoc.toml")
}

// reportAndExit prints res's diagnostics (if any) and returns the process
// exit code: 0 clean, 1 diagnostics with errors present, 2 an internal
// failure (EmitErr, or the caller's own I/O error) unrelated to the source.
func reportAndExit(cmd *cobra.Command, res *compiler.Result, src []byte, ioErr error) int {
	if ioErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", red("error"), ioErr)
		return 2
	}
	if res.Diags != nil && len(res.Diags.All()) > 0 {
		diagnostics.Report(cmd.ErrOrStderr(), src, res.Diags)
	}
	if res.EmitErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", red("internal error"), res.EmitErr)
		return 2
	}
	return diagnostics.ExitCode(res.Diags)
}
