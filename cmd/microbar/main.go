// Command microbar is the CLI entrypoint: a cobra root with ingest,
// backtest, and serve subcommands, replacing the teacher's single flat
// main.go flag-parsing boot sequence with the multi-command shape
// described in SPEC_FULL.md §6. Grounded on the teacher's main.go for
// the overall boot order (env -> config -> wiring -> HTTP -> dispatch)
// and on _examples/SAbdulRahuman-opense-ai-agents's cobra root command for the
// subcommand layout.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
