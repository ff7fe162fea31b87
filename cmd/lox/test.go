package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"

	"github.com/loxvm/lox/internal/golden"
)

type testCmd struct {
	bless bool
}

func (*testCmd) Name() string     { return "test" }
func (*testCmd) Synopsis() string { return "run golden-file tests under a directory" }
func (*testCmd) Usage() string {
	return `test <path> [--bless]:
  Walk <path> for .lox files and compare token/syntax/bytecode/output
  against golden fixtures in a sibling directory. --bless overwrites them.
`
}

func (t *testCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&t.bless, "bless", false, "overwrite golden fixtures with current output")
}

func (t *testCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "test: missing <path>")
		return subcommands.ExitUsageError
	}
	// The flag package stops at the first positional argument, so a
	// trailing --bless (as in the usage line) arrives here as an argument.
	for _, a := range args[1:] {
		if a == "--bless" || a == "-bless" {
			t.bless = true
		}
	}

	results, err := golden.Run(args[0], t.bless)
	if err != nil {
		fmt.Fprintf(os.Stderr, "test: %v\n", err)
		return subcommands.ExitFailure
	}

	var passed, failed, skipped int
	var totalBytes uint64
	for _, r := range results {
		totalBytes += uint64(r.SourceLen)
		switch {
		case r.Skipped:
			skipped++
			fmt.Printf("SKIP %s\n", r.Path)
		case r.Err != nil:
			failed++
			fmt.Printf("FAIL %s: %v\n", r.Path, r.Err)
		case len(r.Mismatch) > 0:
			failed++
			fmt.Printf("FAIL %s\n", r.Path)
			for _, name := range []string{"token", "syntax", "bytecode", "output"} {
				if patch, ok := r.Mismatch[name]; ok {
					fmt.Printf("  -- %s --\n%s\n", name, patch)
				}
			}
		default:
			passed++
		}
	}

	if t.bless {
		fmt.Printf("blessed %d golden file(s) (%s source)\n", len(results), humanize.Bytes(totalBytes))
		return subcommands.ExitSuccess
	}

	fmt.Printf("%d passed, %d failed, %d skipped (%s source)\n", passed, failed, skipped, humanize.Bytes(totalBytes))
	if failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
