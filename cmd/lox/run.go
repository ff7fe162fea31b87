package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/loxvm/lox/internal/compiler"
	"github.com/loxvm/lox/internal/diag"
	"github.com/loxvm/lox/internal/intern"
	"github.com/loxvm/lox/internal/kernel"
	"github.com/loxvm/lox/internal/lexer"
	"github.com/loxvm/lox/internal/parser"
	"github.com/loxvm/lox/internal/vm"
)

type runCmd struct {
	disassemble bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "execute a script" }
func (*runCmd) Usage() string {
	return `run <path>:
  Compile and execute a .lox source file.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.disassemble, "disassemble", false, "print the compiled chunk before running")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "run: missing <path>")
		return subcommands.ExitUsageError
	}
	path := args[0]

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return subcommands.ExitFailure
	}

	p := parser.New(lexer.New(string(src)))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		diag.Format(os.Stderr, errs)
		return subcommands.ExitFailure
	}

	diags := &diag.Bag{}
	pool := intern.New(64)
	fn := compiler.New(diags, pool, path).Compile(prog)
	if diags.HasErrors() {
		diag.Format(os.Stderr, diags.All())
		return subcommands.ExitFailure
	}

	if r.disassemble {
		fmt.Fprint(os.Stderr, fn.Chunk.DisassembleAll(path))
	}

	out := kernel.NewStdoutKernel()
	machine := vm.New(out, pool)
	runErr := machine.Run(fn)
	out.Close()
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", runErr)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
