// Package golden implements the `test <path> [--bless]` CLI verb: it walks
// a directory for `.lox` files and, for each one, compares the lexer's
// token stream, the parser's statement tree, the compiler's disassembly,
// and the VM's printed output against golden fixtures in a sibling
// directory. Pattern grounded on the pack's own file-diffing test harness.
package golden

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kylelemons/godebug/diff"

	"github.com/loxvm/lox/internal/compiler"
	"github.com/loxvm/lox/internal/diag"
	"github.com/loxvm/lox/internal/intern"
	"github.com/loxvm/lox/internal/kernel"
	"github.com/loxvm/lox/internal/lexer"
	"github.com/loxvm/lox/internal/parser"
	"github.com/loxvm/lox/internal/token"
	"github.com/loxvm/lox/internal/vm"
)

// artifactNames are the golden file names compared for each .lox source,
// in the order they're produced by the pipeline.
var artifactNames = []string{"token", "syntax", "bytecode", "output"}

// FileResult is the outcome of checking one .lox source against its
// golden fixtures.
type FileResult struct {
	Path      string
	SourceLen int
	Skipped   bool
	Mismatch  map[string]string // artifact name -> unified diff, only on failure
	Err       error
}

// Passed reports whether r has no diffs and no error.
func (r FileResult) Passed() bool {
	return r.Err == nil && !r.Skipped && len(r.Mismatch) == 0
}

// Run walks root for .lox files and checks (or, if bless is true,
// overwrites) each one's golden fixtures.
func Run(root string, bless bool) ([]FileResult, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".lox" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	results := make([]FileResult, 0, len(paths))
	for _, p := range paths {
		results = append(results, checkFile(p, bless))
	}
	return results, nil
}

func checkFile(path string, bless bool) FileResult {
	res := FileResult{Path: path}

	src, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.SourceLen = len(src)

	if shouldIgnore(string(src)) {
		res.Skipped = true
		return res
	}

	artifacts, err := produceArtifacts(path, string(src))
	if err != nil {
		res.Err = err
		return res
	}

	siblingDir := strings.TrimSuffix(path, ".lox")
	if bless {
		if err := os.MkdirAll(siblingDir, 0o755); err != nil {
			res.Err = err
			return res
		}
		for _, name := range artifactNames {
			goldPath := filepath.Join(siblingDir, name)
			if err := os.WriteFile(goldPath, []byte(artifacts[name]), 0o644); err != nil {
				res.Err = err
				return res
			}
		}
		return res
	}

	for _, name := range artifactNames {
		goldPath := filepath.Join(siblingDir, name)
		wantBytes, err := os.ReadFile(goldPath)
		if err != nil && !os.IsNotExist(err) {
			res.Err = err
			return res
		}
		want := string(wantBytes)
		got := artifacts[name]
		if patch := diff.Diff(want, got); patch != "" {
			if res.Mismatch == nil {
				res.Mismatch = make(map[string]string)
			}
			res.Mismatch[name] = patch
		}
	}
	return res
}

// shouldIgnore reports whether any line's first non-whitespace characters
// are "# ignore".
func shouldIgnore(src string) bool {
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "# ignore") {
			return true
		}
	}
	return false
}

func produceArtifacts(path, src string) (map[string]string, error) {
	var tokens strings.Builder
	l := lexer.New(src)
	for {
		tok := l.NextToken()
		fmt.Fprintln(&tokens, tok.String())
		if tok.Type == token.EOF {
			break
		}
	}

	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		var b strings.Builder
		diag.Format(&b, errs)
		return map[string]string{
			"token":    tokens.String(),
			"syntax":   b.String(),
			"bytecode": "",
			"output":   "",
		}, nil
	}

	diags := &diag.Bag{}
	pool := intern.New(32)
	fn := compiler.New(diags, pool, path).Compile(prog)
	if diags.HasErrors() {
		var b strings.Builder
		diag.Format(&b, diags.All())
		return map[string]string{
			"token":    tokens.String(),
			"syntax":   prog.String(),
			"bytecode": "",
			"output":   b.String(),
		}, nil
	}

	out := kernel.NewBufferKernel()
	machine := vm.New(out, pool)
	runErr := machine.Run(fn)
	output := out.String()
	if runErr != nil {
		output += "runtime error: " + runErr.Error() + "\n"
	}

	return map[string]string{
		"token":    tokens.String(),
		"syntax":   prog.String(),
		"bytecode": fn.Chunk.DisassembleAll(filepath.Base(path)),
		"output":   output,
	}, nil
}
