// Package kernel provides the VM's sole side-effecting output surface: the
// `print` statement. Keeping it behind a one-method interface lets tests
// capture output without touching os.Stdout.
package kernel

import (
	"bufio"
	"io"
	"os"
)

// Kernel receives one line of text per `print` statement executed.
type Kernel interface {
	Print(line string)
}

// StdoutKernel prints to a buffered writer over os.Stdout, flushed on Close.
type StdoutKernel struct {
	w *bufio.Writer
}

func NewStdoutKernel() *StdoutKernel {
	return &StdoutKernel{w: bufio.NewWriter(os.Stdout)}
}

func (k *StdoutKernel) Print(line string) {
	io.WriteString(k.w, line)
	k.w.WriteByte('\n')
}

// Close flushes any buffered output. Callers should defer this around a run.
func (k *StdoutKernel) Close() error {
	return k.w.Flush()
}

// BufferKernel accumulates printed lines in memory, used by the golden-file
// harness and by unit tests that assert on VM output.
type BufferKernel struct {
	Lines []string
}

func NewBufferKernel() *BufferKernel {
	return &BufferKernel{}
}

func (k *BufferKernel) Print(line string) {
	k.Lines = append(k.Lines, line)
}

// String joins all printed lines with newlines, matching what a
// StdoutKernel would have written.
func (k *BufferKernel) String() string {
	var out string
	for i, l := range k.Lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	if len(k.Lines) > 0 {
		out += "\n"
	}
	return out
}
