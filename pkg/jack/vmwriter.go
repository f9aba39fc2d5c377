package jack

import (
	"bufio"
	"fmt"
	"os"

	"github.com/hmny-oss/n2t-toolchain/internal/diag"
)

// ----------------------------------------------------------------------------
// VM writer

// VMWriter is a thin emitter over a text output file: one VM command per
// line, no knowledge of the Jack grammar. It follows the same resource-discipline
// pattern as the Assembler and VM Translator CLIs: the output file is
// acquired at construction, and removed unless Finish is reached.
type VMWriter struct {
	file      *os.File
	buf       *bufio.Writer
	path      string
	completed bool
}

func NewVMWriter(path string) (*VMWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, diag.IOErrorf("unable to open VM output file: %s", err)
	}
	return &VMWriter{file: file, buf: bufio.NewWriter(file), path: path}, nil
}

func (w *VMWriter) line(format string, args ...interface{}) error {
	if _, err := fmt.Fprintf(w.buf, format+"\n", args...); err != nil {
		return diag.IOErrorf("writing VM output: %s", err)
	}
	return nil
}

func (w *VMWriter) WritePush(segment string, index uint16) error { return w.line("push %s %d", segment, index) }
func (w *VMWriter) WritePop(segment string, index uint16) error  { return w.line("pop %s %d", segment, index) }

func (w *VMWriter) WriteArithmetic(command string) error { return w.line("%s", command) }

func (w *VMWriter) WriteLabel(name string) error  { return w.line("label %s", name) }
func (w *VMWriter) WriteGoto(name string) error   { return w.line("goto %s", name) }
func (w *VMWriter) WriteIfGoto(name string) error { return w.line("if-goto %s", name) }

func (w *VMWriter) WriteFunction(name string, nLocals uint16) error {
	return w.line("function %s %d", name, nLocals)
}
func (w *VMWriter) WriteCall(name string, nArgs uint16) error {
	return w.line("call %s %d", name, nArgs)
}
func (w *VMWriter) WriteReturn() error { return w.line("return") }

// Finish flushes and closes the output file, marking the compilation as having
// completed successfully; the file is kept.
func (w *VMWriter) Finish() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return diag.IOErrorf("flushing VM output: %s", err)
	}
	w.completed = true
	err := w.file.Close()
	if err != nil {
		return diag.IOErrorf("closing VM output file: %s", err)
	}
	return nil
}

// Abort closes and removes the (incomplete) output file; callers must invoke
// either Finish or Abort exactly once, on every exit path.
func (w *VMWriter) Abort() {
	if w.completed {
		return
	}
	w.file.Close()
	os.Remove(w.path)
}
