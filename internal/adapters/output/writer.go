// Package output provides the status writer for provisioning progress text.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/kubicas/repoget/internal/domain"
)

// Writer implements domain.StatusWriter, writing one line per event. Colors
// are applied only when the destination is a terminal.
type Writer struct {
	out      io.Writer
	remote   *color.Color
	location *color.Color
	warn     *color.Color
	fail     *color.Color
}

// NewWriter creates a Writer on stdout. Color is disabled when stdout is not
// a terminal.
func NewWriter() *Writer {
	w := NewWriterWithOutput(os.Stdout)
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		for _, c := range []*color.Color{w.remote, w.location, w.warn, w.fail} {
			c.DisableColor()
		}
	}
	return w
}

// NewWriterWithOutput creates a Writer with a custom destination.
// This is useful for testing; colors stay enabled unless disabled by the
// global color settings.
func NewWriterWithOutput(out io.Writer) *Writer {
	return &Writer{
		out:      out,
		remote:   color.New(color.FgMagenta),
		location: color.New(color.FgCyan),
		warn:     color.New(color.FgYellow),
		fail:     color.New(color.FgRed),
	}
}

// Cloning reports the start of a fresh clone.
func (w *Writer) Cloning(remote, dir string) {
	fmt.Fprintf(w.out, "Cloning %s into %s\n", w.remote.Sprint(remote), w.location.Sprint(dir))
}

// Updating reports the start of an update of an existing checkout.
func (w *Writer) Updating(remote, dir string) {
	fmt.Fprintf(w.out, "Updating %s in %s\n", w.remote.Sprint(remote), w.location.Sprint(dir))
}

// Done reports a completed provisioning.
func (w *Writer) Done(result *domain.GetResult) {
	fmt.Fprintf(w.out, "%s %s (%s)\n", w.remote.Sprint(result.Remote), string(result.Action), w.location.Sprint(result.Dir))
}

// Warning reports a non-fatal condition.
func (w *Writer) Warning(msg string) {
	fmt.Fprintf(w.out, "%s %s\n", w.warn.Sprint("warning:"), msg)
}

// Failed reports a per-repository failure.
func (w *Writer) Failed(remote string, err error) {
	fmt.Fprintf(w.out, "%s %s: %v\n", w.fail.Sprint("failed:"), w.remote.Sprint(remote), err)
}
