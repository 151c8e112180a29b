// Package report writes scan results for the user.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// Printer writes one line per open port.
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Open reports port as open.
func (p *Printer) Open(port uint16) error {
	_, err := fmt.Fprintf(p.w, "Port %d is open.\n", port)
	return err
}

const progressWidth = 40

// Progress draws a single-line progress bar that is redrawn in place.
// All methods are no-ops on a nil *Progress.
type Progress struct {
	w     io.Writer
	bar   progress.Model
	total int
	done  int
	drawn bool
}

func NewProgress(w io.Writer, total int) *Progress {
	return &Progress{
		w:     w,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
		total: total,
	}
}

// Advance records one finished port and redraws.
func (p *Progress) Advance() {
	if p == nil {
		return
	}
	p.done++
	p.draw()
}

// Clear blanks the bar so another line can be written over it. The next
// Advance draws it again.
func (p *Progress) Clear() {
	if p == nil || !p.drawn {
		return
	}
	fmt.Fprint(p.w, "\r"+strings.Repeat(" ", p.lineWidth())+"\r")
	p.drawn = false
}

// Finish clears the bar for good.
func (p *Progress) Finish() {
	p.Clear()
}

func (p *Progress) draw() {
	percent := 1.0
	if p.total > 0 {
		percent = float64(p.done) / float64(p.total)
	}
	fmt.Fprintf(p.w, "\r%s %d/%d", p.bar.ViewAs(percent), p.done, p.total)
	p.drawn = true
}

func (p *Progress) lineWidth() int {
	return progressWidth + 2 + 2*len(fmt.Sprint(p.total))
}
