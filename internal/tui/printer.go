package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jpalmerr/pollwidget"
)

// Printer writes one line per update. It is safe for concurrent use.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter returns a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Print writes a single line describing u.
func (p *Printer) Print(u pollwidget.Update) {
	line := fmt.Sprintf("%s %s state=%s version=%d latency=%s size=%s",
		u.CheckedAt.Format(time.TimeOnly),
		u.Widget,
		u.State,
		u.Version,
		u.Latency.Round(time.Millisecond),
		humanize.Bytes(uint64(len(u.Items))),
	)
	if u.StatusCode != 0 {
		line += fmt.Sprintf(" status=%d", u.StatusCode)
	}
	if u.Error != nil {
		line += fmt.Sprintf(" error=%q", u.Error.Error())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}
