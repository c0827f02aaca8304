package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\x1b[2K"

// Terminal keeps a single status line up to date on an interactive
// terminal. When the output is not a terminal every report becomes one log
// event instead, so redirected output stays readable.
type Terminal struct {
	mu          sync.Mutex
	out         io.Writer
	logger      zerolog.Logger
	interactive bool
	drawn       bool
}

// NewTerminal creates a reporter writing to out.
func NewTerminal(out io.Writer, logger zerolog.Logger) *Terminal {
	return &Terminal{
		out:         out,
		logger:      logger,
		interactive: isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Report overwrites the status line.
func (t *Terminal) Report(current, total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.interactive {
		t.logger.Info().
			Int64("current", current).
			Int64("total", total).
			Int64("percent", Percent(current, total)).
			Msg("Collection progress")
		return
	}

	fmt.Fprint(t.out, clearLine+Line(current, total))
	t.drawn = true
}

// Done ends the status line. The summary is printed only for successful runs.
func (t *Terminal) Done(s Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.interactive {
		if s.Err == nil {
			t.logger.Info().
				Int64("collected", s.Collected).
				Int64("total", s.Total).
				Dur("elapsed", s.Elapsed).
				Bool("complete", s.Complete()).
				Msg(SummaryLine(s))
		}
		return
	}

	if s.Err != nil {
		if t.drawn {
			fmt.Fprintln(t.out)
		}
		t.drawn = false
		return
	}

	fmt.Fprintln(t.out, clearLine+SummaryLine(s))
	t.drawn = false
}
