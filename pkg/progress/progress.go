// Package progress reports collection progress after every page.
package progress

import (
	"fmt"
	"math"
	"time"

	"github.com/Sternrassler/workshop-collector/pkg/format"
)

// Summary describes a finished collection run.
type Summary struct {
	Collected int64
	Total     int64
	Elapsed   time.Duration

	// Err is set when the run failed; Collected is then what had been
	// gathered before the failure.
	Err error
}

// Complete reports whether the run gathered exactly the declared total.
func (s Summary) Complete() bool {
	return s.Err == nil && s.Collected == s.Total
}

// Reporter receives progress from the collector.
type Reporter interface {
	// Report is called once per retrieved page with the running record
	// count and the total declared by that page.
	Report(current, total int64)

	// Done is called once when the run ends, successfully or not.
	Done(s Summary)
}

// Func adapts a plain callback to Reporter. Done is a no-op.
type Func func(current, total int64)

// Report calls f.
func (f Func) Report(current, total int64) {
	f(current, total)
}

// Done does nothing.
func (Func) Done(Summary) {}

// Nop discards all progress.
type Nop struct{}

// Report does nothing.
func (Nop) Report(int64, int64) {}

// Done does nothing.
func (Nop) Done(Summary) {}

// Percent returns round(current/total*100). A zero total means there is
// nothing left to collect and yields 100.
func Percent(current, total int64) int64 {
	if total <= 0 {
		return 100
	}
	return int64(math.Round(float64(current) / float64(total) * 100))
}

// Line renders the status line, e.g. "Progress (50%): 1,000/2,000".
func Line(current, total int64) string {
	return fmt.Sprintf("Progress (%d%%): %s/%s",
		Percent(current, total), format.Number(current), format.Number(total))
}

// SummaryLine renders the closing line of a successful run.
func SummaryLine(s Summary) string {
	state := "Incomplete"
	if s.Complete() {
		state = "Complete"
	}
	return fmt.Sprintf("Collected %s/%s items in %s (%s)",
		format.Number(s.Collected), format.Number(s.Total), format.Duration(s.Elapsed), state)
}
