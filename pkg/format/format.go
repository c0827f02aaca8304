// Package format renders counts and durations for console output.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Number formats n with thousands separators, e.g. 1234567 -> "1,234,567".
func Number(n int64) string {
	return printer.Sprintf("%d", n)
}

// NumberString formats a decimal integer string with thousands separators.
// Input that is not an integer is returned unchanged.
func NumberString(s string) string {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return s
	}
	return Number(n)
}

// Duration formats d as "mm:ss.sss". Minutes are not wrapped into hours,
// so 61 minutes renders as "61:00.000".
func Duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Round(time.Millisecond).Milliseconds()
	minutes := ms / 60000
	rest := ms % 60000
	return fmt.Sprintf("%02d:%02d.%03d", minutes, rest/1000, rest%1000)
}
