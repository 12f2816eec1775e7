package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"nearest-departures/internal/general/contracts"
)

const (
	boardWidth   = 87
	lineWidth    = 20
	stopWidth    = 30
	rowFormat    = "  %-27s %-10s %-10s %30s\n"
	footerLayout = "02.01.2006 15:04:05"
	timeLayout   = "15:04"
)

// View renders the departure monitor as text. Board output goes to out, error
// blocks to errOut.
type View struct {
	out    io.Writer
	errOut io.Writer
	loc    *time.Location
	now    func() time.Time
}

// NewView creates a console view in the local time zone.
func NewView(out, errOut io.Writer) *View {
	return &View{out: out, errOut: errOut, loc: time.Local, now: time.Now}
}

// ShowLoading prints the notice shown while a traversal is in flight.
func (v *View) ShowLoading(addr contracts.Address) {
	fmt.Fprintf(v.out, "\n[MONITOR] Searching departures near: %s %s\n", addr.Street, addr.HouseNumber)
	fmt.Fprint(v.out, "[MONITOR] Please wait...\n\n")
}

// ShowError prints an error block.
func (v *View) ShowError(message string) {
	bar := strings.Repeat("!", 80)
	fmt.Fprintf(v.errOut, "\n%s\n  ERROR: %s\n%s\n\n", bar, message, bar)
}

// ShowDepartures prints the board. fetchedAt may be nil, then the footer shows
// the current time.
func (v *View) ShowDepartures(stations []contracts.Station, fetchedAt *time.Time) {
	rule := "  " + strings.Repeat("=", boardWidth)
	fmt.Fprintf(v.out, "\n%s\n", rule)
	fmt.Fprintln(v.out, "                              DEPARTURE MONITOR")
	fmt.Fprintln(v.out, "                  (Data available for Hamburg/HVV region only)")
	fmt.Fprintln(v.out, rule)

	if len(stations) == 0 {
		v.ShowError("No departures found")
		return
	}

	now := v.now().In(v.loc)
	sep := "  " + strings.Repeat("-", boardWidth)

	fmt.Fprintf(v.out, rowFormat, "LINE", "IN", "TIME", "STOP")
	fmt.Fprintln(v.out, sep)

	total := 0
	for _, st := range stations {
		if len(st.Departures) == 0 {
			fmt.Fprintf(v.out, rowFormat, "-", "-", "-", truncate(st.Name, stopWidth))
			continue
		}
		for _, dep := range st.Departures {
			total++
			at := dep.DepartureTime.In(v.loc)
			fmt.Fprintf(v.out, rowFormat,
				truncate(dep.LineName, lineWidth),
				minutesUntil(now, at),
				at.Format(timeLayout),
				truncate(st.Name, stopWidth),
			)
		}
	}

	fmt.Fprintln(v.out, sep)
	fmt.Fprintf(v.out, "  Total: %d departures from %d stations\n", total, len(stations))

	updated := now
	if fetchedAt != nil {
		updated = fetchedAt.In(v.loc)
	}
	fmt.Fprintf(v.out, "  Last data update: %s\n", updated.Format(footerLayout))
	fmt.Fprintf(v.out, "%s\n\n", rule)
}

// minutesUntil counts whole minutes, truncated toward zero.
func minutesUntil(now, at time.Time) string {
	minutes := int64(at.Sub(now) / time.Minute)
	switch {
	case minutes < 0:
		return "departed"
	case minutes == 0:
		return "now"
	case minutes == 1:
		return "1 min"
	case minutes < 60:
		return fmt.Sprintf("%d min", minutes)
	default:
		return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
	}
}

// truncate cuts text to max runes, ending in "...".
func truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max-3]) + "..."
}
