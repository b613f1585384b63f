// Package display renders the live monitor frame to a terminal.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Session blocks last five hours, which bounds the time-to-reset bar.
const sessionMinutes = 300

const barWidth = 50

// Frame is a single snapshot of everything the monitor shows.
type Frame struct {
	Plan                string
	TokensUsed          int
	TokenLimit          int
	TokensLeft          int
	BurnRate            float64
	Velocity            string
	ResetAt             time.Time
	PredictedEnd        time.Time
	Now                 time.Time
	UpgradeTriggered    bool
	OverQuota           bool
	ExhaustsBeforeReset bool
	Stale               bool
	NoSession           bool
}

// Renderer draws frames to a terminal, redrawing in place between ticks.
type Renderer struct {
	out io.Writer

	cyan   *color.Color
	green  *color.Color
	yellow *color.Color
	red    *color.Color
	gray   *color.Color
	white  *color.Color
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		out:    out,
		cyan:   color.New(color.FgCyan, color.Bold),
		green:  color.New(color.FgHiGreen),
		yellow: color.New(color.FgHiYellow),
		red:    color.New(color.FgHiRed),
		gray:   color.New(color.FgHiBlack),
		white:  color.New(color.FgHiWhite),
	}
}

// Init hides the cursor and clears the screen before the first frame.
func (r *Renderer) Init() {
	fmt.Fprint(r.out, "\033[?25l\033[2J\033[3J\033[H")
}

// Close restores the cursor and prints a farewell line.
func (r *Renderer) Close() {
	fmt.Fprint(r.out, "\033[?25h")
	fmt.Fprintf(r.out, "\n\n%s\n", r.cyan.Sprint("Monitoring stopped."))
}

// Render draws one frame, overwriting the previous one.
func (r *Renderer) Render(f Frame) {
	var b strings.Builder

	// Move to top instead of clearing to avoid flicker.
	b.WriteString("\033[H")

	r.writeHeader(&b)

	if f.NoSession {
		b.WriteString(r.yellow.Sprint("No active session found. Waiting for token usage...") + "\n")
		r.writeStatus(&b, f)
		b.WriteString("\033[J")
		fmt.Fprint(r.out, b.String())
		return
	}

	usagePct := 0.0
	if f.TokenLimit > 0 {
		usagePct = float64(f.TokensUsed) / float64(f.TokenLimit) * 100
	}

	fmt.Fprintf(&b, "%s    %s\n\n", r.white.Sprint("Token Usage:"), r.tokenBar(usagePct))

	minutesToReset := f.ResetAt.Sub(f.Now).Minutes()
	sinceReset := sessionMinutes - minutesToReset
	if sinceReset < 0 {
		sinceReset = 0
	}
	fmt.Fprintf(&b, "%s  %s\n\n", r.white.Sprint("Time to Reset:"), r.timeBar(sinceReset, sessionMinutes))

	fmt.Fprintf(&b, "%s         %s / %s (%s)\n",
		r.white.Sprint("Tokens:"),
		r.white.Sprintf("%d", f.TokensUsed),
		r.gray.Sprintf("~%d", f.TokenLimit),
		r.cyan.Sprintf("%d left", f.TokensLeft))
	fmt.Fprintf(&b, "%s      %s %s %s\n\n",
		r.white.Sprint("Burn Rate:"),
		r.yellow.Sprintf("%.1f", f.BurnRate),
		r.gray.Sprint("tokens/min"),
		r.gray.Sprintf("(%s)", f.Velocity))

	fmt.Fprintf(&b, "%s  %s\n", r.white.Sprint("Predicted End:"), f.PredictedEnd.Format("15:04"))
	fmt.Fprintf(&b, "%s    %s\n\n", r.white.Sprint("Token Reset:"), f.ResetAt.Format("15:04"))

	if f.UpgradeTriggered {
		fmt.Fprintf(&b, "%s\n\n", r.yellow.Sprintf("Tokens exceeded %s limit - switched to custom_max (%d)", f.Plan, f.TokenLimit))
	}
	if f.OverQuota {
		fmt.Fprintf(&b, "%s\n\n", r.red.Sprintf("TOKENS EXCEEDED MAX LIMIT! (%d > %d)", f.TokensUsed, f.TokenLimit))
	}
	if f.ExhaustsBeforeReset {
		fmt.Fprintf(&b, "%s\n\n", r.red.Sprint("Tokens will run out BEFORE reset!"))
	}
	if f.Stale {
		fmt.Fprintf(&b, "%s\n\n", r.yellow.Sprint("Upstream unreachable - showing last known data"))
	}

	r.writeStatus(&b, f)

	// Clear leftovers from taller previous frames.
	b.WriteString("\033[J")

	fmt.Fprint(r.out, b.String())
}

func (r *Renderer) writeHeader(b *strings.Builder) {
	sparkles := r.cyan.Sprint("✦ ✧ ✦ ✧")
	fmt.Fprintf(b, "%s %s %s\n", sparkles, r.cyan.Sprint("CLAUDE TOKEN MONITOR"), sparkles)
	fmt.Fprintf(b, "%s\n\n", r.gray.Sprint(strings.Repeat("=", 60)))
}

func (r *Renderer) writeStatus(b *strings.Builder, f Frame) {
	fmt.Fprintf(b, "%s | %s\n",
		r.gray.Sprint(f.Now.Format("15:04:05")),
		r.gray.Sprint("Ctrl+C to exit"))
}

func (r *Renderer) tokenBar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	capped := pct
	if capped > 100 {
		capped = 100
	}
	filled := int(barWidth * capped / 100)
	return fmt.Sprintf("[%s%s] %.1f%%",
		r.green.Sprint(strings.Repeat("█", filled)),
		r.red.Sprint(strings.Repeat("░", barWidth-filled)),
		pct)
}

func (r *Renderer) timeBar(elapsed, total float64) string {
	pct := 0.0
	if total > 0 {
		pct = elapsed / total * 100
	}
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	filled := int(barWidth * pct / 100)
	remaining := total - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("[%s%s] %s",
		r.cyan.Sprint(strings.Repeat("█", filled)),
		r.red.Sprint(strings.Repeat("░", barWidth-filled)),
		formatMinutes(remaining))
}

// formatMinutes renders a duration in minutes as "3h 45m".
func formatMinutes(minutes float64) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", int(minutes))
	}
	hours := int(minutes) / 60
	mins := int(minutes) % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}
