package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/macharden/macharden/pkg/harden"
)

// ColorEnabled reports whether f is a color-capable terminal and NO_COLOR is
// unset.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return termenv.NewOutput(f).ColorProfile() != termenv.Ascii
}

type styles struct {
	rule      lipgloss.Style
	corrected lipgloss.Style
	notice    lipgloss.Style
	failure   lipgloss.Style
	planned   lipgloss.Style
	detail    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		rule:      r.NewStyle().Bold(true),
		corrected: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#3fb950"}),
		notice:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6e7781", Dark: "#8b949e"}),
		failure:   r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#cf222e", Dark: "#f85149"}),
		planned:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0969da", Dark: "#58a6ff"}),
		detail:    r.NewStyle().Faint(true),
	}
}

// Console renders run events as they arrive. It keeps notices, corrective
// actions and failures visually distinct and prints subprocess stderr of
// failing actions verbatim.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	styles   styles
	lastRule string
}

func NewConsole(w io.Writer, color bool) *Console {
	renderer := lipgloss.NewRenderer(w)
	if !color {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return &Console{
		w:      w,
		styles: newStyles(renderer),
	}
}

func (c *Console) Report(ev harden.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.RuleID != c.lastRule {
		c.lastRule = ev.RuleID
		fmt.Fprintln(c.w, c.styles.rule.Render(ev.RuleID))
	}

	if ev.Action == nil {
		fmt.Fprintf(c.w, "  %s %v\n", c.styles.failure.Render("FAIL"), ev.Err)
		return
	}

	spec := ev.Action
	switch {
	case ev.DryRun:
		fmt.Fprintf(c.w, "  %s %s\n", c.styles.planned.Render("PLAN"), spec.ID)
		fmt.Fprintf(c.w, "       %s\n", c.styles.detail.Render(spec.String()))
	case ev.Err != nil:
		fmt.Fprintf(c.w, "  %s %s: %v\n", c.styles.failure.Render("FAIL"), spec.ID, ev.Err)
		if stderr := stderrOf(ev); stderr != "" {
			fmt.Fprint(c.w, stderr)
			if !strings.HasSuffix(stderr, "\n") {
				fmt.Fprintln(c.w)
			}
		}
	case spec.Notice:
		fmt.Fprintf(c.w, "  %s %s\n", c.styles.notice.Render("NOTE"), c.styles.notice.Render(noticeText(ev)))
	default:
		fmt.Fprintf(c.w, "  %s %s\n", c.styles.corrected.Render(" OK "), spec.ID)
		if ev.Result != nil {
			if out := strings.TrimSpace(ev.Result.Stdout); out != "" {
				for _, line := range strings.Split(out, "\n") {
					fmt.Fprintf(c.w, "       %s\n", c.styles.detail.Render(line))
				}
			}
		}
	}
}

// Summary prints the totals of a finished run.
func (c *Console) Summary(s harden.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.w)
	line := fmt.Sprintf("%d rule(s), %d action(s): %d corrected, %d notice(s), %d failure(s)",
		s.Rules, s.Actions, s.Corrected, s.Notices, s.Failures)
	if s.OK() {
		fmt.Fprintln(c.w, c.styles.corrected.Render(line))
		return
	}
	fmt.Fprintln(c.w, c.styles.failure.Render(line))
	fmt.Fprintf(c.w, "failed rules: %s\n", strings.Join(s.Failed, ", "))
}

func noticeText(ev harden.Event) string {
	if ev.Result != nil {
		if out := strings.TrimSpace(ev.Result.Stdout); out != "" {
			return out
		}
	}
	if len(ev.Action.FixedArgs) > 0 {
		return ev.Action.FixedArgs[len(ev.Action.FixedArgs)-1]
	}
	return ev.Action.ID
}

func stderrOf(ev harden.Event) string {
	if ev.Result != nil && ev.Result.Stderr != "" {
		return ev.Result.Stderr
	}
	var hErr *harden.HardenError
	if errors.As(ev.Err, &hErr) {
		return hErr.Stderr
	}
	return ""
}
