// Package term renders the storefront view model as styled terminal text.
package term

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xenking/storefront/internal/view"
)

var (
	accent = lipgloss.Color("#8BC34A")
	muted  = lipgloss.Color("#6B7280")
	warn   = lipgloss.Color("#FFC107")
)

// Styles holds the styles used by the surface.
type Styles struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Price   lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
	Badge   lipgloss.Style
	Panel   lipgloss.Style
}

// NewStyles returns styles bound to r, which decides the color profile.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Bold(true),
		Section: r.NewStyle().Bold(true).Underline(true).MarginTop(1),
		Price:   r.NewStyle().Foreground(accent),
		Muted:   r.NewStyle().Foreground(muted),
		Warning: r.NewStyle().Foreground(warn),
		Badge:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#101F38")).Background(accent).Padding(0, 1),
		Panel:   r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1),
	}
}

// Surface is a view.Surface that renders to a writer on Flush. It keeps the
// model in memory so that a single command produces one coherent screen.
type Surface struct {
	*view.State

	w      io.Writer
	styles Styles
}

var _ view.Surface = (*Surface)(nil)

// New returns a Surface writing to w.
func New(w io.Writer) *Surface {
	return &Surface{
		State:  view.NewState(),
		w:      w,
		styles: NewStyles(lipgloss.NewRenderer(w)),
	}
}

// Flush writes the current model.
func (s *Surface) Flush() error {
	_, err := io.WriteString(s.w, s.Render(s.Snapshot())+"\n")
	return err
}

// Render formats m.
func (s *Surface) Render(m view.Model) string {
	var blocks []string
	if len(m.Grid) > 0 {
		blocks = append(blocks, s.grid(m.Grid))
	}
	blocks = append(blocks, s.panel(m))
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// Suggestions formats a suggestion list.
func (s *Surface) Suggestions(titles []string) string {
	if len(titles) == 0 {
		return s.styles.Muted.Render("no suggestions")
	}
	var sb strings.Builder
	for i, t := range titles {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(s.styles.Muted.Render("› "))
		sb.WriteString(t)
	}
	return sb.String()
}

func (s *Surface) grid(cards []view.Card) string {
	var sb strings.Builder
	sb.WriteString(s.styles.Section.Render("Products"))
	for _, c := range cards {
		fmt.Fprintf(&sb, "\n%s %s  %s  %s",
			s.styles.Muted.Render(padLeft(c.Product.ID, 4)),
			s.styles.Title.Render(c.Product.Title),
			s.styles.Muted.Render("×"+strconv.Itoa(c.Quantity)),
			s.styles.Price.Render(view.FormatTotal(c.Total)),
		)
	}
	return sb.String()
}

func (s *Surface) panel(m view.Model) string {
	header := s.styles.Title.Render("Cart")
	if m.Counter.Visible {
		header = lipgloss.JoinHorizontal(lipgloss.Center, header, " ", s.styles.Badge.Render(strconv.Itoa(m.Counter.Total)))
	}
	if len(m.Panel) == 0 {
		return s.styles.Panel.Render(header + "\n" + s.styles.Muted.Render("empty"))
	}

	rows := make([]string, 0, len(m.Panel)+1)
	rows = append(rows, header)
	for _, l := range m.Panel {
		if !l.Available {
			rows = append(rows, fmt.Sprintf("%s %s  %s",
				s.styles.Muted.Render(padLeft(l.ProductID, 4)),
				s.styles.Warning.Render("unavailable"),
				s.styles.Muted.Render("×"+strconv.Itoa(l.Quantity)),
			))
			continue
		}
		rows = append(rows, fmt.Sprintf("%s %s  %s  %s",
			s.styles.Muted.Render(padLeft(l.ProductID, 4)),
			l.Product.Title,
			s.styles.Muted.Render("×"+strconv.Itoa(l.Quantity)),
			s.styles.Price.Render(view.FormatTotal(l.Total)),
		))
	}
	return s.styles.Panel.Render(strings.Join(rows, "\n"))
}

func padLeft(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}
