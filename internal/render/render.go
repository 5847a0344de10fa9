// Package render prints answers, tables and figures to the terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/alekseisolovev/databot/internal/agent"
	"github.com/alekseisolovev/databot/internal/chart"
	"github.com/alekseisolovev/databot/internal/frame"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82")) // Green

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	indexStyle  = cellStyle.Foreground(lipgloss.Color("245"))
	borderColor = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Printer writes styled output. With Plain set, markdown is printed as is, which keeps piped
// output clean.
type Printer struct {
	Out        io.Writer
	Plain      bool
	FiguresDir string
	md         *glamour.TermRenderer
}

// New builds a printer; a failing markdown renderer degrades to plain text.
func New(out io.Writer, plain bool, figuresDir string) *Printer {
	p := &Printer{Out: out, Plain: plain, FiguresDir: figuresDir}
	if !plain {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			p.md = md
		}
	}
	return p
}

// Markdown renders model text for the terminal.
func (p *Printer) Markdown(content string) string {
	if p.md == nil {
		return content
	}
	out, err := p.md.Render(content)
	if err != nil {
		return content
	}
	return out
}

// Table draws a bounded preview of f with its row labels.
func Table(f *frame.Frame) string {
	cols := f.Columns()
	series := make([]*frame.Series, len(cols))
	for i, name := range cols {
		series[i], _ = f.Col(name)
	}
	return grid(append([]string{""}, cols...), f.Labels(), func(row int) []string {
		cells := make([]string, len(series))
		for i, s := range series {
			cells[i] = s.Text(row)
		}
		return cells
	}) + DimStyle.Render(fmt.Sprintf("\n%d rows x %d columns", f.Len(), len(cols)))
}

// Series draws a bounded preview of s.
func Series(s *frame.Series) string {
	return grid([]string{"", s.Name()}, s.Labels(), func(row int) []string {
		return []string{s.Text(row)}
	}) + DimStyle.Render(fmt.Sprintf("\n%s: %d values, %s", s.Name(), s.Len(), s.Kind()))
}

func grid(headers, labels []string, row func(int) []string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderColor).
		Headers(headers...).
		StyleFunc(func(r, c int) lipgloss.Style {
			switch {
			case r == table.HeaderRow:
				return headerStyle
			case c == 0:
				return indexStyle
			default:
				return cellStyle
			}
		})
	for _, i := range frame.DisplayRows(len(labels)) {
		if i < 0 {
			dots := make([]string, len(headers))
			for k := range dots {
				dots[k] = "…"
			}
			t.Row(dots...)
			continue
		}
		t.Row(append([]string{labels[i]}, row(i)...)...)
	}
	return t.String()
}

// Artifact prints a table or series preview, or saves a figure as PNG and prints its path.
func (p *Printer) Artifact(a agent.Artifact) error {
	switch a.Kind {
	case agent.ArtifactTable:
		fmt.Fprintln(p.Out, Table(a.Table))
	case agent.ArtifactSeries:
		fmt.Fprintln(p.Out, Series(a.Series))
	case agent.ArtifactFigure:
		path, err := chart.Save(a.Figure, p.FiguresDir)
		if err != nil {
			return fmt.Errorf("save figure: %w", err)
		}
		fmt.Fprintf(p.Out, "%s %s\n", TitleStyle.Render("Figure saved:"), path)
	}
	return nil
}

// Answer prints the assistant text followed by its artifact.
func (p *Printer) Answer(msg *agent.Message) error {
	if msg == nil {
		fmt.Fprintln(p.Out, WarnStyle.Render("The assistant returned no answer. Try rephrasing the question."))
		return nil
	}
	if text := strings.TrimSpace(msg.Content); text != "" {
		fmt.Fprint(p.Out, p.Markdown(text))
		if p.md == nil {
			fmt.Fprintln(p.Out)
		}
	} else if msg.Artifact.Empty() {
		fmt.Fprintln(p.Out, WarnStyle.Render("The assistant returned an empty answer."))
	}
	return p.Artifact(msg.Artifact)
}
