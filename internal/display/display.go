// Package display renders dashboard state for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/dyike/CortexDash/internal/backend"
	"github.com/dyike/CortexDash/internal/history"
	"github.com/dyike/CortexDash/internal/metrics"
	"github.com/dyike/CortexDash/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	botStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#10B981")).
			Padding(0, 1)

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			PaddingLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#8B5CF6")).
			Padding(0, 1)

	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	tipStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Italic(true)
)

const (
	defaultWidth = 80
	barWidth     = 32
	cardWidth    = 24
)

type Renderer struct {
	width int
	md    *glamour.TermRenderer
}

// NewRenderer prepares a renderer wrapping at width columns. Markdown falls
// back to plain text when glamour cannot be initialised.
func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}
	r := &Renderer{width: width}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err == nil {
		r.md = md
	}
	return r
}

func (r *Renderer) Banner() string {
	return titleStyle.Render("📊 CortexDash Financial Analyst") + "\n" +
		tipStyle.Render("Get deep insights into the financials of top companies") + "\n"
}

func (r *Renderer) Header(company models.Company) string {
	line := fmt.Sprintf("Currently Analyzing: %s", accentStyle.Render(company.Name))
	return headerStyle.Render(line)
}

// Progress is shown while a request is outstanding.
func (r *Renderer) Progress(msg string) string {
	return mutedStyle.Render("⏳ " + msg)
}

func (r *Renderer) Turn(t models.Turn) string {
	switch turn := t.(type) {
	case models.UserTurn:
		return userStyle.Render("👤 " + turn.Text)
	case models.BotTurn:
		body := botStyle.Width(r.width - 2).Render("🤖 " + r.markdown(turn.Text))
		if len(turn.Sources) == 0 {
			return body
		}
		return body + "\n" + r.Sources(turn.Sources)
	default:
		return ""
	}
}

func (r *Renderer) Transcript(turns []models.Turn) string {
	if len(turns) == 0 {
		return mutedStyle.Render("No questions yet. Ask a financial question to get started.")
	}
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		parts = append(parts, r.Turn(t))
	}
	return strings.Join(parts, "\n")
}

func (r *Renderer) Sources(sources []models.SourceRef) string {
	var b strings.Builder
	b.WriteString("Source information:\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "• File: %s  Page: %d\n", s.Filename, s.PageNumber)
		if excerpt := strings.TrimSpace(s.Excerpt); excerpt != "" {
			fmt.Fprintf(&b, "  %s\n", excerpt)
		}
	}
	return sourceStyle.Width(r.width - 2).Render(strings.TrimRight(b.String(), "\n"))
}

// Error renders a non-fatal error indicator.
func (r *Renderer) Error(err error) string {
	return errorStyle.Render("⚠ " + backend.UserMessage(err))
}

// Chart draws one horizontal bar per year, oldest first.
func (r *Renderer) Chart(metric models.Metric, points []models.ChartPoint, currency string) string {
	if len(points) == 0 {
		return mutedStyle.Render(fmt.Sprintf("%s: no data", metric.Label))
	}

	peak := decimal.Zero
	for _, p := range points {
		if a := p.Value.Abs(); a.GreaterThan(peak) {
			peak = a
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(metric.Label))
	b.WriteString("\n")
	for _, p := range points {
		n := 0
		if !peak.IsZero() {
			n = int(p.Value.Abs().Div(peak).Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart())
			if n == 0 && !p.Value.IsZero() {
				n = 1
			}
		}
		style := barStyle
		if p.Value.Sign() < 0 {
			style = negativeStyle
		}
		bar := style.Render(strings.Repeat("█", n))
		pad := strings.Repeat(" ", barWidth-n)
		fmt.Fprintf(&b, "%d │%s%s %s\n", p.Year, bar, pad, metrics.FormatValue(metric, p.Value, currency))
	}
	return strings.TrimRight(b.String(), "\n")
}

// MetricCard shows the latest value with its year-over-year delta.
func (r *Renderer) MetricCard(metric models.Metric, series *models.MetricSeries) string {
	var body string
	yoy, ok := metrics.ComputeYoY(series)
	if !ok {
		body = metric.Label + "\n" + mutedStyle.Render("No data")
	} else {
		value := metrics.FormatValue(metric, yoy.LatestValue, series.Currency)
		delta := metrics.FormatDelta(yoy.PctChange)
		style := mutedStyle
		switch yoy.PctChange.Sign() {
		case 1:
			style = positiveStyle
		case -1:
			style = negativeStyle
		}
		body = fmt.Sprintf("%s (%d)\n%s\n%s", metric.Label, yoy.LatestYear, value, style.Render(delta))
		if yoy.PreviousYear != yoy.LatestYear {
			body += mutedStyle.Render(fmt.Sprintf(" vs %d", yoy.PreviousYear))
		}
	}
	return cardStyle.Width(cardWidth).Render(body)
}

// MetricView is the chart, card and backend commentary for one metric.
func (r *Renderer) MetricView(metric models.Metric, series *models.MetricSeries) string {
	parts := []string{
		r.Chart(metric, metrics.ChartPoints(series), series.Currency),
		r.MetricCard(metric, series),
	}
	if c := strings.TrimSpace(series.Commentary); c != "" {
		parts = append(parts, r.markdown(c))
	}
	return strings.Join(parts, "\n")
}

// Insights lays out one card per metric, three per row.
func (r *Renderer) Insights(list []models.Metric, results map[models.MetricKey]metrics.Result) string {
	cards := make([]string, 0, len(list))
	for _, m := range list {
		res, ok := results[m.Key]
		switch {
		case !ok:
			continue
		case res.Err != nil:
			cards = append(cards, cardStyle.Width(cardWidth).Render(m.Label+"\n"+errorStyle.Render(backend.UserMessage(res.Err))))
		default:
			cards = append(cards, r.MetricCard(m, res.Series))
		}
	}

	var rows []string
	for i := 0; i < len(cards); i += 3 {
		end := i + 3
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return titleStyle.Render("Key Financial Insights") + "\n" + strings.Join(rows, "\n")
}

// Recent lists recent analyses, marking the current session.
func (r *Renderer) Recent(list []history.Summary, catalog *models.Catalog, currentID string) string {
	if len(list) == 0 {
		return mutedStyle.Render("No analyses yet.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent Analyses"))
	b.WriteString("\n")
	for _, s := range list {
		name := string(s.Company)
		if co, ok := catalog.Company(s.Company); ok {
			name = co.Name
		}
		fmt.Fprintf(&b, "%s - %s - %d queries", s.CreatedAt.Format("2006-01-02 15:04"), name, s.Queries)
		if s.SessionID == currentID {
			b.WriteString(" " + positiveStyle.Render("(current analysis)"))
		}
		if s.LastQuestion != "" {
			fmt.Fprintf(&b, "\n    last: %s", s.LastQuestion)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) Tips() string {
	return tipStyle.Render("Pro tips:\n" +
		"- Select a company to start a new analysis.\n" +
		"- Ask specific questions about financial metrics, trends, or comparisons.")
}

func (r *Renderer) markdown(text string) string {
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	// glamour pads every line to the wrap width.
	lines := strings.Split(strings.Trim(out, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
