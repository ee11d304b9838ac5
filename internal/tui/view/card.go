package view

import (
	"github.com/charmbracelet/lipgloss"

	"stepctl/internal/health"
	"stepctl/internal/reporting"
	"stepctl/internal/tui/design"
	"stepctl/internal/tui/model"
)

// renderReading draws the numeric card, the error banner or the loading card.
func renderReading(m *model.Model, width int) string {
	snap := m.Snapshot
	d := health.Describe(snap.Metric)

	cardWidth := design.CardWidth
	if width < cardWidth {
		cardWidth = width
	}
	if cardWidth < design.MinCardWidth {
		cardWidth = design.MinCardWidth
	}
	inner := cardWidth - design.CardStyle.GetHorizontalFrameSize()

	last := snap.Last
	if last == nil {
		if snap.InFlight() {
			body := lipgloss.JoinVertical(lipgloss.Left,
				design.CardTitleStyle.Render(TruncateToWidth(d.Title, inner)),
				design.CardValueStyle.Render(m.Spinner.View()+" Loading..."),
			)
			return design.CardLoadingStyle.Width(cardWidth).Render(body)
		}
		return design.CardStyle.Width(cardWidth).Render(design.DimStyle.Render("Press r to read " + d.Noun))
	}

	if last.Failure != nil {
		lines := []string{
			design.BannerTitleStyle.Render("Error"),
			lipgloss.NewStyle().Width(inner).Render(last.Failure.Detail),
		}
		if snap.InFlight() {
			lines = append(lines, design.DimStyle.Render(m.Spinner.View()+" Retrying..."))
		}
		return design.BannerStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}

	lines := []string{
		design.CardTitleStyle.Render(TruncateToWidth(d.Title, inner)),
		design.CardValueStyle.Render(TruncateToWidth(reporting.FormatValue(*last), inner)),
	}
	if last.Empty() {
		lines = append(lines, design.AdvisoryStyle.Width(inner).Render(last.Advisory))
	}
	footer := "Updated " + last.SettledAt.Format("15:04:05")
	if snap.InFlight() {
		footer = m.Spinner.View() + " Refreshing..."
	}
	lines = append(lines, design.SettledAtStyle.Render(footer))

	style := design.CardStyle
	if snap.InFlight() {
		style = design.CardLoadingStyle
	}
	return style.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
