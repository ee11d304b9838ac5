package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"stepctl/internal/tui/design"
	"stepctl/internal/tui/model"
)

// Render draws the whole screen for the current mode.
func Render(m *model.Model) string {
	if m.CurrentAppMode == model.ModeQuitting {
		return m.QuittingMessage + "\n"
	}

	width := m.Width
	if width <= 0 {
		width = design.CardWidth + 4
	}

	switch m.CurrentAppMode {
	case model.ModeLogOverlay:
		return renderLogOverlay(m, width, m.Height)
	case model.ModeHelpOverlay:
		return renderHelpOverlay(m, width)
	}

	sections := []string{
		renderReading(m, width),
		renderActions(m),
		m.Help.View(m.Keys),
	}
	body := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if bar := renderStatusBar(m, width); bar != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", bar)
	}
	return body
}

func renderActions(m *model.Model) string {
	refresh := design.ButtonStyle
	refreshLabel := "Refresh"
	if m.InFlight() {
		refresh = design.ButtonDisabledStyle
		refreshLabel = "Refreshing"
	}
	buttons := []string{refresh.Render(refreshLabel)}
	if m.Keys.Inject.Enabled() {
		inject := design.ButtonStyle
		if m.InFlight() {
			inject = design.ButtonDisabledStyle
		}
		buttons = append(buttons, inject.Render("Add Test Data"))
	}
	return lipgloss.NewStyle().MarginTop(1).MarginBottom(1).
		Render(strings.Join(buttons, "  "))
}

func renderStatusBar(m *model.Model, width int) string {
	if m.StatusBarMessage == "" {
		return ""
	}
	style := design.StatusBarStyle
	switch m.StatusBarMessageType {
	case model.StatusBarSuccess:
		style = design.StatusBarSuccessStyle
	case model.StatusBarError:
		style = design.StatusBarErrorStyle
	case model.StatusBarWarning:
		style = design.StatusBarWarningStyle
	case model.StatusBarInfo:
		style = design.StatusBarInfoStyle
	}
	inner := width - style.GetHorizontalFrameSize()
	return style.Width(width).Render(TruncateToWidth(m.StatusBarMessage, inner))
}

func renderHelpOverlay(m *model.Model, width int) string {
	title := design.OverlayTitleStyle.Render("Keys")
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.Help.View(m.Keys), "", design.DimStyle.Render("esc close"))
	return design.OverlayStyle.MaxWidth(width).Render(content)
}

// TruncateToWidth cuts s to at most width terminal cells, marking the cut
// with an ellipsis.
func TruncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
