package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stepctl/internal/tui/design"
	"stepctl/internal/tui/model"
)

// LogOverlaySize returns the viewport dimensions for a terminal of the
// given size.
func LogOverlaySize(width, height int) (int, int) {
	w := width - design.OverlayStyle.GetHorizontalFrameSize()
	// Title line plus its margin.
	h := height - design.OverlayStyle.GetVerticalFrameSize() - 2
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h
}

func renderLogOverlay(m *model.Model, width, height int) string {
	title := design.OverlayTitleStyle.Render("Activity Log  (↑/↓ scroll  •  y copy  •  Esc close)")
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.LogViewport.View())
	style := design.OverlayStyle.Width(width - design.OverlayStyle.GetHorizontalFrameSize())
	if height > 0 {
		style = style.Height(height - design.OverlayStyle.GetVerticalFrameSize())
	}
	return style.Render(content)
}

// PrepareLogContent truncates each line to maxWidth cells and colors it by
// level. A maxWidth of zero leaves lines uncut.
func PrepareLogContent(lines []string, maxWidth int) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if maxWidth > 0 {
			line = TruncateToWidth(line, maxWidth)
		}
		out[i] = levelStyle(line).Render(line)
	}
	return strings.Join(out, "\n")
}

func levelStyle(line string) lipgloss.Style {
	switch {
	case strings.Contains(line, "[ERROR]") || strings.Contains(line, " ERROR "):
		return design.LogErrorStyle
	case strings.Contains(line, "[WARN]") || strings.Contains(line, " WARN "):
		return design.LogWarnStyle
	case strings.Contains(line, "[DEBUG]") || strings.Contains(line, " DEBUG "):
		return design.LogDebugStyle
	default:
		return design.LogInfoStyle
	}
}
