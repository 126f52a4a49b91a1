package clock

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oshokin/alarm-clock/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	clockStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	fieldStyle = lipgloss.NewStyle().Padding(0, 1)

	selectedStyle = fieldStyle.
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62"))

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	armedButtonStyle = buttonStyle.
				Bold(true).
				Foreground(lipgloss.Color("214")).
				BorderForeground(lipgloss.Color("214"))

	busyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	frameStyle = lipgloss.NewStyle().Padding(1, 2)
)

// View renders the screen.
func (m *Model) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("Alarm clock"),
		"  ",
		clockStyle.Render(m.texts[session.TargetClock]),
	)

	hour := fieldStyle.Render(fmt.Sprintf("%02d", m.hour))
	minute := fieldStyle.Render(fmt.Sprintf("%02d", m.minute))

	if m.selected == fieldHour {
		hour = selectedStyle.Render(fmt.Sprintf("%02d", m.hour))
	} else {
		minute = selectedStyle.Render(fmt.Sprintf("%02d", m.minute))
	}

	picker := lipgloss.JoinHorizontal(lipgloss.Center, hour, ":", minute)

	label := m.texts[session.TargetLabel]
	if label == session.ConnectivityErrorText {
		label = errorStyle.Render(label)
	} else {
		label = labelStyle.Render(label)
	}

	button := buttonStyle.Render(m.texts[session.TargetButton])
	if m.animated {
		button = armedButtonStyle.Render("⏰ " + m.texts[session.TargetButton])
	}

	status := " "
	if m.busy {
		status = m.spinner.View() + " syncing"
	}

	var b strings.Builder

	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(picker)
	b.WriteString("\n\n")
	b.WriteString(label)
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, button, "  ", status))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return frameStyle.Render(b.String())
}
