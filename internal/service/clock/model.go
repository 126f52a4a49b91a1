package clock

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/session"
)

// field is the picker part changed by up/down.
type field int

const (
	fieldHour field = iota
	fieldMinute
)

// Controller is the part of the session the screen drives.
type Controller interface {
	Resume()
	Pause()
	TimeChanged()
	ToggleEnabled()
	ForceSync()
}

// Model is the alarm screen.
type Model struct {
	controller Controller
	dispatcher *Dispatcher

	texts map[session.Target]string

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	hour, minute int
	selected     field
	width        int

	animated bool
	busy     bool
	focused  bool
}

// NewModel creates a screen showing 00:00 until the server answers.
func NewModel() *Model {
	return &Model{
		dispatcher: new(Dispatcher),
		texts:      make(map[session.Target]string),
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(busyStyle)),
		focused:    true,
	}
}

// Bind connects the screen to the session it controls.
func (m *Model) Bind(c Controller) {
	m.controller = c
}

// Dispatcher returns the execution context of the screen.
func (m *Model) Dispatcher() *Dispatcher {
	return m.dispatcher
}

// HourMinute implements session.TimePicker.
func (m *Model) HourMinute() (int, int) {
	return m.hour, m.minute
}

// SetHourMinute implements session.TimePicker.
func (m *Model) SetHourMinute(hour, minute int) {
	m.hour, m.minute = hour, minute
}

// SetText implements session.Renderer.
func (m *Model) SetText(target session.Target, text string) {
	m.texts[target] = text
}

// SetAnimatedState implements session.Renderer.
func (m *Model) SetAnimatedState(enabled bool) {
	m.animated = enabled
}

// SetBusy implements session.Renderer.
func (m *Model) SetBusy(busy bool) {
	m.busy = busy
}

// Init resumes the session on the event loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return runMsg(m.controller.Resume) },
		m.spinner.Tick,
	)
}

// Update handles input, focus changes and posted closures.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runMsg:
		msg()
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.FocusMsg:
		if !m.focused {
			m.focused = true
			m.controller.Resume()
		}
	case tea.BlurMsg:
		if m.focused {
			m.focused = false
			m.controller.Pause()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.controller.Pause()
		return tea.Quit
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		m.selected = 1 - m.selected
	case key.Matches(msg, m.keys.Up):
		m.adjust(1)
	case key.Matches(msg, m.keys.Down):
		m.adjust(-1)
	case key.Matches(msg, m.keys.Toggle):
		m.controller.ToggleEnabled()
	case key.Matches(msg, m.keys.Sync):
		m.controller.ForceSync()
	}

	return nil
}

// adjust moves the selected field by delta, wrapping within its own range.
func (m *Model) adjust(delta int) {
	t := alarm.Time{Hour: m.hour, Minute: m.minute}

	if m.selected == fieldHour {
		t = t.Add(delta * 60)
	} else {
		t.Minute = (t.Minute + delta + 60) % 60
	}

	m.SetHourMinute(t.Hour, t.Minute)
	m.controller.TimeChanged()
}
