// Package tui is the terminal UI: a bubbletea Model with a header line, a
// rendered pad grid (internal/widgets), and a help line, driven entirely by
// the orchestrator's observer fan-out.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gopad/internal/editor"
	"gopad/internal/midi"
	"gopad/internal/orchestrator"
	"gopad/internal/playback"
	"gopad/internal/widgets"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#cc0000"))
)

// Model is the bubbletea root model. It holds no audio/MIDI state itself —
// everything is queried from or pushed by the Orchestrator.
type Model struct {
	orch *orchestrator.Orchestrator

	selected  int
	playing   map[int]bool
	status    string
	isError   bool
	quitting  bool

	updates chan tea.Msg
}

type playbackMsg struct {
	event    playback.Event
	padIndex int
}
type editMsg struct{ event editor.Event }
type midiMsg struct{ event midi.Event }
type appMsg struct{ event orchestrator.AppEvent }

// bridgeObserver forwards every observer callback onto a buffered channel
// bubbletea can poll, since Update must run on bubbletea's own goroutine.
type bridgeObserver struct{ ch chan tea.Msg }

func (b bridgeObserver) OnPlaybackEvent(event playback.Event, padIndex int) {
	b.send(playbackMsg{event: event, padIndex: padIndex})
}
func (b bridgeObserver) OnEditEvent(event editor.Event) { b.send(editMsg{event: event}) }

func (b bridgeObserver) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
		// UI is falling behind; drop rather than block the MIDI/audio thread.
	}
}

// New constructs a Model bound to orch and registers it for the player's
// playback events, the editor's edit events and the orchestrator's app
// events. It does not register for MIDI adapter events.
func New(orch *orchestrator.Orchestrator) Model {
	ch := make(chan tea.Msg, 64)
	bridge := bridgeObserver{ch: ch}
	orch.Player().RegisterPlaybackObserver(bridge)
	orch.Editor().RegisterObserver(bridge)
	orch.RegisterAppObserver(appBridge{ch: ch})

	return Model{
		orch:    orch,
		playing: make(map[int]bool),
		updates: ch,
	}
}

type appBridge struct{ ch chan tea.Msg }

func (b appBridge) OnAppEvent(event orchestrator.AppEvent) {
	select {
	case b.ch <- appMsg{event: event}:
	default:
	}
}

func listenForUpdates(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case playbackMsg:
		switch msg.event {
		case playback.PadTriggered, playback.PadPlaying:
			m.playing[msg.padIndex] = true
		case playback.PadStopped, playback.PadFinished:
			delete(m.playing, msg.padIndex)
		}
		return m, listenForUpdates(m.updates)

	case editMsg, midiMsg:
		return m, listenForUpdates(m.updates)

	case appMsg:
		switch msg.event.Kind {
		case orchestrator.SetMounted:
			m.status = fmt.Sprintf("mounted %q", msg.event.Set.Name)
		case orchestrator.SetAutoCreated:
			m.status = fmt.Sprintf("created %q", msg.event.Set.Name)
		case orchestrator.SetSaved:
			m.status = fmt.Sprintf("saved %q", msg.event.Set.Name)
		case orchestrator.ModeChanged:
			m.status = fmt.Sprintf("mode: %s", msg.event.Mode)
		}
		m.isError = false
		return m, listenForUpdates(m.updates)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.orch.Stop()
		return m, tea.Quit

	case "h", "left":
		if m.selected%8 > 0 {
			m.selected--
		}
	case "l", "right":
		if m.selected%8 < 7 {
			m.selected++
		}
	case "j", "down":
		if m.selected >= 8 {
			m.selected -= 8
		}
	case "k", "up":
		if m.selected < 56 {
			m.selected += 8
		}

	case "enter", " ":
		selected := m.selected
		m.orch.Editor().SetSelected(&selected)

	case "e":
		m.orch.SetMode(orchestrator.ModeEdit)
	case "p":
		m.orch.SetMode(orchestrator.ModePerformance)

	case "s":
		if err := m.orch.SaveCurrentSet(); err != nil {
			m.status, m.isError = err.Error(), true
		}

	case "c":
		if err := m.orch.Editor().ClearPad(m.selected); err != nil {
			m.status, m.isError = err.Error(), true
		}
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	modeLabel := m.orch.Mode().String()
	header := headerStyle.Render(fmt.Sprintf("gopad  [%s]  pad:%02d", modeLabel, m.selected))

	grid := ""
	if set := m.orch.CurrentSet(); set != nil {
		grid = widgets.RenderLaunchpad(set.Launchpad, &m.selected, m.playing)
	}

	help := dimStyle.Render("hjkl:move  e:edit  p:performance  c:clear  s:save  q:quit")

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(grid)
	out.WriteString("\n\n")
	out.WriteString(help)

	if m.status != "" {
		style := dimStyle
		if m.isError {
			style = errorStyle
		}
		out.WriteString("\n")
		out.WriteString(style.Render(m.status))
	}

	return out.String()
}
