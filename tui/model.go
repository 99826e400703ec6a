package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-perform/debug"
	"go-perform/mapping"
	"go-perform/midi"
	"go-perform/session"
	"go-perform/theme"
	"go-perform/timeline"
	"go-perform/widgets"
)

type Model struct {
	Session  *session.Session
	Resolver *mapping.Resolver
	Watcher  *midi.Watcher // may be nil
	Theme    *theme.Theme
	PerfDir  string

	inputs   []string
	message  string
	showHelp bool
	quitting bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

type MIDIMsg struct{ Msg gomidi.Message }

func NewModel(s *session.Session, r *mapping.Resolver, w *midi.Watcher, th *theme.Theme, perfDir string) Model {
	return Model{
		Session:  s,
		Resolver: r,
		Watcher:  w,
		Theme:    th,
		PerfDir:  perfDir,
	}
}

func ListenForUpdates(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		<-s.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(w *midi.Watcher) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-w.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func ListenForMIDI(w *midi.Watcher) tea.Cmd {
	return func() tea.Msg {
		return MIDIMsg{Msg: <-w.Messages()}
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Session)}
	if m.Watcher != nil {
		cmds = append(cmds, ListenForDevices(m.Watcher), ListenForMIDI(m.Watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "?":
			m.showHelp = !m.showHelp

		case "ctrl+w":
			name := time.Now().Format("2006-01-02_15-04-05")
			if err := m.Session.SavePerformance(m.PerfDir, name); err != nil {
				m.message = "save failed: " + err.Error()
			} else {
				m.message = "saved " + name
			}

		case "ctrl+o":
			m.message = m.loadLatest()

		default:
			if b, ok := m.Resolver.ResolveKey(key); ok {
				m.Session.Submit(b)
			}
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Session)

	case MIDIMsg:
		if b, ok := m.Resolver.ResolveMessage(msg.Msg); ok {
			m.Session.Submit(b)
		}
		return m, ListenForMIDI(m.Watcher)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.message = "connected " + event.Port
		case midi.DeviceDisconnected:
			m.message = "disconnected " + event.Port
		}
		m.inputs = m.Watcher.Connected()
		debug.Log("tui", "%s", m.message)
		return m, ListenForDevices(m.Watcher)
	}

	return m, nil
}

func (m Model) loadLatest() string {
	perfs, err := session.ListPerformances(m.PerfDir)
	if err != nil {
		return "load failed: " + err.Error()
	}
	if len(perfs) == 0 {
		return "no saved performances"
	}
	skipped, err := m.Session.LoadPerformance(m.PerfDir, perfs[0].Name)
	if err != nil {
		return "load failed: " + err.Error()
	}
	if skipped > 0 {
		return fmt.Sprintf("loaded %s (%d bad lines)", perfs[0].Name, skipped)
	}
	return "loaded " + perfs[0].Name
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.Session.Status()
	th := m.Theme
	sym := th.Symbols

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(th.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	recStyle := lipgloss.NewStyle().Foreground(th.Record()).Bold(true)
	playStyle := lipgloss.NewStyle().Foreground(th.Success())
	warnStyle := lipgloss.NewStyle().Foreground(th.Warning())

	perf := dimStyle.Render(fmt.Sprintf("%c STOP", sym.Stop))
	switch {
	case st.Recording:
		perf = recStyle.Render(fmt.Sprintf("%c REC", sym.Record))
	case st.Playing:
		perf = playStyle.Render(fmt.Sprintf("%c PLAY", sym.Play))
	}

	header := headerStyle.Render(fmt.Sprintf("go-perform  %s", st.Engine.Module.Name)) +
		"  " + perf +
		headerStyle.Render(fmt.Sprintf("  %3dbpm  %02d:%02d",
			st.Engine.Tempo, st.Row/timeline.RowsPerOrder, st.Row%timeline.RowsPerOrder))

	transport := "stopped"
	if st.Engine.Playing {
		transport = "playing"
	}
	engineLine := fmt.Sprintf("module %s  order %d  pattern %d  pitch %+d  echo %s  sync %s",
		transport, st.Engine.Order, st.Engine.Pattern, st.Engine.Pitch,
		onOff(st.Engine.Echo), onOff(st.Engine.MidiSync))

	cells := make([]widgets.Cell, len(st.Engine.Channels))
	for i, ch := range st.Engine.Channels {
		switch {
		case ch.Solo:
			cells[i] = widgets.Cell{Color: th.RGB(theme.RoleSuccess), Symbol: sym.ChannelSolo}
		case ch.Muted:
			cells[i] = widgets.Cell{Color: th.RGB(theme.RoleMuted), Symbol: sym.ChannelMuted}
		default:
			cells[i] = widgets.Cell{Color: th.RGB(theme.RoleActive), Symbol: sym.ChannelOpen}
		}
	}

	events := fmt.Sprintf("events %d/%d %s", st.Events, st.Capacity,
		widgets.Meter(st.Events, st.Capacity, 20, sym.MeterFull, sym.MeterEmpty))

	phraseLine := "phrase -"
	if st.Phrase >= 0 {
		phraseLine = fmt.Sprintf("phrase %d %s  step %d", st.Phrase+1, st.PhraseName, st.PhraseStep)
	}

	last := dimStyle.Render("last " + orDash(st.LastAction))
	if st.LastError != "" {
		last += "  " + warnStyle.Render(st.LastError)
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(engineLine)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderStrip(cells))
	out.WriteString("\n\n")
	out.WriteString(events)
	out.WriteString("\n")
	out.WriteString(phraseLine)
	out.WriteString("\n")
	out.WriteString(last)
	out.WriteString("\n")

	if len(m.inputs) > 0 {
		out.WriteString(dimStyle.Render("midi " + strings.Join(m.inputs, ", ")))
		out.WriteString("\n")
	}
	if m.message != "" {
		out.WriteString(m.message)
		out.WriteString("\n")
	}

	out.WriteString("\n")
	if m.showHelp {
		out.WriteString(m.helpView())
	} else {
		out.WriteString(dimStyle.Render("r:rec  p:play  s:stop  space:transport  1-8:mute  shift+1-8:phrase  ctrl+w:save  ctrl+o:load  ?:keys  q:quit"))
	}

	return out.String()
}

func (m Model) helpView() string {
	var keys []widgets.KeyBinding
	for key, b := range m.Resolver.Keys() {
		desc := b.Action.String()
		if k := b.Action.ParamKey(); k != "" {
			desc = fmt.Sprintf("%s %s:%d", desc, k, b.Param)
		}
		if key == " " {
			key = "space"
		}
		keys = append(keys, widgets.KeyBinding{Key: key, Desc: desc})
	}
	widgets.SortKeys(keys)
	return widgets.RenderKeyHelp([]widgets.KeySection{{Title: "Keys", Keys: keys}})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
