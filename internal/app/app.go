// Package app contains the root Bubble Tea model: a live status view of a
// session and the shell it is installed in.
package app

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/worksets/internal/config"
	"github.com/zjrosen/worksets/internal/keys"
	"github.com/zjrosen/worksets/internal/log"
	"github.com/zjrosen/worksets/internal/mainloop"
	"github.com/zjrosen/worksets/internal/session"
	"github.com/zjrosen/worksets/internal/shell"
)

const defaultWidth = 80

// Model is the root application state.
type Model struct {
	shell   *shell.Shell
	session *session.Session
	keys    keys.KeyMap
	help    help.Model
	ui      config.UIConfig

	logs     *log.Listener
	stopLogs context.CancelFunc
	lastLog  string

	width     int
	height    int
	windowSeq int
	err       error
}

// New creates the model for a shell and its session.
func New(sh *shell.Shell, sess *session.Session, ui config.UIConfig) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		shell:    sh,
		session:  sess,
		keys:     keys.DefaultKeyMap(),
		help:     help.New(),
		ui:       ui,
		logs:     log.NewListener(ctx),
		stopLogs: cancel,
		width:    defaultWidth,
	}
}

// Init implements tea.Model. It starts listening for main loop fires and,
// when debug logging is on, for log entries.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.shell.Loop.ListenCmd(), m.logs.Listen())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case mainloop.FireMsg:
		m.shell.Loop.Dispatch(msg)
		return m, m.shell.Loop.ListenCmd()

	case log.LogEvent:
		m.lastLog = strings.TrimSpace(msg.Payload)
		return m, m.logs.Listen()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch {
	case key.Matches(msg, m.keys.Quit):
		if err := m.session.Disable(); err != nil {
			log.ErrorErr(log.CatUI, "Disable on quit failed", err)
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		if m.session.Enabled() {
			m.err = m.session.Disable()
		} else {
			m.err = m.session.Enable(context.Background())
		}

	case key.Matches(msg, m.keys.NextWorkspace):
		m.err = m.shell.NextWorkspace()

	case key.Matches(msg, m.keys.PrevWorkspace):
		n := m.shell.Workspaces()
		m.err = m.shell.SwitchWorkspace((m.shell.Active() + n - 1) % n)

	case key.Matches(msg, m.keys.OpenWindow):
		m.windowSeq++
		m.shell.AddWindow(fmt.Sprintf("window-%d", m.windowSeq))

	case key.Matches(msg, m.keys.CloseWindow):
		if wins := m.shell.Windows(); len(wins) > 0 {
			m.shell.RemoveWindow(wins[len(wins)-1].Title)
		}

	case key.Matches(msg, m.keys.Save):
		m.err = m.session.Save()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	if m.err != nil {
		log.ErrorErr(log.CatUI, "Action failed", m.err, "key", msg.String())
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	st := m.session.Status()
	inner := max(m.width-4, 20)

	var b strings.Builder

	badge := disabledBadge.Render("disabled")
	if st.Enabled {
		badge = enabledBadge.Render("enabled")
	}
	b.WriteString(titleStyle.Render("worksets") + " " + badge + " " +
		mutedStyle.Render(ansi.Truncate(st.ID, 8, "")))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Workspaces"))
	b.WriteString("\n")
	names := make([]string, 0, m.shell.Workspaces())
	for i := range m.shell.Workspaces() {
		style := workspaceStyle
		if i == m.shell.Active() {
			style = activeWorkspaceStyle
		}
		names = append(names, style.Render(m.shell.WorkspaceName(i)))
	}
	b.WriteString(ansi.Truncate(strings.Join(names, "  "), inner, "…"))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Windows"))
	b.WriteString("\n")
	wins := m.shell.Windows()
	if len(wins) == 0 {
		b.WriteString(mutedStyle.Render("none"))
		b.WriteString("\n")
	}
	for _, w := range wins {
		line := fmt.Sprintf("%s  %s", w.Title, mutedStyle.Render(m.shell.WorkspaceName(w.Workspace)))
		b.WriteString(ansi.Truncate(line, inner, "…"))
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Handlers"))
	b.WriteString("\n")
	b.WriteString(registryLine("signals", st.Signals, inner))
	b.WriteString(registryLine("injections", st.Injections, inner))
	b.WriteString(registryLine("timeouts", st.Timeouts, inner))

	if m.ui.ShowTimers {
		running := "none"
		if len(st.Running) > 0 {
			running = strings.Join(st.Running, ", ")
		}
		b.WriteString(ansi.Truncate("running: "+running, inner, "…"))
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Events"))
	b.WriteString("\n")
	events := st.Events
	if limit := m.ui.MaxEvents; limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	if len(events) == 0 {
		b.WriteString(mutedStyle.Render("none"))
		b.WriteString("\n")
	}
	for _, e := range events {
		b.WriteString(ansi.Truncate(e, inner, "…"))
		b.WriteString("\n")
	}

	if m.lastLog != "" {
		b.WriteString(mutedStyle.Render(ansi.Truncate(m.lastLog, inner, "…")))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(ansi.Truncate(m.err.Error(), inner, "…")))
		b.WriteString("\n")
	}

	view := frameStyle.Width(inner + 2).Render(strings.TrimRight(b.String(), "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, view, m.help.View(m.keys))
}

// registryLine renders "name: total (label n, ...)".
func registryLine(name string, counts map[string]int, width int) string {
	labels := slices.Sorted(maps.Keys(counts))
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s %d", l, counts[l]))
	}
	line := fmt.Sprintf("%-10s %d", name+":", session.Total(counts))
	if len(parts) > 0 {
		line += mutedStyle.Render(" (" + strings.Join(parts, ", ") + ")")
	}
	return ansi.Truncate(line, width, "…") + "\n"
}

// Close disables the session and shuts the shell down.
func (m *Model) Close() error {
	if m.stopLogs != nil {
		m.stopLogs()
	}
	err := m.session.Disable()
	m.shell.Close()
	return err
}
