package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"watchtrack/internal/modules/tracker/dto"
	apperrors "watchtrack/internal/platform/errors"
	"watchtrack/internal/ui/components"
	"watchtrack/internal/ui/theme"
)

// trackerPort is what the dashboard needs from a running daemon.
type trackerPort interface {
	Status(ctx context.Context) (dto.StatusOutput, error)
	Start(ctx context.Context, username, sessionID string) error
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
}

const (
	refreshEvery = time.Second
	callTimeout  = 3 * time.Second
)

type statusMsg struct {
	status dto.StatusOutput
	err    error
}

type commandDoneMsg struct {
	verb string
	err  error
}

type tickMsg time.Time

type keyMap struct {
	Start   key.Binding
	Stop    key.Binding
	Reset   key.Binding
	Refresh key.Binding
	Palette key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Refresh: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "refresh")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Reset, k.Palette, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Reset},
		{k.Refresh, k.Palette},
		{k.Help, k.Quit},
	}
}

// Model is a live dashboard over the daemon's status snapshot. It polls once
// a second and sends commands through the same control socket as the CLI.
type Model struct {
	tracker  trackerPort
	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette
	videos   table.Model

	snapshot  dto.StatusOutput
	connected bool
	message   string
	width     int
	height    int
}

func NewModel(tracker trackerPort) Model {
	videos := table.New(
		table.WithColumns(videoColumns(80)),
		table.WithHeight(8),
	)
	return Model{
		tracker: tracker,
		keys:    defaultKeys(),
		help:    help.New(),
		palette: components.NewPalette(),
		videos:  videos,
		message: "connecting…",
	}
}

func videoColumns(width int) []table.Column {
	source := width - 52
	if source < 16 {
		source = 16
	}
	return []table.Column{
		{Title: "", Width: 1},
		{Title: "Video", Width: source},
		{Title: "Length", Width: 7},
		{Title: "Watched", Width: 8},
		{Title: "Status", Width: 18},
		{Title: "Keys", Width: 5},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refreshCmd() tea.Cmd {
	tracker := m.tracker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		status, err := tracker.Status(ctx)
		return statusMsg{status: status, err: err}
	}
}

func (m Model) commandCmd(verb string, run func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return commandDoneMsg{verb: verb, err: run(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.palette.SetWidth(min(msg.Width-4, 72))
		m.videos.SetColumns(videoColumns(msg.Width - 4))
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), tickCmd())

	case statusMsg:
		if msg.err != nil {
			m.connected = false
			if errors.Is(msg.err, apperrors.ErrDaemonNotRunning) {
				m.message = "daemon not running; start it with `watchtrack daemon run`"
			} else {
				m.message = "status: " + msg.err.Error()
			}
			return m, nil
		}
		if !m.connected {
			m.message = "connected"
		}
		m.connected = true
		m.snapshot = msg.status
		m.videos.SetRows(videoRows(msg.status.Videos))
		return m, nil

	case commandDoneMsg:
		if msg.err != nil {
			m.message = msg.verb + " failed: " + msg.err.Error()
		} else {
			m.message = msg.verb + " sent"
		}
		return m, m.refreshCmd()

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open()
		case key.Matches(msg, m.keys.Start):
			return m, m.startCmd("", "")
		case key.Matches(msg, m.keys.Stop):
			return m, m.commandCmd("stop", m.tracker.Stop)
		case key.Matches(msg, m.keys.Reset):
			return m, m.commandCmd("reset", m.tracker.Reset)
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refreshCmd()
		}
	}

	var cmd tea.Cmd
	m.videos, cmd = m.videos.Update(msg)
	return m, cmd
}

func (m Model) startCmd(username, sessionID string) tea.Cmd {
	tracker := m.tracker
	return m.commandCmd("start", func(ctx context.Context) error {
		return tracker.Start(ctx, username, sessionID)
	})
}

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	switch parts[0] {
	case "start":
		username, sessionID := "", ""
		if len(parts) > 1 {
			username = parts[1]
		}
		if len(parts) > 2 {
			sessionID = parts[2]
		}
		return m, m.startCmd(username, sessionID)
	case "stop":
		return m, m.commandCmd("stop", m.tracker.Stop)
	case "reset":
		return m, m.commandCmd("reset", m.tracker.Reset)
	case "refresh":
		return m, m.refreshCmd()
	default:
		m.message = fmt.Sprintf("unknown command %q", parts[0])
		return m, nil
	}
}

func videoRows(videos []dto.VideoStatus) []table.Row {
	rows := make([]table.Row, 0, len(videos))
	for _, v := range videos {
		marker := " "
		if v.Current {
			marker = "▶"
		}
		rows = append(rows, table.Row{
			marker,
			v.SourceURL,
			fmt.Sprintf("%ds", v.Duration),
			fmt.Sprintf("%ds", v.Watched),
			v.Status,
			fmt.Sprintf("%d", v.Keys),
		})
	}
	return rows
}

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	header := theme.Title.Render("watchtrack") + "  " + m.renderBadges()

	var body string
	switch {
	case m.showHelp:
		body = m.help.View(m.keys)
	case m.palette.Visible():
		body = lipgloss.Place(width, max(m.height-4, 8), lipgloss.Center, lipgloss.Center, m.palette.View())
	case !m.connected:
		body = theme.Muted.Render("no data yet")
	default:
		panes := lipgloss.JoinHorizontal(lipgloss.Top,
			theme.Pane.Width(width/2-2).Render(m.renderSession()),
			theme.Pane.Width(width/2-2).Render(m.renderInactivity()),
		)
		body = lipgloss.JoinVertical(lipgloss.Left, panes, theme.Pane.Render(m.videos.View()))
	}

	status := theme.Muted.Render(m.message)
	footer := m.help.ShortHelpView(m.keys.ShortHelp())
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", status, footer)
}

func (m Model) renderBadges() string {
	if !m.connected {
		return theme.Bad.Render("● offline")
	}
	var parts []string
	if m.snapshot.LoggedIn {
		parts = append(parts, theme.Good.Render("● "+m.snapshot.Username))
	} else {
		parts = append(parts, theme.Bad.Render("● logged out"))
	}
	if m.snapshot.Tracking {
		parts = append(parts, theme.Hot.Render("tracking"))
	} else {
		parts = append(parts, theme.Muted.Render("idle"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderSession() string {
	s := m.snapshot
	session := s.SessionID
	if session == "" {
		session = theme.Warn.Render("none (reports suppressed)")
	}
	lines := []string{
		theme.Title.Render("Session"),
		"id       " + session,
		fmt.Sprintf("videos   %d unique / %d seen", s.UniqueVideos, len(s.Videos)),
		fmt.Sprintf("elements %d", s.Elements),
		"",
		s.CounterText,
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderInactivity() string {
	s := m.snapshot
	phase := theme.ForPhase(s.Inactivity.Phase).Render(s.Inactivity.Phase)
	lines := []string{
		theme.Title.Render("Inactivity"),
		"phase    " + phase,
	}
	if s.Inactivity.Cause != "" {
		lines = append(lines, "cause    "+s.Inactivity.Cause)
	}
	if !s.Inactivity.Since.IsZero() {
		lines = append(lines, "since    "+s.Inactivity.Since.Local().Format("15:04:05"))
	}
	lines = append(lines, fmt.Sprintf("periods  %d", s.Periods))
	if s.LastInactivity != nil {
		lines = append(lines, "", fmt.Sprintf("last     %s, %ds", s.LastInactivity.Type, s.LastInactivity.Duration))
	}
	if !s.PageVisible {
		lines = append(lines, theme.Warn.Render("page hidden"))
	}
	return strings.Join(lines, "\n")
}
