package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adventure-server/internal/client"
	"adventure-server/internal/models"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// API - команды сервера, которые использует интерфейс.
type API interface {
	StartGame(ctx context.Context, gameID string) (*client.SessionView, error)
	SendMessage(ctx context.Context, text string) (*client.SessionView, error)
	RespondTrade(ctx context.Context, accept bool) (*client.SessionView, error)
	EndInteraction(ctx context.Context) (*client.SessionView, error)
}

type sessionState int

const (
	stateLoading sessionState = iota
	statePlaying
	stateWaiting
	stateError
)

type model struct {
	state     sessionState
	api       API
	gameID    string
	timeout   time.Duration
	snapshots <-chan models.GameState

	view      *client.SessionView
	notice    string
	textInput textinput.Model
	viewport  viewport.Model
	err       error
	width     int
	height    int
}

var (
	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	characterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AFD7AF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF8787"))

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

func NewModel(api API, gameID string, timeout time.Duration, snapshots <-chan models.GameState) model {
	ti := textinput.New()
	ti.Placeholder = "What do you do?"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	return model{
		state:     stateLoading,
		api:       api,
		gameID:    gameID,
		timeout:   timeout,
		snapshots: snapshots,
		textInput: ti,
		viewport:  viewport.New(80, 20),
	}
}

type viewMsg struct {
	view *client.SessionView
	err  error
}

type snapshotMsg struct {
	game models.GameState
	ok   bool
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.call(func(ctx context.Context) (*client.SessionView, error) {
		return m.api.StartGame(ctx, m.gameID)
	}), m.waitForSnapshot())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.state != statePlaying {
				return m, nil
			}
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}
			m.textInput.Reset()
			return m.submit(input)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.7)
		m.viewport.Height = msg.Height - 6
		m.refresh()

	case viewMsg:
		if msg.err != nil {
			if m.view == nil {
				m.err = msg.err
				m.state = stateError
				return m, nil
			}
			// ход не удался, но сессия жива
			m.notice = msg.err.Error()
		} else {
			m.notice = ""
		}
		if msg.view != nil && msg.err == nil {
			m.view = msg.view
		}
		m.state = statePlaying
		m.refresh()
		return m, nil

	case snapshotMsg:
		if !msg.ok {
			m.snapshots = nil
			return m, nil
		}
		if m.view != nil && m.state == stateWaiting {
			// промежуточные состояния хода
			m.view.Game = msg.game
			m.refresh()
		}
		return m, m.waitForSnapshot()
	}

	if m.state == statePlaying {
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// submit разбирает ввод игрока: команды начинаются с '/'.
func (m model) submit(input string) (tea.Model, tea.Cmd) {
	var run func(ctx context.Context) (*client.SessionView, error)
	switch strings.ToLower(input) {
	case "/quit":
		return m, tea.Quit
	case "/accept", "/reject":
		accept := strings.EqualFold(input, "/accept")
		run = func(ctx context.Context) (*client.SessionView, error) { return m.api.RespondTrade(ctx, accept) }
	case "/leave":
		run = func(ctx context.Context) (*client.SessionView, error) { return m.api.EndInteraction(ctx) }
	default:
		if strings.HasPrefix(input, "/") {
			m.notice = "unknown command " + input
			return m, nil
		}
		run = func(ctx context.Context) (*client.SessionView, error) { return m.api.SendMessage(ctx, input) }
	}
	m.state = stateWaiting
	m.notice = ""
	return m, m.call(run)
}

func (m model) call(run func(ctx context.Context) (*client.SessionView, error)) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		view, err := run(ctx)
		return viewMsg{view: view, err: err}
	}
}

func (m model) waitForSnapshot() tea.Cmd {
	if m.snapshots == nil {
		return nil
	}
	ch := m.snapshots
	return func() tea.Msg {
		gs, ok := <-ch
		return snapshotMsg{game: gs, ok: ok}
	}
}

func (m *model) refresh() {
	if m.view == nil {
		return
	}
	m.viewport.SetContent(renderLog(m.view.Game, m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateLoading:
		s = "\n  Starting " + m.gameID + "... please wait.\n"

	case statePlaying, stateWaiting:
		body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.renderState())
		prompt := m.textInput.View()
		if m.state == stateWaiting {
			prompt = helpStyle.Render("...")
		}
		parts := []string{body, "\n" + prompt}
		if m.notice != "" {
			parts = append(parts, noticeStyle.Render(m.notice))
		}
		parts = append(parts, "\n"+helpStyle.Render(helpLine(m.view)))
		s = lipgloss.JoinVertical(lipgloss.Left, parts...)

	case stateError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.", m.err)
	}

	return "\n" + s + "\n"
}

func (m model) renderState() string {
	if m.view == nil {
		return ""
	}
	width := int(float64(m.width) * 0.28)
	return stateStyle.Width(width).Height(m.viewport.Height).Render(renderSidebar(m.view))
}

func helpLine(view *client.SessionView) string {
	if view == nil {
		return ""
	}
	switch view.State {
	case "AwaitingPlayerTradeResponse", "AwaitingPlayerGiftResponse":
		return "Commands: /accept, /reject, /quit"
	}
	if view.Game.InInteraction() {
		return "Commands: /leave, /quit, or say something."
	}
	return "Commands: /quit, or just type what you want to do."
}

func renderLog(gs models.GameState, width int) string {
	var b strings.Builder
	for _, e := range gs.Transcript {
		if e.Role == models.RolePlayer {
			b.WriteString(playerStyle.Width(width).Render("> " + e.Text))
		} else {
			b.WriteString(narratorStyle.Width(width).Render(e.Text))
		}
		b.WriteString("\n\n")
	}
	if ci := gs.CharacterInteraction; ci != nil {
		b.WriteString(titleStyle.Render("Talking to "+ci.CharacterName) + "\n")
		for _, line := range ci.Log {
			b.WriteString(characterStyle.Width(width).Render(line) + "\n")
		}
	}
	if gs.EndGameReason != nil {
		b.WriteString("\n" + titleStyle.Render("THE END") + "\n" + *gs.EndGameReason + "\n")
	}
	return b.String()
}

func renderSidebar(view *client.SessionView) string {
	gs := view.Game
	scene := "(unknown)"
	if gs.CurrentSceneID != nil {
		scene = *gs.CurrentSceneID
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("SCENE") + "\n" + scene + "\n\n")
	b.WriteString(titleStyle.Render("INVENTORY") + "\n")
	if len(gs.Inventory) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, item := range gs.Inventory {
		b.WriteString("- " + item + "\n")
	}
	if ci := gs.CharacterInteraction; ci != nil && ci.Offer != nil {
		b.WriteString("\n" + titleStyle.Render("OFFER") + "\n" + describeOffer(ci.CharacterName, ci.Offer) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(view.State))
	return b.String()
}

func describeOffer(name string, o *models.Offer) string {
	if o.Kind == models.OfferTrade {
		return fmt.Sprintf("%s offers %s for your %s", name, o.ToPlayer, o.FromPlayer)
	}
	return fmt.Sprintf("%s offers you %s", name, o.ToPlayer)
}

func Run(api API, gameID string, timeout time.Duration, snapshots <-chan models.GameState) error {
	p := tea.NewProgram(NewModel(api, gameID, timeout, snapshots), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
