package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"adventure-server/internal/client"
	"adventure-server/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	calls []string
	err   error
}

func (f *fakeAPI) view(state string) (*client.SessionView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &client.SessionView{State: state, Game: models.GameState{GameID: "harbor"}}, nil
}

func (f *fakeAPI) StartGame(_ context.Context, gameID string) (*client.SessionView, error) {
	f.calls = append(f.calls, "start "+gameID)
	return f.view("Idle")
}

func (f *fakeAPI) SendMessage(_ context.Context, text string) (*client.SessionView, error) {
	f.calls = append(f.calls, "say "+text)
	return f.view("Idle")
}

func (f *fakeAPI) RespondTrade(_ context.Context, accept bool) (*client.SessionView, error) {
	if accept {
		f.calls = append(f.calls, "accept")
	} else {
		f.calls = append(f.calls, "reject")
	}
	return f.view("CharacterIdle")
}

func (f *fakeAPI) EndInteraction(context.Context) (*client.SessionView, error) {
	f.calls = append(f.calls, "leave")
	return f.view("Idle")
}

func playing(api API) model {
	m := NewModel(api, "harbor", time.Second, nil)
	m.state = statePlaying
	m.view = &client.SessionView{State: "Idle"}
	return m
}

func enter(t *testing.T, m model, input string) (model, tea.Cmd) {
	t.Helper()
	m.textInput.SetValue(input)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(model), cmd
}

func TestSubmitRoutesCommands(t *testing.T) {
	tests := []struct {
		input string
		call  string
	}{
		{"open the chest", "say open the chest"},
		{"/accept", "accept"},
		{"/REJECT", "reject"},
		{"/leave", "leave"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			api := &fakeAPI{}
			m, cmd := enter(t, playing(api), tt.input)
			require.NotNil(t, cmd)
			assert.Equal(t, stateWaiting, m.state)

			msg := cmd()
			assert.Equal(t, []string{tt.call}, api.calls)

			next, _ := m.Update(msg)
			assert.Equal(t, statePlaying, next.(model).state)
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	api := &fakeAPI{}
	m, cmd := enter(t, playing(api), "/dance")
	assert.Nil(t, cmd)
	assert.Equal(t, "unknown command /dance", m.notice)
	assert.Empty(t, api.calls)
}

func TestFailedTurnKeepsSession(t *testing.T) {
	api := &fakeAPI{err: errors.New("server error 502")}
	m, cmd := enter(t, playing(api), "look")
	next, _ := m.Update(cmd())
	nm := next.(model)
	assert.Equal(t, statePlaying, nm.state)
	assert.Equal(t, "server error 502", nm.notice)
	assert.NotNil(t, nm.view)
}

func TestFailedStartIsFatal(t *testing.T) {
	m := NewModel(&fakeAPI{}, "harbor", time.Second, nil)
	next, _ := m.Update(viewMsg{err: errors.New("game not found")})
	assert.Equal(t, stateError, next.(model).state)
	assert.Contains(t, next.(model).View(), "game not found")
}

func TestSnapshotsUpdateWaitingView(t *testing.T) {
	ch := make(chan models.GameState, 1)
	m := NewModel(&fakeAPI{}, "harbor", time.Second, ch)
	m.state = stateWaiting
	m.view = &client.SessionView{State: "Idle"}

	ch <- models.GameState{GameID: "harbor", Inventory: []string{"rope"}}
	msg := m.waitForSnapshot()()
	next, cmd := m.Update(msg)
	assert.Equal(t, []string{"rope"}, next.(model).view.Game.Inventory)
	assert.NotNil(t, cmd)

	close(ch)
	next, cmd = next.(model).Update(m.waitForSnapshot()())
	assert.Nil(t, next.(model).snapshots)
	assert.Nil(t, cmd)
}

func TestRenderLog(t *testing.T) {
	reason := "You sailed away."
	gs := models.GameState{
		Transcript: []models.TranscriptEntry{
			{Role: models.RoleNarrator, Text: "Fog rolls in."},
			{Role: models.RolePlayer, Text: "talk to bob"},
		},
		CharacterInteraction: &models.CharacterInteraction{CharacterName: "Bob", Log: []string{"Bob: Ahoy!"}},
		EndGameReason:        &reason,
	}
	out := renderLog(gs, 60)
	assert.Contains(t, out, "Fog rolls in.")
	assert.Contains(t, out, "> talk to bob")
	assert.Contains(t, out, "Talking to Bob")
	assert.Contains(t, out, "Bob: Ahoy!")
	assert.Contains(t, out, "You sailed away.")
}

func TestRenderSidebarOffer(t *testing.T) {
	view := &client.SessionView{
		State: "AwaitingPlayerTradeResponse",
		Game: models.GameState{
			Inventory: []string{"coin"},
			CharacterInteraction: &models.CharacterInteraction{
				CharacterName: "Bob",
				Offer:         &models.Offer{Kind: models.OfferTrade, ToPlayer: "key", FromPlayer: "coin"},
			},
		},
	}
	out := renderSidebar(view)
	assert.Contains(t, out, "Bob offers key for your coin")
	assert.Equal(t, "Commands: /accept, /reject, /quit", helpLine(view))
}
