// Package session drives one player's adventure: the narrator conversation,
// nested character conversations, and the trade/gift negotiation between them.
package session

import (
	"context"

	"adventure-server/internal/conversation"
	"adventure-server/internal/models"

	"go.uber.org/zap"
)

// State is one step of the session protocol. The set of implementations is
// closed: only this package can add variants.
type State interface {
	// Name identifies the state in logs and metrics.
	Name() string
	// Process consumes req and returns the next state. On error the returned
	// state is ignored and the Driver decides where to fall back.
	Process(ctx context.Context, env *Env, req Request, gs *models.GameState) (State, error)
	// ShouldContinue reports whether the Driver must feed Resume immediately
	// instead of waiting for external input.
	ShouldContinue() bool

	sealed()
}

// runHolder is implemented by states that own a run the remote side is
// still executing or waiting on.
type runHolder interface {
	activeRun(gs *models.GameState) (threadID, runID string)
}

// CharacterSaveStore loads and stores per-character save data.
type CharacterSaveStore interface {
	Get(ctx context.Context, gameID, characterID string) (*models.CharacterSave, error)
	Save(ctx context.Context, gameID, characterID string, save *models.CharacterSave) error
}

// Prompts renders the instructions sent to character assistants.
type Prompts interface {
	CharacterInstructions(world *models.World, character *models.Character, save *models.CharacterSave, inventory []string) (string, error)
	SummaryRequest(characterName string) string
}

// Env carries the collaborators every transition may use.
type Env struct {
	Backend conversation.Backend
	World   *models.World
	Saves   CharacterSaveStore
	Prompts Prompts
	Poll    PollPolicy
	Logger  *zap.Logger
}

func (e *Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// waiting embeds into states that pause for external input.
type waiting struct{}

func (waiting) ShouldContinue() bool { return false }

// running embeds into states that proceed on their own.
type running struct{}

func (running) ShouldContinue() bool { return true }

// States returns one zero value of every state variant.
func States() []State {
	return []State{
		// narrator
		Idle{}, PendingRun{}, PollingRun{}, RequiresAction{}, ReadMessage{},
		// tools
		ProcessNewScene{}, ProcessAddItem{}, ProcessRemoveItem{}, ProcessEndGame{},
		ProcessCharacterInteract{}, SubmitToolOutputs{},
		// character
		CharacterIdle{}, CharacterRunRequest{}, CharacterPollingRun{}, CharacterRequiresAction{},
		CharacterReadMessage{}, CharacterEndInteraction{}, CharacterSummarize{},
		// negotiation
		ProcessCharacterTrade{}, ProcessCharacterGift{},
		AwaitingPlayerTradeResponse{}, AwaitingPlayerGiftResponse{},
	}
}

// FallbackState is where a failed turn lands: the character conversation
// when one is active, otherwise the narrator.
func FallbackState(gs *models.GameState) State {
	if gs.InInteraction() {
		return CharacterIdle{}
	}
	return Idle{}
}

// ResumeState reconstructs the waiting state of a saved game.
func ResumeState(gs *models.GameState) State {
	ci := gs.CharacterInteraction
	if ci == nil {
		return Idle{}
	}
	if ci.Offer != nil {
		if ci.Offer.Kind == models.OfferGift {
			return AwaitingPlayerGiftResponse{}
		}
		return AwaitingPlayerTradeResponse{}
	}
	return CharacterIdle{}
}

func (waiting) sealed() {}
func (running) sealed() {}
