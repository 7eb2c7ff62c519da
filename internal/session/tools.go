package session

import (
	"context"
	"encoding/json"
	"fmt"

	"adventure-server/internal/conversation"
	"adventure-server/internal/models"

	"go.uber.org/zap"
)

// toolCall embeds into every state that answers a function call.
type toolCall struct {
	running
	Call models.Continuation
}

func (t toolCall) activeRun(*models.GameState) (string, string) { return t.Call.ThreadID, t.Call.RunID }

func encodeOutput(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode tool output: %w", err)
	}
	return string(raw), nil
}

func errorOutput(format string, args ...any) string {
	raw, _ := json.Marshal(map[string]string{"error": fmt.Sprintf(format, args...)})
	return string(raw)
}

// ProcessNewScene moves the player to another scene of the loaded world.
type ProcessNewScene struct {
	toolCall
	SceneName string
}

func (ProcessNewScene) Name() string { return "ProcessNewScene" }

type sceneOutput struct {
	Scene      string   `json:"scene"`
	Narrative  string   `json:"narrative"`
	Characters []string `json:"characters"`
	Items      []string `json:"items"`
}

func (s ProcessNewScene) Process(_ context.Context, env *Env, _ Request, gs *models.GameState) (State, error) {
	scene := env.World.SceneByName(s.SceneName)
	if scene == nil {
		return nil, fmt.Errorf("%w: %q", models.ErrSceneNotFound, s.SceneName)
	}
	items := gs.SceneItems[scene.ID]
	if items == nil {
		items = []string{}
	}
	output, err := encodeOutput(sceneOutput{
		Scene:      scene.Name,
		Narrative:  scene.Narrative,
		Characters: env.World.CharacterNames(scene),
		Items:      items,
	})
	if err != nil {
		return nil, err
	}
	id := scene.ID
	gs.CurrentSceneID = &id
	return SubmitToolOutputs{Continuation: s.Call, Output: output}, nil
}

type inventoryOutput struct {
	Inventory []string `json:"inventory"`
}

// ProcessAddItem puts an item into the player's inventory, taking it from
// the current scene when it lies there.
type ProcessAddItem struct {
	toolCall
	Item string
}

func (ProcessAddItem) Name() string { return "ProcessAddItem" }

func (s ProcessAddItem) Process(_ context.Context, _ *Env, _ Request, gs *models.GameState) (State, error) {
	inventory := append(append([]string{}, gs.Inventory...), s.Item)
	output, err := encodeOutput(inventoryOutput{Inventory: inventory})
	if err != nil {
		return nil, err
	}
	if gs.CurrentSceneID != nil {
		if rest, ok := models.RemoveItem(gs.SceneItems[*gs.CurrentSceneID], s.Item); ok {
			gs.SceneItems[*gs.CurrentSceneID] = rest
		}
	}
	gs.Inventory = inventory
	return SubmitToolOutputs{Continuation: s.Call, Output: output}, nil
}

// ProcessRemoveItem takes an item from the player's inventory.
type ProcessRemoveItem struct {
	toolCall
	Item string
}

func (ProcessRemoveItem) Name() string { return "ProcessRemoveItem" }

func (s ProcessRemoveItem) Process(_ context.Context, _ *Env, _ Request, gs *models.GameState) (State, error) {
	inventory, ok := models.RemoveItem(gs.Inventory, s.Item)
	if !ok {
		return SubmitToolOutputs{
			Continuation: s.Call,
			Output:       errorOutput("item %q is not in the player's inventory", s.Item),
		}, nil
	}
	output, err := encodeOutput(inventoryOutput{Inventory: inventory})
	if err != nil {
		return nil, err
	}
	gs.Inventory = inventory
	return SubmitToolOutputs{Continuation: s.Call, Output: output}, nil
}

// ProcessEndGame records why the game ended.
type ProcessEndGame struct {
	toolCall
	Reason string
}

func (ProcessEndGame) Name() string { return "ProcessEndGame" }

func (s ProcessEndGame) Process(_ context.Context, _ *Env, _ Request, gs *models.GameState) (State, error) {
	output, err := encodeOutput(map[string]bool{"success": true})
	if err != nil {
		return nil, err
	}
	reason := s.Reason
	gs.EndGameReason = &reason
	return SubmitToolOutputs{Continuation: s.Call, Output: output}, nil
}

// ProcessCharacterInteract opens a conversation with a character: a fresh
// assistant and thread, and a Continuation back to the narrator's call.
type ProcessCharacterInteract struct {
	toolCall
	CharacterID string
}

func (ProcessCharacterInteract) Name() string { return "ProcessCharacterInteract" }

func (s ProcessCharacterInteract) Process(ctx context.Context, env *Env, _ Request, gs *models.GameState) (State, error) {
	if gs.InInteraction() {
		return nil, fmt.Errorf("%w: %s", ErrInteractionActive, gs.CharacterInteraction.CharacterID)
	}
	character := env.World.FindCharacter(s.CharacterID)
	if character == nil {
		return nil, fmt.Errorf("%w: %q", models.ErrCharacterNotFound, s.CharacterID)
	}
	log := env.logger().With(zap.String("game_id", gs.GameID), zap.String("character_id", character.ID))

	save, err := env.Saves.Get(ctx, gs.GameID, character.ID)
	if err != nil {
		return nil, fmt.Errorf("load character save: %w", err)
	}
	inventory, ok := gs.CharacterInventories[character.ID]
	if !ok {
		inventory = save.Inventory
	}
	instructions, err := env.Prompts.CharacterInstructions(env.World, character, save, inventory)
	if err != nil {
		return nil, fmt.Errorf("render character instructions: %w", err)
	}

	assistantID, err := env.Backend.CreateAssistant(ctx, conversation.AssistantSpec{
		Name:         character.Name,
		Instructions: instructions,
		Functions:    CharacterTools.Specs(),
	})
	if err != nil {
		return nil, fmt.Errorf("create character assistant: %w", err)
	}
	threadID, err := env.Backend.CreateThread(ctx)
	if err != nil {
		if delErr := env.Backend.DeleteAssistant(ctx, assistantID); delErr != nil {
			log.Warn("Failed to delete orphaned character assistant", zap.String("assistant_id", assistantID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("create character thread: %w", err)
	}

	if gs.CharacterInventories == nil {
		gs.CharacterInventories = make(map[string][]string)
	}
	gs.CharacterInventories[character.ID] = append([]string{}, inventory...)
	gs.CharacterInteraction = &models.CharacterInteraction{
		CharacterID:   character.ID,
		CharacterName: character.Name,
		AssistantID:   assistantID,
		ThreadID:      threadID,
		Origin:        s.Call,
		Log:           []string{},
	}
	log.Info("Character interaction started", zap.String("thread_id", threadID))
	return CharacterIdle{}, nil
}

// SubmitToolOutputs answers a pending function call and resumes polling the
// run of the conversation the Continuation belongs to.
type SubmitToolOutputs struct {
	running
	Continuation models.Continuation
	Output       string
}

func (SubmitToolOutputs) Name() string { return "SubmitToolOutputs" }

func (s SubmitToolOutputs) activeRun(*models.GameState) (string, string) {
	return s.Continuation.ThreadID, s.Continuation.RunID
}

func (s SubmitToolOutputs) Process(ctx context.Context, env *Env, _ Request, _ *models.GameState) (State, error) {
	c := s.Continuation
	_, err := env.Backend.SubmitToolOutputs(ctx, c.ThreadID, c.RunID, []conversation.ToolOutput{
		{ToolCallID: c.ToolCallID, Output: s.Output},
	})
	if err != nil {
		return nil, fmt.Errorf("submit tool outputs (%s): %w", c.Scope, err)
	}
	if c.Scope == models.ScopeCharacter {
		return CharacterPollingRun{interactionRun{RunID: c.RunID}}, nil
	}
	return PollingRun{RunID: c.RunID}, nil
}
