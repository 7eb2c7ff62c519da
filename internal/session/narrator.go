package session

import (
	"context"
	"fmt"
	"strings"

	"adventure-server/internal/conversation"
	"adventure-server/internal/models"

	"go.uber.org/zap"
)

// Idle waits for the player to talk to the narrator.
type Idle struct{ waiting }

func (Idle) Name() string { return "Idle" }

func (s Idle) Process(ctx context.Context, env *Env, req Request, gs *models.GameState) (State, error) {
	switch r := req.(type) {
	case Resume:
		return s, nil
	case PlayerMessage:
		text := strings.TrimSpace(r.Text)
		if text == "" {
			return nil, refused(ErrEmptyMessage)
		}
		if gs.IsOver() {
			return nil, refused(models.ErrGameOver)
		}
		if err := env.Backend.CreateMessage(ctx, gs.ThreadID, text); err != nil {
			return nil, fmt.Errorf("post player message: %w", err)
		}
		gs.AppendTranscript(models.RolePlayer, text)
		return PendingRun{}, nil
	default:
		return nil, unexpected(s, req)
	}
}

// PendingRun starts a narrator run over the thread.
type PendingRun struct {
	running
	AdditionalInstructions string
}

func (PendingRun) Name() string { return "PendingRun" }

func (s PendingRun) Process(ctx context.Context, env *Env, _ Request, gs *models.GameState) (State, error) {
	run, err := env.Backend.CreateRun(ctx, conversation.RunRequest{
		AssistantID:            gs.AssistantID,
		ThreadID:               gs.ThreadID,
		AdditionalInstructions: s.AdditionalInstructions,
	})
	if err != nil {
		return nil, fmt.Errorf("create narrator run: %w", err)
	}
	return PollingRun{RunID: run.ID}, nil
}

// PollingRun waits for the narrator run to need a function or finish.
type PollingRun struct {
	running
	RunID string
}

func (PollingRun) Name() string { return "PollingRun" }

func (s PollingRun) activeRun(gs *models.GameState) (string, string) { return gs.ThreadID, s.RunID }

func (s PollingRun) Process(ctx context.Context, env *Env, _ Request, gs *models.GameState) (State, error) {
	run, err := pollRun(ctx, env, gs.ThreadID, s.RunID)
	if err != nil {
		return nil, err
	}
	if run.Status == conversation.RunStatusCompleted {
		return ReadMessage{RunID: s.RunID}, nil
	}
	call, err := singleToolCall(run)
	if err != nil {
		return nil, err
	}
	return RequiresAction{RunID: s.RunID, Call: call}, nil
}

// RequiresAction routes the narrator's function call through the dispatch table.
type RequiresAction struct {
	running
	RunID string
	Call  conversation.ToolCall
}

func (RequiresAction) Name() string { return "RequiresAction" }

func (s RequiresAction) activeRun(gs *models.GameState) (string, string) { return gs.ThreadID, s.RunID }

func (s RequiresAction) Process(_ context.Context, _ *Env, _ Request, gs *models.GameState) (State, error) {
	cont := models.Continuation{
		Scope:      models.ScopeNarrator,
		ThreadID:   gs.ThreadID,
		RunID:      s.RunID,
		ToolCallID: s.Call.ID,
	}
	return NarratorTools.dispatch(cont, s.Call)
}

// ReadMessage appends the narrator's latest reply to the transcript.
type ReadMessage struct {
	running
	RunID string
}

func (ReadMessage) Name() string { return "ReadMessage" }

func (s ReadMessage) Process(ctx context.Context, env *Env, _ Request, gs *models.GameState) (State, error) {
	text, err := latestReply(ctx, env, gs.ThreadID)
	if err != nil {
		return nil, err
	}
	if text == "" {
		env.logger().Warn("Narrator run completed without a reply",
			zap.String("game_id", gs.GameID), zap.String("run_id", s.RunID))
		return Idle{}, nil
	}
	for _, seg := range ParseMetaCommands(text) {
		line := seg.Text
		if seg.Kind != SegmentDialogue {
			line = seg.Format(narratorName)
		}
		gs.AppendTranscript(models.RoleNarrator, line)
	}
	return Idle{}, nil
}

const narratorName = "The narrator"

// latestReply returns the newest assistant message on the thread, or "" when
// the newest message is not from the assistant.
func latestReply(ctx context.Context, env *Env, threadID string) (string, error) {
	msgs, err := env.Backend.ListMessages(ctx, threadID, conversation.ListOptions{Limit: 1, Order: conversation.OrderDesc})
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 || msgs[0].Role != "assistant" {
		return "", nil
	}
	return strings.TrimSpace(msgs[0].Text), nil
}
