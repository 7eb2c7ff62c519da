package session

import (
	"context"
	"fmt"
	"strings"

	"adventure-server/internal/conversation"
	"adventure-server/internal/models"

	"go.uber.org/zap"
)

// summarizeCue in a character reply asks to wrap the conversation up.
const summarizeCue = "$summarize"

const summaryRunInstructions = "The conversation is over. Reply only with the summary and do not call any functions."

// maxSummaryToolRounds bounds how many function calls are refused while waiting for a summary.
const maxSummaryToolRounds = 3

func interaction(gs *models.GameState) (*models.CharacterInteraction, error) {
	if gs.CharacterInteraction == nil {
		return nil, ErrMissingInteraction
	}
	return gs.CharacterInteraction, nil
}

// interactionRun reports the in-flight run of the character thread.
type interactionRun struct {
	running
	RunID string
}

func (s interactionRun) activeRun(gs *models.GameState) (string, string) {
	if gs.CharacterInteraction == nil {
		return "", ""
	}
	return gs.CharacterInteraction.ThreadID, s.RunID
}

// CharacterIdle waits for the player to talk to the character or leave.
type CharacterIdle struct{ waiting }

func (CharacterIdle) Name() string { return "CharacterIdle" }

func (s CharacterIdle) Process(ctx context.Context, env *Env, req Request, gs *models.GameState) (State, error) {
	switch r := req.(type) {
	case Resume:
		return s, nil
	case EndInteraction:
		if _, err := interaction(gs); err != nil {
			return nil, err
		}
		return CharacterEndInteraction{}, nil
	case PlayerMessage:
		ci, err := interaction(gs)
		if err != nil {
			return nil, err
		}
		text := strings.TrimSpace(r.Text)
		if text == "" {
			return nil, refused(ErrEmptyMessage)
		}
		if err := env.Backend.CreateMessage(ctx, ci.ThreadID, text); err != nil {
			return nil, fmt.Errorf("post message to character: %w", err)
		}
		ci.Log = append(ci.Log, "Player: "+text)
		return CharacterRunRequest{}, nil
	default:
		return nil, unexpected(s, req)
	}
}

// CharacterRunRequest starts a run of the character assistant.
type CharacterRunRequest struct{ running }

func (CharacterRunRequest) Name() string { return "CharacterRunRequest" }

func (s CharacterRunRequest) Process(ctx context.Context, env *Env, _ Request, gs *models.GameState) (State, error) {
	ci, err := interaction(gs)
	if err != nil {
		return nil, err
	}
	run, err := env.Backend.CreateRun(ctx, conversation.RunRequest{AssistantID: ci.AssistantID, ThreadID: ci.ThreadID})
	if err != nil {
		return nil, fmt.Errorf("create character run: %w", err)
	}
	return CharacterPollingRun{interactionRun{RunID: run.ID}}, nil
}

// CharacterPollingRun waits for the character run to need a function or finish.
type CharacterPollingRun struct{ interactionRun }

func (CharacterPollingRun) Name() string { return "CharacterPollingRun" }

func (s CharacterPollingRun) Process(ctx context.Context, env *Env, _ Request, gs *models.GameState) (State, error) {
	ci, err := interaction(gs)
	if err != nil {
		return nil, err
	}
	run, err := pollRun(ctx, env, ci.ThreadID, s.RunID)
	if err != nil {
		return nil, err
	}
	if run.Status == conversation.RunStatusCompleted {
		return CharacterReadMessage{interactionRun{RunID: s.RunID}}, nil
	}
	call, err := singleToolCall(run)
	if err != nil {
		return nil, err
	}
	return CharacterRequiresAction{interactionRun: interactionRun{RunID: s.RunID}, Call: call}, nil
}

// CharacterRequiresAction routes the character's function call.
type CharacterRequiresAction struct {
	interactionRun
	Call conversation.ToolCall
}

func (CharacterRequiresAction) Name() string { return "CharacterRequiresAction" }

func (s CharacterRequiresAction) Process(_ context.Context, _ *Env, _ Request, gs *models.GameState) (State, error) {
	ci, err := interaction(gs)
	if err != nil {
		return nil, err
	}
	cont := models.Continuation{
		Scope:      models.ScopeCharacter,
		ThreadID:   ci.ThreadID,
		RunID:      s.RunID,
		ToolCallID: s.Call.ID,
	}
	return CharacterTools.dispatch(cont, s.Call)
}

// CharacterReadMessage appends the character's reply to the interaction log.
type CharacterReadMessage struct{ interactionRun }

func (CharacterReadMessage) Name() string { return "CharacterReadMessage" }

func (s CharacterReadMessage) Process(ctx context.Context, env *Env, _ Request, gs *models.GameState) (State, error) {
	ci, err := interaction(gs)
	if err != nil {
		return nil, err
	}
	text, err := latestReply(ctx, env, ci.ThreadID)
	if err != nil {
		return nil, err
	}
	wrapUp := strings.Contains(text, summarizeCue)
	if wrapUp {
		text = strings.TrimSpace(strings.ReplaceAll(text, summarizeCue, ""))
	}
	if text != "" {
		ci.Log = append(ci.Log, ProcessMetaCommands(ci.CharacterName, text)...)
	}
	if wrapUp || ci.Closed {
		return CharacterEndInteraction{}, nil
	}
	return CharacterIdle{}, nil
}

// CharacterEndInteraction asks the character for a final summary turn.
type CharacterEndInteraction struct{ running }

func (CharacterEndInteraction) Name() string { return "CharacterEndInteraction" }

func (s CharacterEndInteraction) Process(ctx context.Context, env *Env, _ Request, gs *models.GameState) (State, error) {
	ci, err := interaction(gs)
	if err != nil {
		return nil, err
	}
	if err := env.Backend.CreateMessage(ctx, ci.ThreadID, env.Prompts.SummaryRequest(ci.CharacterName)); err != nil {
		return nil, fmt.Errorf("request character summary: %w", err)
	}
	run, err := env.Backend.CreateRun(ctx, conversation.RunRequest{
		AssistantID:            ci.AssistantID,
		ThreadID:               ci.ThreadID,
		AdditionalInstructions: summaryRunInstructions,
	})
	if err != nil {
		return nil, fmt.Errorf("create summary run: %w", err)
	}
	ci.Closed = true
	return CharacterSummarize{interactionRun{RunID: run.ID}}, nil
}

// CharacterSummarize folds the summary into the character's save, tears the
// character conversation down and answers the narrator's original call.
type CharacterSummarize struct{ interactionRun }

func (CharacterSummarize) Name() string { return "CharacterSummarize" }

func (s CharacterSummarize) Process(ctx context.Context, env *Env, _ Request, gs *models.GameState) (State, error) {
	ci, err := interaction(gs)
	if err != nil {
		return nil, err
	}
	log := env.logger().With(zap.String("game_id", gs.GameID), zap.String("character_id", ci.CharacterID))

	if err := s.awaitSummary(ctx, env, ci.ThreadID); err != nil {
		return nil, err
	}
	summary, err := latestReply(ctx, env, ci.ThreadID)
	if err != nil {
		return nil, err
	}
	summary = strings.TrimSpace(strings.ReplaceAll(summary, summarizeCue, ""))
	if summary == "" {
		summary = fmt.Sprintf("The player spoke with %s.", ci.CharacterName)
	}

	save, err := env.Saves.Get(ctx, gs.GameID, ci.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("load character save: %w", err)
	}
	updated := &models.CharacterSave{
		PreviousConversations: append(append([]string{}, save.PreviousConversations...), summary),
		Inventory:             append([]string{}, gs.CharacterInventories[ci.CharacterID]...),
	}
	if err := env.Saves.Save(ctx, gs.GameID, ci.CharacterID, updated); err != nil {
		return nil, fmt.Errorf("store character save: %w", err)
	}

	if err := env.Backend.DeleteThread(ctx, ci.ThreadID); err != nil {
		log.Warn("Failed to delete character thread", zap.String("thread_id", ci.ThreadID), zap.Error(err))
	}
	if err := env.Backend.DeleteAssistant(ctx, ci.AssistantID); err != nil {
		log.Warn("Failed to delete character assistant", zap.String("assistant_id", ci.AssistantID), zap.Error(err))
	}

	origin := ci.Origin
	gs.CharacterInteraction = nil
	log.Info("Character interaction ended")
	return SubmitToolOutputs{Continuation: origin, Output: summary}, nil
}

// awaitSummary polls the summary run to completion, refusing any function
// the character still tries to call.
func (s CharacterSummarize) awaitSummary(ctx context.Context, env *Env, threadID string) error {
	for round := 0; ; round++ {
		run, err := pollRun(ctx, env, threadID, s.RunID)
		if err != nil {
			return err
		}
		if run.Status == conversation.RunStatusCompleted {
			return nil
		}
		if round >= maxSummaryToolRounds {
			return fmt.Errorf("%w: summary run %s keeps calling functions", ErrRunStalled, s.RunID)
		}
		outputs := make([]conversation.ToolOutput, 0, len(run.ToolCalls))
		for _, tc := range run.ToolCalls {
			outputs = append(outputs, conversation.ToolOutput{
				ToolCallID: tc.ID,
				Output:     errorOutput("the conversation is over, %s is not available", tc.Name),
			})
		}
		if _, err := env.Backend.SubmitToolOutputs(ctx, threadID, s.RunID, outputs); err != nil {
			return fmt.Errorf("refuse function during summary: %w", err)
		}
	}
}
