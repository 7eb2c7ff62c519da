package session

import (
	"errors"
	"fmt"

	"adventure-server/internal/conversation"
)

var (
	// ErrUnexpectedRequest - текущее состояние не принимает такой запрос.
	ErrUnexpectedRequest  = errors.New("request not accepted in current state")
	ErrMissingInteraction = errors.New("no active character interaction")
	ErrInteractionActive  = errors.New("character interaction already active")
	ErrUnknownFunction    = errors.New("unknown function requested by model")
	ErrMultipleToolCalls  = errors.New("model requested more than one tool call")
	ErrNoToolCall         = errors.New("run requires action but has no tool call")
	ErrInvalidArguments   = errors.New("invalid function arguments")
	ErrEmptyMessage       = errors.New("message text is empty")
	ErrNoPendingOffer     = errors.New("no pending offer")
	ErrRunFailed          = errors.New("run ended with terminal status")
	ErrStepLimit          = errors.New("session exceeded step limit")
	ErrNoNextState        = errors.New("state returned no successor")

	// ErrRunStalled - run не вышел из queued/in_progress за отведенное число опросов.
	ErrRunStalled = errors.New("run stalled")
)

// RunFailedError описывает run, завершившийся терминальным статусом.
type RunFailedError struct {
	RunID  string
	Status conversation.RunStatus
	Code   string
	Msg    string
}

func (e *RunFailedError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("run %s ended with status %s: %s (%s)", e.RunID, e.Status, e.Msg, e.Code)
	}
	return fmt.Sprintf("run %s ended with status %s", e.RunID, e.Status)
}

func (e *RunFailedError) Unwrap() error { return ErrRunFailed }

// refused помечает ошибку как отказ: Driver остается в текущем состоянии.
func refused(err error) error {
	return fmt.Errorf("%w: %w", ErrUnexpectedRequest, err)
}

func unexpected(state State, req Request) error {
	return fmt.Errorf("%w: %s cannot handle %s", ErrUnexpectedRequest, state.Name(), req.Kind())
}
