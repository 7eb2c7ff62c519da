package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adventure-server/internal/conversation"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	DefaultPollInterval    = 250 * time.Millisecond
	DefaultPollMaxAttempts = 2400 // 10 минут при интервале по умолчанию
)

// PollPolicy bounds how long a run may stay queued or in progress.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{Interval: DefaultPollInterval, MaxAttempts: DefaultPollMaxAttempts}
}

func (p PollPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultPollMaxAttempts
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Interval), uint64(attempts-1))
	return backoff.WithContext(b, ctx)
}

var errRunPending = errors.New("run still pending")

// pollRun retrieves the run at a fixed interval until it requires action or
// completes. Terminal statuses and permanent backend errors stop immediately;
// transient backend errors use up attempts like a pending status does.
func pollRun(ctx context.Context, env *Env, threadID, runID string) (conversation.Run, error) {
	start := time.Now()
	attempts := 0
	op := func() (conversation.Run, error) {
		attempts++
		run, err := env.Backend.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			if conversation.IsTransient(err) {
				return run, err
			}
			return run, backoff.Permanent(err)
		}
		switch {
		case run.Status.IsPending():
			return run, errRunPending
		case run.Status.IsTerminalFailure():
			failed := &RunFailedError{RunID: runID, Status: run.Status}
			if run.LastError != nil {
				failed.Code, failed.Msg = run.LastError.Code, run.LastError.Message
			}
			return run, backoff.Permanent(failed)
		case run.Status == conversation.RunStatusRequiresAction, run.Status == conversation.RunStatusCompleted:
			return run, nil
		default:
			return run, backoff.Permanent(fmt.Errorf("%w: unexpected run status %q", conversation.ErrBackend, run.Status))
		}
	}
	notify := func(err error, next time.Duration) {
		if !errors.Is(err, errRunPending) {
			env.logger().Warn("Transient error while polling run, retrying",
				zap.String("run_id", runID), zap.Int("attempt", attempts), zap.Error(err))
		}
	}

	run, err := backoff.RetryNotifyWithData(op, env.Poll.backOff(ctx), notify)
	runPollAttempts.Observe(float64(attempts))
	runPollDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		return run, nil
	}
	if errors.Is(err, errRunPending) {
		return run, fmt.Errorf("%w: run %s still %s after %d polls", ErrRunStalled, runID, run.Status, attempts)
	}
	if conversation.IsTransient(err) {
		return run, fmt.Errorf("%w: run %s after %d polls: %w", ErrRunStalled, runID, attempts, err)
	}
	return run, err
}

// singleToolCall enforces that a run requiring action asks for exactly one function.
func singleToolCall(run conversation.Run) (conversation.ToolCall, error) {
	switch len(run.ToolCalls) {
	case 0:
		return conversation.ToolCall{}, fmt.Errorf("%w: run %s", ErrNoToolCall, run.ID)
	case 1:
		return run.ToolCalls[0], nil
	default:
		return conversation.ToolCall{}, fmt.Errorf("%w: run %s requested %d", ErrMultipleToolCalls, run.ID, len(run.ToolCalls))
	}
}
