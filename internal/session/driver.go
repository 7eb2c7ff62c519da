package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"adventure-server/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName = "adventure-server/session"

	DefaultMaxSteps       = 256
	DefaultSnapshotBuffer = 32

	cancelRunTimeout = 10 * time.Second
)

// Driver owns the current State of one session and the channel its Game
// State snapshots are published on. Process calls are serialized.
type Driver struct {
	mu        sync.Mutex
	env       *Env
	state     State
	snapshots chan models.GameState
	closeOnce sync.Once
	maxSteps  int
	logger    *zap.Logger
	tracer    trace.Tracer
}

type DriverOption func(*Driver)

// WithMaxSteps limits the transitions a single Process call may perform.
func WithMaxSteps(n int) DriverOption {
	return func(d *Driver) {
		if n > 0 {
			d.maxSteps = n
		}
	}
}

// WithSnapshotBuffer sets the capacity of the snapshot channel.
func WithSnapshotBuffer(n int) DriverOption {
	return func(d *Driver) {
		if n >= 0 {
			d.snapshots = make(chan models.GameState, n)
		}
	}
}

func NewDriver(env *Env, initial State, opts ...DriverOption) *Driver {
	if initial == nil {
		initial = Idle{}
	}
	d := &Driver{
		env:       env,
		state:     initial,
		snapshots: make(chan models.GameState, DefaultSnapshotBuffer),
		maxSteps:  DefaultMaxSteps,
		logger:    env.logger().Named("SessionDriver"),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Snapshots returns the channel receiving a copy of the Game State after
// every transition. Delivery is best effort: snapshots are dropped while the
// channel is full.
func (d *Driver) Snapshots() <-chan models.GameState {
	return d.snapshots
}

// State returns the current state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Close closes the snapshot channel. The Driver must not be used afterwards.
func (d *Driver) Close() {
	d.closeOnce.Do(func() { close(d.snapshots) })
}

// Process feeds req to the current state, then keeps feeding Resume until a
// state waits for external input. A failed transition is logged, the session
// falls back to an idle state and the error is returned for reporting.
// Game State mutations committed by earlier transitions are kept.
func (d *Driver) Process(ctx context.Context, req Request, gs *models.GameState) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	log := d.logger.With(zap.String("game_id", gs.GameID), zap.String("request", req.Kind()))
	for step := 0; ; step++ {
		current := d.state
		d.state = nil

		var (
			next State
			err  error
		)
		if step >= d.maxSteps {
			err = fmt.Errorf("%w: %d transitions", ErrStepLimit, d.maxSteps)
		} else {
			next, err = d.step(ctx, current, req, gs)
		}
		if err != nil {
			d.state = d.recover(ctx, current, req, gs, err, log)
			d.publish(gs, log)
			return fmt.Errorf("%s: %w", current.Name(), err)
		}

		d.state = next
		d.publish(gs, log)
		if !next.ShouldContinue() {
			return nil
		}
		req = Resume{}
	}
}

func (d *Driver) step(ctx context.Context, s State, req Request, gs *models.GameState) (State, error) {
	ctx, span := d.tracer.Start(ctx, "session."+s.Name(), trace.WithAttributes(
		attribute.String("game.id", gs.GameID),
		attribute.String("session.request", req.Kind()),
	))
	defer span.End()

	start := time.Now()
	next, err := s.Process(ctx, d.env, req, gs)
	transitionDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
	if err == nil && next == nil {
		err = fmt.Errorf("%w: %s", ErrNoNextState, s.Name())
	}
	if err != nil {
		transitionsTotal.WithLabelValues(s.Name(), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	transitionsTotal.WithLabelValues(s.Name(), "ok").Inc()
	span.SetAttributes(attribute.String("session.next_state", next.Name()))
	return next, nil
}

// recover picks the state after a failed transition. A refused request keeps
// the current state; anything else cancels the run the failing state held
// and lands on the idle state of the conversation still alive.
func (d *Driver) recover(ctx context.Context, failed State, req Request, gs *models.GameState, err error, log *zap.Logger) State {
	kind := errorKind(err)
	failedTurnsTotal.WithLabelValues(kind).Inc()

	if errors.Is(err, ErrUnexpectedRequest) {
		log.Warn("Request refused", zap.String("state", failed.Name()), zap.Error(err))
		return failed
	}

	log.Error("Session transition failed, falling back to idle",
		zap.String("state", failed.Name()),
		zap.String("kind", kind),
		zap.Error(err))

	if holder, ok := failed.(runHolder); ok && !errors.Is(err, ErrRunFailed) {
		if threadID, runID := holder.activeRun(gs); threadID != "" && runID != "" {
			d.cancelRun(ctx, threadID, runID, log)
		}
	}

	fallback := FallbackState(gs)
	if ci := gs.CharacterInteraction; ci != nil && ci.Offer != nil {
		// the call the offer was waiting to answer is gone with its run
		ci.Offer = nil
	}
	return fallback
}

func (d *Driver) cancelRun(ctx context.Context, threadID, runID string, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelRunTimeout)
	defer cancel()
	if _, err := d.env.Backend.CancelRun(ctx, threadID, runID); err != nil {
		log.Warn("Failed to cancel run after failed transition",
			zap.String("thread_id", threadID), zap.String("run_id", runID), zap.Error(err))
		return
	}
	log.Info("Cancelled run after failed transition", zap.String("thread_id", threadID), zap.String("run_id", runID))
}

func (d *Driver) publish(gs *models.GameState, log *zap.Logger) {
	select {
	case d.snapshots <- gs.Clone():
	default:
		snapshotsDroppedTotal.Inc()
		log.Warn("Snapshot channel full, dropping game state snapshot")
	}
}
