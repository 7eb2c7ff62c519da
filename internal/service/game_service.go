package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"adventure-server/internal/conversation"
	"adventure-server/internal/models"
	"adventure-server/internal/repository"
	"adventure-server/internal/session"

	"go.uber.org/zap"
)

// WorldLoader загружает мир игры по идентификатору.
type WorldLoader interface {
	Load(ctx context.Context, gameID string) (*models.World, error)
}

// Prompts - шаблоны для рассказчика и персонажей.
type Prompts interface {
	session.Prompts
	NarratorInstructions(world *models.World) (string, error)
	OpeningCue(world *models.World) (string, error)
}

// SnapshotPublisher получает копию Game State после каждого перехода.
type SnapshotPublisher interface {
	Publish(ctx context.Context, gs models.GameState) error
}

// Options - параметры сессий.
type Options struct {
	Poll           session.PollPolicy
	SnapshotBuffer int
	PublishTimeout time.Duration
}

// activeGame - текущая сессия: один Driver и одно Game State на процесс.
type activeGame struct {
	world    *models.World
	state    *models.GameState
	driver   *session.Driver
	pumpDone chan struct{}
}

// GameService - командная поверхность игры. Вызовы сериализуются.
type GameService struct {
	mu         sync.Mutex
	backend    conversation.Backend
	worlds     WorldLoader
	states     repository.GameStateRepository
	saves      repository.CharacterSaveRepository
	prompts    Prompts
	publishers []SnapshotPublisher
	opts       Options
	logger     *zap.Logger

	game *activeGame
}

func NewGameService(
	backend conversation.Backend,
	worlds WorldLoader,
	states repository.GameStateRepository,
	saves repository.CharacterSaveRepository,
	prompts Prompts,
	publishers []SnapshotPublisher,
	opts Options,
	logger *zap.Logger,
) *GameService {
	if opts.Poll.Interval <= 0 {
		opts.Poll = session.DefaultPollPolicy()
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}
	return &GameService{
		backend:    backend,
		worlds:     worlds,
		states:     states,
		saves:      saves,
		prompts:    prompts,
		publishers: publishers,
		opts:       opts,
		logger:     logger.Named("GameService"),
	}
}

// StartGame продолжает сохраненную игру или начинает новую: создает
// ассистента рассказчика и поток, отправляет вступление и выполняет
// первый ход рассказчика.
func (s *GameService) StartGame(ctx context.Context, gameID string) (models.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.logger.With(zap.String("game_id", gameID))

	world, err := s.worlds.Load(ctx, gameID)
	if err != nil {
		return models.GameState{}, err
	}

	saved, err := s.states.Get(ctx, world.ID)
	switch {
	case err == nil:
		s.activate(world, saved, session.ResumeState(saved))
		log.Info("Game resumed", zap.String("state", s.game.driver.State().Name()))
		gamesStartedTotal.WithLabelValues("resumed").Inc()
		return saved.Clone(), nil
	case !errors.Is(err, models.ErrNotFound):
		return models.GameState{}, fmt.Errorf("load saved game: %w", err)
	}

	gs, err := s.createNarrator(ctx, world)
	if err != nil {
		return models.GameState{}, err
	}
	if err := s.states.Save(ctx, gs); err != nil {
		return models.GameState{}, fmt.Errorf("save new game: %w", err)
	}
	s.activate(world, gs, session.PendingRun{})
	gamesStartedTotal.WithLabelValues("new").Inc()
	log.Info("New game started", zap.String("thread_id", gs.ThreadID))

	err = s.game.driver.Process(ctx, session.Resume{}, gs)
	return s.finishTurn(ctx, err)
}

func (s *GameService) createNarrator(ctx context.Context, world *models.World) (*models.GameState, error) {
	instructions, err := s.prompts.NarratorInstructions(world)
	if err != nil {
		return nil, fmt.Errorf("render narrator instructions: %w", err)
	}
	cue, err := s.prompts.OpeningCue(world)
	if err != nil {
		return nil, fmt.Errorf("render opening cue: %w", err)
	}
	assistantID, err := s.backend.CreateAssistant(ctx, conversation.AssistantSpec{
		Name:         "Narrator: " + world.Title,
		Instructions: instructions,
		Functions:    session.NarratorTools.Specs(),
	})
	if err != nil {
		return nil, fmt.Errorf("create narrator assistant: %w", err)
	}
	threadID, err := s.backend.CreateThread(ctx)
	if err != nil {
		s.deleteAssistant(ctx, assistantID)
		return nil, fmt.Errorf("create narrator thread: %w", err)
	}
	if err := s.backend.CreateMessage(ctx, threadID, cue); err != nil {
		s.deleteAssistant(ctx, assistantID)
		return nil, fmt.Errorf("post opening cue: %w", err)
	}
	return models.NewGameState(world, assistantID, threadID), nil
}

func (s *GameService) deleteAssistant(ctx context.Context, assistantID string) {
	if err := s.backend.DeleteAssistant(ctx, assistantID); err != nil {
		s.logger.Warn("Failed to delete narrator assistant", zap.String("assistant_id", assistantID), zap.Error(err))
	}
}

// activate заменяет текущую сессию. Вызывается под s.mu.
func (s *GameService) activate(world *models.World, gs *models.GameState, initial session.State) {
	s.closeLocked()
	env := &session.Env{
		Backend: s.backend,
		World:   world,
		Saves:   s.saves,
		Prompts: s.prompts,
		Poll:    s.opts.Poll,
		Logger:  s.logger,
	}
	opts := []session.DriverOption{}
	if s.opts.SnapshotBuffer > 0 {
		opts = append(opts, session.WithSnapshotBuffer(s.opts.SnapshotBuffer))
	}
	game := &activeGame{
		world:    world,
		state:    gs,
		driver:   session.NewDriver(env, initial, opts...),
		pumpDone: make(chan struct{}),
	}
	go s.pump(game)
	s.game = game
}

// pump раздает снимки издателям, пока Driver не закрыт.
func (s *GameService) pump(game *activeGame) {
	defer close(game.pumpDone)
	for snapshot := range game.driver.Snapshots() {
		for _, p := range s.publishers {
			ctx, cancel := context.WithTimeout(context.Background(), s.opts.PublishTimeout)
			if err := p.Publish(ctx, snapshot); err != nil {
				snapshotPublishFailures.Inc()
				s.logger.Warn("Snapshot publish failed", zap.String("game_id", snapshot.GameID), zap.Error(err))
			}
			cancel()
		}
	}
}

func (s *GameService) ReceivePlayerMessage(ctx context.Context, text string) (models.GameState, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.GameState{}, fmt.Errorf("%w: message text is empty", models.ErrInvalidInput)
	}
	return s.process(ctx, session.PlayerMessage{Text: text})
}

func (s *GameService) ReceiveTradeResponse(ctx context.Context, accept bool) (models.GameState, error) {
	return s.process(ctx, session.TradeResponse{Accept: accept})
}

func (s *GameService) EndCharacterInteraction(ctx context.Context) (models.GameState, error) {
	return s.process(ctx, session.EndInteraction{})
}

// Snapshot возвращает копию текущего Game State и имя состояния сессии.
func (s *GameService) Snapshot() (models.GameState, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return models.GameState{}, "", models.ErrNoActiveSession
	}
	return s.game.state.Clone(), s.game.driver.State().Name(), nil
}

func (s *GameService) process(ctx context.Context, req session.Request) (models.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return models.GameState{}, models.ErrNoActiveSession
	}
	if _, ok := req.(session.PlayerMessage); ok && s.game.state.IsOver() {
		return s.game.state.Clone(), models.ErrGameOver
	}
	err := s.game.driver.Process(ctx, req, s.game.state)
	return s.finishTurn(ctx, err)
}

// finishTurn сохраняет состояние после хода, в том числе неудачного:
// изменения, сделанные до ошибки, остаются в силе. Сбой хода Driver уже
// обработал, поэтому игрок получает снимок без ошибки. Ошибкой остаются
// только отказ и сбой сохранения.
func (s *GameService) finishTurn(ctx context.Context, turnErr error) (models.GameState, error) {
	gs := s.game.state
	log := s.logger.With(zap.String("game_id", gs.GameID))

	var result error
	switch {
	case turnErr == nil:
	case errors.Is(turnErr, session.ErrUnexpectedRequest):
		result = turnErr
	default:
		failedTurnsTotal.Inc()
		log.Warn("Turn failed, returning recovered state",
			zap.String("state", s.game.driver.State().Name()),
			zap.Error(turnErr))
	}

	if err := s.states.Save(context.WithoutCancel(ctx), gs); err != nil {
		log.Error("Failed to persist game state", zap.Error(err))
		return gs.Clone(), fmt.Errorf("persist game state: %w", err)
	}
	return gs.Clone(), result
}

// Close завершает текущую сессию и ждет доставки снимков.
func (s *GameService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *GameService) closeLocked() {
	if s.game == nil {
		return
	}
	s.game.driver.Close()
	<-s.game.pumpDone
	s.game = nil
}
