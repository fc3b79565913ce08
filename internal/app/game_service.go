package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"minigame-service/internal/domain"
	"minigame-service/internal/game"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
	List() []*Session
}

// GameRepository loads validated game definitions (from cache/backing store).
type GameRepository interface {
	GetGame(ctx context.Context, gameID string) (domain.Game, error)
}

// CompletionPublisher announces finished sessions to the rest of the platform.
type CompletionPublisher interface {
	PublishCompleted(ctx context.Context, completion domain.Completion) error
}

// GameLister enumerates the catalogue (builtin YAML or Postgres).
type GameLister interface {
	ListGameIDs(ctx context.Context) ([]string, error)
}

// GameService contains the play-session use cases.
type GameService struct {
	sessions  SessionRepository
	games     GameRepository
	lister    GameLister
	publisher CompletionPublisher
	logger    *slog.Logger
	clock     game.Clock
	delays    game.Delays
	seed      func() int64
}

// Option customizes a GameService.
type Option func(*GameService)

func WithClock(clock game.Clock) Option {
	return func(s *GameService) { s.clock = clock }
}

func WithDelays(delays game.Delays) Option {
	return func(s *GameService) { s.delays = delays }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *GameService) { s.logger = logger }
}

func WithLister(lister GameLister) Option {
	return func(s *GameService) { s.lister = lister }
}

func WithPublisher(publisher CompletionPublisher) Option {
	return func(s *GameService) { s.publisher = publisher }
}

// WithSeed fixes the randomness source of new sessions; tests use it for reproducible shuffles.
func WithSeed(seed func() int64) Option {
	return func(s *GameService) { s.seed = seed }
}

func NewGameService(store SessionRepository, games GameRepository, opts ...Option) *GameService {
	s := &GameService{
		sessions: store,
		games:    games,
		logger:   slog.Default(),
		clock:    game.SystemClock{},
		delays:   game.DefaultDelays(),
		seed:     func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary returns the public metadata of a game.
func (s *GameService) Summary(ctx context.Context, gameID string) (domain.GameSummary, error) {
	def, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return domain.GameSummary{}, err
	}
	return def.Summary(), nil
}

// ListGames summarizes every game the configured lister knows about.
func (s *GameService) ListGames(ctx context.Context) ([]domain.GameSummary, error) {
	if s.lister == nil {
		return nil, nil
	}
	ids, err := s.lister.ListGameIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.GameSummary, 0, len(ids))
	for _, id := range ids {
		def, err := s.games.GetGame(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidGame) {
				s.logger.WarnContext(ctx, "skipping invalid game", "game_id", id, "error", err)
				continue
			}
			return nil, err
		}
		out = append(out, def.Summary())
	}
	return out, nil
}

// Start mounts a fresh session for a game screen.
func (s *GameService) Start(ctx context.Context, gameID string) (domain.Snapshot, error) {
	def, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	session, err := NewSession(uuid.NewString(), def, game.Options{
		Clock:  s.clock,
		Rand:   rand.New(rand.NewSource(s.seed())),
		Delays: s.delays,
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	session.setOnFinish(s.finished)
	s.sessions.Save(session)

	s.logger.InfoContext(ctx, "session started", "session_id", session.ID(), "game_id", gameID, "variant", def.Variant)
	return session.Snapshot(), nil
}

// Snapshot returns the current state of a session.
func (s *GameService) Snapshot(_ context.Context, sessionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	session.touch()
	return session.Snapshot(), nil
}

// Submit records an option selection (quiz, story, puzzle, debate, reflex).
func (s *GameService) Submit(ctx context.Context, sessionID, optionID string) (domain.Snapshot, domain.Outcome, error) {
	var outcome domain.Outcome
	snap, err := s.apply(ctx, sessionID, "submit", func(m game.Machine) error {
		answerer, ok := m.(game.Answerer)
		if !ok {
			return unsupported("submit")
		}
		var err error
		outcome, err = answerer.Submit(optionID)
		return err
	})
	return snap, outcome, err
}

// Advance skips the remaining presentation delay ("Next").
func (s *GameService) Advance(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	return s.apply(ctx, sessionID, "advance", func(m game.Machine) error {
		advancer, ok := m.(game.Advancer)
		if !ok {
			return unsupported("advance")
		}
		return advancer.Advance()
	})
}

// Begin starts the first reflex round.
func (s *GameService) Begin(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	return s.apply(ctx, sessionID, "begin", func(m game.Machine) error {
		starter, ok := m.(game.Starter)
		if !ok {
			return unsupported("begin")
		}
		return starter.Begin()
	})
}

// CompleteTask marks a badge task done.
func (s *GameService) CompleteTask(ctx context.Context, sessionID, taskID string) (domain.Snapshot, error) {
	return s.apply(ctx, sessionID, "complete", func(m game.Machine) error {
		completer, ok := m.(game.TaskCompleter)
		if !ok {
			return unsupported("complete")
		}
		return completer.Complete(taskID)
	})
}

// SubmitText submits a journal entry.
func (s *GameService) SubmitText(ctx context.Context, sessionID, text string) (domain.Snapshot, error) {
	return s.apply(ctx, sessionID, "text", func(m game.Machine) error {
		submitter, ok := m.(game.TextSubmitter)
		if !ok {
			return unsupported("text")
		}
		return submitter.SubmitText(text)
	})
}

// Subscribe returns a channel that receives every snapshot of a session,
// including timer-driven transitions. The caller must invoke cancel to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Snapshot, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// End unmounts a session: pending timers are cancelled and the session is dropped.
func (s *GameService) End(ctx context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
	s.logger.DebugContext(ctx, "session ended", "session_id", sessionID)
}

// Shutdown ends every live session.
func (s *GameService) Shutdown(ctx context.Context) {
	for _, session := range s.sessions.List() {
		s.End(ctx, session.ID())
	}
}

// ReapIdle ends sessions with no subscriber and no activity for longer than
// maxIdle. Finished screens the shell never closed are dropped the same way.
func (s *GameService) ReapIdle(ctx context.Context, maxIdle time.Duration) int {
	now := s.clock.Now()
	reaped := 0
	for _, session := range s.sessions.List() {
		if session.watched() || now.Sub(session.LastActive()) <= maxIdle {
			continue
		}
		s.End(ctx, session.ID())
		reaped++
	}
	if reaped > 0 {
		s.logger.InfoContext(ctx, "reaped idle sessions", "count", reaped, "max_idle", maxIdle)
	}
	return reaped
}

// RunReaper calls ReapIdle every interval until ctx is done.
func (s *GameService) RunReaper(ctx context.Context, interval, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.ReapIdle(ctx, maxIdle)
		}
	}
}

func (s *GameService) apply(ctx context.Context, sessionID, action string, fn func(game.Machine) error) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}

	session.touch()
	err := fn(session.machine)
	snap := session.Snapshot()
	if err == nil {
		return snap, nil
	}

	// Rejected events leave the session untouched; the shell just ignores them.
	attrs := []any{"session_id", sessionID, "game_id", session.GameID(), "action", action, "error", err}
	switch {
	case errors.Is(err, domain.ErrLookup), errors.Is(err, domain.ErrInvalidItem):
		s.logger.WarnContext(ctx, "event rejected", attrs...)
	case domain.IsIgnorable(err):
		s.logger.DebugContext(ctx, "event ignored", attrs...)
	default:
		s.logger.ErrorContext(ctx, "event failed", attrs...)
	}
	return snap, err
}

func (s *GameService) finished(completion domain.Completion) {
	s.logger.Info("session completed",
		"session_id", completion.SessionID,
		"game_id", completion.GameID,
		"score", completion.Score,
		"max_score", completion.MaxScore)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCompleted(context.Background(), completion); err != nil {
		s.logger.Error("publish completion failed", "session_id", completion.SessionID, "error", err)
	}
}

func unsupported(action string) error {
	return fmt.Errorf("%w: %s not supported by this game", domain.ErrOrderingViolation, action)
}
