package app

import (
	"sync"
	"time"

	"minigame-service/internal/domain"
	"minigame-service/internal/game"
)

// Session is one play-through of one screen. It owns the state machine and
// fans its snapshots out to subscribers.
type Session struct {
	id        string
	def       domain.Game
	createdAt time.Time
	now       func() time.Time
	machine   game.Machine

	mu          sync.RWMutex
	lastActive  time.Time
	subscribers map[chan domain.Snapshot]struct{}
	finished    bool
	closed      bool
	onFinish    func(domain.Completion)
}

// NewSession builds the machine for def and binds its transitions to the session.
func NewSession(id string, def domain.Game, opts game.Options) (*Session, error) {
	now := time.Now
	if opts.Clock != nil {
		now = opts.Clock.Now
	}
	s := &Session{
		id:          id,
		def:         def,
		createdAt:   now(),
		now:         now,
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
	opts.OnChange = s.changed
	machine, err := game.New(def, opts)
	if err != nil {
		return nil, err
	}
	s.machine = machine
	s.lastActive = s.createdAt
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) GameID() string { return s.def.ID }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// touch records shell activity; idle sessions are reaped by GameService.ReapIdle.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

// LastActive is the time of the last shell event, subscription or read.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

func (s *Session) watched() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers) > 0
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() domain.Snapshot {
	snap := s.machine.Snapshot()
	snap.SessionID = s.id
	snap.UpdatedAt = s.now()
	return snap
}

// Close cancels pending transitions and releases subscribers. Safe to call twice.
func (s *Session) Close() {
	s.machine.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) setOnFinish(fn func(domain.Completion)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFinish = fn
}

// changed runs after every machine transition, including timer-driven ones.
func (s *Session) changed() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	// snapshot under the session lock so subscribers see transitions in order
	snap := s.Snapshot()
	s.broadcastLocked(snap)
	var finish func(domain.Completion)
	if snap.Terminal && !s.finished {
		s.finished = true
		finish = s.onFinish
	}
	s.mu.Unlock()

	if finish != nil {
		finish(s.completion(snap))
	}
}

func (s *Session) completion(snap domain.Snapshot) domain.Completion {
	return domain.Completion{
		SessionID:  s.id,
		GameID:     s.def.ID,
		Variant:    s.def.Variant,
		Score:      snap.Score,
		MaxScore:   snap.MaxScore,
		Reward:     s.def.Reward,
		NextPath:   s.def.NextPath,
		NextGameID: s.def.NextGameID,
		FinishedAt: snap.UpdatedAt,
	}
}

func (s *Session) subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.lastActive = s.now()
	ch <- s.Snapshot()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
			s.lastActive = s.now()
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(snap domain.Snapshot) {
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot so a slow client never blocks a transition
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
