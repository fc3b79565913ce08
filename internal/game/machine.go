package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"minigame-service/internal/domain"
)

// Machine is the per-session state machine behind one game screen.
type Machine interface {
	Snapshot() domain.Snapshot
	Score() int
	Terminal() bool
	// Close cancels any pending transition. Timers that fire afterwards are dropped.
	Close()
}

// Answerer accepts option selections (quiz, story, puzzle, debate, reflex).
type Answerer interface {
	Submit(optionID string) (domain.Outcome, error)
}

// Advancer lets the shell skip the presentation delay with a "Next" action.
type Advancer interface {
	Advance() error
}

// Starter arms a machine that waits for an explicit start (reflex).
type Starter interface {
	Begin() error
}

// TaskCompleter marks checklist tasks done (badge).
type TaskCompleter interface {
	Complete(taskID string) error
}

// TextSubmitter accepts free text (journal).
type TextSubmitter interface {
	SubmitText(text string) error
}

// Delays are the presentation timings applied when a definition does not set its own.
type Delays struct {
	Correct   time.Duration
	Incorrect time.Duration
	Story     time.Duration
	ReadyMin  time.Duration
	ReadyMax  time.Duration
	Resolve   time.Duration
}

// DefaultDelays mirrors the timings the screens have always used.
func DefaultDelays() Delays {
	return Delays{
		Correct:   1500 * time.Millisecond,
		Incorrect: 800 * time.Millisecond,
		Story:     1200 * time.Millisecond,
		ReadyMin:  1000 * time.Millisecond,
		ReadyMax:  3000 * time.Millisecond,
		Resolve:   1200 * time.Millisecond,
	}
}

func (d Delays) forGame(def domain.Game) Delays {
	out := d
	if def.Variant == domain.VariantStory {
		out.Correct = d.Story
		out.Incorrect = d.Story
	}
	override := func(dst *time.Duration, ms int) {
		if ms > 0 {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
	override(&out.Correct, def.Timing.CorrectDelayMs)
	override(&out.Incorrect, def.Timing.IncorrectDelayMs)
	override(&out.ReadyMin, def.Timing.ReadyMinMs)
	override(&out.ReadyMax, def.Timing.ReadyMaxMs)
	override(&out.Resolve, def.Timing.ResolveDelayMs)
	if out.ReadyMax < out.ReadyMin {
		out.ReadyMax = out.ReadyMin
	}
	return out
}

// Options configures a machine.
type Options struct {
	Clock  Clock
	Rand   *rand.Rand
	Delays Delays
	// OnChange is invoked after every transition, without the machine lock held.
	OnChange func()
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Delays == (Delays{}) {
		o.Delays = DefaultDelays()
	}
	return o
}

// New validates def and builds the machine for its variant.
func New(def domain.Game, opts Options) (Machine, error) {
	if err := Validate(def); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	switch def.Variant {
	case domain.VariantQuiz, domain.VariantStory, domain.VariantPuzzle, domain.VariantDebate:
		return newProgression(def, opts), nil
	case domain.VariantReflex:
		return newReflex(def, opts), nil
	case domain.VariantBadge:
		return newTracker(def, opts), nil
	case domain.VariantJournal:
		return newJournal(def, opts), nil
	}
	return nil, fmt.Errorf("%w: unknown variant %q", domain.ErrInvalidGame, def.Variant)
}

// base owns the lock, the single pending timer and change notification shared
// by every machine.
type base struct {
	mu       sync.Mutex
	clock    Clock
	onChange func()
	pending  Timer
	gen      uint64
	closed   bool
}

func (b *base) init(opts Options) {
	b.clock = opts.Clock
	b.onChange = opts.OnChange
}

// armLocked replaces any pending transition with fn after d. fn runs with mu held;
// a callback whose generation was superseded, or that fires after Close, is dropped.
func (b *base) armLocked(d time.Duration, fn func()) {
	b.stopLocked()
	gen := b.gen
	b.pending = b.clock.AfterFunc(d, func() {
		b.mu.Lock()
		if b.closed || gen != b.gen {
			b.mu.Unlock()
			return
		}
		b.pending = nil
		fn()
		b.mu.Unlock()
		b.notify()
	})
}

func (b *base) stopLocked() {
	b.gen++
	if b.pending != nil {
		b.pending.Stop()
		b.pending = nil
	}
}

func (b *base) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.stopLocked()
}

func (b *base) notify() {
	if b.onChange != nil {
		b.onChange()
	}
}

func finishedErr() error {
	return fmt.Errorf("%w: game finished", domain.ErrOrderingViolation)
}

// terminalSnapshot fills the completion fields once the session is over.
func terminalSnapshot(def domain.Game, snap *domain.Snapshot) {
	snap.Terminal = true
	reward := def.Reward
	snap.Reward = &reward
	snap.NextPath = def.NextPath
	snap.NextGameID = def.NextGameID
	snap.Perfect = snap.MaxScore > 0 && snap.Score == snap.MaxScore
}

func lastOutcome(history []domain.Outcome) *domain.Outcome {
	if len(history) == 0 {
		return nil
	}
	last := history[len(history)-1]
	return &last
}

func present(options []domain.Option) []domain.PresentedOption {
	out := make([]domain.PresentedOption, 0, len(options))
	for _, opt := range options {
		out = append(out, domain.PresentedOption{ID: opt.ID, Label: opt.Label, Icon: opt.Icon})
	}
	return out
}
