package game

import (
	"fmt"
	"math/rand"
	"time"

	"minigame-service/internal/domain"
)

const defaultReflexRounds = 5

// Reflex runs timed stimulus/response rounds:
// waiting -> showing -> ready -> success|failure -> showing ... -> terminal.
//
// Latency is measured from the ready transition but never gates the outcome;
// only the correctness of the chosen option does. Screens have always behaved
// this way and it is unclear whether a speed threshold was ever intended.
type Reflex struct {
	base
	def       domain.Game
	rng       *rand.Rand
	delays    Delays
	rounds    int
	weight    int
	phase     domain.Phase
	round     int
	item      int
	pair      [2]domain.Option
	startedAt time.Time
	terminal  bool
	history   []domain.Outcome
}

func newReflex(def domain.Game, opts Options) *Reflex {
	rounds := def.Rounds
	if rounds <= 0 {
		rounds = defaultReflexRounds
	}
	r := &Reflex{
		def:    def,
		rng:    opts.Rand,
		delays: opts.Delays.forGame(def),
		rounds: rounds,
		weight: def.Weight(),
		phase:  domain.PhaseWaiting,
	}
	r.init(opts)
	return r
}

// Begin starts the first round.
func (r *Reflex) Begin() error {
	r.mu.Lock()
	if r.closed || r.terminal {
		r.mu.Unlock()
		return finishedErr()
	}
	if r.phase != domain.PhaseWaiting {
		r.mu.Unlock()
		return fmt.Errorf("%w: already started", domain.ErrOrderingViolation)
	}
	r.presentLocked()
	r.mu.Unlock()

	r.notify()
	return nil
}

// presentLocked picks the round's correct/incorrect pair, places it by coin
// flip and arms the ready transition after a random wait.
func (r *Reflex) presentLocked() {
	r.phase = domain.PhaseShowing
	r.item = r.round % len(r.def.Items)

	var correct, incorrect []domain.Option
	for _, opt := range r.def.Items[r.item].Options {
		if opt.Correct {
			correct = append(correct, opt)
		} else {
			incorrect = append(incorrect, opt)
		}
	}
	good := correct[r.rng.Intn(len(correct))]
	bad := incorrect[r.rng.Intn(len(incorrect))]
	if r.rng.Intn(2) == 0 {
		r.pair = [2]domain.Option{good, bad}
	} else {
		r.pair = [2]domain.Option{bad, good}
	}

	wait := r.delays.ReadyMin
	if span := r.delays.ReadyMax - r.delays.ReadyMin; span > 0 {
		wait += time.Duration(r.rng.Int63n(int64(span) + 1))
	}
	r.armLocked(wait, func() {
		r.phase = domain.PhaseReady
		r.startedAt = r.clock.Now()
	})
}

// Submit resolves the round. Controls are only offered in the ready phase, so
// anything earlier is an ordering violation.
func (r *Reflex) Submit(optionID string) (domain.Outcome, error) {
	r.mu.Lock()
	if r.closed || r.terminal {
		r.mu.Unlock()
		return domain.Outcome{}, finishedErr()
	}
	if r.phase != domain.PhaseReady {
		r.mu.Unlock()
		return domain.Outcome{}, fmt.Errorf("%w: round %d is %s", domain.ErrOrderingViolation, r.round, r.phase)
	}

	var chosen *domain.Option
	for i := range r.pair {
		if r.pair[i].ID == optionID {
			chosen = &r.pair[i]
			break
		}
	}
	if chosen == nil {
		r.mu.Unlock()
		return domain.Outcome{}, fmt.Errorf("%w: option %q not presented in round %d", domain.ErrLookup, optionID, r.round)
	}

	latency := r.clock.Now().Sub(r.startedAt).Milliseconds()
	if latency < 0 {
		latency = 0
	}
	outcome := domain.Outcome{
		ItemIndex:   r.round,
		OptionID:    chosen.ID,
		Correct:     chosen.Correct,
		Description: chosen.Description,
		LatencyMs:   latency,
	}
	r.history = append(r.history, outcome)
	if outcome.Correct {
		r.phase = domain.PhaseSuccess
	} else {
		r.phase = domain.PhaseFailure
	}
	r.armLocked(r.delays.Resolve, r.nextRoundLocked)
	r.mu.Unlock()

	r.notify()
	return outcome, nil
}

func (r *Reflex) nextRoundLocked() {
	if r.round+1 < r.rounds {
		r.round++
		r.presentLocked()
		return
	}
	r.terminal = true
}

func (r *Reflex) Score() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scoreLocked()
}

func (r *Reflex) scoreLocked() int {
	hits := 0
	for _, outcome := range r.history {
		if outcome.Correct {
			hits++
		}
	}
	return hits * r.weight
}

func (r *Reflex) Terminal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminal
}

// Phase reports the current reflex phase.
func (r *Reflex) Phase() domain.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Reflex) Snapshot() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := domain.Snapshot{
		GameID:      r.def.ID,
		Variant:     r.def.Variant,
		ActiveIndex: r.round,
		ItemCount:   r.rounds,
		Phase:       r.phase,
		Locked:      r.phase == domain.PhaseSuccess || r.phase == domain.PhaseFailure,
		Round:       r.round + 1,
		Rounds:      r.rounds,
		Score:       r.scoreLocked(),
		MaxScore:    r.rounds * r.weight,
		Last:        lastOutcome(r.history),
	}
	if r.terminal {
		terminalSnapshot(r.def, &snap)
		return snap
	}
	if r.phase != domain.PhaseWaiting {
		snap.Prompt = r.def.Items[r.item].Prompt
	}
	if r.phase == domain.PhaseReady {
		snap.Options = present(r.pair[:])
	}
	return snap
}
