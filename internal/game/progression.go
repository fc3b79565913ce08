package game

import (
	"fmt"

	"minigame-service/internal/domain"
)

// Progression walks a fixed item sequence: one locked answer per item, then an
// advance after the presentation delay. Used by quiz, story, puzzle and debate.
type Progression struct {
	base
	def      domain.Game
	items    []domain.Item
	weight   int
	delays   Delays
	active   int
	locked   bool
	terminal bool
	history  []domain.Outcome
}

func newProgression(def domain.Game, opts Options) *Progression {
	items := make([]domain.Item, len(def.Items))
	copy(items, def.Items)
	if def.Shuffle {
		for i := range items {
			items[i].Options = Shuffle(opts.Rand, items[i].Options)
		}
	}
	p := &Progression{
		def:    def,
		items:  items,
		weight: def.Weight(),
		delays: opts.Delays.forGame(def),
	}
	p.init(opts)
	return p
}

// Submit records the answer for the active item and schedules the advance.
func (p *Progression) Submit(optionID string) (domain.Outcome, error) {
	p.mu.Lock()
	if p.closed || p.terminal {
		p.mu.Unlock()
		return domain.Outcome{}, finishedErr()
	}
	if p.locked {
		p.mu.Unlock()
		return domain.Outcome{}, fmt.Errorf("%w: item %d already answered", domain.ErrOrderingViolation, p.active)
	}

	outcome, err := Evaluate(p.items[p.active], optionID)
	if err != nil {
		p.mu.Unlock()
		return domain.Outcome{}, err
	}
	outcome.ItemIndex = p.active
	p.history = append(p.history, outcome)
	p.locked = true

	delay := p.delays.Incorrect
	if outcome.Correct {
		delay = p.delays.Correct
	}
	p.armLocked(delay, p.advanceLocked)
	p.mu.Unlock()

	p.notify()
	return outcome, nil
}

// Advance moves past the answered item immediately, cancelling the pending delay.
func (p *Progression) Advance() error {
	p.mu.Lock()
	if p.closed || p.terminal {
		p.mu.Unlock()
		return finishedErr()
	}
	if !p.locked {
		p.mu.Unlock()
		return fmt.Errorf("%w: item %d not answered", domain.ErrOrderingViolation, p.active)
	}
	p.stopLocked()
	p.advanceLocked()
	p.mu.Unlock()

	p.notify()
	return nil
}

func (p *Progression) advanceLocked() {
	if !p.locked {
		return
	}
	if p.active+1 < len(p.items) {
		p.active++
		p.locked = false
		return
	}
	p.terminal = true
}

func (p *Progression) Score() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scoreLocked()
}

func (p *Progression) scoreLocked() int {
	correct := 0
	for _, outcome := range p.history {
		if outcome.Correct {
			correct++
		}
	}
	return correct * p.weight
}

func (p *Progression) Terminal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminal
}

// History returns the recorded selections in play order.
func (p *Progression) History() []domain.Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Outcome, len(p.history))
	copy(out, p.history)
	return out
}

func (p *Progression) Snapshot() domain.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := domain.Snapshot{
		GameID:      p.def.ID,
		Variant:     p.def.Variant,
		ActiveIndex: p.active,
		ItemCount:   len(p.items),
		Locked:      p.locked,
		Score:       p.scoreLocked(),
		MaxScore:    len(p.items) * p.weight,
		Last:        lastOutcome(p.history),
	}
	if p.terminal {
		terminalSnapshot(p.def, &snap)
		return snap
	}
	item := p.items[p.active]
	snap.Prompt = item.Prompt
	snap.Options = present(item.Options)
	return snap
}
