package game

import (
	"fmt"

	"minigame-service/internal/domain"
)

// Tracker records completed checklist tasks for badge screens. Completion is
// monotonic and order independent; finishing every task ends the session.
type Tracker struct {
	base
	def    domain.Game
	weight int
	known  map[string]bool
	done   map[string]bool
}

func newTracker(def domain.Game, opts Options) *Tracker {
	known := make(map[string]bool, len(def.Tasks))
	for _, task := range def.Tasks {
		known[task.ID] = true
	}
	t := &Tracker{
		def:    def,
		weight: def.Weight(),
		known:  known,
		done:   make(map[string]bool, len(def.Tasks)),
	}
	t.init(opts)
	return t
}

// Complete marks taskID done. Completing a task twice never double-credits.
func (t *Tracker) Complete(taskID string) error {
	t.mu.Lock()
	if t.closed || t.terminalLocked() {
		t.mu.Unlock()
		return finishedErr()
	}
	if !t.known[taskID] {
		t.mu.Unlock()
		return fmt.Errorf("%w: task %q", domain.ErrLookup, taskID)
	}
	if t.done[taskID] {
		t.mu.Unlock()
		return fmt.Errorf("%w: task %q already completed", domain.ErrOrderingViolation, taskID)
	}
	t.done[taskID] = true
	t.mu.Unlock()

	t.notify()
	return nil
}

func (t *Tracker) terminalLocked() bool {
	return len(t.done) == len(t.def.Tasks)
}

// Completed returns the number of distinct tasks done.
func (t *Tracker) Completed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.done)
}

func (t *Tracker) Score() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.done) * t.weight
}

func (t *Tracker) Terminal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminalLocked()
}

func (t *Tracker) Snapshot() domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	completed := make([]string, 0, len(t.done))
	for _, task := range t.def.Tasks {
		if t.done[task.ID] {
			completed = append(completed, task.ID)
		}
	}
	snap := domain.Snapshot{
		GameID:         t.def.ID,
		Variant:        t.def.Variant,
		ActiveIndex:    len(t.done),
		ItemCount:      len(t.def.Tasks),
		CompletedTasks: completed,
		TaskCount:      len(t.def.Tasks),
		Score:          len(t.done) * t.weight,
		MaxScore:       len(t.def.Tasks) * t.weight,
	}
	if t.terminalLocked() {
		terminalSnapshot(t.def, &snap)
	}
	return snap
}
