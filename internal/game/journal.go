package game

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"minigame-service/internal/domain"
)

const defaultMinTextLength = 10

// Journal accepts a single free-text reflection and finishes on acceptance.
type Journal struct {
	base
	def       domain.Game
	minLength int
	award     int
	entry     string
	terminal  bool
}

func newJournal(def domain.Game, opts Options) *Journal {
	minLength := def.MinTextLength
	if minLength <= 0 {
		minLength = defaultMinTextLength
	}
	award := def.TextAward
	if award <= 0 {
		award = def.Weight()
	}
	j := &Journal{def: def, minLength: minLength, award: award}
	j.init(opts)
	return j
}

// SubmitText accepts text whose trimmed length reaches the minimum.
func (j *Journal) SubmitText(text string) error {
	j.mu.Lock()
	if j.closed || j.terminal {
		j.mu.Unlock()
		return finishedErr()
	}
	trimmed := strings.TrimSpace(text)
	if n := utf8.RuneCountInString(trimmed); n < j.minLength {
		j.mu.Unlock()
		return fmt.Errorf("%w: %d of %d characters", domain.ErrTextTooShort, n, j.minLength)
	}
	j.entry = trimmed
	j.terminal = true
	j.mu.Unlock()

	j.notify()
	return nil
}

// Entry returns the accepted text, empty until the journal is submitted.
func (j *Journal) Entry() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.entry
}

func (j *Journal) Score() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.terminal {
		return j.award
	}
	return 0
}

func (j *Journal) Terminal() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.terminal
}

func (j *Journal) Snapshot() domain.Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	snap := domain.Snapshot{
		GameID:   j.def.ID,
		Variant:  j.def.Variant,
		Prompt:   j.prompt(),
		MaxScore: j.award,
	}
	if j.terminal {
		snap.Score = j.award
		terminalSnapshot(j.def, &snap)
	}
	return snap
}

func (j *Journal) prompt() string {
	if j.def.Prompt != "" {
		return j.def.Prompt
	}
	return j.def.Title
}
