package domain

import "time"

// Variant selects which state machine drives a game screen.
type Variant string

const (
	VariantQuiz    Variant = "quiz"
	VariantStory   Variant = "story"
	VariantPuzzle  Variant = "puzzle"
	VariantDebate  Variant = "debate"
	VariantReflex  Variant = "reflex"
	VariantBadge   Variant = "badge"
	VariantJournal Variant = "journal"
)

// Progressive reports whether the variant walks a linear item sequence with one
// locked answer per item.
func (v Variant) Progressive() bool {
	switch v {
	case VariantQuiz, VariantStory, VariantPuzzle, VariantDebate:
		return true
	}
	return false
}

// Phase is the reflex sub-machine state.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseShowing Phase = "showing"
	PhaseReady   Phase = "ready"
	PhaseSuccess Phase = "success"
	PhaseFailure Phase = "failure"
)

// Option represents a selectable answer for an item.
type Option struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Label       string `json:"label" yaml:"label"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Correct     bool   `json:"correct" yaml:"correct"`
}

// Item is one question, scenario or puzzle step.
type Item struct {
	ID      string   `json:"id" yaml:"id" validate:"required"`
	Prompt  string   `json:"prompt" yaml:"prompt"`
	Options []Option `json:"options" yaml:"options" validate:"required,min=1,dive"`
}

// Task is a checklist entry on a badge screen.
type Task struct {
	ID    string `json:"id" yaml:"id" validate:"required"`
	Label string `json:"label" yaml:"label"`
	Icon  string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// Reward is the coin/XP pair granted for finishing a screen.
type Reward struct {
	Coins int `json:"coins" yaml:"coins" validate:"gte=0"`
	XP    int `json:"xp" yaml:"xp" validate:"gte=0"`
}

// Timing overrides the service-wide presentation delays, in milliseconds.
// Zero fields fall back to the configured defaults.
type Timing struct {
	CorrectDelayMs   int `json:"correctDelayMs,omitempty" yaml:"correct_delay_ms,omitempty" validate:"gte=0"`
	IncorrectDelayMs int `json:"incorrectDelayMs,omitempty" yaml:"incorrect_delay_ms,omitempty" validate:"gte=0"`
	ReadyMinMs       int `json:"readyMinMs,omitempty" yaml:"ready_min_ms,omitempty" validate:"gte=0"`
	ReadyMaxMs       int `json:"readyMaxMs,omitempty" yaml:"ready_max_ms,omitempty" validate:"gte=0"`
	ResolveDelayMs   int `json:"resolveDelayMs,omitempty" yaml:"resolve_delay_ms,omitempty" validate:"gte=0"`
}

// Game is the static definition of one screen.
type Game struct {
	ID            string  `json:"id" yaml:"id" validate:"required"`
	Title         string  `json:"title" yaml:"title"`
	Prompt        string  `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Variant       Variant `json:"variant" yaml:"variant" validate:"required,oneof=quiz story puzzle debate reflex badge journal"`
	Items         []Item  `json:"items,omitempty" yaml:"items,omitempty" validate:"dive"`
	Tasks         []Task  `json:"tasks,omitempty" yaml:"tasks,omitempty" validate:"dive"`
	RewardWeight  int     `json:"rewardWeight,omitempty" yaml:"reward_weight,omitempty" validate:"gte=0"`
	Reward        Reward  `json:"reward" yaml:"reward"`
	NextPath      string  `json:"nextPath,omitempty" yaml:"next_path,omitempty"`
	NextGameID    string  `json:"nextGameId,omitempty" yaml:"next_game_id,omitempty"`
	Shuffle       bool    `json:"shuffle,omitempty" yaml:"shuffle,omitempty"`
	Rounds        int     `json:"rounds,omitempty" yaml:"rounds,omitempty" validate:"gte=0"`
	MinTextLength int     `json:"minTextLength,omitempty" yaml:"min_text_length,omitempty" validate:"gte=0"`
	TextAward     int     `json:"textAward,omitempty" yaml:"text_award,omitempty" validate:"gte=0"`
	Timing        Timing  `json:"timing,omitempty" yaml:"timing,omitempty"`
}

// Weight returns the per-correct-answer score weight, defaulting by variant.
func (g Game) Weight() int {
	if g.RewardWeight > 0 {
		return g.RewardWeight
	}
	if g.Variant == VariantBadge {
		return 2
	}
	return 1
}

// Outcome is one recorded selection event.
type Outcome struct {
	ItemIndex   int    `json:"itemIndex"`
	OptionID    string `json:"optionId,omitempty"`
	Correct     bool   `json:"correct"`
	Description string `json:"description,omitempty"`
	LatencyMs   int64  `json:"latencyMs,omitempty"`
}

// PresentedOption is an option as the shell may render it: no correctness flag.
type PresentedOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

// Snapshot is the read-only session view pushed to the shell on every transition.
type Snapshot struct {
	SessionID      string            `json:"sessionId"`
	GameID         string            `json:"gameId"`
	Variant        Variant           `json:"variant"`
	ActiveIndex    int               `json:"activeIndex"`
	ItemCount      int               `json:"itemCount"`
	Prompt         string            `json:"prompt,omitempty"`
	Options        []PresentedOption `json:"options,omitempty"`
	Locked         bool              `json:"locked"`
	Phase          Phase             `json:"phase,omitempty"`
	Round          int               `json:"round,omitempty"`
	Rounds         int               `json:"rounds,omitempty"`
	CompletedTasks []string          `json:"completedTasks,omitempty"`
	TaskCount      int               `json:"taskCount,omitempty"`
	Score          int               `json:"score"`
	MaxScore       int               `json:"maxScore"`
	Terminal       bool              `json:"terminal"`
	Perfect        bool              `json:"perfect,omitempty"`
	Last           *Outcome          `json:"last,omitempty"`
	Reward         *Reward           `json:"reward,omitempty"`
	NextPath       string            `json:"nextPath,omitempty"`
	NextGameID     string            `json:"nextGameId,omitempty"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// GameSummary is the public metadata of a screen.
type GameSummary struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Variant   Variant `json:"variant"`
	ItemCount int     `json:"itemCount"`
	TaskCount int     `json:"taskCount,omitempty"`
	Reward    Reward  `json:"reward"`
	NextPath  string  `json:"nextPath,omitempty"`
}

// Summary strips a definition down to what the shell may see before playing.
func (g Game) Summary() GameSummary {
	return GameSummary{
		ID:        g.ID,
		Title:     g.Title,
		Variant:   g.Variant,
		ItemCount: len(g.Items),
		TaskCount: len(g.Tasks),
		Reward:    g.Reward,
		NextPath:  g.NextPath,
	}
}

// Completion summarizes a finished session.
type Completion struct {
	SessionID  string    `json:"sessionId"`
	GameID     string    `json:"gameId"`
	Variant    Variant   `json:"variant"`
	Score      int       `json:"score"`
	MaxScore   int       `json:"maxScore"`
	Reward     Reward    `json:"reward"`
	NextPath   string    `json:"nextPath,omitempty"`
	NextGameID string    `json:"nextGameId,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
}
