package game_test

import (
	"fmt"
	"math/rand"
	"time"

	"minigame-service/internal/domain"
	"minigame-service/internal/game"
)

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func testOptions(clock *game.ManualClock) game.Options {
	return game.Options{
		Clock:  clock,
		Rand:   rand.New(rand.NewSource(42)),
		Delays: game.DefaultDelays(),
	}
}

// quizGame builds n items whose correct option is "c" and wrong option is "w".
func quizGame(variant domain.Variant, n, weight int) domain.Game {
	items := make([]domain.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, domain.Item{
			ID:     fmt.Sprintf("q%d", i+1),
			Prompt: fmt.Sprintf("Question %d", i+1),
			Options: []domain.Option{
				{ID: "c", Label: "Right", Correct: true, Description: "Well done"},
				{ID: "w", Label: "Wrong", Description: "Not quite"},
			},
		})
	}
	return domain.Game{
		ID:           "test-" + string(variant),
		Title:        "Test",
		Variant:      variant,
		Items:        items,
		RewardWeight: weight,
		Reward:       domain.Reward{Coins: 5, XP: 10},
		NextPath:     "/student/next",
	}
}

func badgeGame(ids ...string) domain.Game {
	tasks := make([]domain.Task, 0, len(ids))
	for _, id := range ids {
		tasks = append(tasks, domain.Task{ID: id, Label: "Task " + id})
	}
	return domain.Game{ID: "badge", Variant: domain.VariantBadge, Tasks: tasks}
}

func reflexGame(rounds int) domain.Game {
	return domain.Game{
		ID:      "reflex",
		Variant: domain.VariantReflex,
		Rounds:  rounds,
		Items: []domain.Item{
			{ID: "r1", Prompt: "Recycle?", Options: []domain.Option{
				{ID: "recycle", Label: "RECYCLE", Correct: true},
				{ID: "trash", Label: "TRASH"},
			}},
			{ID: "r2", Prompt: "Reuse?", Options: []domain.Option{
				{ID: "reuse", Label: "REUSE", Correct: true},
				{ID: "waste", Label: "WASTE"},
			}},
		},
	}
}

func correctOf(snap domain.Snapshot, def domain.Game) string {
	for _, presented := range snap.Options {
		for _, item := range def.Items {
			for _, opt := range item.Options {
				if opt.ID == presented.ID && opt.Correct {
					return opt.ID
				}
			}
		}
	}
	return ""
}

func incorrectOf(snap domain.Snapshot, def domain.Game) string {
	for _, presented := range snap.Options {
		for _, item := range def.Items {
			for _, opt := range item.Options {
				if opt.ID == presented.ID && !opt.Correct {
					return opt.ID
				}
			}
		}
	}
	return ""
}
