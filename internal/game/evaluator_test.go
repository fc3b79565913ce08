package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"minigame-service/internal/domain"
	"minigame-service/internal/game"
)

func TestEvaluate(t *testing.T) {
	item := domain.Item{
		ID: "q1",
		Options: []domain.Option{
			{ID: "a", Correct: false, Description: "nope"},
			{ID: "b", Correct: true, Description: "yes"},
		},
	}

	outcome, err := game.Evaluate(item, "b")
	require.NoError(t, err)
	assert.True(t, outcome.Correct)
	assert.Equal(t, "yes", outcome.Description)

	outcome, err = game.Evaluate(item, "a")
	require.NoError(t, err)
	assert.False(t, outcome.Correct)

	_, err = game.Evaluate(item, "zzz")
	assert.ErrorIs(t, err, domain.ErrLookup)

	_, err = game.Evaluate(domain.Item{ID: "empty"}, "a")
	assert.ErrorIs(t, err, domain.ErrInvalidItem)
}
