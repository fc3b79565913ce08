package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"minigame-service/internal/domain"
	"minigame-service/internal/game"
)

func TestValidate(t *testing.T) {
	twoCorrect := quizGame(domain.VariantQuiz, 1, 1)
	twoCorrect.Items[0].Options[1].Correct = true

	noOptions := quizGame(domain.VariantQuiz, 1, 1)
	noOptions.Items[0].Options = nil

	debateThree := quizGame(domain.VariantDebate, 1, 1)
	debateThree.Items[0].Options = append(debateThree.Items[0].Options, domain.Option{ID: "x"})

	reflexAllCorrect := reflexGame(5)
	reflexAllCorrect.Items[0].Options[1].Correct = true

	dupTasks := badgeGame("a", "a")

	cases := map[string]struct {
		def domain.Game
		ok  bool
	}{
		"quiz":               {quizGame(domain.VariantQuiz, 3, 1), true},
		"debate":             {quizGame(domain.VariantDebate, 2, 1), true},
		"reflex":             {reflexGame(5), true},
		"badge":              {badgeGame("a", "b"), true},
		"journal":            {domain.Game{ID: "j", Variant: domain.VariantJournal}, true},
		"missing variant":    {domain.Game{ID: "x"}, false},
		"unknown variant":    {domain.Game{ID: "x", Variant: "arcade"}, false},
		"no items":           {domain.Game{ID: "x", Variant: domain.VariantQuiz}, false},
		"two correct":        {twoCorrect, false},
		"no options":         {noOptions, false},
		"debate three":       {debateThree, false},
		"reflex all correct": {reflexAllCorrect, false},
		"badge without task": {domain.Game{ID: "b", Variant: domain.VariantBadge}, false},
		"duplicate tasks":    {dupTasks, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := game.Validate(tc.def)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidGame)
		})
	}
}

func TestNewRejectsInvalidDefinition(t *testing.T) {
	_, err := game.New(domain.Game{ID: "x", Variant: domain.VariantQuiz}, game.Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidGame)
}
