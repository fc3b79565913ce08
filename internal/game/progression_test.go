package game_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"minigame-service/internal/domain"
	"minigame-service/internal/game"
)

func newProgression(t *testing.T, def domain.Game) (*game.Progression, *game.ManualClock) {
	t.Helper()
	clock := game.NewManualClock(epoch)
	m, err := game.New(def, testOptions(clock))
	require.NoError(t, err)
	p, ok := m.(*game.Progression)
	require.True(t, ok, "expected progression machine, got %T", m)
	return p, clock
}

func TestQuizEndToEnd(t *testing.T) {
	p, clock := newProgression(t, quizGame(domain.VariantQuiz, 5, 1))

	answers := []string{"c", "c", "c", "w", "w"}
	for i, answer := range answers {
		snap := p.Snapshot()
		require.False(t, snap.Terminal)
		require.Equal(t, i, snap.ActiveIndex)

		_, err := p.Submit(answer)
		require.NoError(t, err)
		clock.Advance(2 * time.Second)
	}

	snap := p.Snapshot()
	assert.True(t, snap.Terminal)
	assert.Equal(t, 3, snap.Score)
	assert.Equal(t, 5, snap.MaxScore)
	assert.False(t, snap.Perfect)
	require.NotNil(t, snap.Reward)
	assert.Equal(t, 5, snap.Reward.Coins)
	assert.Equal(t, "/student/next", snap.NextPath)
	assert.Len(t, p.History(), 5)
}

func TestScoreUsesWeight(t *testing.T) {
	for _, weight := range []int{1, 2, 5} {
		p, clock := newProgression(t, quizGame(domain.VariantQuiz, 4, weight))
		for _, answer := range []string{"c", "w", "c", "c"} {
			_, err := p.Submit(answer)
			require.NoError(t, err)
			clock.Advance(2 * time.Second)
		}
		assert.Equal(t, 3*weight, p.Score(), "weight %d", weight)
	}
}

func TestSubmitLocksUntilAdvance(t *testing.T) {
	p, clock := newProgression(t, quizGame(domain.VariantQuiz, 2, 1))

	_, err := p.Submit("w")
	require.NoError(t, err)

	_, err = p.Submit("c")
	assert.ErrorIs(t, err, domain.ErrOrderingViolation)
	assert.Len(t, p.History(), 1)
	assert.True(t, p.Snapshot().Locked)

	clock.Advance(800 * time.Millisecond)
	snap := p.Snapshot()
	assert.Equal(t, 1, snap.ActiveIndex)
	assert.False(t, snap.Locked)
}

func TestAdvanceDelayDependsOnCorrectness(t *testing.T) {
	p, clock := newProgression(t, quizGame(domain.VariantQuiz, 3, 1))

	_, err := p.Submit("w")
	require.NoError(t, err)
	clock.Advance(799 * time.Millisecond)
	assert.Equal(t, 0, p.Snapshot().ActiveIndex)
	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, p.Snapshot().ActiveIndex)

	_, err = p.Submit("c")
	require.NoError(t, err)
	clock.Advance(800 * time.Millisecond)
	assert.Equal(t, 1, p.Snapshot().ActiveIndex, "correct answers linger longer")
	clock.Advance(700 * time.Millisecond)
	assert.Equal(t, 2, p.Snapshot().ActiveIndex)
}

func TestStoryUsesUniformDelay(t *testing.T) {
	p, clock := newProgression(t, quizGame(domain.VariantStory, 2, 1))

	_, err := p.Submit("w")
	require.NoError(t, err)
	clock.Advance(1199 * time.Millisecond)
	assert.Equal(t, 0, p.Snapshot().ActiveIndex)
	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, p.Snapshot().ActiveIndex)
}

func TestTerminalRejectsSubmit(t *testing.T) {
	p, clock := newProgression(t, quizGame(domain.VariantQuiz, 1, 1))

	_, err := p.Submit("c")
	require.NoError(t, err)
	clock.Advance(2 * time.Second)
	require.True(t, p.Terminal())

	_, err = p.Submit("c")
	assert.ErrorIs(t, err, domain.ErrOrderingViolation)
	assert.Equal(t, 1, p.Score())
	assert.Equal(t, 0, clock.Pending())
}

func TestUnknownOptionIsRejectedWithoutStateChange(t *testing.T) {
	p, clock := newProgression(t, quizGame(domain.VariantQuiz, 2, 1))

	_, err := p.Submit("nope")
	assert.ErrorIs(t, err, domain.ErrLookup)
	assert.True(t, domain.IsIgnorable(err))
	assert.Empty(t, p.History())
	assert.False(t, p.Snapshot().Locked)
	assert.Equal(t, 0, clock.Pending())
}

func TestAdvanceSkipsDelay(t *testing.T) {
	p, clock := newProgression(t, quizGame(domain.VariantQuiz, 2, 1))

	assert.ErrorIs(t, p.Advance(), domain.ErrOrderingViolation)

	_, err := p.Submit("c")
	require.NoError(t, err)
	require.NoError(t, p.Advance())
	assert.Equal(t, 1, p.Snapshot().ActiveIndex)

	// the cancelled timer must not advance a second time
	clock.Advance(5 * time.Second)
	assert.Equal(t, 1, p.Snapshot().ActiveIndex)
	assert.False(t, p.Terminal())
}

func TestCloseCancelsPendingAdvance(t *testing.T) {
	p, clock := newProgression(t, quizGame(domain.VariantQuiz, 2, 1))

	_, err := p.Submit("c")
	require.NoError(t, err)
	p.Close()
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(5 * time.Second)
	assert.Equal(t, 0, p.Snapshot().ActiveIndex)

	_, err = p.Submit("c")
	assert.ErrorIs(t, err, domain.ErrOrderingViolation)
}

func TestSnapshotHidesCorrectness(t *testing.T) {
	p, _ := newProgression(t, quizGame(domain.VariantQuiz, 1, 1))
	snap := p.Snapshot()
	require.Len(t, snap.Options, 2)
	assert.Equal(t, "Question 1", snap.Prompt)
	assert.Nil(t, snap.Last)
}

func TestShuffledOptionsKeepIdentity(t *testing.T) {
	def := quizGame(domain.VariantPuzzle, 1, 1)
	def.Items[0].Options = append(def.Items[0].Options,
		domain.Option{ID: "x"}, domain.Option{ID: "y"}, domain.Option{ID: "z"})
	def.Shuffle = true

	p, _ := newProgression(t, def)
	ids := map[string]bool{}
	for _, opt := range p.Snapshot().Options {
		ids[opt.ID] = true
	}
	assert.Equal(t, map[string]bool{"c": true, "w": true, "x": true, "y": true, "z": true}, ids)
	assert.Equal(t, []string{"c", "w", "x", "y", "z"}, optionIDs(def.Items[0].Options), "definition must not be reordered")
}

func TestOnChangeFiresForTimerTransitions(t *testing.T) {
	clock := game.NewManualClock(epoch)
	changes := 0
	opts := testOptions(clock)
	opts.OnChange = func() { changes++ }

	m, err := game.New(quizGame(domain.VariantQuiz, 2, 1), opts)
	require.NoError(t, err)
	_, err = m.(game.Answerer).Submit("c")
	require.NoError(t, err)
	assert.Equal(t, 1, changes)

	clock.Advance(2 * time.Second)
	assert.Equal(t, 2, changes)
}

func optionIDs(options []domain.Option) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		out = append(out, opt.ID)
	}
	return out
}
