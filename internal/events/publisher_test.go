package events

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"minigame-service/internal/domain"
)

func completion() domain.Completion {
	return domain.Completion{
		SessionID:  "s1",
		GameID:     "sustainability-kids-1",
		Variant:    domain.VariantQuiz,
		Score:      3,
		MaxScore:   3,
		Reward:     domain.Reward{Coins: 5, XP: 10},
		NextPath:   "/student/next",
		FinishedAt: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPublishCompletedInProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := NewPublisher(Config{})
	require.NoError(t, err)
	defer pub.Close()

	messages, err := pub.Subscribe(ctx)
	require.NoError(t, err)
	require.NoError(t, pub.PublishCompleted(ctx, completion()))

	select {
	case msg := <-messages:
		event, err := Decode(msg)
		require.NoError(t, err)
		msg.Ack()
		assert.Equal(t, EventGameCompleted, event.Type)
		assert.Equal(t, completion(), event.Completion)
		assert.Equal(t, "sustainability-kids-1", msg.Metadata.Get("game_id"))
		assert.Equal(t, msg.UUID, event.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no completion event received")
	}
}

func TestLogCompletions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ch := make(chan *message.Message, 2)
	ch <- message.NewMessage("bad", []byte("{"))
	ch <- message.NewMessage("good", []byte(`{"type":"game.completed","completion":{"sessionId":"s9","gameId":"g1","score":2}}`))
	close(ch)

	LogCompletions(logger, ch)
	out := buf.String()
	assert.Contains(t, out, "dropping malformed completion event")
	assert.Contains(t, out, "game completed")
	assert.Contains(t, out, "game_id=g1")
}
