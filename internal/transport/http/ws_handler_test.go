package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"minigame-service/internal/app"
	"minigame-service/internal/domain"
	"minigame-service/internal/game"
	"minigame-service/internal/infra/memory"
)

func TestWebSocketQuizFlow(t *testing.T) {
	server, clock := newTestServer(t)
	conn := dial(t, server, "gameId=quiz-1")

	_, initial := readNext(conn, t, "state")
	if initial["activeIndex"].(float64) != 0 || initial["terminal"].(bool) {
		t.Fatalf("unexpected initial state %v", initial)
	}

	send(t, conn, "submit", map[string]any{"optionId": "o2"})
	_, locked := readNext(conn, t, "state")
	if !locked["locked"].(bool) {
		t.Fatalf("expected locked after submit, got %v", locked)
	}

	// a second answer while locked is ignored, not an error
	send(t, conn, "submit", map[string]any{"optionId": "o1"})
	readNext(conn, t, "ignored")

	clock.Advance(1500 * time.Millisecond)
	_, next := readNext(conn, t, "state")
	if next["activeIndex"].(float64) != 1 || next["locked"].(bool) {
		t.Fatalf("expected second item unlocked, got %v", next)
	}

	send(t, conn, "submit", map[string]any{"optionId": "b1"})
	readNext(conn, t, "state")
	send(t, conn, "next", nil)
	_, final := readNext(conn, t, "state")
	if !final["terminal"].(bool) || final["score"].(float64) != 1 {
		t.Fatalf("expected terminal with score 1, got %v", final)
	}
	_, finished := readNext(conn, t, "finished")
	reward := finished["reward"].(map[string]any)
	if reward["coins"].(float64) != 5 {
		t.Fatalf("expected reward in finished payload, got %v", finished)
	}
}

func TestWebSocketUnknownOptionIgnored(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server, "gameId=quiz-1")
	readNext(conn, t, "state")

	send(t, conn, "submit", map[string]any{"optionId": "zzz"})
	_, ignored := readNext(conn, t, "ignored")
	if !strings.Contains(ignored["reason"].(string), "not found") {
		t.Fatalf("unexpected reason %v", ignored["reason"])
	}

	send(t, conn, "dance", nil)
	readNext(conn, t, "error")
}

func TestWebSocketUnknownGame(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server, "gameId=missing")
	readNext(conn, t, "error")
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func newTestServer(t *testing.T) (*httptest.Server, *game.ManualClock) {
	t.Helper()
	clock := game.NewManualClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	loader := memory.NewStaticGameLoader(sampleGames())
	service := app.NewGameService(memory.NewSessionStore(), memory.NewGameRepository(loader, time.Minute),
		app.WithClock(clock),
		app.WithLister(staticLister{"badge", "journal", "quiz-1"}),
	)
	router := NewRouter(NewAPI(service, nil), NewWSHandler(service, nil), nil)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		service.Shutdown(context.Background())
		server.Close()
	})
	return server, clock
}

type staticLister []string

func (l staticLister) ListGameIDs(_ context.Context) ([]string, error) {
	return append([]string(nil), l...), nil
}

func sampleGames() map[string]domain.Game {
	return map[string]domain.Game{
		"quiz-1": {
			ID:      "quiz-1",
			Title:   "Recycling basics",
			Variant: domain.VariantQuiz,
			Items: []domain.Item{
				{
					ID:     "q1",
					Prompt: "Where does a plastic bottle go?",
					Options: []domain.Option{
						{ID: "o1", Label: "Trash"},
						{ID: "o2", Label: "Recycling", Correct: true},
					},
				},
				{
					ID:     "q2",
					Prompt: "Which saves water?",
					Options: []domain.Option{
						{ID: "b1", Label: "Long shower"},
						{ID: "b2", Label: "Turn off the tap", Correct: true},
					},
				},
			},
			Reward:   domain.Reward{Coins: 5, XP: 10},
			NextPath: "/student/next",
		},
		"badge": {
			ID:      "badge",
			Title:   "Little Volunteer",
			Variant: domain.VariantBadge,
			Tasks: []domain.Task{
				{ID: "1", Label: "Tidy up"},
				{ID: "2", Label: "Share a book"},
			},
		},
		"journal": {
			ID:      "journal",
			Title:   "Kindness journal",
			Variant: domain.VariantJournal,
			Prompt:  "Write about a kind act.",
		},
	}
}

func TestEnqueueStopsWhenWriterExits(t *testing.T) {
	send := make(chan outboundMessage, 1)
	writerDone := make(chan struct{})

	if !enqueue(send, writerDone, outboundMessage{Type: "state"}) {
		t.Fatalf("expected first message to be buffered")
	}

	close(writerDone)
	result := make(chan bool, 1)
	go func() { result <- enqueue(send, writerDone, outboundMessage{Type: "error"}) }()
	select {
	case ok := <-result:
		if ok {
			t.Fatalf("expected enqueue to fail with a full buffer and no writer")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("enqueue blocked after the writer exited")
	}
}
