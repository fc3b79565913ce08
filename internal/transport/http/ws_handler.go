package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"minigame-service/internal/app"
	"minigame-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type eventPayload struct {
	OptionID string `json:"optionId"`
	TaskID   string `json:"taskId"`
	Text     string `json:"text"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and binds the socket to one play session.
// With gameId a fresh session is mounted and torn down on disconnect; with
// sessionId the socket attaches to a session created over REST.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	sessionID := r.URL.Query().Get("sessionId")
	if gameID == "" && sessionID == "" {
		http.Error(w, "missing gameId or sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	if sessionID == "" {
		snap, err := h.service.Start(ctx, gameID)
		if err != nil {
			_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		sessionID = snap.SessionID
		defer h.service.End(ctx, sessionID)
	}

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "session_id", sessionID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		finished := false
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				out := []outboundMessage{{Type: "state", Payload: snap}}
				if snap.Terminal && !finished {
					finished = true
					out = append(out, outboundMessage{Type: "finished", Payload: snap})
				}
				for _, msg := range out {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					case <-writerDone:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	push := func(msg outboundMessage) bool { return enqueue(send, writerDone, msg) }

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var payload eventPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !push(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid payload"}}) {
					break read
				}
				continue
			}
		}

		var snap domain.Snapshot
		switch inbound.Type {
		case "begin":
			snap, err = h.service.Begin(ctx, sessionID)
		case "submit":
			snap, _, err = h.service.Submit(ctx, sessionID, payload.OptionID)
		case "advance", "next":
			snap, err = h.service.Advance(ctx, sessionID)
		case "complete":
			snap, err = h.service.CompleteTask(ctx, sessionID, payload.TaskID)
		case "text":
			snap, err = h.service.SubmitText(ctx, sessionID, payload.Text)
		default:
			if !push(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}) {
				break read
			}
			continue
		}

		var reply *outboundMessage
		switch {
		case err == nil:
			// the accepted transition reaches the client through the subscription
		case domain.IsIgnorable(err):
			reply = &outboundMessage{Type: "ignored", Payload: ignoredResponse{Reason: err.Error(), Snapshot: snap}}
		default:
			reply = &outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
		if reply != nil && !push(*reply) {
			break read
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer. It reports false once the writer has exited,
// so a dead socket never blocks the read loop.
func enqueue(send chan<- outboundMessage, writerDone <-chan struct{}, msg outboundMessage) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}
