package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"minigame-service/internal/app"
	"minigame-service/internal/domain"
)

// API serves the REST shell surface.
type API struct {
	service *app.GameService
	logger  *slog.Logger
}

func NewAPI(service *app.GameService, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{service: service, logger: logger}
}

// NewRouter mounts the REST endpoints, the websocket endpoint and health check.
func NewRouter(api *API, ws *WSHandler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(requestLogger(api.logger))
		r.Use(middleware.Timeout(15 * time.Second))

		r.Get("/games", api.listGames)
		r.Route("/games/{gameID}", func(r chi.Router) {
			r.Get("/", api.getGame)
			r.Post("/sessions", api.startSession)
		})
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", api.getSession)
			r.Delete("/", api.endSession)
			r.Post("/begin", api.begin)
			r.Post("/advance", api.advance)
			r.Post("/answers", api.answer)
			r.Post("/tasks/{taskID}", api.completeTask)
			r.Post("/journal", api.journal)
		})
	})
	return r
}

type answerRequest struct {
	OptionID string `json:"optionId"`
}

type textRequest struct {
	Text string `json:"text"`
}

type ignoredResponse struct {
	Reason   string          `json:"reason"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

func (a *API) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := a.service.ListGames(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if games == nil {
		games = []domain.GameSummary{}
	}
	respondJSON(w, http.StatusOK, games)
}

func (a *API) getGame(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.Summary(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (a *API) startSession(w http.ResponseWriter, r *http.Request) {
	snap, err := a.service.Start(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	snap, err := a.service.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	a.respondEvent(w, r, snap, err)
}

func (a *API) endSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := a.service.Snapshot(r.Context(), sessionID); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.service.End(r.Context(), sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) begin(w http.ResponseWriter, r *http.Request) {
	snap, err := a.service.Begin(r.Context(), chi.URLParam(r, "sessionID"))
	a.respondEvent(w, r, snap, err)
}

func (a *API) advance(w http.ResponseWriter, r *http.Request) {
	snap, err := a.service.Advance(r.Context(), chi.URLParam(r, "sessionID"))
	a.respondEvent(w, r, snap, err)
}

func (a *API) answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OptionID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid answer payload"})
		return
	}
	snap, _, err := a.service.Submit(r.Context(), chi.URLParam(r, "sessionID"), req.OptionID)
	a.respondEvent(w, r, snap, err)
}

func (a *API) completeTask(w http.ResponseWriter, r *http.Request) {
	snap, err := a.service.CompleteTask(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "taskID"))
	a.respondEvent(w, r, snap, err)
}

func (a *API) journal(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid journal payload"})
		return
	}
	snap, err := a.service.SubmitText(r.Context(), chi.URLParam(r, "sessionID"), req.Text)
	a.respondEvent(w, r, snap, err)
}

// respondEvent writes the snapshot; ignored events still carry it, with 409.
func (a *API) respondEvent(w http.ResponseWriter, r *http.Request, snap domain.Snapshot, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, snap)
	case domain.IsIgnorable(err):
		respondJSON(w, http.StatusConflict, ignoredResponse{Reason: err.Error(), Snapshot: snap})
	default:
		a.respondError(w, r, err)
	}
}

func (a *API) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrGameNotFound), errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidGame):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		a.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.DebugContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
