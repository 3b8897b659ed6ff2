package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"

	"github.com/vovakirdan/pong-arena/internal/logging"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/storage"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// History is the read side of match persistence served under /api.
type History interface {
	Ping(ctx context.Context) error
	RecentMatches(limit int) ([]storage.MatchEntry, error)
	PlayerMatches(playerID string, limit int) ([]storage.MatchEntry, error)
	RoomMatches(roomID string) ([]storage.MatchEntry, error)
	MatchByID(id int64) (*storage.MatchEntry, error)
	RecentTournaments(limit int) ([]storage.TournamentEntry, error)
	PlayerStats(playerID string) (*storage.PlayerStats, error)
}

// RouterDeps wires the HTTP surface.
type RouterDeps struct {
	Manager *multiplayer.Manager
	Gateway *Gateway
	History History // optional; history routes answer 503 without it
	Logger  *log.Logger
}

// NewRouter builds the HTTP router: the WebSocket endpoint, a health check
// and the JSON read API.
func NewRouter(d RouterDeps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	// The upgrade needs the raw ResponseWriter, so /ws skips request logging.
	r.Handle("/ws", d.Gateway)

	r.With(apiLogMiddleware(d.Logger)).Get("/healthz", healthHandler(d.Manager, d.History))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware(d.Logger))
		r.Get("/rooms", roomsHandler(d.Manager))
		r.Get("/rooms/{room_id}", roomHandler(d.Manager))
		r.Get("/rooms/{room_id}/matches", roomMatchesHandler(d.History))
		r.Get("/matches", matchesHandler(d.History))
		r.Get("/matches/{match_id}", matchHandler(d.History))
		r.Get("/tournaments", tournamentsHandler(d.History))
		r.Get("/players/{player_id}/stats", playerStatsHandler(d.History))
	})
	return r
}

func apiLogMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		logging.Slog(logger.WithPrefix("http")),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
				}
			},
		},
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeHTTPError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": code})
}

// parseLimit reads ?limit=, clamped to [1, maxLimit].
func parseLimit(r *http.Request) int {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return min(limit, maxLimit)
}

func healthHandler(m *multiplayer.Manager, h History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"ok":       true,
			"rooms":    m.RoomCount(),
			"sessions": m.Sessions().Count(),
		}
		if h != nil {
			if err := h.Ping(r.Context()); err != nil {
				body["ok"] = false
				body["db"] = "down"
				writeJSON(w, http.StatusServiceUnavailable, body)
				return
			}
			body["db"] = "up"
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func roomsHandler(m *multiplayer.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": m.Rooms()})
	}
}

func roomHandler(m *multiplayer.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, ok := m.Room(multiplayer.RoomID(chi.URLParam(r, "room_id")))
		if !ok {
			writeHTTPError(w, http.StatusNotFound, "room_not_found")
			return
		}
		writeJSON(w, http.StatusOK, room.Info())
	}
}

func roomMatchesHandler(h History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h == nil {
			writeHTTPError(w, http.StatusServiceUnavailable, "history_disabled")
			return
		}
		items, err := h.RoomMatches(chi.URLParam(r, "room_id"))
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func matchesHandler(h History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h == nil {
			writeHTTPError(w, http.StatusServiceUnavailable, "history_disabled")
			return
		}
		limit := parseLimit(r)
		var (
			items []storage.MatchEntry
			err   error
		)
		if player := r.URL.Query().Get("player"); player != "" {
			items, err = h.PlayerMatches(player, limit)
		} else {
			items, err = h.RecentMatches(limit)
		}
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit})
	}
}

func matchHandler(h History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h == nil {
			writeHTTPError(w, http.StatusServiceUnavailable, "history_disabled")
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "match_id"), 10, 64)
		if err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_match_id")
			return
		}
		entry, err := h.MatchByID(id)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		if entry == nil {
			writeHTTPError(w, http.StatusNotFound, "match_not_found")
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func tournamentsHandler(h History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h == nil {
			writeHTTPError(w, http.StatusServiceUnavailable, "history_disabled")
			return
		}
		limit := parseLimit(r)
		items, err := h.RecentTournaments(limit)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit})
	}
}

func playerStatsHandler(h History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h == nil {
			writeHTTPError(w, http.StatusServiceUnavailable, "history_disabled")
			return
		}
		stats, err := h.PlayerStats(chi.URLParam(r, "player_id"))
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
