package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gustavagren2/Outbreak/internal/config"
	"github.com/gustavagren2/Outbreak/internal/room"
)

// Server is the HTTP surface: health, metrics, a room browser and the static
// web client. Gameplay itself goes over the /ws hub.
type Server struct {
	cfg     *config.Config
	rooms   *room.Manager
	hub     *Hub
	logger  *slog.Logger
	mux     *http.ServeMux
	metrics *Metrics
}

func New(cfg *config.Config, rooms *room.Manager, hub *Hub, metrics *Metrics, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		rooms:   rooms,
		hub:     hub,
		logger:  logger,
		mux:     http.NewServeMux(),
		metrics: metrics,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /metrics", s.metrics.ServeHTTP)
	s.mux.Handle("GET /ws", s.hub)
	s.mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	s.mux.Handle("GET /", http.FileServer(http.Dir(s.cfg.WebDir)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status": "ok",
		"rooms":  s.rooms.Count(),
	})
}

// handleListRooms exposes joinable rooms for a lobby browser. Only rooms in
// LOBBY are advertised; a running series is closed to newcomers.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	type roomInfo struct {
		Code       string `json:"code"`
		Phase      string `json:"phase"`
		Players    int    `json:"players"`
		MaxPlayers int    `json:"maxPlayers"`
	}
	list := []roomInfo{}
	for _, rm := range s.rooms.List() {
		phase := rm.CurrentPhase()
		if phase != room.PhaseLobby {
			continue
		}
		list = append(list, roomInfo{
			Code:       rm.Code,
			Phase:      phase.String(),
			Players:    rm.PlayerCount(),
			MaxPlayers: rm.Settings.MaxPlayers,
		})
	}
	writeJSON(w, list)
}

func (s *Server) Handler() http.Handler {
	limiter := NewRateLimiter(30, 60)
	return ChainMiddleware(s.mux,
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(limiter, s.logger, "/ws"),
	)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
}
