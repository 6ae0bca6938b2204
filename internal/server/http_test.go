package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gustavagren2/Outbreak/internal/config"
	"github.com/gustavagren2/Outbreak/internal/room"
)

func newTestServer(t *testing.T) (*Server, *room.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rooms := room.NewManager(rand.New(rand.NewSource(1)))
	hub := NewHub(true, 0, time.Minute, nil, nil, logger)
	cfg := &config.Config{WebDir: t.TempDir()}
	return New(cfg, rooms, hub, NewMetrics(), logger), rooms
}

func listRooms(t *testing.T, s *Server) []map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handleListRooms(rec, httptest.NewRequest("GET", "/api/rooms", nil))
	if rec.Code != 200 {
		t.Fatalf("room list status = %d", rec.Code)
	}
	var list []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode room list: %v", err)
	}
	return list
}

func TestListRoomsAdvertisesOnlyLobbies(t *testing.T) {
	s, rooms := newTestServer(t)

	open := rooms.Create(room.DefaultSettings())
	running := rooms.Create(room.DefaultSettings())
	running.SetPhase(room.PhaseGame)

	list := listRooms(t, s)
	if len(list) != 1 {
		t.Fatalf("advertised %d rooms, want 1", len(list))
	}
	if list[0]["code"] != open.Code {
		t.Fatalf("advertised room %v, want %s", list[0]["code"], open.Code)
	}
	if list[0]["phase"] != room.PhaseLobby.String() {
		t.Fatalf("advertised phase %v, want LOBBY", list[0]["phase"])
	}
}

// The room browser runs on request goroutines while each room's engine
// goroutine moves the room between phases. Both sides must go through the
// locked phase accessors; run with -race.
func TestListRoomsDuringPhaseTransitions(t *testing.T) {
	s, rooms := newTestServer(t)
	r := rooms.Create(room.DefaultSettings())

	phases := []room.Phase{
		room.PhaseLobby, room.PhaseCountdown, room.PhaseGame, room.PhaseLeaderboard,
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r.SetPhase(phases[i%len(phases)])
		}
	}()
	for i := 0; i < 500; i++ {
		rec := httptest.NewRecorder()
		s.handleListRooms(rec, httptest.NewRequest("GET", "/api/rooms", nil))
		if rec.Code != 200 {
			t.Fatalf("room list status = %d", rec.Code)
		}
	}
	wg.Wait()

	r.SetPhase(room.PhaseLobby)
	if got := len(listRooms(t, s)); got != 1 {
		t.Fatalf("advertised %d rooms after settling in LOBBY, want 1", got)
	}
}
