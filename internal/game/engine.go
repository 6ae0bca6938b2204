package game

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/gustavagren2/Outbreak/internal/geom"
	"github.com/gustavagren2/Outbreak/internal/room"
	"github.com/gustavagren2/Outbreak/internal/server"
)

const (
	maxChatLen      = 300
	commandMinGap   = 150 * time.Millisecond
	cmdBuffer       = 256
	roleSurvivor    = "CITIZEN"
	rolePatientZero = "PATIENT_ZERO"
)

// roomRunner owns one room's goroutine: the single writer for that room.
// Commands arrive as closures on cmds; scheduled phase transitions arrive
// the same way, tagged with the phase and epoch they expect to observe.
type roomRunner struct {
	cancel context.CancelFunc
	cmds   chan func()
	rng    *rand.Rand

	epoch     int // bumped on every phase transition; stale timers no-op
	timers    []*time.Timer
	lastSpawn time.Time // power-up spawn clock
}

// Engine orchestrates all rooms: the phase state machine, the per-tick
// simulation and all inbound player commands.
type Engine struct {
	rooms    *room.Manager
	hub      *server.Hub
	settings room.Settings
	metrics  *server.Metrics
	logger   *slog.Logger
	limiter  *CommandRateLimiter

	baseCtx context.Context

	mu      sync.Mutex
	running map[string]*roomRunner
}

func NewEngine(rooms *room.Manager, hub *server.Hub, settings room.Settings, metrics *server.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		rooms:    rooms,
		hub:      hub,
		settings: settings,
		metrics:  metrics,
		logger:   logger,
		limiter:  NewCommandRateLimiter(commandMinGap),
		baseCtx:  context.Background(),
		running:  make(map[string]*roomRunner),
	}
}

// SetHub sets the WebSocket hub reference (used to break circular init).
func (e *Engine) SetHub(hub *server.Hub) {
	e.hub = hub
}

// Start anchors room lifetimes to the given context. Room runners outlive
// the connection that created them, so they must not inherit request
// contexts.
func (e *Engine) Start(ctx context.Context) {
	e.baseCtx = ctx
}

// dispatch hands a closure to a room's runner. Returns false when the room
// is gone — the command then dies silently, which is exactly what a stale
// command aimed at a torn-down room should do.
func (e *Engine) dispatch(code string, fn func()) bool {
	e.mu.Lock()
	rr, ok := e.running[code]
	e.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case rr.cmds <- fn:
		return true
	default:
		e.logger.Warn("command dropped, buffer full", "room", code)
		return false
	}
}

// schedule arms a phase transition for later. At fire time the closure is
// executed on the room's runner only if the room still exists, the epoch has
// not moved on, and the room is still in the phase the timer expects.
func (e *Engine) schedule(code string, d time.Duration, expect room.Phase, fn func()) {
	e.mu.Lock()
	rr, ok := e.running[code]
	if !ok {
		e.mu.Unlock()
		return
	}
	epoch := rr.epoch
	t := time.AfterFunc(d, func() {
		e.dispatch(code, func() {
			r, ok := e.rooms.Get(code)
			if !ok {
				return
			}
			e.mu.Lock()
			cur, alive := e.running[code]
			e.mu.Unlock()
			if !alive || cur.epoch != epoch {
				return
			}
			if r.Phase != expect {
				return
			}
			fn()
		})
	})
	rr.timers = append(rr.timers, t)
	e.mu.Unlock()
}

// bumpEpoch invalidates every pending scheduled transition for a room.
func (e *Engine) bumpEpoch(code string) {
	e.mu.Lock()
	if rr, ok := e.running[code]; ok {
		rr.epoch++
		for _, t := range rr.timers {
			t.Stop()
		}
		rr.timers = rr.timers[:0]
	}
	e.mu.Unlock()
}

func (e *Engine) createRoom() *room.Room {
	r := e.rooms.Create(e.settings)
	ctx, cancel := context.WithCancel(e.baseCtx)
	rr := &roomRunner{
		cancel: cancel,
		cmds:   make(chan func(), cmdBuffer),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.mu.Lock()
	e.running[r.Code] = rr
	e.mu.Unlock()
	if e.metrics != nil {
		e.metrics.IncrRooms()
	}
	go e.runLoop(ctx, r, rr)
	e.logger.Info("room created", "room", r.Code)
	return r
}

// runLoop is the room's single writer. One 20 Hz ticker drives whichever
// simulation the current phase calls for; commands interleave between ticks,
// never during one.
func (e *Engine) runLoop(ctx context.Context, r *room.Room, rr *roomRunner) {
	ticker := time.NewTicker(r.Settings.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-rr.cmds:
			fn()
		case <-ticker.C:
			switch r.Phase {
			case room.PhaseLobby:
				e.lobbyTick(r)
			case room.PhaseGame:
				e.gameTick(r, rr, time.Now())
			}
		}
	}
}

// teardown cancels all timers, stops the runner and drops the room from the
// registry. Nothing can resurrect the room afterwards: stale timers and
// commands find no runner and no-op.
func (e *Engine) teardown(r *room.Room) {
	e.mu.Lock()
	rr, ok := e.running[r.Code]
	if ok {
		delete(e.running, r.Code)
		for _, t := range rr.timers {
			t.Stop()
		}
	}
	e.mu.Unlock()
	if !ok {
		return
	}
	rr.cancel()
	e.rooms.Remove(r.Code)
	if e.metrics != nil {
		e.metrics.DecrRooms()
	}
	e.logger.Info("room torn down", "room", r.Code)
}

/* ----------------------------- phase machine ----------------------------- */

// beginSeries validates the start preconditions and kicks off round 1.
// totalRounds is fixed here — twice the roster at this moment — and never
// recomputed, even if players leave mid-series.
func (e *Engine) beginSeries(r *room.Room, rr *roomRunner, requesterID string) bool {
	if requesterID != r.HostID {
		e.sendError(requesterID, "not_host")
		return false
	}
	n := r.PlayerCount()
	if n < r.Settings.MinPlayers || !r.AllReady() {
		e.sendError(requesterID, "not_ready")
		return false
	}
	total := 2 * n
	if total < 1 {
		total = 1
	}
	r.ResetSeries()
	r.TotalRounds = total
	r.BuildRotation(rr.rng)
	e.startNextRound(r, rr)
	return true
}

// startNextRound advances the series: fresh walls, reset players, next
// patient zero from the rotation, countdown armed.
func (e *Engine) startNextRound(r *room.Room, rr *roomRunner) {
	r.Round++
	if r.Round > r.TotalRounds {
		// series already concluded at the prior leaderboard step
		return
	}

	r.Walls = room.GenerateWalls(rr.rng, r.Settings)
	r.ResetRoundState()

	pzID := r.NextPatientZero(rr.rng)
	pz, ok := r.Players[pzID]
	if !ok {
		return
	}
	pz.Arena.Infected = true
	pz.Arena.PatientZero = true
	pz.Arena.Pos = room.RandomFreePoint(rr.rng, r.Settings, r.Walls)

	for _, p := range r.PlayersInOrder() {
		if p.ID == pzID {
			continue
		}
		p.Arena.Pos = spawnAwayFrom(rr.rng, r, pz.Arena.Pos)
	}

	for _, p := range r.PlayersInOrder() {
		role := roleSurvivor
		if p.Arena.PatientZero {
			role = rolePatientZero
		}
		payload, _ := json.Marshal(map[string]any{"role": role, "round": r.Round})
		e.hub.SendTo(p.ID, server.WSMessage{Type: "role", Payload: payload})
	}

	now := time.Now()
	e.bumpEpoch(r.Code)
	r.SetPhase(room.PhaseCountdown)
	r.CountdownEndsAt = now.Add(r.Settings.Countdown)
	r.GameEndsAt = time.Time{}
	r.BoardEndsAt = time.Time{}
	e.schedule(r.Code, r.Settings.Countdown, room.PhaseCountdown, func() {
		e.startRoundPlay(r, rr)
	})

	e.logger.Info("round starting", "room", r.Code, "round", r.Round, "patient_zero", pzID)
	e.broadcastRoom(r)
}

func (e *Engine) startRoundPlay(r *room.Room, rr *roomRunner) {
	now := time.Now()
	e.bumpEpoch(r.Code)
	r.SetPhase(room.PhaseGame)
	r.CountdownEndsAt = time.Time{}
	r.GameEndsAt = now.Add(r.Settings.RoundDuration)
	rr.lastSpawn = now
	e.broadcastRoom(r)
}

func (e *Engine) endRound(r *room.Room, rr *roomRunner, reason string) {
	now := time.Now()
	e.bumpEpoch(r.Code)
	r.SetPhase(room.PhaseLeaderboard)
	r.GameEndsAt = time.Time{}
	r.Board = BuildBoard(r)
	if e.metrics != nil {
		e.metrics.IncrRoundsPlayed()
	}

	if r.Round < r.TotalRounds {
		r.BoardEndsAt = now.Add(r.Settings.BoardDuration)
		e.schedule(r.Code, r.Settings.BoardDuration, room.PhaseLeaderboard, func() {
			e.startNextRound(r, rr)
		})
	} else {
		// final round: the leaderboard is terminal, only a host restart
		// leaves it
		r.BoardEndsAt = time.Time{}
	}

	e.systemMessage(r, reason)
	e.logger.Info("round ended", "room", r.Code, "round", r.Round, "reason", reason)
	e.broadcastRoom(r)
}

/* ------------------------------- tick loops ------------------------------ */

func (e *Engine) lobbyTick(r *room.Room) {
	players := r.PlayersInOrder()
	if len(players) == 0 {
		return
	}
	StepLobby(players, r.Settings, r.Settings.TickInterval.Seconds())
	e.broadcastLobby(r, players)
}

// gameTick runs one 50 ms simulation step: survival accrual for players
// healthy at tick start, movement, infection spread, power-up lifecycle,
// then end-condition checks and the snapshot broadcast.
func (e *Engine) gameTick(r *room.Room, rr *roomRunner, now time.Time) {
	ExpireZones(r, now)

	players := r.PlayersInOrder()
	AccrueSurvival(players, r.Settings)
	StepMovement(players, r.Walls, r.SlimeZones, r.Settings, now, r.Settings.TickInterval.Seconds())

	for _, inf := range StepInfection(players, r.Settings) {
		if e.metrics != nil {
			e.metrics.IncrInfections()
		}
		payload, _ := json.Marshal(map[string]string{
			"victim":   inf.VictimID,
			"infector": inf.InfectorID,
		})
		e.hub.BroadcastRoom(r.Code, server.WSMessage{Type: "infection", Payload: payload})
	}

	if now.Sub(rr.lastSpawn) >= r.Settings.PowerSpawnEvery {
		rr.lastSpawn = now
		SpawnPowerUp(rr.rng, r)
	}
	for _, pk := range StepPickups(players, r) {
		e.sendInventory(r, pk.PlayerID)
	}

	if r.AllInfected() {
		e.endRound(r, rr, "all_infected")
		return
	}
	if !now.Before(r.GameEndsAt) {
		e.endRound(r, rr, "time_up")
		return
	}

	e.broadcastGame(r, players)
}

/* ------------------------------- commands -------------------------------- */

// HandleMessage implements server.MessageHandler. Command handlers mutate
// room state only via the room's runner, so they never interleave with a
// simulation tick.
func (e *Engine) HandleMessage(ctx context.Context, client *server.Client, msg server.WSMessage) {
	switch msg.Type {
	case "create_room":
		var payload struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(msg.Payload, &payload)
		e.handleCreate(client, payload.Name)

	case "join_room":
		var payload struct {
			Code string `json:"code"`
			Name string `json:"name"`
		}
		_ = json.Unmarshal(msg.Payload, &payload)
		e.handleJoin(client, strings.ToUpper(strings.TrimSpace(payload.Code)), payload.Name)

	case "set_name":
		var payload struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(msg.Payload, &payload)
		e.inRoom(client, func(r *room.Room, rr *roomRunner) {
			if r.SetName(client.ID, payload.Name) {
				e.broadcastRoom(r)
			}
		})

	case "set_ready":
		var payload struct {
			Ready bool `json:"ready"`
		}
		_ = json.Unmarshal(msg.Payload, &payload)
		e.inRoom(client, func(r *room.Room, rr *roomRunner) {
			if r.SetReady(client.ID, payload.Ready) {
				e.broadcastRoom(r)
			}
		})

	case "set_avatar":
		var payload struct {
			Avatar int `json:"avatar"`
		}
		_ = json.Unmarshal(msg.Payload, &payload)
		e.inRoom(client, func(r *room.Room, rr *roomRunner) {
			if r.SetAvatar(client.ID, payload.Avatar) {
				e.broadcastRoom(r)
			} else {
				e.sendError(client.ID, "avatar_taken")
			}
		})

	case "chat":
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(msg.Payload, &payload)
		e.inRoom(client, func(r *room.Room, rr *roomRunner) {
			e.handleChat(r, client.ID, payload.Message)
		})

	case "start_game":
		e.inRoom(client, func(r *room.Room, rr *roomRunner) {
			if r.Phase != room.PhaseLobby {
				e.sendError(client.ID, "already_started")
				return
			}
			e.beginSeries(r, rr, client.ID)
		})

	case "restart_game":
		e.inRoom(client, func(r *room.Room, rr *roomRunner) {
			if r.Phase != room.PhaseLeaderboard || r.Round < r.TotalRounds {
				e.sendError(client.ID, "series_not_over")
				return
			}
			e.beginSeries(r, rr, client.ID)
		})

	case "input":
		var payload struct {
			Dir geom.Vec `json:"dir"`
		}
		_ = json.Unmarshal(msg.Payload, &payload)
		e.inRoom(client, func(r *room.Room, rr *roomRunner) {
			if r.Phase != room.PhaseGame {
				return
			}
			if p, ok := r.Players[client.ID]; ok {
				SetIntent(p, payload.Dir)
			}
		})

	case "use_power":
		e.inRoom(client, func(r *room.Room, rr *roomRunner) {
			e.handleUsePower(r, client.ID)
		})

	case "lobby_input":
		var payload struct {
			Left  bool `json:"left"`
			Right bool `json:"right"`
			Jump  bool `json:"jump"`
		}
		_ = json.Unmarshal(msg.Payload, &payload)
		e.inRoom(client, func(r *room.Room, rr *roomRunner) {
			if r.Phase != room.PhaseLobby {
				return
			}
			if p, ok := r.Players[client.ID]; ok {
				SetLobbyIntent(p, payload.Left, payload.Right, payload.Jump)
			}
		})
	}
}

// HandleDisconnect implements server.MessageHandler. Leaving removes the
// player entirely; there is no reconnection ghost.
func (e *Engine) HandleDisconnect(client *server.Client) {
	code := e.hub.RoomOf(client)
	if code == "" {
		return
	}
	e.dispatch(code, func() {
		r, ok := e.rooms.Get(code)
		if !ok {
			return
		}
		e.removePlayer(r, client.ID)
	})
}

func (e *Engine) removePlayer(r *room.Room, playerID string) {
	res := r.RemovePlayer(playerID)
	if !res.Removed {
		return
	}
	e.limiter.Forget(playerID+":chat", playerID+":power")
	if res.Empty {
		e.teardown(r)
		return
	}
	if res.WasHost {
		e.logger.Info("host migrated", "room", r.Code, "host", res.NewHostID)
	}
	e.broadcastRoom(r)
}

func (e *Engine) handleCreate(client *server.Client, name string) {
	if e.hub.RoomOf(client) != "" {
		e.sendError(client.ID, "already_in_room")
		return
	}
	r := e.createRoom()
	e.dispatch(r.Code, func() {
		if !r.AddPlayer(client.ID, name) {
			e.teardown(r)
			e.sendError(client.ID, "join_denied")
			return
		}
		if !e.hub.JoinRoom(client.ID, r.Code) {
			// socket dropped between dispatch and execution: the creator is
			// gone, so the room goes with it
			r.RemovePlayer(client.ID)
			e.teardown(r)
			return
		}
		e.sendJoined(r, client.ID)
		e.broadcastRoom(r)
	})
}

func (e *Engine) handleJoin(client *server.Client, code, name string) {
	if e.hub.RoomOf(client) != "" {
		e.sendError(client.ID, "already_in_room")
		return
	}
	if _, ok := e.rooms.Get(code); !ok {
		e.sendError(client.ID, "room_not_found")
		return
	}
	delivered := e.dispatch(code, func() {
		r, ok := e.rooms.Get(code)
		if !ok {
			e.sendError(client.ID, "room_not_found")
			return
		}
		if !r.AddPlayer(client.ID, name) {
			e.sendError(client.ID, "join_denied")
			return
		}
		if !e.hub.JoinRoom(client.ID, r.Code) {
			// socket dropped between dispatch and execution; without this
			// undo the disconnect path has already run and the roster keeps
			// a phantom entry forever
			e.removePlayer(r, client.ID)
			return
		}
		e.sendJoined(r, client.ID)
		e.broadcastRoom(r)
	})
	if !delivered {
		e.sendError(client.ID, "room_not_found")
	}
}

func (e *Engine) handleChat(r *room.Room, playerID, text string) {
	if r.Phase == room.PhaseGame {
		return
	}
	p, ok := r.Players[playerID]
	if !ok {
		return
	}
	if !e.limiter.Allow(playerID + ":chat") {
		return
	}
	runes := []rune(text)
	if len(runes) > maxChatLen {
		runes = runes[:maxChatLen]
	}
	if len(runes) == 0 {
		return
	}
	payload, _ := json.Marshal(map[string]string{"from": p.Name, "text": string(runes)})
	e.hub.BroadcastRoom(r.Code, server.WSMessage{Type: "chat_message", Payload: payload})
}

func (e *Engine) handleUsePower(r *room.Room, playerID string) {
	if r.Phase != room.PhaseGame {
		return
	}
	p, ok := r.Players[playerID]
	if !ok {
		return
	}
	if !e.limiter.Allow(playerID + ":power") {
		return
	}
	used := UsePower(p, r, time.Now())
	if used == "" {
		return
	}
	if e.metrics != nil {
		e.metrics.IncrPowersUsed()
	}
	payload, _ := json.Marshal(map[string]string{"player": playerID, "power": string(used)})
	e.hub.BroadcastRoom(r.Code, server.WSMessage{Type: "power_used", Payload: payload})
	e.sendInventory(r, playerID)
}

// inRoom routes a command onto the runner of the client's current room.
func (e *Engine) inRoom(client *server.Client, fn func(r *room.Room, rr *roomRunner)) {
	code := e.hub.RoomOf(client)
	if code == "" {
		e.sendError(client.ID, "not_in_room")
		return
	}
	delivered := e.dispatch(code, func() {
		r, ok := e.rooms.Get(code)
		if !ok {
			return
		}
		e.mu.Lock()
		rr := e.running[code]
		e.mu.Unlock()
		if rr == nil {
			return
		}
		fn(r, rr)
	})
	if !delivered {
		e.sendError(client.ID, "room_not_found")
	}
}

/* ------------------------------- snapshots ------------------------------- */

func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func (e *Engine) sendError(clientID, code string) {
	payload, _ := json.Marshal(map[string]string{"error": code})
	e.hub.SendTo(clientID, server.WSMessage{Type: "error_message", Payload: payload})
}

func (e *Engine) systemMessage(r *room.Room, text string) {
	payload, _ := json.Marshal(map[string]string{"text": text})
	e.hub.BroadcastRoom(r.Code, server.WSMessage{Type: "system_message", Payload: payload})
}

func (e *Engine) sendJoined(r *room.Room, clientID string) {
	payload, _ := json.Marshal(map[string]any{
		"code": r.Code,
		"you":  clientID,
		"host": r.HostID == clientID,
	})
	e.hub.SendTo(clientID, server.WSMessage{Type: "room_joined", Payload: payload})
}

func (e *Engine) sendInventory(r *room.Room, playerID string) {
	p, ok := r.Players[playerID]
	if !ok {
		return
	}
	payload, _ := json.Marshal(p.Inventory)
	e.hub.SendTo(playerID, server.WSMessage{Type: "inventory", Payload: payload})
}

// broadcastRoom pushes the full room snapshot on every meaningful state
// change: phase moves, roster edits, leaderboards.
func (e *Engine) broadcastRoom(r *room.Room) {
	type playerInfo struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Avatar   int    `json:"avatar"`
		Ready    bool   `json:"ready"`
		Infected bool   `json:"infected"`
	}
	players := make([]playerInfo, 0, r.PlayerCount())
	for _, p := range r.PlayersInOrder() {
		players = append(players, playerInfo{
			ID:       p.ID,
			Name:     p.Name,
			Avatar:   p.Avatar,
			Ready:    p.Ready,
			Infected: p.Arena.Infected,
		})
	}
	walls := make([]geom.Rect, 0, len(r.Walls))
	for _, w := range r.Walls {
		walls = append(walls, w.Rect)
	}
	payload, _ := json.Marshal(map[string]any{
		"code":            r.Code,
		"phase":           r.Phase.String(),
		"round":           r.Round,
		"totalRounds":     r.TotalRounds,
		"host":            r.HostID,
		"players":         players,
		"walls":           walls,
		"board":           r.Board,
		"countdownEndsAt": unixMilliOrZero(r.CountdownEndsAt),
		"gameEndsAt":      unixMilliOrZero(r.GameEndsAt),
		"boardEndsAt":     unixMilliOrZero(r.BoardEndsAt),
		"world":           map[string]float64{"w": r.Settings.ArenaW, "h": r.Settings.ArenaH},
		"lobbyWorld":      map[string]float64{"w": r.Settings.LobbyW, "h": r.Settings.LobbyH},
	})
	e.hub.BroadcastRoom(r.Code, server.WSMessage{Type: "room_state", Payload: payload})
}

// broadcastGame pushes the high-frequency snapshot, once per simulation tick.
func (e *Engine) broadcastGame(r *room.Room, players []*room.Player) {
	type pos struct {
		ID       string  `json:"id"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Infected bool    `json:"infected"`
	}
	type zone struct {
		ID        string  `json:"id"`
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		W         float64 `json:"w"`
		H         float64 `json:"h"`
		ExpiresAt int64   `json:"expiresAt"`
	}
	positions := make([]pos, 0, len(players))
	for _, p := range players {
		positions = append(positions, pos{ID: p.ID, X: p.Arena.Pos.X, Y: p.Arena.Pos.Y, Infected: p.Arena.Infected})
	}
	zones := make([]zone, 0, len(r.SlimeZones))
	for _, z := range r.SlimeZones {
		zones = append(zones, zone{ID: z.ID, X: z.Rect.X, Y: z.Rect.Y, W: z.Rect.W, H: z.Rect.H, ExpiresAt: z.ExpiresAt.UnixMilli()})
	}
	payload, _ := json.Marshal(map[string]any{
		"round":       r.Round,
		"totalRounds": r.TotalRounds,
		"gameEndsAt":  unixMilliOrZero(r.GameEndsAt),
		"positions":   positions,
		"powerUps":    r.PowerUps,
		"slimeZones":  zones,
	})
	e.hub.BroadcastRoom(r.Code, server.WSMessage{Type: "game_state", Payload: payload})
}

// broadcastLobby pushes the lightweight platformer snapshot, once per lobby
// tick.
func (e *Engine) broadcastLobby(r *room.Room, players []*room.Player) {
	type pos struct {
		ID         string  `json:"id"`
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		FacingLeft bool    `json:"facingLeft"`
	}
	positions := make([]pos, 0, len(players))
	for _, p := range players {
		positions = append(positions, pos{ID: p.ID, X: p.Lobby.Pos.X, Y: p.Lobby.Pos.Y, FacingLeft: p.Lobby.FacingLeft})
	}
	payload, _ := json.Marshal(map[string]any{"positions": positions})
	e.hub.BroadcastRoom(r.Code, server.WSMessage{Type: "lobby_state", Payload: payload})
}
