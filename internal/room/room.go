package room

import (
	"math/rand"
	"sync"
	"time"
)

const maxNameLen = 16

// avatarSlots is the number of selectable cosmetic avatars.
const avatarSlots = 10

// Room holds the full mutable state for a single game session. All
// multi-field transitions run on the room's engine goroutine; the mutex
// covers the composite mutation helpers below and read-side snapshots taken
// by the HTTP surface.
type Room struct {
	mu sync.RWMutex

	Code        string
	HostID      string
	Phase       Phase
	Round       int // 1-based during a series
	TotalRounds int // fixed at series start, never recomputed mid-series

	Players map[string]*Player
	order   []string // join order; the room's stable iteration order

	Walls      []Wall
	PowerUps   []*PowerUp
	SlimeZones []*SlimeZone

	Scores   map[string]int // cumulative per player across the series
	Rotation []string       // patient-zero queue; each series participant twice

	Board []BoardRow // last computed leaderboard

	CountdownEndsAt time.Time
	GameEndsAt      time.Time
	BoardEndsAt     time.Time

	Settings  Settings
	CreatedAt time.Time
}

func NewRoom(code string, s Settings) *Room {
	return &Room{
		Code:      code,
		Phase:     PhaseLobby,
		Players:   make(map[string]*Player),
		Scores:    make(map[string]int),
		Settings:  s,
		CreatedAt: time.Now(),
	}
}

// SetPhase transitions the room's phase under the lock, so HTTP-side
// snapshots observe a coherent value while the engine goroutine moves the
// room between phases.
func (r *Room) SetPhase(p Phase) {
	r.mu.Lock()
	r.Phase = p
	r.mu.Unlock()
}

// CurrentPhase reads the phase under the lock. Callers outside the room's
// engine goroutine must use this instead of the field.
func (r *Room) CurrentPhase() Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Phase
}

func clampName(name string) string {
	runes := []rune(name)
	if len(runes) > maxNameLen {
		runes = runes[:maxNameLen]
	}
	return string(runes)
}

// AddPlayer joins a player while the room is in the lobby. Mid-series joins
// are locked so the rotation queue and totalRounds stay coherent. The first
// player becomes host. Returns false when the join is not allowed.
func (r *Room) AddPlayer(id, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Phase != PhaseLobby {
		return false
	}
	if len(r.Players) >= r.Settings.MaxPlayers {
		return false
	}
	if _, exists := r.Players[id]; exists {
		return false
	}
	name = clampName(name)
	if name == "" {
		name = "PLAYER"
	}
	p := &Player{
		ID:       id,
		Name:     name,
		Avatar:   r.freeAvatarLocked(),
		JoinedAt: time.Now(),
	}
	p.Lobby.Pos.X = r.Settings.LobbyW / 2
	p.Lobby.Pos.Y = r.Settings.LobbyFloor
	p.Lobby.Grounded = true
	r.Players[id] = p
	r.order = append(r.order, id)
	if r.HostID == "" {
		r.HostID = id
	}
	return true
}

// freeAvatarLocked picks the lowest avatar index not already in use.
// Best-effort only: with more players than slots, duplicates are fine.
func (r *Room) freeAvatarLocked() int {
	used := make(map[int]bool, len(r.Players))
	for _, p := range r.Players {
		used[p.Avatar] = true
	}
	for i := 0; i < avatarSlots; i++ {
		if !used[i] {
			return i
		}
	}
	return len(r.Players) % avatarSlots
}

// RemoveResult describes the fallout of a player leaving.
type RemoveResult struct {
	Removed   bool
	WasHost   bool
	NewHostID string // empty when the room emptied
	Empty     bool
}

// RemovePlayer removes a player unconditionally. Host role transfers to the
// earliest remaining joiner. The rotation queue is left alone; departed IDs
// are skipped at dequeue time.
func (r *Room) RemovePlayer(id string) RemoveResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Players[id]; !ok {
		return RemoveResult{}
	}
	delete(r.Players, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	res := RemoveResult{Removed: true, WasHost: r.HostID == id, Empty: len(r.Players) == 0}
	if res.WasHost {
		r.HostID = ""
		if len(r.order) > 0 {
			r.HostID = r.order[0]
		}
		res.NewHostID = r.HostID
	}
	return res
}

// SetName updates a player's display name. An empty result keeps the old one.
func (r *Room) SetName(id, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[id]
	if !ok {
		return false
	}
	if name = clampName(name); name != "" {
		p.Name = name
	}
	return true
}

// SetReady flips a player's lobby ready flag.
func (r *Room) SetReady(id string, ready bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[id]
	if !ok {
		return false
	}
	p.Ready = ready
	return true
}

// SetAvatar assigns a cosmetic avatar index. Uniqueness is best-effort: a
// taken index is rejected, but nothing ever blocks on a conflict.
func (r *Room) SetAvatar(id string, avatar int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[id]
	if !ok {
		return false
	}
	if avatar < 0 {
		avatar = 0
	}
	if avatar >= avatarSlots {
		avatar = avatarSlots - 1
	}
	for _, other := range r.Players {
		if other.ID != id && other.Avatar == avatar {
			return false
		}
	}
	p.Avatar = avatar
	return true
}

// PlayersInOrder returns players in join order — the stable iteration order
// used by pickups and host transfer.
func (r *Room) PlayersInOrder() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.Players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Players)
}

// AllReady reports whether every current participant has readied up.
func (r *Room) AllReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// AllInfected reports whether every participant carries the infection.
// An empty room is never "all infected".
func (r *Room) AllInfected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.Arena.Infected {
			return false
		}
	}
	return true
}

// BuildRotation rebuilds the patient-zero queue: every current participant
// appears exactly twice, uniformly shuffled.
func (r *Room) BuildRotation(rng *rand.Rand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rot := make([]string, 0, 2*len(r.order))
	for _, id := range r.order {
		rot = append(rot, id, id)
	}
	rng.Shuffle(len(rot), func(i, j int) {
		rot[i], rot[j] = rot[j], rot[i]
	})
	r.Rotation = rot
}

// NextPatientZero dequeues the next rotation candidate, skipping players who
// have since left. An exhausted queue falls back to a uniform-random current
// participant. Returns "" only for an empty room.
func (r *Room) NextPatientZero(rng *rand.Rand) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.Rotation) > 0 {
		id := r.Rotation[0]
		r.Rotation = r.Rotation[1:]
		if _, present := r.Players[id]; present {
			return id
		}
	}
	if len(r.order) == 0 {
		return ""
	}
	return r.order[rng.Intn(len(r.order))]
}

// ResetRoundState clears all round-scoped state: live entities, player
// intents, infection flags, power timers, inventories and round stats.
func (r *Room) ResetRoundState() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PowerUps = nil
	r.SlimeZones = nil
	for _, p := range r.Players {
		p.Arena = ArenaState{}
		p.Inventory = Inventory{}
	}
}

// ResetSeries zeroes cumulative scores for a fresh series.
func (r *Room) ResetSeries() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scores = make(map[string]int)
	r.Board = nil
	r.Round = 0
}
