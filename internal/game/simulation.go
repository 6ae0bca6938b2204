package game

import (
	"math/rand"
	"time"

	"github.com/gustavagren2/Outbreak/internal/geom"
	"github.com/gustavagren2/Outbreak/internal/room"
)

// spawnAwayFrom samples a wall-free point at least SpawnSeparation from the
// patient zero. Soft constraint: after the attempt budget the last candidate
// wins, separated or not.
func spawnAwayFrom(rng *rand.Rand, r *room.Room, from geom.Vec) geom.Vec {
	var p geom.Vec
	for i := 0; i < r.Settings.SpawnAttempts; i++ {
		p = room.RandomFreePoint(rng, r.Settings, r.Walls)
		if geom.Dist(p, from) >= r.Settings.SpawnSeparation {
			return p
		}
	}
	return p
}

// SimConfig fully describes one deterministic round. Scripts are keyed by
// tick number (1-based); values stick until changed.
type SimConfig struct {
	Settings  room.Settings
	PlayerIDs []string
	Seed      int64

	// PatientZero overrides rotation-based selection when set.
	PatientZero string

	// StartPositions overrides the randomized spawn for listed players.
	StartPositions map[string]geom.Vec

	// Inventory pre-loads power-up charges for listed players.
	Inventory map[string]room.Inventory

	// IntentScript maps tick → player → raw movement intent. The intent is
	// normalized exactly like a live command and persists until rescripted.
	IntentScript map[int]map[string]geom.Vec

	// PowerScript maps tick → players pressing "use power" that tick.
	PowerScript map[int][]string

	MaxTicks int // 0 defaults to the full round duration
}

// SimEvent is one recorded occurrence during a simulated round.
type SimEvent struct {
	Tick   int
	Type   string // "infection", "pickup", "power_used", "all_infected", "time_up"
	Player string
	Other  string // infector on "infection", power/pickup type otherwise
}

// SimResult captures the round outcome and final per-player tallies.
type SimResult struct {
	Events       []SimEvent
	TotalTicks   int
	FinishReason string // "all_infected", "time_up", "max_ticks"
	PatientZero  string
	Board        []room.BoardRow
	Room         *room.Room
}

// RunSimulation executes one full round with no goroutines, no timers and
// no wall clock; time is a synthetic base advanced one tick interval per
// step. The processing order per tick matches the live engine:
//
//  1. Apply scripted intents and power presses
//  2. Expire slime zones
//  3. Accrue survival for players healthy at tick start
//  4. Integrate movement
//  5. Spread infection
//  6. Spawn and collect power-ups
//  7. Check end conditions
func RunSimulation(cfg SimConfig) SimResult {
	s := cfg.Settings
	rng := rand.New(rand.NewSource(cfg.Seed))
	base := time.Unix(0, 0)

	r := room.NewRoom("SIM", s)
	for _, id := range cfg.PlayerIDs {
		r.AddPlayer(id, "bot-"+id)
	}
	r.Round = 1
	r.TotalRounds = 1

	r.Walls = room.GenerateWalls(rng, s)
	r.ResetRoundState()

	pzID := cfg.PatientZero
	if pzID == "" {
		r.BuildRotation(rng)
		pzID = r.NextPatientZero(rng)
	}
	result := SimResult{PatientZero: pzID, Room: r}
	pz, ok := r.Players[pzID]
	if !ok {
		result.FinishReason = "no_players"
		return result
	}
	pz.Arena.Infected = true
	pz.Arena.PatientZero = true
	pz.Arena.Pos = room.RandomFreePoint(rng, s, r.Walls)
	for _, p := range r.PlayersInOrder() {
		if p.ID == pzID {
			continue
		}
		p.Arena.Pos = spawnAwayFrom(rng, r, pz.Arena.Pos)
	}

	for id, pos := range cfg.StartPositions {
		if p, ok := r.Players[id]; ok {
			p.Arena.Pos = pos
		}
	}
	for id, inv := range cfg.Inventory {
		if p, ok := r.Players[id]; ok {
			p.Inventory = inv
		}
	}

	r.SetPhase(room.PhaseGame)
	r.GameEndsAt = base.Add(s.RoundDuration)

	maxTicks := cfg.MaxTicks
	if maxTicks <= 0 {
		maxTicks = int(s.RoundDuration / s.TickInterval)
	}

	lastSpawn := base
	var events []SimEvent

	for tick := 1; tick <= maxTicks; tick++ {
		now := base.Add(time.Duration(tick) * s.TickInterval)

		// 1. Scripted commands
		for id, dir := range cfg.IntentScript[tick] {
			if p, ok := r.Players[id]; ok {
				SetIntent(p, dir)
			}
		}
		for _, id := range cfg.PowerScript[tick] {
			p, ok := r.Players[id]
			if !ok {
				continue
			}
			if used := UsePower(p, r, now); used != "" {
				events = append(events, SimEvent{Tick: tick, Type: "power_used", Player: id, Other: string(used)})
			}
		}

		// 2-4. Zone expiry, survival accrual, movement
		ExpireZones(r, now)
		players := r.PlayersInOrder()
		AccrueSurvival(players, s)
		StepMovement(players, r.Walls, r.SlimeZones, s, now, s.TickInterval.Seconds())

		// 5. Infection
		for _, inf := range StepInfection(players, s) {
			events = append(events, SimEvent{Tick: tick, Type: "infection", Player: inf.VictimID, Other: inf.InfectorID})
		}

		// 6. Power-up lifecycle
		if now.Sub(lastSpawn) >= s.PowerSpawnEvery {
			lastSpawn = now
			SpawnPowerUp(rng, r)
		}
		for _, pk := range StepPickups(players, r) {
			events = append(events, SimEvent{Tick: tick, Type: "pickup", Player: pk.PlayerID, Other: string(pk.Type)})
		}

		// 7. End conditions
		if r.AllInfected() {
			events = append(events, SimEvent{Tick: tick, Type: "all_infected"})
			result.FinishReason = "all_infected"
			result.TotalTicks = tick
			break
		}
		if !now.Before(r.GameEndsAt) {
			events = append(events, SimEvent{Tick: tick, Type: "time_up"})
			result.FinishReason = "time_up"
			result.TotalTicks = tick
			break
		}
		if tick == maxTicks {
			result.FinishReason = "max_ticks"
			result.TotalTicks = tick
		}
	}

	r.SetPhase(room.PhaseLeaderboard)
	result.Events = events
	result.Board = BuildBoard(r)
	return result
}
