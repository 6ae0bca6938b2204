package main

import (
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gustavagren2/Outbreak/internal/game"
	"github.com/gustavagren2/Outbreak/internal/geom"
	"github.com/gustavagren2/Outbreak/internal/room"
)

// --- Config ---
const (
	totalRounds = 20_000
	minRoom     = 3
	maxRoom     = 8
)

// archetype distribution
const (
	pctWanderer = 0.40
	pctRunner   = 0.25
	pctCamper   = 0.15
	// erratic = remainder
)

type Archetype int

const (
	Wanderer Archetype = iota // frequent small direction changes
	Runner                    // long straight dashes
	Camper                    // barely moves, hoards power-ups
	Erratic                   // chaotic flailing
)

func (a Archetype) String() string {
	return [...]string{"Wanderer", "Runner", "Camper", "Erratic"}[a]
}

type roundResult struct {
	playerCount   int
	ticks         int
	finishReason  string
	fullInfection bool
	pzArch        Archetype
	pzTopped      bool // patient zero ended the round on top of the board
	pickups       int
	powersUsed    int
	pstats        []pstat
}

type pstat struct {
	arch       Archetype
	infections int
	survivalMs int64
	score      int
	patient    bool
}

func main() {
	start := time.Now()
	settings := room.DefaultSettings()
	maxTicks := int(settings.RoundDuration / settings.TickInterval)

	workers := runtime.GOMAXPROCS(0)
	results := make([]roundResult, totalRounds)

	var progress atomic.Int64
	var wg sync.WaitGroup

	chunkSize := totalRounds / workers
	for w := 0; w < workers; w++ {
		wg.Add(1)
		lo := w * chunkSize
		hi := lo + chunkSize
		if w == workers-1 {
			hi = totalRounds
		}
		go func(lo, hi int) {
			defer wg.Done()
			localRng := rand.New(rand.NewSource(int64(lo)*7919 + 1))
			for i := lo; i < hi; i++ {
				results[i] = runRound(localRng, settings, maxTicks, int64(i))
				if n := progress.Add(1); n%(totalRounds/10) == 0 {
					fmt.Printf("  ... %d/%d rounds (%.0f%%)\n", n, totalRounds, float64(n)/float64(totalRounds)*100)
				}
			}
		}(lo, hi)
	}
	wg.Wait()

	elapsed := time.Since(start)
	printReport(settings, results, elapsed)
}

func rollArchetype(rng *rand.Rand) Archetype {
	r := rng.Float64()
	switch {
	case r < pctWanderer:
		return Wanderer
	case r < pctWanderer+pctRunner:
		return Runner
	case r < pctWanderer+pctRunner+pctCamper:
		return Camper
	default:
		return Erratic
	}
}

func runRound(rng *rand.Rand, settings room.Settings, maxTicks int, seed int64) roundResult {
	roomSize := minRoom + rng.Intn(maxRoom-minRoom+1)

	ids := make([]string, roomSize)
	archs := make(map[string]Archetype, roomSize)
	for i := range ids {
		ids[i] = fmt.Sprintf("bot%02d", i)
		archs[ids[i]] = rollArchetype(rng)
	}

	intents := make(map[int]map[string]geom.Vec)
	powers := make(map[int][]string)
	for _, id := range ids {
		genIntentScript(rng, id, archs[id], maxTicks, intents)
		genPowerScript(rng, id, archs[id], maxTicks, powers)
	}

	result := game.RunSimulation(game.SimConfig{
		Settings:     settings,
		PlayerIDs:    ids,
		Seed:         seed,
		IntentScript: intents,
		PowerScript:  powers,
		MaxTicks:     maxTicks,
	})

	rr := roundResult{
		playerCount:   roomSize,
		ticks:         result.TotalTicks,
		finishReason:  result.FinishReason,
		fullInfection: result.FinishReason == "all_infected",
		pzArch:        archs[result.PatientZero],
	}
	for _, ev := range result.Events {
		switch ev.Type {
		case "pickup":
			rr.pickups++
		case "power_used":
			rr.powersUsed++
		}
	}
	if len(result.Board) > 0 {
		rr.pzTopped = result.Board[0].PatientZero
	}
	for _, row := range result.Board {
		p := result.Room.Players[row.PlayerID]
		rr.pstats = append(rr.pstats, pstat{
			arch:       archs[row.PlayerID],
			infections: p.Arena.InfectionsCaused,
			survivalMs: p.Arena.SurvivalMs,
			score:      row.RoundScore,
			patient:    row.PatientZero,
		})
	}
	return rr
}

// genIntentScript produces a blind random walk: a fresh direction every few
// ticks, with segment length and idle bias set by the archetype.
func genIntentScript(rng *rand.Rand, id string, arch Archetype, maxTicks int, script map[int]map[string]geom.Vec) {
	var segMin, segMax int
	var idleChance float64
	switch arch {
	case Wanderer:
		segMin, segMax, idleChance = 8, 30, 0.10
	case Runner:
		segMin, segMax, idleChance = 40, 120, 0.05
	case Camper:
		segMin, segMax, idleChance = 10, 40, 0.70
	default: // Erratic
		segMin, segMax, idleChance = 2, 8, 0.15
	}

	dirs := []geom.Vec{
		{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1},
		{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1},
	}

	for tick := 1; tick <= maxTicks; {
		dir := dirs[rng.Intn(len(dirs))]
		if rng.Float64() < idleChance {
			dir = geom.Vec{}
		}
		if script[tick] == nil {
			script[tick] = make(map[string]geom.Vec)
		}
		script[tick][id] = dir
		tick += segMin + rng.Intn(segMax-segMin+1)
	}
}

// genPowerScript schedules blind "use power" presses. Most presses hit an
// empty inventory and no-op, which mirrors live players mashing the button.
func genPowerScript(rng *rand.Rand, id string, arch Archetype, maxTicks int, script map[int][]string) {
	interval := 60
	if arch == Camper {
		interval = 25 // campers sit on pickups and burn them fast
	}
	for tick := 1 + rng.Intn(interval); tick <= maxTicks; tick += interval + rng.Intn(interval) {
		script[tick] = append(script[tick], id)
	}
}

func printReport(settings room.Settings, results []roundResult, elapsed time.Duration) {
	var allTicks, allScores, allSurvival, allInfections []float64
	finishReasons := make(map[string]int)
	pzTopsByArch := make(map[Archetype]int)
	pzGamesByArch := make(map[Archetype]int)
	scoreByArch := make(map[Archetype][]float64)
	infByArch := make(map[Archetype][]float64)
	var fullInfections, totalPickups, totalPowers, totalSessions int

	for _, r := range results {
		allTicks = append(allTicks, float64(r.ticks))
		finishReasons[r.finishReason]++
		if r.fullInfection {
			fullInfections++
		}
		totalPickups += r.pickups
		totalPowers += r.powersUsed
		pzGamesByArch[r.pzArch]++
		if r.pzTopped {
			pzTopsByArch[r.pzArch]++
		}
		for _, ps := range r.pstats {
			totalSessions++
			allScores = append(allScores, float64(ps.score))
			allInfections = append(allInfections, float64(ps.infections))
			scoreByArch[ps.arch] = append(scoreByArch[ps.arch], float64(ps.score))
			infByArch[ps.arch] = append(infByArch[ps.arch], float64(ps.infections))
			if !ps.patient {
				allSurvival = append(allSurvival, float64(ps.survivalMs)/1000)
			}
		}
	}

	sort.Float64s(allTicks)
	sort.Float64s(allScores)
	sort.Float64s(allSurvival)

	tickToSec := settings.TickInterval.Seconds()
	roundSec := settings.RoundDuration.Seconds()

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                 BALANCE SIMULATION REPORT                    ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Rounds: %d  |  Sessions: %d  |  Room size: %d-%d\n", totalRounds, totalSessions, minRoom, maxRoom)
	fmt.Printf("  Archetypes: Wanderer(%.0f%%) Runner(%.0f%%) Camper(%.0f%%) Erratic(%.0f%%)\n",
		pctWanderer*100, pctRunner*100, pctCamper*100, (1-pctWanderer-pctRunner-pctCamper)*100)
	fmt.Printf("  Elapsed: %v  |  Workers: %d\n", elapsed.Round(time.Millisecond), runtime.GOMAXPROCS(0))

	fmt.Println()
	fmt.Println("─── ROUND LENGTH ──────────────────────────────────────────────")
	fmt.Printf("  Mean round length:             %7.1fs  (cap %.0fs)\n", mean(allTicks)*tickToSec, roundSec)
	fmt.Printf("  Median round length:           %7.1fs\n", percentile(allTicks, 50)*tickToSec)
	fmt.Printf("  10th pctl:                     %7.1fs\n", percentile(allTicks, 10)*tickToSec)
	fmt.Printf("  90th pctl:                     %7.1fs\n", percentile(allTicks, 90)*tickToSec)

	fmt.Println()
	fmt.Println("─── FINISH REASONS ────────────────────────────────────────────")
	for reason, count := range finishReasons {
		fmt.Printf("  %-20s %8d  (%5.1f%%)\n", reason, count, float64(count)/float64(totalRounds)*100)
	}

	fmt.Println()
	fmt.Println("─── INFECTION DYNAMICS ────────────────────────────────────────")
	fmt.Printf("  Full-infection rounds:         %7.1f%%\n", float64(fullInfections)/float64(totalRounds)*100)
	fmt.Printf("  Mean conversions/session:      %8.2f\n", mean(allInfections))
	fmt.Printf("  Mean healthy survival:         %7.1fs\n", mean(allSurvival))
	fmt.Printf("  Median healthy survival:       %7.1fs\n", percentile(allSurvival, 50))

	fmt.Println()
	fmt.Println("─── SCORING ───────────────────────────────────────────────────")
	fmt.Printf("  Mean round score:              %8.1f\n", mean(allScores))
	fmt.Printf("  Median round score:            %8.1f\n", percentile(allScores, 50))
	fmt.Printf("  90th pctl score:               %8.1f\n", percentile(allScores, 90))

	fmt.Println()
	fmt.Println("─── POWER-UPS ─────────────────────────────────────────────────")
	fmt.Printf("  Mean pickups/round:            %8.2f\n", float64(totalPickups)/float64(totalRounds))
	fmt.Printf("  Mean uses/round:               %8.2f\n", float64(totalPowers)/float64(totalRounds))

	fmt.Println()
	fmt.Println("─── PATIENT ZERO BY ARCHETYPE ─────────────────────────────────")
	for _, a := range []Archetype{Wanderer, Runner, Camper, Erratic} {
		games := pzGamesByArch[a]
		tops := pzTopsByArch[a]
		topPct := 0.0
		if games > 0 {
			topPct = float64(tops) / float64(games) * 100
		}
		fmt.Printf("  %-10s  board-top: %6d/%6d (%5.1f%%)  mean score: %6.1f  mean conversions: %5.2f\n",
			a.String(), tops, games, topPct, mean(scoreByArch[a]), mean(infByArch[a]))
	}

	fmt.Println()
	fmt.Println("─── DIAGNOSIS ─────────────────────────────────────────────────")
	fullPct := float64(fullInfections) / float64(totalRounds) * 100
	meanLen := mean(allTicks) * tickToSec

	if fullPct > 85 {
		fmt.Println("  !! FULL INFECTION > 85% — survivors never escape, weaken the patient zero")
	} else if fullPct < 20 {
		fmt.Println("  !! FULL INFECTION < 20% — outbreaks fizzle, tighten the arena or raise contact range")
	} else {
		fmt.Printf("  OK FULL INFECTION %.1f%% — contested rounds\n", fullPct)
	}

	if meanLen > roundSec*0.95 {
		fmt.Println("  ~~ ROUNDS RUN THE FULL CLOCK — most rounds end on the timer, consider a smaller arena")
	} else if meanLen < roundSec*0.2 {
		fmt.Println("  !! ROUNDS TOO SHORT — infection snowballs instantly")
	} else {
		fmt.Printf("  OK MEAN ROUND %.0fs of %.0fs — healthy pacing\n", meanLen, roundSec)
	}

	totalTops := 0
	totalGames := 0
	for _, a := range []Archetype{Wanderer, Runner, Camper, Erratic} {
		totalTops += pzTopsByArch[a]
		totalGames += pzGamesByArch[a]
	}
	pzTopPct := float64(totalTops) / float64(totalGames) * 100
	if pzTopPct > 60 {
		fmt.Printf("  !! PATIENT ZERO TOPS %.1f%% of boards — infector weights too generous\n", pzTopPct)
	} else if pzTopPct < 10 {
		fmt.Printf("  !! PATIENT ZERO TOPS %.1f%% — the role feels like a punishment\n", pzTopPct)
	} else {
		fmt.Printf("  OK PATIENT ZERO TOPS %.1f%% of boards\n", pzTopPct)
	}

	fmt.Println()
}

func mean(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return sum(s) / float64(len(s))
}

func sum(s []float64) float64 {
	t := 0.0
	for _, v := range s {
		t += v
	}
	return t
}

func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * pct / 100)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
