package game

import (
	"github.com/gustavagren2/Outbreak/internal/geom"
	"github.com/gustavagren2/Outbreak/internal/room"
)

// Infection records one conversion for crediting and event fan-out.
type Infection struct {
	VictimID   string
	InfectorID string
}

// StepInfection converts every healthy player standing within contact
// distance of an infected one. The infected set is snapshotted at the start
// of the scan, so a player converted this tick starts spreading next tick.
// The first infected player found (stable iteration order) gets the credit.
// Walls do not block the check; the contact model is distance-only.
func StepInfection(players []*room.Player, s room.Settings) []Infection {
	var carriers []*room.Player
	for _, p := range players {
		if p.Arena.Infected {
			carriers = append(carriers, p)
		}
	}
	if len(carriers) == 0 {
		return nil
	}

	var converted []Infection
	for _, p := range players {
		if p.Arena.Infected {
			continue
		}
		for _, c := range carriers {
			if geom.Dist(c.Arena.Pos, p.Arena.Pos) <= s.ContactDist {
				p.Arena.Infected = true
				c.Arena.InfectionsCaused++
				converted = append(converted, Infection{VictimID: p.ID, InfectorID: c.ID})
				break
			}
		}
	}
	return converted
}

// AccrueSurvival credits one tick of survival to every player who is still
// healthy at the start of the tick. Accrual stops the instant a player is
// converted and can never exceed the round duration.
func AccrueSurvival(players []*room.Player, s room.Settings) {
	tickMs := s.TickInterval.Milliseconds()
	capMs := s.RoundDuration.Milliseconds()
	for _, p := range players {
		if p.Arena.Infected {
			continue
		}
		p.Arena.SurvivalMs += tickMs
		if p.Arena.SurvivalMs > capMs {
			p.Arena.SurvivalMs = capMs
		}
	}
}
