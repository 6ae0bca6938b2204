package game

import (
	"sort"

	"github.com/gustavagren2/Outbreak/internal/room"
)

// RoundScore computes one player's score for the round just ended:
//
//	floor(survivalMs/1000)×survivalWeight + infectionsCaused×infectionWeight
//	+ fullInfectionBonus when this patient zero converted everyone.
func RoundScore(p *room.Player, everyoneInfected bool, s room.Settings) int {
	score := int(p.Arena.SurvivalMs/1000)*s.SurvivalWeight +
		p.Arena.InfectionsCaused*s.InfectionWeight
	if p.Arena.PatientZero && everyoneInfected {
		score += s.FullInfectionBonus
	}
	return score
}

// BuildBoard folds the round into cumulative scores and returns the
// leaderboard: round score descending, ties broken by running total
// descending, stable over the room's iteration order beyond that.
func BuildBoard(r *room.Room) []room.BoardRow {
	everyone := r.AllInfected()
	players := r.PlayersInOrder()
	rows := make([]room.BoardRow, 0, len(players))
	for _, p := range players {
		round := RoundScore(p, everyone, r.Settings)
		r.Scores[p.ID] += round
		rows = append(rows, room.BoardRow{
			PlayerID:    p.ID,
			Name:        p.Name,
			Avatar:      p.Avatar,
			RoundScore:  round,
			TotalScore:  r.Scores[p.ID],
			PatientZero: p.Arena.PatientZero,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].RoundScore != rows[j].RoundScore {
			return rows[i].RoundScore > rows[j].RoundScore
		}
		return rows[i].TotalScore > rows[j].TotalScore
	})
	return rows
}
