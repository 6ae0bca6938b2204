package game

import (
	"time"

	"github.com/gustavagren2/Outbreak/internal/geom"
	"github.com/gustavagren2/Outbreak/internal/room"
)

// PlayerBox returns the bounding box used for wall collision.
func PlayerBox(pos geom.Vec, s room.Settings) geom.Rect {
	return geom.CenteredRect(pos, s.PlayerHalf, s.PlayerHalf)
}

// SpeedMultiplier combines an unexpired speed boost with every slime zone
// covering the player's position. Overlapping zones compound.
func SpeedMultiplier(p *room.Player, zones []*room.SlimeZone, s room.Settings, now time.Time) float64 {
	mult := 1.0
	if now.Before(p.Arena.BoostUntil) {
		mult = s.SpeedBoostMult
	}
	for _, z := range zones {
		if now.Before(z.ExpiresAt) && z.Rect.Contains(p.Arena.Pos) {
			mult *= s.SlimeMult
		}
	}
	return mult
}

// StepMovement integrates every player's position for one tick. Collision is
// resolved per axis: the X move is attempted alone and reverted on wall
// overlap, then the Y move, which yields sliding along wall surfaces instead
// of a dead stop. Positions are clamped to arena bounds regardless of walls.
func StepMovement(players []*room.Player, walls []room.Wall, zones []*room.SlimeZone, s room.Settings, now time.Time, dt float64) {
	for _, p := range players {
		intent := p.Arena.Intent
		if intent.IsZero() {
			continue
		}
		step := s.BaseSpeed * SpeedMultiplier(p, zones, s, now) * dt

		pos := p.Arena.Pos
		nx := geom.Clamp(pos.X+intent.X*step, s.PlayerHalf, s.ArenaW-s.PlayerHalf)
		if room.CollidesWalls(PlayerBox(geom.Vec{X: nx, Y: pos.Y}, s), walls) {
			nx = pos.X
		}
		ny := geom.Clamp(pos.Y+intent.Y*step, s.PlayerHalf, s.ArenaH-s.PlayerHalf)
		if room.CollidesWalls(PlayerBox(geom.Vec{X: nx, Y: ny}, s), walls) {
			ny = pos.Y
		}
		p.Arena.Pos = geom.Vec{X: nx, Y: ny}
	}
}

// SetIntent stores a normalized movement intent. The last non-zero direction
// is retained for directional powers after the stick returns to center.
func SetIntent(p *room.Player, dir geom.Vec) {
	dir = dir.Normalized()
	p.Arena.Intent = dir
	if !dir.IsZero() {
		p.Arena.LastDir = dir
	}
}

// FlashDestination ray-steps from the player's position along the retained
// last direction, accepting each increment only while it stays wall-free and
// inside the arena. The final position is the last accepted step, so a
// teleport can never land inside or beyond a wall.
func FlashDestination(p *room.Player, walls []room.Wall, s room.Settings) geom.Vec {
	dir := p.Arena.LastDir
	if dir.IsZero() {
		return p.Arena.Pos
	}
	pos := p.Arena.Pos
	for travelled := s.FlashStep; travelled <= s.FlashDistance; travelled += s.FlashStep {
		next := geom.Vec{X: pos.X + dir.X*s.FlashStep, Y: pos.Y + dir.Y*s.FlashStep}
		if next.X < s.PlayerHalf || next.X > s.ArenaW-s.PlayerHalf ||
			next.Y < s.PlayerHalf || next.Y > s.ArenaH-s.PlayerHalf {
			break
		}
		if room.CollidesWalls(PlayerBox(next, s), walls) {
			break
		}
		pos = next
	}
	return pos
}
