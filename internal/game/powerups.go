package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/gustavagren2/Outbreak/internal/geom"
	"github.com/gustavagren2/Outbreak/internal/room"
)

var powerTypes = []room.PowerType{room.PowerSpeed, room.PowerFlash, room.PowerSlime}

// SpawnPowerUp creates one uniformly-random power-up at a wall-free point.
// Returns nil when the room is already at its live cap.
func SpawnPowerUp(rng *rand.Rand, r *room.Room) *room.PowerUp {
	if len(r.PowerUps) >= r.Settings.MaxPowerUps {
		return nil
	}
	pu := &room.PowerUp{
		ID:   uuid.NewString(),
		Type: powerTypes[rng.Intn(len(powerTypes))],
		Pos:  room.RandomFreePoint(rng, r.Settings, r.Walls),
	}
	r.PowerUps = append(r.PowerUps, pu)
	return pu
}

// Pickup records a collected power-up.
type Pickup struct {
	PlayerID string
	Type     room.PowerType
}

// StepPickups hands each live power-up to the first player within pickup
// distance, in the room's stable iteration order. One collector per instance
// per tick; the instance is destroyed on pickup.
func StepPickups(players []*room.Player, r *room.Room) []Pickup {
	var picked []Pickup
	remaining := r.PowerUps[:0]
	for _, pu := range r.PowerUps {
		collected := false
		for _, p := range players {
			if geom.Dist(p.Arena.Pos, pu.Pos) <= r.Settings.PickupDist {
				addCharge(&p.Inventory, pu.Type)
				picked = append(picked, Pickup{PlayerID: p.ID, Type: pu.Type})
				collected = true
				break
			}
		}
		if !collected {
			remaining = append(remaining, pu)
		}
	}
	r.PowerUps = remaining
	return picked
}

func addCharge(inv *room.Inventory, t room.PowerType) {
	switch t {
	case room.PowerSpeed:
		inv.Speed++
	case room.PowerFlash:
		inv.Flash++
	case room.PowerSlime:
		inv.Slime++
	}
}

// UsePower consumes one charge of the highest-priority non-empty type
// (speed > flash > slime) and applies its effect. A player holding several
// types cannot choose which fires. Returns the used type, or "" when the
// inventory is empty (a no-op).
func UsePower(p *room.Player, r *room.Room, now time.Time) room.PowerType {
	switch {
	case p.Inventory.Speed > 0:
		p.Inventory.Speed--
		applySpeedBoost(p, r.Settings, now)
		return room.PowerSpeed
	case p.Inventory.Flash > 0:
		p.Inventory.Flash--
		p.Arena.Pos = FlashDestination(p, r.Walls, r.Settings)
		return room.PowerFlash
	case p.Inventory.Slime > 0:
		p.Inventory.Slime--
		r.SlimeZones = append(r.SlimeZones, makeSlimeZone(p, r.Settings, now))
		return room.PowerSlime
	}
	return ""
}

// applySpeedBoost extends the boost window: the new expiry is the later of
// the current expiry and now, plus the boost duration, so stacked charges
// add up instead of overwriting each other.
func applySpeedBoost(p *room.Player, s room.Settings, now time.Time) {
	base := p.Arena.BoostUntil
	if now.After(base) {
		base = now
	}
	p.Arena.BoostUntil = base.Add(s.SpeedBoostDuration)
}

// makeSlimeZone centers a zone on the player, long axis aligned with whichever
// axis dominates the last movement direction. A player who never moved drops
// a horizontal zone.
func makeSlimeZone(p *room.Player, s room.Settings, now time.Time) *room.SlimeZone {
	halfW, halfH := s.SlimeLong/2, s.SlimeShort/2
	if math.Abs(p.Arena.LastDir.Y) > math.Abs(p.Arena.LastDir.X) {
		halfW, halfH = halfH, halfW
	}
	return &room.SlimeZone{
		ID:        uuid.NewString(),
		Rect:      geom.CenteredRect(p.Arena.Pos, halfW, halfH),
		ExpiresAt: now.Add(s.SlimeDuration),
	}
}

// ExpireZones drops slime zones past their expiry.
func ExpireZones(r *room.Room, now time.Time) {
	live := r.SlimeZones[:0]
	for _, z := range r.SlimeZones {
		if now.Before(z.ExpiresAt) {
			live = append(live, z)
		}
	}
	r.SlimeZones = live
}
