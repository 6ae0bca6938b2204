package game

import (
	"math"
	"testing"
	"time"

	"github.com/gustavagren2/Outbreak/internal/geom"
	"github.com/gustavagren2/Outbreak/internal/room"
)

func flatSettings() room.Settings {
	s := room.DefaultSettings()
	s.WallCount = 0
	return s
}

func arenaPlayer(id string, x, y float64) *room.Player {
	p := &room.Player{ID: id}
	p.Arena.Pos = geom.Vec{X: x, Y: y}
	return p
}

func TestStepMovementIntegratesIntent(t *testing.T) {
	s := flatSettings()
	p := arenaPlayer("p", 100, 100)
	SetIntent(p, geom.Vec{X: 1, Y: 0})
	StepMovement([]*room.Player{p}, nil, nil, s, time.Unix(0, 0), 0.05)
	want := 100 + s.BaseSpeed*0.05
	if math.Abs(p.Arena.Pos.X-want) > 1e-9 || p.Arena.Pos.Y != 100 {
		t.Fatalf("pos = %v, want x=%v y=100", p.Arena.Pos, want)
	}
}

func TestStepMovementSlidesAlongWall(t *testing.T) {
	s := flatSettings()
	wall := room.Wall{Rect: geom.Rect{X: 120, Y: 0, W: 24, H: 900}}
	p := arenaPlayer("p", 100, 100)
	SetIntent(p, geom.Vec{X: 1, Y: 1})
	StepMovement([]*room.Player{p}, []room.Wall{wall}, nil, s, time.Unix(0, 0), 0.05)
	if p.Arena.Pos.X != 100 {
		t.Fatalf("x should be blocked by the wall, got %v", p.Arena.Pos.X)
	}
	if p.Arena.Pos.Y <= 100 {
		t.Fatalf("y should slide, got %v", p.Arena.Pos.Y)
	}
	if room.CollidesWalls(PlayerBox(p.Arena.Pos, s), []room.Wall{wall}) {
		t.Fatal("resolved position overlaps the wall")
	}
}

func TestStepMovementClampsToArena(t *testing.T) {
	s := flatSettings()
	p := arenaPlayer("p", s.PlayerHalf, s.PlayerHalf)
	SetIntent(p, geom.Vec{X: -1, Y: -1})
	StepMovement([]*room.Player{p}, nil, nil, s, time.Unix(0, 0), 0.05)
	if p.Arena.Pos.X != s.PlayerHalf || p.Arena.Pos.Y != s.PlayerHalf {
		t.Fatalf("position escaped arena bounds: %v", p.Arena.Pos)
	}
}

func TestSetIntentKeepsLastDirection(t *testing.T) {
	p := arenaPlayer("p", 0, 0)
	SetIntent(p, geom.Vec{X: 0, Y: -3})
	SetIntent(p, geom.Vec{})
	if !p.Arena.Intent.IsZero() {
		t.Fatal("intent should be zero after release")
	}
	if p.Arena.LastDir.Y != -1 {
		t.Fatalf("last direction lost: %v", p.Arena.LastDir)
	}
}

func TestSetIntentCoercesMalformedVector(t *testing.T) {
	p := arenaPlayer("p", 0, 0)
	SetIntent(p, geom.Vec{X: math.NaN(), Y: math.Inf(1)})
	if !p.Arena.Intent.IsZero() {
		t.Fatalf("malformed intent must coerce to zero, got %v", p.Arena.Intent)
	}
}

func TestFlashDestinationRespectsDistanceBudget(t *testing.T) {
	s := flatSettings()
	p := arenaPlayer("p", 400, 400)
	p.Arena.LastDir = geom.Vec{X: 1, Y: 0}
	dest := FlashDestination(p, nil, s)
	if d := geom.Dist(dest, p.Arena.Pos); d > s.FlashDistance+1e-9 {
		t.Fatalf("teleport travelled %v, budget %v", d, s.FlashDistance)
	}
	if dest.X <= p.Arena.Pos.X {
		t.Fatal("teleport should move along the last direction")
	}
}

func TestFlashDestinationStopsAtWall(t *testing.T) {
	s := flatSettings()
	wall := room.Wall{Rect: geom.Rect{X: 500, Y: 0, W: 24, H: 900}}
	p := arenaPlayer("p", 400, 400)
	p.Arena.LastDir = geom.Vec{X: 1, Y: 0}
	dest := FlashDestination(p, []room.Wall{wall}, s)
	if room.CollidesWalls(PlayerBox(dest, s), []room.Wall{wall}) {
		t.Fatalf("teleport landed inside a wall: %v", dest)
	}
	if dest.X >= wall.X+wall.W {
		t.Fatalf("teleport passed through a wall: %v", dest)
	}
}

func TestFlashDestinationWithoutDirectionIsNoop(t *testing.T) {
	s := flatSettings()
	p := arenaPlayer("p", 400, 400)
	if dest := FlashDestination(p, nil, s); dest != p.Arena.Pos {
		t.Fatalf("player who never moved teleported to %v", dest)
	}
}

func TestSpeedMultiplierStacksZonesAndBoost(t *testing.T) {
	s := flatSettings()
	now := time.Unix(100, 0)
	p := arenaPlayer("p", 100, 100)
	zoneA := &room.SlimeZone{Rect: geom.Rect{X: 0, Y: 0, W: 200, H: 200}, ExpiresAt: now.Add(time.Second)}
	zoneB := &room.SlimeZone{Rect: geom.Rect{X: 50, Y: 50, W: 100, H: 100}, ExpiresAt: now.Add(time.Second)}
	expired := &room.SlimeZone{Rect: geom.Rect{X: 0, Y: 0, W: 200, H: 200}, ExpiresAt: now.Add(-time.Second)}

	got := SpeedMultiplier(p, []*room.SlimeZone{zoneA, zoneB, expired}, s, now)
	want := s.SlimeMult * s.SlimeMult
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("multiplier = %v, want %v (two live zones compound)", got, want)
	}

	p.Arena.BoostUntil = now.Add(time.Second)
	got = SpeedMultiplier(p, []*room.SlimeZone{zoneA}, s, now)
	want = s.SpeedBoostMult * s.SlimeMult
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("multiplier = %v, want %v (boost × zone)", got, want)
	}
}
