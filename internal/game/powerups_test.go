package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/gustavagren2/Outbreak/internal/geom"
	"github.com/gustavagren2/Outbreak/internal/room"
)

func testRoom(s room.Settings, ids ...string) *room.Room {
	r := room.NewRoom("TEST", s)
	for _, id := range ids {
		if !r.AddPlayer(id, id) {
			panic("test room join rejected: " + id)
		}
	}
	return r
}

func TestUsePowerPriorityOrder(t *testing.T) {
	r := testRoom(flatSettings(), "p")
	p := r.Players["p"]
	p.Arena.Pos = geom.Vec{X: 400, Y: 400}
	p.Arena.LastDir = geom.Vec{X: 1, Y: 0}
	p.Inventory = room.Inventory{Speed: 1, Flash: 1, Slime: 1}

	now := time.Unix(100, 0)
	want := []room.PowerType{room.PowerSpeed, room.PowerFlash, room.PowerSlime}
	for i, w := range want {
		if got := UsePower(p, r, now); got != w {
			t.Fatalf("use #%d = %q, want %q", i+1, got, w)
		}
	}
	if got := UsePower(p, r, now); got != "" {
		t.Fatalf("use on empty inventory = %q, want no-op", got)
	}
	if p.Inventory.Speed < 0 || p.Inventory.Flash < 0 || p.Inventory.Slime < 0 {
		t.Fatalf("inventory went negative: %+v", p.Inventory)
	}
}

func TestSpeedBoostChargesStack(t *testing.T) {
	s := flatSettings()
	r := testRoom(s, "p")
	p := r.Players["p"]
	p.Inventory.Speed = 2

	now := time.Unix(100, 0)
	UsePower(p, r, now)
	UsePower(p, r, now)

	want := now.Add(2 * s.SpeedBoostDuration)
	if !p.Arena.BoostUntil.Equal(want) {
		t.Fatalf("boost expiry = %v, want %v (charges add up)", p.Arena.BoostUntil, want)
	}
}

func TestUseFlashTeleports(t *testing.T) {
	r := testRoom(flatSettings(), "p")
	p := r.Players["p"]
	p.Arena.Pos = geom.Vec{X: 400, Y: 400}
	p.Arena.LastDir = geom.Vec{X: 1, Y: 0}
	p.Inventory.Flash = 1

	if got := UsePower(p, r, time.Unix(100, 0)); got != room.PowerFlash {
		t.Fatalf("used %q, want flash", got)
	}
	if p.Arena.Pos.X <= 400 {
		t.Fatalf("flash did not move the player: %v", p.Arena.Pos)
	}
}

func TestUseSlimeDropsOrientedZone(t *testing.T) {
	s := flatSettings()
	r := testRoom(s, "p")
	p := r.Players["p"]
	p.Arena.Pos = geom.Vec{X: 400, Y: 400}
	p.Arena.LastDir = geom.Vec{X: 0, Y: 1}
	p.Inventory.Slime = 1

	now := time.Unix(100, 0)
	if got := UsePower(p, r, now); got != room.PowerSlime {
		t.Fatalf("used %q, want slime", got)
	}
	if len(r.SlimeZones) != 1 {
		t.Fatalf("zone count = %d, want 1", len(r.SlimeZones))
	}
	z := r.SlimeZones[0]
	if z.Rect.H <= z.Rect.W {
		t.Fatalf("vertical movement should yield a tall zone, got %vx%v", z.Rect.W, z.Rect.H)
	}
	if !z.Rect.Contains(p.Arena.Pos) {
		t.Fatalf("zone %+v not centered on the player at %v", z.Rect, p.Arena.Pos)
	}
	if !z.ExpiresAt.Equal(now.Add(s.SlimeDuration)) {
		t.Fatalf("zone expiry = %v, want %v", z.ExpiresAt, now.Add(s.SlimeDuration))
	}

	// A player who never moved defaults to a horizontal zone.
	p.Arena.LastDir = geom.Vec{}
	p.Inventory.Slime = 1
	UsePower(p, r, now)
	z = r.SlimeZones[1]
	if z.Rect.W <= z.Rect.H {
		t.Fatalf("default zone should be wide, got %vx%v", z.Rect.W, z.Rect.H)
	}
}

func TestStepPickupsFirstInOrderWins(t *testing.T) {
	s := flatSettings()
	r := testRoom(s, "first", "second")
	r.Players["first"].Arena.Pos = geom.Vec{X: 100, Y: 100}
	r.Players["second"].Arena.Pos = geom.Vec{X: 110, Y: 100}
	r.PowerUps = []*room.PowerUp{
		{ID: "pu", Type: room.PowerFlash, Pos: geom.Vec{X: 105, Y: 100}},
	}

	picked := StepPickups(r.PlayersInOrder(), r)
	if len(picked) != 1 || picked[0].PlayerID != "first" {
		t.Fatalf("picked = %+v, want single pickup by first", picked)
	}
	if r.Players["first"].Inventory.Flash != 1 {
		t.Fatalf("winner inventory = %+v", r.Players["first"].Inventory)
	}
	if r.Players["second"].Inventory.Flash != 0 {
		t.Fatalf("loser got a charge: %+v", r.Players["second"].Inventory)
	}
	if len(r.PowerUps) != 0 {
		t.Fatalf("collected power-up still live: %+v", r.PowerUps)
	}
}

func TestStepPickupsIgnoresDistantPlayers(t *testing.T) {
	s := flatSettings()
	r := testRoom(s, "p")
	r.Players["p"].Arena.Pos = geom.Vec{X: 100, Y: 100}
	r.PowerUps = []*room.PowerUp{
		{ID: "pu", Type: room.PowerSpeed, Pos: geom.Vec{X: 100 + s.PickupDist + 1, Y: 100}},
	}

	if picked := StepPickups(r.PlayersInOrder(), r); len(picked) != 0 {
		t.Fatalf("picked = %+v, want none", picked)
	}
	if len(r.PowerUps) != 1 {
		t.Fatal("uncollected power-up disappeared")
	}
}

func TestSpawnPowerUpRespectsCap(t *testing.T) {
	s := flatSettings()
	r := testRoom(s, "p")
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < s.MaxPowerUps; i++ {
		if pu := SpawnPowerUp(rng, r); pu == nil {
			t.Fatalf("spawn %d rejected below the cap", i+1)
		}
	}
	if pu := SpawnPowerUp(rng, r); pu != nil {
		t.Fatalf("spawn above the cap succeeded: %+v", pu)
	}
	if len(r.PowerUps) != s.MaxPowerUps {
		t.Fatalf("live count = %d, want %d", len(r.PowerUps), s.MaxPowerUps)
	}
}

func TestExpireZonesDropsOnlyStale(t *testing.T) {
	r := testRoom(flatSettings(), "p")
	now := time.Unix(100, 0)
	r.SlimeZones = []*room.SlimeZone{
		{ID: "old", ExpiresAt: now.Add(-time.Second)},
		{ID: "live", ExpiresAt: now.Add(time.Second)},
		{ID: "edge", ExpiresAt: now},
	}

	ExpireZones(r, now)
	if len(r.SlimeZones) != 1 || r.SlimeZones[0].ID != "live" {
		t.Fatalf("zones after expiry = %+v, want only live", r.SlimeZones)
	}
}
