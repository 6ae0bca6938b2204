package room

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

func testRoom(n int) *Room {
	r := NewRoom("TEST", DefaultSettings())
	for i := 0; i < n; i++ {
		if !r.AddPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("player%d", i)) {
			panic("add failed")
		}
	}
	return r
}

func TestFirstJoinerIsHost(t *testing.T) {
	r := testRoom(3)
	if r.HostID != "p0" {
		t.Fatalf("host = %q, want p0", r.HostID)
	}
}

func TestJoinLockedOutsideLobby(t *testing.T) {
	r := testRoom(2)
	r.Phase = PhaseGame
	if r.AddPlayer("late", "late") {
		t.Fatal("join during GAME must be rejected")
	}
	r.Phase = PhaseLobby
	if !r.AddPlayer("ok", "ok") {
		t.Fatal("lobby join should succeed")
	}
}

func TestNameClamped(t *testing.T) {
	r := testRoom(0)
	r.AddPlayer("p", strings.Repeat("x", 40))
	if got := len(r.Players["p"].Name); got != maxNameLen {
		t.Fatalf("name length = %d, want %d", got, maxNameLen)
	}
	r.SetName("p", "")
	if r.Players["p"].Name == "" {
		t.Fatal("empty rename must keep the old name")
	}
}

func TestAvatarAssignmentAndUniqueness(t *testing.T) {
	r := testRoom(3)
	// join-time assignment picks distinct slots
	seen := map[int]bool{}
	for _, p := range r.PlayersInOrder() {
		if seen[p.Avatar] {
			t.Fatalf("avatar %d assigned twice", p.Avatar)
		}
		seen[p.Avatar] = true
	}
	// taking another player's avatar is rejected, never blocks
	if r.SetAvatar("p2", r.Players["p0"].Avatar) {
		t.Fatal("taken avatar index must be rejected")
	}
	if !r.SetAvatar("p2", 7) {
		t.Fatal("free avatar index must be accepted")
	}
	if !r.SetAvatar("p2", 99) && r.Players["p2"].Avatar != avatarSlots-1 {
		t.Fatal("out-of-range avatar should clamp")
	}
}

func TestHostTransferOnLeave(t *testing.T) {
	r := testRoom(3)
	res := r.RemovePlayer("p0")
	if !res.WasHost || res.NewHostID != "p1" {
		t.Fatalf("expected host transfer to p1, got %+v", res)
	}
	res = r.RemovePlayer("p1")
	if res.NewHostID != "p2" {
		t.Fatalf("expected host transfer to p2, got %+v", res)
	}
	res = r.RemovePlayer("p2")
	if !res.Empty || res.NewHostID != "" {
		t.Fatalf("expected empty room with no host, got %+v", res)
	}
}

func TestRemoveUnknownPlayer(t *testing.T) {
	r := testRoom(1)
	if res := r.RemovePlayer("ghost"); res.Removed {
		t.Fatal("removing an unknown player must be a no-op")
	}
}

func TestRotationContainsEveryoneTwice(t *testing.T) {
	r := testRoom(4)
	r.BuildRotation(rand.New(rand.NewSource(7)))
	if len(r.Rotation) != 8 {
		t.Fatalf("rotation length = %d, want 8", len(r.Rotation))
	}
	counts := map[string]int{}
	for _, id := range r.Rotation {
		counts[id]++
	}
	for _, p := range r.PlayersInOrder() {
		if counts[p.ID] != 2 {
			t.Fatalf("player %s appears %d times in rotation, want 2", p.ID, counts[p.ID])
		}
	}
}

func TestNextPatientZeroSkipsDeparted(t *testing.T) {
	r := testRoom(3)
	rng := rand.New(rand.NewSource(3))
	r.BuildRotation(rng)
	r.RemovePlayer("p1")
	for i := 0; i < 4; i++ {
		id := r.NextPatientZero(rng)
		if id == "p1" {
			t.Fatal("departed player chosen as patient zero")
		}
		if id == "" {
			t.Fatal("patient zero empty with players present")
		}
	}
}

func TestNextPatientZeroFallbackWhenExhausted(t *testing.T) {
	r := testRoom(2)
	rng := rand.New(rand.NewSource(9))
	// no rotation built at all: must still pick somebody present
	if id := r.NextPatientZero(rng); id == "" {
		t.Fatal("expected random fallback pick")
	}
}

func TestRotationFairnessOverSeries(t *testing.T) {
	// over a full series (2N rounds) nobody is picked more than
	// ceil(totalRounds/n)+1 times more often than anyone else
	r := testRoom(5)
	rng := rand.New(rand.NewSource(42))
	r.BuildRotation(rng)
	total := 2 * 5
	picks := map[string]int{}
	for i := 0; i < total; i++ {
		picks[r.NextPatientZero(rng)]++
	}
	min, max := total, 0
	for _, c := range picks {
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	bound := (total+4)/5 + 1
	if max-min > bound {
		t.Fatalf("fairness bound exceeded: max %d, min %d, bound %d", max, min, bound)
	}
}

func TestResetRoundStateClearsPerRoundFields(t *testing.T) {
	r := testRoom(2)
	p := r.Players["p0"]
	p.Arena.Infected = true
	p.Arena.SurvivalMs = 12345
	p.Arena.InfectionsCaused = 3
	p.Inventory.Flash = 2
	r.PowerUps = append(r.PowerUps, &PowerUp{ID: "x", Type: PowerSpeed})
	r.SlimeZones = append(r.SlimeZones, &SlimeZone{ID: "z"})

	r.ResetRoundState()

	if p.Arena.Infected || p.Arena.SurvivalMs != 0 || p.Arena.InfectionsCaused != 0 {
		t.Fatalf("arena state not reset: %+v", p.Arena)
	}
	if p.Inventory != (Inventory{}) {
		t.Fatalf("inventory not reset: %+v", p.Inventory)
	}
	if len(r.PowerUps) != 0 || len(r.SlimeZones) != 0 {
		t.Fatal("live entities not cleared")
	}
}

func TestAllInfected(t *testing.T) {
	r := testRoom(2)
	if r.AllInfected() {
		t.Fatal("healthy room reported all infected")
	}
	for _, p := range r.Players {
		p.Arena.Infected = true
	}
	if !r.AllInfected() {
		t.Fatal("fully infected room not detected")
	}
	empty := testRoom(0)
	if empty.AllInfected() {
		t.Fatal("empty room must not be all infected")
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(rand.New(rand.NewSource(1)))
	r := m.Create(DefaultSettings())
	if len(r.Code) != codeLen {
		t.Fatalf("code %q has wrong length", r.Code)
	}
	got, ok := m.Get(r.Code)
	if !ok || got != r {
		t.Fatal("lookup by code failed")
	}
	m.Remove(r.Code)
	if _, ok := m.Get(r.Code); ok {
		t.Fatal("removed room still resolvable")
	}
	if m.Count() != 0 {
		t.Fatal("count should be zero after removal")
	}
}
