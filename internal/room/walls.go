package room

import (
	"math/rand"

	"github.com/gustavagren2/Outbreak/internal/geom"
)

// GenerateWalls lays out a fresh set of obstacles for a round. Orientation,
// length and position are randomized; a candidate is rejected when it sits
// closer than WallSeparation to an already placed wall, so the arena never
// degenerates into near-overlapping clutter. The attempt budget keeps
// generation bounded; a crowded roll simply yields fewer walls.
func GenerateWalls(rng *rand.Rand, s Settings) []Wall {
	walls := make([]Wall, 0, s.WallCount)
	attempts := 0
	for len(walls) < s.WallCount && attempts < s.WallAttempts {
		attempts++
		length := s.WallMinLen + rng.Float64()*(s.WallMaxLen-s.WallMinLen)
		w, h := length, s.WallThickness
		if rng.Intn(2) == 0 { // vertical
			w, h = s.WallThickness, length
		}
		maxX := s.ArenaW - s.WallMargin - w
		maxY := s.ArenaH - s.WallMargin - h
		if maxX <= s.WallMargin || maxY <= s.WallMargin {
			continue
		}
		cand := geom.Rect{
			X: s.WallMargin + rng.Float64()*(maxX-s.WallMargin),
			Y: s.WallMargin + rng.Float64()*(maxY-s.WallMargin),
			W: w,
			H: h,
		}
		tooClose := false
		for _, existing := range walls {
			if cand.Expanded(s.WallSeparation).Intersects(existing.Rect) {
				tooClose = true
				break
			}
		}
		if !tooClose {
			walls = append(walls, Wall{Rect: cand})
		}
	}
	return walls
}

// CollidesWalls reports whether a bounding box overlaps any wall.
func CollidesWalls(box geom.Rect, walls []Wall) bool {
	for _, w := range walls {
		if box.Intersects(w.Rect) {
			return true
		}
	}
	return false
}

// RandomFreePoint samples a point whose player box does not overlap a wall.
// Best-effort within the attempt budget: the last candidate is accepted
// rather than looping forever on a pathological arena.
func RandomFreePoint(rng *rand.Rand, s Settings, walls []Wall) geom.Vec {
	var p geom.Vec
	for i := 0; i < s.SpawnAttempts; i++ {
		p = geom.RandPoint(rng, s.ArenaW, s.ArenaH, s.PlayerHalf*2)
		if !CollidesWalls(geom.CenteredRect(p, s.PlayerHalf, s.PlayerHalf), walls) {
			return p
		}
	}
	return p
}
