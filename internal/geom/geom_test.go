package geom

import (
	"math"
	"math/rand"
	"testing"
)

func TestNormalized(t *testing.T) {
	v := Vec{X: 3, Y: 4}.Normalized()
	if math.Abs(v.Len()-1) > 1e-9 {
		t.Fatalf("expected unit length, got %v", v.Len())
	}
	if !(Vec{}).Normalized().IsZero() {
		t.Fatal("zero vector should normalize to zero")
	}
}

func TestNormalizedCoercesBadInput(t *testing.T) {
	cases := []Vec{
		{X: math.NaN(), Y: 1},
		{X: math.Inf(1), Y: math.Inf(-1)},
		{X: 0, Y: math.NaN()},
	}
	for _, c := range cases {
		n := c.Normalized()
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
			t.Fatalf("normalized %v produced non-finite %v", c, n)
		}
	}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	cases := []struct {
		b    Rect
		want bool
	}{
		{Rect{X: 5, Y: 5, W: 10, H: 10}, true},
		{Rect{X: 10, Y: 0, W: 5, H: 5}, false}, // edge touch is not overlap
		{Rect{X: -5, Y: -5, W: 6, H: 6}, true},
		{Rect{X: 0, Y: 11, W: 2, H: 2}, false},
	}
	for i, c := range cases {
		if got := a.Intersects(c.b); got != c.want {
			t.Errorf("case %d: Intersects(%v) = %v, want %v", i, c.b, got, c.want)
		}
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 20, H: 20}
	if !r.Contains(Vec{X: 15, Y: 15}) {
		t.Fatal("interior point should be contained")
	}
	if r.Contains(Vec{X: 30, Y: 15}) {
		t.Fatal("right edge is exclusive")
	}
	if r.Contains(Vec{X: 5, Y: 15}) {
		t.Fatal("outside point must not be contained")
	}
}

func TestCenteredRect(t *testing.T) {
	r := CenteredRect(Vec{X: 100, Y: 50}, 16, 16)
	if r.X != 84 || r.Y != 34 || r.W != 32 || r.H != 32 {
		t.Fatalf("unexpected rect %+v", r)
	}
}

func TestRandPointRespectsMargin(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		p := RandPoint(rng, 1600, 900, 60)
		if p.X < 60 || p.X > 1540 || p.Y < 60 || p.Y > 840 {
			t.Fatalf("point %v outside margins", p)
		}
	}
}
