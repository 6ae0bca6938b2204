package game

import (
	"math"

	"github.com/gustavagren2/Outbreak/internal/geom"
	"github.com/gustavagren2/Outbreak/internal/room"
)

// StepLobby advances the platformer physics for the social pre-game space.
// Horizontal: acceleration toward a capped max speed while a key is held,
// exponential friction toward zero otherwise (clamped so it never overshoots
// past zero). Vertical: constant gravity, a single impulse per edge-triggered
// jump request, flat floor. Runs only while the room is in LOBBY.
func StepLobby(players []*room.Player, s room.Settings, dt float64) {
	for _, p := range players {
		l := &p.Lobby

		switch {
		case l.Left && !l.Right:
			l.Vel.X -= s.LobbyAccel * dt
			l.FacingLeft = true
		case l.Right && !l.Left:
			l.Vel.X += s.LobbyAccel * dt
			l.FacingLeft = false
		default:
			decay := s.LobbyFriction * dt
			if decay > 1 {
				decay = 1
			}
			l.Vel.X -= l.Vel.X * decay
			if math.Abs(l.Vel.X) < 1 {
				l.Vel.X = 0
			}
		}
		l.Vel.X = geom.Clamp(l.Vel.X, -s.LobbyMaxSpeed, s.LobbyMaxSpeed)

		// The request flag is consumed every tick whether or not the jump
		// fires, so holding the key cannot bounce the player repeatedly.
		if l.JumpRequested && l.Grounded {
			l.Vel.Y = -s.LobbyJumpSpeed
			l.Grounded = false
		}
		l.JumpRequested = false

		l.Vel.Y += s.LobbyGravity * dt

		l.Pos.X = geom.Clamp(l.Pos.X+l.Vel.X*dt, s.PlayerHalf, s.LobbyW-s.PlayerHalf)
		l.Pos.Y += l.Vel.Y * dt
		if l.Pos.Y >= s.LobbyFloor {
			l.Pos.Y = s.LobbyFloor
			l.Vel.Y = 0
			l.Grounded = true
		}
	}
}

// SetLobbyIntent stores held-direction flags and latches a jump request.
// The jump flag is only raised here, never lowered: a request that arrives
// between ticks survives until the next tick consumes it.
func SetLobbyIntent(p *room.Player, left, right, jump bool) {
	p.Lobby.Left = left
	p.Lobby.Right = right
	if jump {
		p.Lobby.JumpRequested = true
	}
}
