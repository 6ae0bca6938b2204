package room

import (
	"time"

	"github.com/gustavagren2/Outbreak/internal/geom"
)

// Phase is a room's top-level state.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseCountdown
	PhaseGame
	PhaseLeaderboard
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "LOBBY"
	case PhaseCountdown:
		return "COUNTDOWN"
	case PhaseGame:
		return "GAME"
	case PhaseLeaderboard:
		return "LEADERBOARD"
	default:
		return "UNKNOWN"
	}
}

// PowerType identifies one of the three collectible power-ups.
type PowerType string

const (
	PowerSpeed PowerType = "speed"
	PowerFlash PowerType = "flash"
	PowerSlime PowerType = "slime"
)

// Settings holds every tunable constant for a room. Defaults come from the
// original game; individual values can be overridden from configs/game.yaml.
type Settings struct {
	ArenaW     float64
	ArenaH     float64
	LobbyW     float64
	LobbyH     float64
	PlayerHalf float64 // half-extent of a player's bounding box

	BaseSpeed   float64 // px/s
	ContactDist float64 // infection radius, px

	TickInterval  time.Duration
	Countdown     time.Duration
	RoundDuration time.Duration
	BoardDuration time.Duration

	MinPlayers int
	MaxPlayers int

	SpawnSeparation float64 // min distance from patient zero at round start
	SpawnAttempts   int     // sampling budget before accepting the last candidate

	PowerSpawnEvery    time.Duration
	MaxPowerUps        int
	PickupDist         float64
	SpeedBoostMult     float64
	SpeedBoostDuration time.Duration
	FlashDistance      float64
	FlashStep          float64
	SlimeLong          float64 // zone extent along the dominant movement axis
	SlimeShort         float64
	SlimeMult          float64
	SlimeDuration      time.Duration

	WallCount      int
	WallMinLen     float64
	WallMaxLen     float64
	WallThickness  float64
	WallMargin     float64 // min distance from arena edges
	WallSeparation float64 // min gap between walls
	WallAttempts   int

	SurvivalWeight     int // points per survived second
	InfectionWeight    int // points per infection caused
	FullInfectionBonus int // patient zero bonus when everyone ends up infected

	LobbyAccel     float64 // px/s² while a direction is held
	LobbyMaxSpeed  float64 // px/s horizontal cap
	LobbyFriction  float64 // 1/s exponential decay rate when no key is held
	LobbyGravity   float64 // px/s² downward
	LobbyJumpSpeed float64 // px/s upward impulse
	LobbyFloor     float64 // ground line measured from the lobby top
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() Settings {
	return Settings{
		ArenaW:     1600,
		ArenaH:     900,
		LobbyW:     960,
		LobbyH:     540,
		PlayerHalf: 16,

		BaseSpeed:   180,
		ContactDist: 22,

		TickInterval:  50 * time.Millisecond,
		Countdown:     10 * time.Second,
		RoundDuration: 90 * time.Second,
		BoardDuration: 6 * time.Second,

		MinPlayers: 3,
		MaxPlayers: 12,

		SpawnSeparation: 300,
		SpawnAttempts:   24,

		PowerSpawnEvery:    5 * time.Second,
		MaxPowerUps:        4,
		PickupDist:         28,
		SpeedBoostMult:     1.6,
		SpeedBoostDuration: 4 * time.Second,
		FlashDistance:      220,
		FlashStep:          8,
		SlimeLong:          260,
		SlimeShort:         120,
		SlimeMult:          0.45,
		SlimeDuration:      6 * time.Second,

		WallCount:      8,
		WallMinLen:     120,
		WallMaxLen:     420,
		WallThickness:  24,
		WallMargin:     60,
		WallSeparation: 48,
		WallAttempts:   40,

		SurvivalWeight:     1,
		InfectionWeight:    25,
		FullInfectionBonus: 50,

		LobbyAccel:     900,
		LobbyMaxSpeed:  260,
		LobbyFriction:  8,
		LobbyGravity:   1400,
		LobbyJumpSpeed: 560,
		LobbyFloor:     500,
	}
}

// Wall is an axis-aligned obstacle, regenerated every round. Walls block
// movement and the flash teleport; the infection check deliberately ignores
// them (distance only).
type Wall struct {
	geom.Rect
}

// PowerUp is a live collectible instance.
type PowerUp struct {
	ID   string    `json:"id"`
	Type PowerType `json:"type"`
	Pos  geom.Vec  `json:"pos"`
}

// SlimeZone is a temporary slow area. Overlapping zones compound.
type SlimeZone struct {
	ID        string    `json:"id"`
	Rect      geom.Rect `json:"rect"`
	ExpiresAt time.Time `json:"-"`
}

// ArenaState is a player's round-scoped simulation state. Owned exclusively
// by the round tick.
type ArenaState struct {
	Pos     geom.Vec
	Intent  geom.Vec // unit-length or zero
	LastDir geom.Vec // last non-zero intent, kept for directional powers

	Infected    bool
	PatientZero bool
	BoostUntil  time.Time

	SurvivalMs       int64
	InfectionsCaused int
}

// LobbyState is a player's platformer state for the pre-game space. Owned
// exclusively by the lobby tick.
type LobbyState struct {
	Pos        geom.Vec
	Vel        geom.Vec
	FacingLeft bool
	Grounded   bool

	Left          bool
	Right         bool
	JumpRequested bool // edge-triggered; cleared every tick
}

// Inventory counts held power-up charges per type. Never negative.
type Inventory struct {
	Speed int `json:"speed"`
	Flash int `json:"flash"`
	Slime int `json:"slime"`
}

// Player is one connected participant.
type Player struct {
	ID       string
	Name     string
	Avatar   int
	Ready    bool
	JoinedAt time.Time

	Arena     ArenaState
	Lobby     LobbyState
	Inventory Inventory
}

// BoardRow is one leaderboard line for the current round.
type BoardRow struct {
	PlayerID    string `json:"id"`
	Name        string `json:"name"`
	Avatar      int    `json:"avatar"`
	RoundScore  int    `json:"roundScore"`
	TotalScore  int    `json:"totalScore"`
	PatientZero bool   `json:"patientZero"`
}
