package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gustavagren2/Outbreak/internal/room"
)

// Tuning is the YAML-facing shape of room.Settings. Durations are expressed
// in milliseconds. The file only needs the keys it wants to override; the
// loader pre-fills everything from the defaults before unmarshalling.
type Tuning struct {
	Arena struct {
		W          float64 `yaml:"w"`
		H          float64 `yaml:"h"`
		PlayerHalf float64 `yaml:"player_half"`
	} `yaml:"arena"`

	Movement struct {
		BaseSpeed   float64 `yaml:"base_speed"`
		ContactDist float64 `yaml:"contact_dist"`
	} `yaml:"movement"`

	Timers struct {
		TickMs      int `yaml:"tick_ms"`
		CountdownMs int `yaml:"countdown_ms"`
		RoundMs     int `yaml:"round_ms"`
		BoardMs     int `yaml:"board_ms"`
	} `yaml:"timers"`

	Roster struct {
		MinPlayers      int     `yaml:"min_players"`
		MaxPlayers      int     `yaml:"max_players"`
		SpawnSeparation float64 `yaml:"spawn_separation"`
		SpawnAttempts   int     `yaml:"spawn_attempts"`
	} `yaml:"roster"`

	PowerUps struct {
		SpawnEveryMs  int     `yaml:"spawn_every_ms"`
		MaxLive       int     `yaml:"max_live"`
		PickupDist    float64 `yaml:"pickup_dist"`
		SpeedMult     float64 `yaml:"speed_mult"`
		SpeedMs       int     `yaml:"speed_ms"`
		FlashDistance float64 `yaml:"flash_distance"`
		FlashStep     float64 `yaml:"flash_step"`
		SlimeLong     float64 `yaml:"slime_long"`
		SlimeShort    float64 `yaml:"slime_short"`
		SlimeMult     float64 `yaml:"slime_mult"`
		SlimeMs       int     `yaml:"slime_ms"`
	} `yaml:"powerups"`

	Walls struct {
		Count      int     `yaml:"count"`
		MinLen     float64 `yaml:"min_len"`
		MaxLen     float64 `yaml:"max_len"`
		Thickness  float64 `yaml:"thickness"`
		Margin     float64 `yaml:"margin"`
		Separation float64 `yaml:"separation"`
		Attempts   int     `yaml:"attempts"`
	} `yaml:"walls"`

	Scoring struct {
		SurvivalWeight     int `yaml:"survival_weight"`
		InfectionWeight    int `yaml:"infection_weight"`
		FullInfectionBonus int `yaml:"full_infection_bonus"`
	} `yaml:"scoring"`

	Lobby struct {
		W         float64 `yaml:"w"`
		H         float64 `yaml:"h"`
		Accel     float64 `yaml:"accel"`
		MaxSpeed  float64 `yaml:"max_speed"`
		Friction  float64 `yaml:"friction"`
		Gravity   float64 `yaml:"gravity"`
		JumpSpeed float64 `yaml:"jump_speed"`
		Floor     float64 `yaml:"floor"`
	} `yaml:"lobby"`
}

func fromSettings(s room.Settings) Tuning {
	var t Tuning
	t.Arena.W, t.Arena.H, t.Arena.PlayerHalf = s.ArenaW, s.ArenaH, s.PlayerHalf
	t.Movement.BaseSpeed, t.Movement.ContactDist = s.BaseSpeed, s.ContactDist
	t.Timers.TickMs = int(s.TickInterval / time.Millisecond)
	t.Timers.CountdownMs = int(s.Countdown / time.Millisecond)
	t.Timers.RoundMs = int(s.RoundDuration / time.Millisecond)
	t.Timers.BoardMs = int(s.BoardDuration / time.Millisecond)
	t.Roster.MinPlayers, t.Roster.MaxPlayers = s.MinPlayers, s.MaxPlayers
	t.Roster.SpawnSeparation, t.Roster.SpawnAttempts = s.SpawnSeparation, s.SpawnAttempts
	t.PowerUps.SpawnEveryMs = int(s.PowerSpawnEvery / time.Millisecond)
	t.PowerUps.MaxLive = s.MaxPowerUps
	t.PowerUps.PickupDist = s.PickupDist
	t.PowerUps.SpeedMult = s.SpeedBoostMult
	t.PowerUps.SpeedMs = int(s.SpeedBoostDuration / time.Millisecond)
	t.PowerUps.FlashDistance, t.PowerUps.FlashStep = s.FlashDistance, s.FlashStep
	t.PowerUps.SlimeLong, t.PowerUps.SlimeShort = s.SlimeLong, s.SlimeShort
	t.PowerUps.SlimeMult = s.SlimeMult
	t.PowerUps.SlimeMs = int(s.SlimeDuration / time.Millisecond)
	t.Walls.Count = s.WallCount
	t.Walls.MinLen, t.Walls.MaxLen = s.WallMinLen, s.WallMaxLen
	t.Walls.Thickness, t.Walls.Margin = s.WallThickness, s.WallMargin
	t.Walls.Separation, t.Walls.Attempts = s.WallSeparation, s.WallAttempts
	t.Scoring.SurvivalWeight = s.SurvivalWeight
	t.Scoring.InfectionWeight = s.InfectionWeight
	t.Scoring.FullInfectionBonus = s.FullInfectionBonus
	t.Lobby.W, t.Lobby.H = s.LobbyW, s.LobbyH
	t.Lobby.Accel, t.Lobby.MaxSpeed = s.LobbyAccel, s.LobbyMaxSpeed
	t.Lobby.Friction, t.Lobby.Gravity = s.LobbyFriction, s.LobbyGravity
	t.Lobby.JumpSpeed, t.Lobby.Floor = s.LobbyJumpSpeed, s.LobbyFloor
	return t
}

func (t Tuning) toSettings() room.Settings {
	s := room.Settings{
		ArenaW:     t.Arena.W,
		ArenaH:     t.Arena.H,
		PlayerHalf: t.Arena.PlayerHalf,

		BaseSpeed:   t.Movement.BaseSpeed,
		ContactDist: t.Movement.ContactDist,

		TickInterval:  time.Duration(t.Timers.TickMs) * time.Millisecond,
		Countdown:     time.Duration(t.Timers.CountdownMs) * time.Millisecond,
		RoundDuration: time.Duration(t.Timers.RoundMs) * time.Millisecond,
		BoardDuration: time.Duration(t.Timers.BoardMs) * time.Millisecond,

		MinPlayers:      t.Roster.MinPlayers,
		MaxPlayers:      t.Roster.MaxPlayers,
		SpawnSeparation: t.Roster.SpawnSeparation,
		SpawnAttempts:   t.Roster.SpawnAttempts,

		PowerSpawnEvery:    time.Duration(t.PowerUps.SpawnEveryMs) * time.Millisecond,
		MaxPowerUps:        t.PowerUps.MaxLive,
		PickupDist:         t.PowerUps.PickupDist,
		SpeedBoostMult:     t.PowerUps.SpeedMult,
		SpeedBoostDuration: time.Duration(t.PowerUps.SpeedMs) * time.Millisecond,
		FlashDistance:      t.PowerUps.FlashDistance,
		FlashStep:          t.PowerUps.FlashStep,
		SlimeLong:          t.PowerUps.SlimeLong,
		SlimeShort:         t.PowerUps.SlimeShort,
		SlimeMult:          t.PowerUps.SlimeMult,
		SlimeDuration:      time.Duration(t.PowerUps.SlimeMs) * time.Millisecond,

		WallCount:      t.Walls.Count,
		WallMinLen:     t.Walls.MinLen,
		WallMaxLen:     t.Walls.MaxLen,
		WallThickness:  t.Walls.Thickness,
		WallMargin:     t.Walls.Margin,
		WallSeparation: t.Walls.Separation,
		WallAttempts:   t.Walls.Attempts,

		SurvivalWeight:     t.Scoring.SurvivalWeight,
		InfectionWeight:    t.Scoring.InfectionWeight,
		FullInfectionBonus: t.Scoring.FullInfectionBonus,

		LobbyW:         t.Lobby.W,
		LobbyH:         t.Lobby.H,
		LobbyAccel:     t.Lobby.Accel,
		LobbyMaxSpeed:  t.Lobby.MaxSpeed,
		LobbyFriction:  t.Lobby.Friction,
		LobbyGravity:   t.Lobby.Gravity,
		LobbyJumpSpeed: t.Lobby.JumpSpeed,
		LobbyFloor:     t.Lobby.Floor,
	}
	return s
}

// LoadSettings returns the game tuning. Search order: customPath (when set,
// must exist) -> ./configs/game.yaml -> built-in defaults. Overrides are
// partial: any key missing from the file keeps its default.
func LoadSettings(customPath string) (room.Settings, error) {
	base := fromSettings(room.DefaultSettings())

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return room.Settings{}, fmt.Errorf("read tuning %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &base); err != nil {
			return room.Settings{}, fmt.Errorf("parse tuning %s: %w", customPath, err)
		}
		return base.toSettings(), nil
	}

	if data, err := os.ReadFile("configs/game.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &base); err != nil {
			return room.Settings{}, fmt.Errorf("parse tuning configs/game.yaml: %w", err)
		}
	}
	return base.toSettings(), nil
}
