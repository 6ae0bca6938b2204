package game

import (
	"sync"
	"time"
)

// CommandRateLimiter enforces a minimum interval between repeats of a
// command per player. Used to keep use-power and chat spam from flooding a
// room. Server-authoritative timing.
type CommandRateLimiter struct {
	mu          sync.Mutex
	last        map[string]time.Time
	minInterval time.Duration
}

func NewCommandRateLimiter(minInterval time.Duration) *CommandRateLimiter {
	return &CommandRateLimiter{
		last:        make(map[string]time.Time),
		minInterval: minInterval,
	}
}

// Allow returns true when enough time has passed since the player's last
// accepted command of this kind. Key by "playerID:command".
func (rl *CommandRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if last, ok := rl.last[key]; ok && now.Sub(last) < rl.minInterval {
		return false
	}
	rl.last[key] = now
	return true
}

// Forget clears tracking for a player's keys (called on disconnect).
func (rl *CommandRateLimiter) Forget(keys ...string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for _, k := range keys {
		delete(rl.last, k)
	}
}
