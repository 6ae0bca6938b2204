package room

import (
	"math/rand"
	"sync"
)

// codeAlphabet omits easily confused characters (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLen = 4

// Manager handles room lifecycle — creation, lookup, teardown. It is the
// only registry of rooms in the process; rooms it no longer holds are dead.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	rng   *rand.Rand
}

func NewManager(rng *rand.Rand) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		rng:   rng,
	}
}

// Create allocates a room under a fresh join code.
func (m *Manager) Create(s Settings) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	var code string
	for {
		code = m.newCodeLocked()
		if _, taken := m.rooms[code]; !taken {
			break
		}
	}
	r := NewRoom(code, s)
	m.rooms[code] = r
	return r
}

func (m *Manager) newCodeLocked() string {
	b := make([]byte, codeLen)
	for i := range b {
		b[i] = codeAlphabet[m.rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}

func (m *Manager) Get(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[code]
	return r, ok
}

func (m *Manager) Remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, code)
}

// List returns all live rooms in no particular order.
func (m *Manager) List() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
