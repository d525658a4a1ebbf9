// Package player assigns physical connections to player slots. Fixed mode
// keeps a slot for the lifetime of its connection order; dynamic mode
// compacts the slot list on disconnect so there are never gaps between
// slot 0 and the highest occupied slot.
package player

import (
	"sync"

	"github.com/retropad/corebridge/internal/event"
)

// Mode selects how slots are assigned and released.
type Mode int

const (
	ModeFixed Mode = iota
	ModeDynamic
)

// MaxPlayers is the highest number of simultaneous player slots allowed
// (slot 0..6).
const MaxPlayers = 7

const maxPlayers = MaxPlayers

// Manager tracks which physical connection occupies which player slot.
type Manager struct {
	mu                sync.Mutex
	mode              Mode
	autoAssignOnPress bool
	slots             []event.Source // index = slot; zero-value Source means empty
	occupied          []bool
}

// New returns a Manager with maxPlayers empty slots.
func New(mode Mode, autoAssignOnPress bool) *Manager {
	return &Manager{
		mode:              mode,
		autoAssignOnPress: autoAssignOnPress,
		slots:             make([]event.Source, maxPlayers),
		occupied:          make([]bool, maxPlayers),
	}
}

// slotOf returns the slot index currently bound to src, or -1.
func (m *Manager) slotOf(src event.Source) int {
	for i, occ := range m.occupied {
		if occ && m.slots[i] == src {
			return i
		}
	}
	return -1
}

func (m *Manager) firstFree() int {
	for i, occ := range m.occupied {
		if !occ {
			return i
		}
	}
	return -1
}

// Assign returns the player slot for src, assigning one if src is
// unbound and (auto-assign is off, or buttons is non-zero). Returns
// ok=false if src remains unassigned (auto-assign deferred, or no slot
// free).
func (m *Manager) Assign(src event.Source, buttons uint32) (slot int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.slotOf(src); i >= 0 {
		return i, true
	}
	if m.autoAssignOnPress && buttons == 0 {
		return 0, false
	}
	i := m.firstFree()
	if i < 0 {
		return 0, false
	}
	m.slots[i] = src
	m.occupied[i] = true
	return i, true
}

// Slot reports the slot src currently occupies, without assigning one.
func (m *Manager) Slot(src event.Source) (slot int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.slotOf(src)
	if i < 0 {
		return 0, false
	}
	return i, true
}

// RemovePlayer releases every slot bound to a connection from addr,
// regardless of instance. Idempotent: calling it with no matching slot is a
// no-op. In dynamic mode, remaining occupied slots are compacted downward
// so there is never a gap below the highest occupied index.
func (m *Manager) RemovePlayer(addr byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := false
	for i, occ := range m.occupied {
		if occ && m.slots[i].DeviceAddr == addr {
			m.occupied[i] = false
			m.slots[i] = event.Source{}
			removed = true
		}
	}
	if !removed || m.mode != ModeDynamic {
		return
	}
	m.compact()
}

func (m *Manager) compact() {
	write := 0
	for read := 0; read < len(m.occupied); read++ {
		if !m.occupied[read] {
			continue
		}
		if write != read {
			m.slots[write] = m.slots[read]
			m.occupied[write] = true
			m.occupied[read] = false
			m.slots[read] = event.Source{}
		}
		write++
	}
}

// Count returns the number of currently occupied slots.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, occ := range m.occupied {
		if occ {
			n++
		}
	}
	return n
}
