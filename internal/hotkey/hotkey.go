// Package hotkey detects profile-independent button-mask gestures (tap,
// hold, release) used for system actions: profile switching, mode change,
// reboot. Hotkeys inspect the pre-profile button word, so remaps and combos
// never hide a hotkey chord from the detector.
package hotkey

// Trigger selects when a hotkey fires relative to its mask being held.
type Trigger int

const (
	TriggerOnHold Trigger = iota
	TriggerOnRelease
	TriggerOnTap
)

// Hotkey is one configured gesture.
type Hotkey struct {
	Mask       uint32
	Trigger    Trigger
	DurationMs uint32
	Global     bool
	Callback   func()
}

// perKeyState tracks one hotkey's hold timer for one player (or globally).
type perKeyState struct {
	holding     bool
	heldSinceMs uint64
	firedOnHold bool
}

// Manager tracks hotkey state per player plus a global (OR-across-players)
// variant, ticked once per scheduler pass.
type Manager struct {
	hotkeys []Hotkey

	perPlayer map[int]map[int]*perKeyState // player -> hotkey index -> state
	global    map[int]*perKeyState         // hotkey index -> state
}

// New returns a Manager configured with the given hotkeys.
func New(hotkeys []Hotkey) *Manager {
	m := &Manager{
		hotkeys:   hotkeys,
		perPlayer: make(map[int]map[int]*perKeyState),
		global:    make(map[int]*perKeyState),
	}
	for i := range hotkeys {
		m.global[i] = &perKeyState{}
	}
	return m
}

// Tick advances every hotkey's timer against nowMs and fires callbacks.
// playerButtons holds this tick's pre-profile button word per player slot;
// the global variant ORs across every entry and resets each call.
func (m *Manager) Tick(nowMs uint64, playerButtons map[int]uint32) {
	var globalOR uint32
	for _, b := range playerButtons {
		globalOR |= b
	}

	for i, hk := range m.hotkeys {
		for player, buttons := range playerButtons {
			states, ok := m.perPlayer[player]
			if !ok {
				states = make(map[int]*perKeyState)
				m.perPlayer[player] = states
			}
			st, ok := states[i]
			if !ok {
				st = &perKeyState{}
				states[i] = st
			}
			evaluate(hk, st, buttons&hk.Mask == hk.Mask, nowMs)
		}

		if hk.Global {
			evaluate(hk, m.global[i], globalOR&hk.Mask == hk.Mask, nowMs)
		}
	}
}

// evaluate runs one hotkey's state transition for a single (player or
// global) tracker.
func evaluate(hk Hotkey, st *perKeyState, held bool, nowMs uint64) {
	switch {
	case held && !st.holding:
		st.holding = true
		st.heldSinceMs = nowMs
		st.firedOnHold = false
	case !held && st.holding:
		heldMs := nowMs - st.heldSinceMs
		st.holding = false
		switch hk.Trigger {
		case TriggerOnRelease:
			if heldMs >= uint64(hk.DurationMs) {
				hk.Callback()
			}
		case TriggerOnTap:
			if heldMs < uint64(hk.DurationMs) {
				hk.Callback()
			}
		}
		return
	}

	if held && hk.Trigger == TriggerOnHold && !st.firedOnHold {
		if nowMs-st.heldSinceMs >= uint64(hk.DurationMs) {
			st.firedOnHold = true
			hk.Callback()
		}
	}
}
