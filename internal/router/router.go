// Package router is the fan-in/fan-out hub between device drivers and
// output modes: it assigns player slots, runs the profile transform, stores
// the result in the output's slot and, for an output registered with a tap
// callback, also invokes that callback synchronously, before submit_input
// returns.
package router

import (
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/player"
	"github.com/retropad/corebridge/internal/profile"
)

// OutputTarget names a destination output mode instance (e.g. "xinput:0",
// "gcadapter:2").
type OutputTarget string

// MergeMode selects how multiple input sources routed to one output combine.
type MergeMode int

const (
	MergeNone MergeMode = iota // simple 1:1, no merge
	MergeOR                    // buttons ORed, most-recent non-center axis wins
)

// TapFunc is an output's exclusive push callback; it runs synchronously in
// the submitting driver's call stack.
type TapFunc func(player int, out profile.Output)

type route struct {
	target OutputTarget
	merge  MergeMode
}

type outputSlot struct {
	out         profile.Output
	rawButtons  uint32 // pre-profile buttons, for hotkey detectors
	occupied    bool
}

type outputState struct {
	tap   TapFunc // non-nil means this output is tap-driven, not polled
	slots map[int]*outputSlot
	profiles map[int]*profile.Profile
	socd  map[int]*profile.SOCDState
}

// Router is the fan-in hub. One Router instance owns all routing for the
// whole device; per-output state is keyed by OutputTarget.
type Router struct {
	mu sync.Mutex

	players *player.Manager
	routes  map[event.Source]route
	outputs map[OutputTarget]*outputState
}

// New returns an empty Router bound to the given player manager.
func New(players *player.Manager) *Router {
	return &Router{
		players: players,
		routes:  make(map[event.Source]route),
		outputs: make(map[OutputTarget]*outputState),
	}
}

// RegisterOutput declares an output target. tap, if non-nil, makes the
// output exclusive-push (e.g. GPIO); otherwise it is polled via
// GetOutputState.
func (r *Router) RegisterOutput(target OutputTarget, tap TapFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[target] = &outputState{
		tap:      tap,
		slots:    make(map[int]*outputSlot),
		profiles: make(map[int]*profile.Profile),
		socd:     make(map[int]*profile.SOCDState),
	}
}

// AddRoute binds an input source to an output target with a given merge
// mode. pinOrPort is accepted for future port-pinning but unused by the
// merge logic itself.
func (r *Router) AddRoute(src event.Source, target OutputTarget, merge MergeMode, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[src] = route{target: target, merge: merge}
}

// SetProfile assigns the active profile for a player slot on a given output.
func (r *Router) SetProfile(target OutputTarget, slot int, p *profile.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	os, ok := r.outputs[target]
	if !ok {
		return
	}
	os.profiles[slot] = p
}

// SubmitInput is called by every driver with a freshly decoded event.
// Synchronously: assigns a player slot (if unassigned), applies the active
// profile transform, stores the result in the output's slot, and for a
// tap-driven output also invokes the tap callback before returning.
func (r *Router) SubmitInput(e event.Event) {
	src := event.SourceOf(&e)

	r.mu.Lock()
	rt, hasRoute := r.routes[src]
	if !hasRoute {
		r.mu.Unlock()
		return
	}
	os, ok := r.outputs[rt.target]
	if !ok {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	slot, assigned := r.players.Assign(src, e.Buttons)
	if !assigned {
		return
	}

	r.mu.Lock()
	p := os.profiles[slot]
	if p == nil {
		p = &profile.Profile{}
	}
	st, ok := os.socd[slot]
	if !ok {
		st = &profile.SOCDState{}
		os.socd[slot] = st
	}
	r.mu.Unlock()

	out, rawButtons := profile.Apply(p, &e, st)

	r.mu.Lock()
	if rt.merge == MergeOR {
		if existing, ok := os.slots[slot]; ok && existing.occupied {
			out = mergeOutputs(existing.out, out)
		}
	}
	slotRef, ok := os.slots[slot]
	if !ok {
		slotRef = &outputSlot{}
		os.slots[slot] = slotRef
	}
	slotRef.out = out
	slotRef.rawButtons = rawButtons
	slotRef.occupied = true
	tap := os.tap
	r.mu.Unlock()

	if tap != nil {
		tap(slot, out)
	}
}

// mergeOutputs ORs buttons and keeps the most-recent non-center axis value,
// the fan-in merge rule for multiple sources routed to one output.
func mergeOutputs(prev, next profile.Output) profile.Output {
	merged := next
	merged.Buttons = prev.Buttons | next.Buttons
	merged.LX = pickNonCenter(prev.LX, next.LX, 128)
	merged.LY = pickNonCenter(prev.LY, next.LY, 128)
	merged.RX = pickNonCenter(prev.RX, next.RX, 128)
	merged.RY = pickNonCenter(prev.RY, next.RY, 128)
	return merged
}

func pickNonCenter(prev, next, center uint8) uint8 {
	if next != center {
		return next
	}
	return prev
}

// DeviceDisconnected clears stored output state for src and releases its
// player slot.
func (r *Router) DeviceDisconnected(src event.Source) {
	r.mu.Lock()
	rt, hasRoute := r.routes[src]
	delete(r.routes, src)
	r.mu.Unlock()

	slot, assigned := r.players.Slot(src)
	r.players.RemovePlayer(src.DeviceAddr)

	if !hasRoute || !assigned {
		return
	}
	r.mu.Lock()
	if os, ok := r.outputs[rt.target]; ok {
		delete(os.slots, slot)
		delete(os.socd, slot)
	}
	r.mu.Unlock()
}

// GetPlayerCount returns the number of players currently routed.
func (r *Router) GetPlayerCount() int {
	return r.players.Count()
}

// GetOutputState returns the last profile output stored for (target, slot).
func (r *Router) GetOutputState(target OutputTarget, slot int) (profile.Output, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	os, ok := r.outputs[target]
	if !ok {
		return profile.Output{}, false
	}
	s, ok := os.slots[slot]
	if !ok || !s.occupied {
		return profile.Output{}, false
	}
	return s.out, true
}

// RawButtons returns the pre-profile button word last submitted for
// (target, slot), for hotkey detectors that must see raw input rather than
// a remapped/combo'd result.
func (r *Router) RawButtons(target OutputTarget, slot int) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	os, ok := r.outputs[target]
	if !ok {
		return 0, false
	}
	s, ok := os.slots[slot]
	if !ok || !s.occupied {
		return 0, false
	}
	return s.rawButtons, true
}

// OutputTargets returns every registered output target (for diagnostics
// and for a scheduler stage that polls all of them each tick).
func (r *Router) OutputTargets() []OutputTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OutputTarget, 0, len(r.outputs))
	for t := range r.outputs {
		out = append(out, t)
	}
	return out
}
