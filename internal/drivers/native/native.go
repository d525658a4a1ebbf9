// Package native implements the native console controller family: wired
// pads that speak a console's own bit-banged polling protocol over the
// abstract transport.Raw collaborator rather than USB/BT HID. Each console
// gets its own Driver type sharing the same claim convention: a native port
// is statically wired at setup time, not auto-detected, so Match checks the
// Identity.Name tag the host integration assigns the port (e.g. "nes",
// "snes", "n64", "gamecube", "neogeo") rather than a vendor/product id.
package native

import (
	"context"
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

const maxPorts = 4

type portState struct{}

func newPortMap() map[registry.Source]*portState { return make(map[registry.Source]*portState) }

func claim(mu *sync.Mutex, conns map[registry.Source]*portState, conn *registry.Connection) bool {
	mu.Lock()
	defer mu.Unlock()
	if len(conns) >= maxPorts {
		return false
	}
	conns[registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}] = &portState{}
	return true
}

func release(mu *sync.Mutex, conns map[registry.Source]*portState, conn *registry.Connection) {
	mu.Lock()
	delete(conns, registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance})
	mu.Unlock()
}

func bound(mu *sync.Mutex, conns map[registry.Source]*portState, conn *registry.Connection) bool {
	mu.Lock()
	defer mu.Unlock()
	_, ok := conns[registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}]
	return ok
}

func emitNeutral(conn *registry.Connection) {
	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance
	conn.Sink.SubmitInput(e)
}

func applyHat4(nibble byte, e *event.Event) {
	up, down, left, right := nibble&0x01 != 0, nibble&0x02 != 0, nibble&0x04 != 0, nibble&0x08 != 0
	if up {
		e.Buttons |= uint32(vocab.DU)
	}
	if down {
		e.Buttons |= uint32(vocab.DD)
	}
	if left {
		e.Buttons |= uint32(vocab.DL)
	}
	if right {
		e.Buttons |= uint32(vocab.DR)
	}
}

// pollRequest is the byte the host's bit-bang layer sends on Task to latch
// and shift the controller's current state; every console family here uses
// a single opaque latch-and-clock byte since the actual bit-banging happens
// below transport.Raw.
var pollRequest = []byte{0x01}

func sendPoll(conn *registry.Connection) {
	_ = conn.Raw.Send(context.Background(), pollRequest)
}
