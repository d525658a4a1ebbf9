// Package gcadapter emits a Nintendo GameCube USB adapter-compatible 37-byte
// interrupt IN report (id 0x21) covering 4 ports, and decodes the 4-byte OUT
// rumble report (id 0x11, one on/off bit per port). Modeled as a custom
// class driver owning both directions of a single interrupt pipe, since no
// single-pad output mode here targets a multi-port adapter shape.
package gcadapter

import (
	"sync"

	"github.com/retropad/corebridge/internal/output"
	"github.com/retropad/corebridge/internal/profile"
	"github.com/retropad/corebridge/internal/vocab"
)

const (
	numPorts  = 4
	reportLen = 1 + numPorts*9 // report id + 9 bytes per port
)

// Port status byte bits, as observed on a real adapter: bit2 means rumble
// hardware is present on this port, bit4 means a controller is connected.
const (
	statusRumbleAvailable byte = 0x04
	statusConnected       byte = 0x10
)

// Mode implements output.Mode for the 4-port GameCube adapter.
type Mode struct {
	mu        sync.Mutex
	ready     bool
	connected [numPorts]bool
	rumble    [numPorts]bool
	fbDirty   [numPorts]bool
}

func New() *Mode { return &Mode{} }

func (m *Mode) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = true
	m.connected = [numPorts]bool{}
	m.rumble = [numPorts]bool{}
	m.fbDirty = [numPorts]bool{}
	return nil
}

func (m *Mode) Ports() int { return numPorts }

func (m *Mode) IsReady(port int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return port >= 0 && port < numPorts && m.ready
}

// SendReport builds the full 37-byte report covering all 4 ports; only the
// addressed port's bytes are refreshed from out, the rest keep their last
// known state. First call for a port marks it connected, flipping its
// status byte from 0x04 to 0x14.
func (m *Mode) SendReport(port int, out profile.Output) ([]byte, bool) {
	if !m.IsReady(port) {
		return nil, false
	}

	m.mu.Lock()
	m.connected[port] = true
	m.mu.Unlock()

	rep := make([]byte, reportLen)
	rep[0] = 0x21

	m.mu.Lock()
	defer m.mu.Unlock()
	for p := 0; p < numPorts; p++ {
		base := 1 + p*9
		status := statusRumbleAvailable
		if m.connected[p] {
			status |= statusConnected
		}
		rep[base] = status
		if p != port {
			continue
		}

		b := out.Buttons
		var buttons1, buttons2 byte
		set := func(flag *byte, bit byte, pressed bool) {
			if pressed {
				*flag |= bit
			}
		}
		set(&buttons1, 1<<0, b&uint32(vocab.B1) != 0) // A
		set(&buttons1, 1<<1, b&uint32(vocab.B2) != 0) // B
		set(&buttons1, 1<<2, b&uint32(vocab.B3) != 0) // X
		set(&buttons1, 1<<3, b&uint32(vocab.B4) != 0) // Y
		set(&buttons1, 1<<4, b&uint32(vocab.DL) != 0)
		set(&buttons1, 1<<5, b&uint32(vocab.DR) != 0)
		set(&buttons1, 1<<6, b&uint32(vocab.DD) != 0)
		set(&buttons1, 1<<7, b&uint32(vocab.DU) != 0)

		set(&buttons2, 1<<0, b&uint32(vocab.S2) != 0) // start
		set(&buttons2, 1<<1, b&uint32(vocab.L2) != 0) // Z
		set(&buttons2, 1<<2, b&uint32(vocab.R1) != 0) // digital R
		set(&buttons2, 1<<3, b&uint32(vocab.L1) != 0) // digital L

		rep[base+1] = buttons1
		rep[base+2] = buttons2
		rep[base+3] = out.LX
		rep[base+4] = out.LY
		rep[base+5] = out.RX
		rep[base+6] = out.RY
		rep[base+7] = out.L2A
		rep[base+8] = out.R2A
	}

	return rep, true
}

// HandleOutput decodes the 4-byte rumble report (id 0x11): one byte per
// port, bit0 on/off.
func (m *Mode) HandleOutput(reportID byte, data []byte) {
	if len(data) < numPorts {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := 0; p < numPorts; p++ {
		m.rumble[p] = data[p]&0x01 != 0
		m.fbDirty[p] = true
	}
}

func (m *Mode) GetFeedback(port int) (output.Feedback, bool) {
	if port < 0 || port >= numPorts {
		return output.Feedback{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.fbDirty[port] {
		return output.Feedback{}, false
	}
	fb := output.Feedback{Dirty: true}
	if m.rumble[port] {
		fb.RumbleLeft = 0xFF
	}
	m.fbDirty[port] = false
	return fb, true
}
