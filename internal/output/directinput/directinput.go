// Package directinput emits a generic PC joystick HID report shaped to match
// what internal/drivers/generichid decodes on the input side: 4 analog
// axes, a 4-bit hat switch, and a button bitfield ordered the same way as
// generichid's buttonMapGE10 table (inverted here, vocab.Button to index,
// since this package writes reports instead of reading them).
package directinput

import (
	"sync"

	"github.com/retropad/corebridge/internal/output"
	"github.com/retropad/corebridge/internal/profile"
	"github.com/retropad/corebridge/internal/vocab"
)

const reportLen = 7

// hat switch values: 0..7 clockwise from up, 8 = centered (no direction).
const hatCentered = 8

// buttonIndex is the inverse of generichid's buttonMapGE10: canonical
// button to 1-indexed HID button position.
var buttonIndex = map[vocab.Button]int{
	vocab.B3: 1, vocab.B1: 2, vocab.B2: 3, vocab.B4: 4,
	vocab.L1: 5, vocab.R1: 6, vocab.L2: 7, vocab.R2: 8,
	vocab.S1: 9, vocab.S2: 10, vocab.L3: 11, vocab.R3: 12,
}

// Mode implements output.Mode for a single generic DirectInput-style port.
// It has no force-feedback output report; GetFeedback never reports dirty.
type Mode struct {
	mu    sync.Mutex
	ready bool
}

func New() *Mode { return &Mode{} }

func (m *Mode) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = true
	return nil
}

func (m *Mode) Ports() int { return 1 }

func (m *Mode) IsReady(port int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return port == 0 && m.ready
}

// SendReport builds a 7-byte report:
//
//	0: X axis (LX)   1: Y axis (LY)   2: Z axis (RX)   3: Rz axis (RY)
//	4: hat switch (low nibble, 0..7 clockwise from up, 8 centered)
//	5-6: button bitfield, bit (index-1) per buttonIndex
func (m *Mode) SendReport(port int, out profile.Output) ([]byte, bool) {
	if port != 0 || !m.IsReady(port) {
		return nil, false
	}

	rep := make([]byte, reportLen)
	rep[0] = out.LX
	rep[1] = out.LY
	rep[2] = out.RX
	rep[3] = out.RY
	rep[4] = hatFromDpad(out.Buttons)

	var buttons uint16
	for btn, idx := range buttonIndex {
		if out.Buttons&uint32(btn) != 0 {
			buttons |= 1 << uint(idx-1)
		}
	}
	rep[5] = byte(buttons)
	rep[6] = byte(buttons >> 8)

	return rep, true
}

// hatFromDpad collapses the four canonical dpad bits into a single 8-way
// hat switch value, clockwise from up, matching generichid's usageHat field.
func hatFromDpad(buttons uint32) byte {
	up := buttons&uint32(vocab.DU) != 0
	down := buttons&uint32(vocab.DD) != 0
	left := buttons&uint32(vocab.DL) != 0
	right := buttons&uint32(vocab.DR) != 0

	switch {
	case up && right:
		return 1
	case down && right:
		return 3
	case down && left:
		return 5
	case up && left:
		return 7
	case up:
		return 0
	case right:
		return 2
	case down:
		return 4
	case left:
		return 6
	default:
		return hatCentered
	}
}

// HandleOutput is a no-op: this mode has no force-feedback output report.
func (m *Mode) HandleOutput(reportID byte, data []byte) {}

func (m *Mode) GetFeedback(port int) (output.Feedback, bool) {
	return output.Feedback{}, false
}
