// Package switchpad emits a Switch Pro Controller-compatible standard input
// report (report ID 0x30) and decodes its rumble/home-LED output report.
// Built as a fixed-size byte slice assembled field-by-field with a little
// helper per field width, mirroring internal/drivers/switch2's packed-12-bit
// stick encoding in the opposite direction (encode instead of decode) so a
// Switch 2 Pro controller's analog range matches what this output emits.
package switchpad

import (
	"sync"

	"github.com/retropad/corebridge/internal/output"
	"github.com/retropad/corebridge/internal/profile"
	"github.com/retropad/corebridge/internal/vocab"
)

const reportLen = 49

// stickCenter12 is the neutral value for a 12-bit packed stick axis.
const stickCenter12 = 2048

// stickRange12 is the maximum deviation from center a fully-deflected
// 8-bit canonical axis maps to.
const stickRange12 = 1800

// Mode implements output.Mode for a single Switch Pro Controller port.
type Mode struct {
	mu    sync.Mutex
	ready bool
	fb    output.Feedback
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

// SendReport builds the 49-byte standard input report:
//
//	 0: report id 0x30
//	 1: timer (unused, 0)
//	 2: battery/connection status (unused, 0)
//	 3: right button group (Y,X,B,A,_,_,R,ZR)
//	 4: shared button group (minus,plus,Rstick,Lstick,home,capture)
//	 5: left button group (down,up,right,left,_,_,L,ZL)
//	 6-8: left stick, two 12-bit values packed into 3 bytes
//	 9-11: right stick, packed the same way
//	12: vibrator input report echo (unused, 0)
//	13-48: IMU data (unused, zero-filled — this mode has no gyro source)
func (m *Mode) SendReport(port int, out profile.Output) ([]byte, bool) {
	if port != 0 || !m.IsReady(port) {
		return nil, false
	}

	b := out.Buttons
	var right, shared, left byte
	set := func(flag *byte, bit byte, pressed bool) {
		if pressed {
			*flag |= bit
		}
	}
	set(&right, 1<<0, b&uint32(vocab.B4) != 0) // Y
	set(&right, 1<<1, b&uint32(vocab.B3) != 0) // X
	set(&right, 1<<2, b&uint32(vocab.B2) != 0) // B
	set(&right, 1<<3, b&uint32(vocab.B1) != 0) // A
	set(&right, 1<<6, b&uint32(vocab.R1) != 0)
	set(&right, 1<<7, b&uint32(vocab.R2) != 0)

	set(&shared, 1<<0, b&uint32(vocab.S1) != 0) // minus
	set(&shared, 1<<1, b&uint32(vocab.S2) != 0) // plus
	set(&shared, 1<<2, b&uint32(vocab.R3) != 0)
	set(&shared, 1<<3, b&uint32(vocab.L3) != 0)
	set(&shared, 1<<4, b&uint32(vocab.A1) != 0) // home
	set(&shared, 1<<5, b&uint32(vocab.A2) != 0) // capture

	set(&left, 1<<0, b&uint32(vocab.DD) != 0)
	set(&left, 1<<1, b&uint32(vocab.DU) != 0)
	set(&left, 1<<2, b&uint32(vocab.DR) != 0)
	set(&left, 1<<3, b&uint32(vocab.DL) != 0)
	set(&left, 1<<6, b&uint32(vocab.L1) != 0)
	set(&left, 1<<7, b&uint32(vocab.L2) != 0)

	rep := make([]byte, reportLen)
	rep[0] = 0x30
	rep[3] = right
	rep[4] = shared
	rep[5] = left

	writePacked12(rep[6:9], scaleTo12(out.LX), scaleTo12(out.LY))
	writePacked12(rep[9:12], scaleTo12(out.RX), scaleTo12(out.RY))

	return rep, true
}

// scaleTo12 rescales an 8-bit 128-centered canonical axis to a 12-bit
// stick value centered on stickCenter12.
func scaleTo12(v uint8) uint16 {
	centered := int(v) - int(vocab.StickCenter)
	scaled := stickCenter12 + centered*stickRange12/127
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 0xFFF {
		scaled = 0xFFF
	}
	return uint16(scaled)
}

// writePacked12 packs two 12-bit values into 3 bytes, little-endian,
// mirroring internal/drivers/switch2's readPacked12 in the decode
// direction: low 12 bits of the first 16-bit word hold x, the remaining 4
// bits plus the next byte hold y.
func writePacked12(dst []byte, x, y uint16) {
	x &= 0xFFF
	y &= 0xFFF
	dst[0] = byte(x)
	dst[1] = byte(x>>8) | byte(y<<4)
	dst[2] = byte(y >> 4)
}

// HandleOutput decodes a rumble/home-LED output report: two 4-byte
// Left/Right HD rumble vectors (we only look at the amplitude high bytes)
// followed by a single home-LED byte.
func (m *Mode) HandleOutput(reportID byte, data []byte) {
	if len(data) < 9 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fb = output.Feedback{RumbleLeft: data[1], RumbleRight: data[5], LEDPattern: data[8], Dirty: true}
}

func (m *Mode) GetFeedback(port int) (output.Feedback, bool) {
	if port != 0 {
		return output.Feedback{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.fb.Dirty {
		return output.Feedback{}, false
	}
	fb := m.fb
	m.fb.Dirty = false
	return fb, true
}
