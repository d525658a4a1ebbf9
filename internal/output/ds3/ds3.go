// Package ds3 emits the PS3 DualShock 3's 49-byte interrupt IN report and
// decodes its rumble/LED feature report: same MarshalBinary/UnmarshalBinary
// report-builder shape and button-field layout idea as a DualShock 4 pad,
// but rebuilt to the DS3 wire shape: 12 analog pressure bytes and
// big-endian 10-bit SIXAXIS accelerometer fields, which DS4 doesn't have.
package ds3

import (
	"encoding/binary"
	"sync"

	"github.com/retropad/corebridge/internal/output"
	"github.com/retropad/corebridge/internal/profile"
	"github.com/retropad/corebridge/internal/vocab"
)

const reportLen = 49

// SIXAXIS fields are emitted big-endian, 10-bit range (0..1023), centered
// at sixaxisCenter since this mode never reads a real accelerometer.
const sixaxisCenter = 512

// Mode implements output.Mode for a single DS3 port.
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

// SendReport builds the 49-byte DS3 report:
//
//	 0: report id 0x01
//	 1: reserved
//	 2: buttons1 (select,L3,R3,start,up,right,down,left)
//	 3: buttons2 (L2,R2,L1,R1,triangle,circle,cross,square)
//	 4: bit0 = PS button
//	 5: reserved
//	 6: LX  7: LY  8: RX  9: RY
//	10-13: reserved
//	14-25: 12 pressure bytes (up,right,down,left,L2,R2,L1,R1,triangle,circle,cross,square)
//	26-40: reserved/status
//	41-48: SIXAXIS accelX,accelY,accelZ,gyroZ, big-endian 10-bit each in a uint16
func (m *Mode) SendReport(port int, out profile.Output) ([]byte, bool) {
	if port != 0 || !m.IsReady(port) {
		return nil, false
	}

	b := out.Buttons
	var buttons1, buttons2, buttons3 byte
	set := func(flag *byte, bit byte, pressed bool) {
		if pressed {
			*flag |= bit
		}
	}
	set(&buttons1, 1<<0, b&uint32(vocab.S1) != 0)
	set(&buttons1, 1<<1, b&uint32(vocab.L3) != 0)
	set(&buttons1, 1<<2, b&uint32(vocab.R3) != 0)
	set(&buttons1, 1<<3, b&uint32(vocab.S2) != 0)
	set(&buttons1, 1<<4, b&uint32(vocab.DU) != 0)
	set(&buttons1, 1<<5, b&uint32(vocab.DR) != 0)
	set(&buttons1, 1<<6, b&uint32(vocab.DD) != 0)
	set(&buttons1, 1<<7, b&uint32(vocab.DL) != 0)

	set(&buttons2, 1<<0, b&uint32(vocab.L2) != 0)
	set(&buttons2, 1<<1, b&uint32(vocab.R2) != 0)
	set(&buttons2, 1<<2, b&uint32(vocab.L1) != 0)
	set(&buttons2, 1<<3, b&uint32(vocab.R1) != 0)
	set(&buttons2, 1<<4, b&uint32(vocab.B4) != 0) // triangle
	set(&buttons2, 1<<5, b&uint32(vocab.B2) != 0) // circle
	set(&buttons2, 1<<6, b&uint32(vocab.B1) != 0) // cross
	set(&buttons2, 1<<7, b&uint32(vocab.B3) != 0) // square

	set(&buttons3, 1<<0, b&uint32(vocab.A1) != 0) // PS button

	rep := make([]byte, reportLen)
	rep[0] = 0x01
	rep[2] = buttons1
	rep[3] = buttons2
	rep[4] = buttons3
	rep[6] = out.LX
	rep[7] = out.LY
	rep[8] = out.RX
	rep[9] = out.RY

	pressure := func(pressed bool) byte {
		if pressed {
			return 0xFF
		}
		return 0x00
	}
	rep[14] = pressure(b&uint32(vocab.DU) != 0)
	rep[15] = pressure(b&uint32(vocab.DR) != 0)
	rep[16] = pressure(b&uint32(vocab.DD) != 0)
	rep[17] = pressure(b&uint32(vocab.DL) != 0)
	rep[18] = out.L2A
	rep[19] = out.R2A
	rep[20] = pressure(b&uint32(vocab.L1) != 0)
	rep[21] = pressure(b&uint32(vocab.R1) != 0)
	rep[22] = pressure(b&uint32(vocab.B4) != 0)
	rep[23] = pressure(b&uint32(vocab.B2) != 0)
	rep[24] = pressure(b&uint32(vocab.B1) != 0)
	rep[25] = pressure(b&uint32(vocab.B3) != 0)

	putBE10 := func(off int, v uint16) {
		binary.BigEndian.PutUint16(rep[off:off+2], v&0x03FF)
	}
	putBE10(41, sixaxisCenter)
	putBE10(43, sixaxisCenter)
	putBE10(45, sixaxisCenter)
	putBE10(47, sixaxisCenter)

	return rep, true
}

// HandleOutput decodes the DS3 rumble/LED feature report: small motor,
// large motor, then LED byte (single-byte bitmask, player 1..4 encoded as
// bit position for the real pad; stored unchanged as LEDPattern).
func (m *Mode) HandleOutput(reportID byte, data []byte) {
	if len(data) < 3 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fb = output.Feedback{RumbleRight: data[0], RumbleLeft: data[1], LEDPattern: data[2], Dirty: true}
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
