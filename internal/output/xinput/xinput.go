// Package xinput emits the wired Xbox 360 controller's 20-byte interrupt IN
// report and decodes its 8-byte rumble OUT report: report ID, length byte,
// 16-bit button field, 2 trigger bytes, 4 signed 16-bit stick axes, with
// SendReport reading from a canonical profile.Output.
package xinput

import (
	"encoding/binary"
	"sync"

	"github.com/retropad/corebridge/internal/output"
	"github.com/retropad/corebridge/internal/profile"
	"github.com/retropad/corebridge/internal/vocab"
)

// XInput button bitmasks, unchanged from the wired Xbox 360 report.
const (
	btnDPadUp    = 0x0001
	btnDPadDown  = 0x0002
	btnDPadLeft  = 0x0004
	btnDPadRight = 0x0008
	btnStart     = 0x0010
	btnBack      = 0x0020
	btnLThumb    = 0x0040
	btnRThumb    = 0x0080
	btnLShoulder = 0x0100
	btnRShoulder = 0x0200
	btnGuide     = 0x0400
	btnA         = 0x1000
	btnB         = 0x2000
	btnX         = 0x4000
	btnY         = 0x8000
)

// Mode implements output.Mode for a single XInput-compatible port.
type Mode struct {
	mu    sync.Mutex
	ready bool
	fb    output.Feedback
}

// New returns an uninitialized xinput Mode.
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

// SendReport builds the 20-byte interrupt IN report the wired Xbox 360
// controller returns: [0]=ReportID(0x00) [1]=len(0x14) [2:4]=buttons
// [4]=LT [5]=RT [6:8]=LX [8:10]=LY [10:12]=RX [12:14]=RY [14:20]=reserved.
func (m *Mode) SendReport(port int, out profile.Output) ([]byte, bool) {
	if port != 0 || !m.IsReady(port) {
		return nil, false
	}

	var buttons uint16
	b := out.Buttons
	if b&uint32(vocab.DU) != 0 {
		buttons |= btnDPadUp
	}
	if b&uint32(vocab.DD) != 0 {
		buttons |= btnDPadDown
	}
	if b&uint32(vocab.DL) != 0 {
		buttons |= btnDPadLeft
	}
	if b&uint32(vocab.DR) != 0 {
		buttons |= btnDPadRight
	}
	if b&uint32(vocab.S2) != 0 {
		buttons |= btnStart
	}
	if b&uint32(vocab.S1) != 0 {
		buttons |= btnBack
	}
	if b&uint32(vocab.L3) != 0 {
		buttons |= btnLThumb
	}
	if b&uint32(vocab.R3) != 0 {
		buttons |= btnRThumb
	}
	if b&uint32(vocab.L1) != 0 {
		buttons |= btnLShoulder
	}
	if b&uint32(vocab.R1) != 0 {
		buttons |= btnRShoulder
	}
	if b&uint32(vocab.A1) != 0 {
		buttons |= btnGuide
	}
	if b&uint32(vocab.B1) != 0 {
		buttons |= btnA
	}
	if b&uint32(vocab.B2) != 0 {
		buttons |= btnB
	}
	if b&uint32(vocab.B3) != 0 {
		buttons |= btnX
	}
	if b&uint32(vocab.B4) != 0 {
		buttons |= btnY
	}

	rep := make([]byte, 20)
	rep[0] = 0x00
	rep[1] = 0x14
	binary.LittleEndian.PutUint16(rep[2:4], buttons)
	rep[4] = out.L2A
	rep[5] = out.R2A
	binary.LittleEndian.PutUint16(rep[6:8], uint16(toSigned16(out.LX)))
	binary.LittleEndian.PutUint16(rep[8:10], uint16(toSigned16(out.LY)))
	binary.LittleEndian.PutUint16(rep[10:12], uint16(toSigned16(out.RX)))
	binary.LittleEndian.PutUint16(rep[12:14], uint16(toSigned16(out.RY)))
	return rep, true
}

// toSigned16 rescales an 8-bit 128-centered axis to XInput's signed 16-bit
// range, keeping the center value exactly on 0.
func toSigned16(v uint8) int16 {
	centered := int(v) - int(vocab.StickCenter)
	scaled := centered * 258
	if scaled > 32767 {
		scaled = 32767
	}
	if scaled < -32768 {
		scaled = -32768
	}
	return int16(scaled)
}

// HandleOutput decodes the 8-byte rumble OUT report:
// [0]=0x00 [1]=0x08 [2]=reserved [3]=left motor [4]=right motor.
func (m *Mode) HandleOutput(reportID byte, data []byte) {
	if len(data) < 8 || data[0] != 0x00 || data[1] != 0x08 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fb = output.Feedback{RumbleLeft: data[3], RumbleRight: data[4], Dirty: true}
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
