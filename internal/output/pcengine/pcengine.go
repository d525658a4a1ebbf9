// Package pcengine emits a small USB gamepad report matching a PC Engine
// Mini-style pad: a hat switch for the d-pad (no separate direction bits)
// plus two turbo-capable face buttons. Built as a fixed-size byte-at-a-time
// assembly, sharing internal/output.directinput's hat encoding for the
// d-pad-to-hat collapse. Turbo oscillation uses an absolute deadline on a
// monotonic microsecond clock rather than a counted-frames approach.
package pcengine

import (
	"sync"

	"github.com/retropad/corebridge/internal/output"
	"github.com/retropad/corebridge/internal/profile"
	"github.com/retropad/corebridge/internal/vocab"
)

const reportLen = 3

const hatCentered = 8

// turboPeriodsMicros are the three selectable turbo oscillation periods, in
// microseconds: 50ms, 33ms, 25ms, cycled in that order by CycleTurboSpeed.
var turboPeriodsMicros = [3]uint64{50_000, 33_000, 25_000}

// Mode implements output.Mode for a single PC Engine Mini-style port. It
// additionally implements an optional Tick method the scheduler calls each
// loop with a monotonic microsecond clock to advance turbo oscillation,
// since output.Mode itself carries no notion of time.
type Mode struct {
	mu          sync.Mutex
	ready       bool
	turboIdx    int
	turboOn     bool
	lastToggle  uint64
	haveLastNow bool
}

func New() *Mode { return &Mode{} }

func (m *Mode) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = true
	m.turboIdx = 0
	m.turboOn = false
	m.haveLastNow = false
	return nil
}

func (m *Mode) Ports() int { return 1 }

func (m *Mode) IsReady(port int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return port == 0 && m.ready
}

// CycleTurboSpeed advances to the next of the three turbo periods
// (50ms -> 33ms -> 25ms -> 50ms), wrapping around.
func (m *Mode) CycleTurboSpeed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turboIdx = (m.turboIdx + 1) % len(turboPeriodsMicros)
}

// Tick advances the turbo oscillator against its selected period. It is
// not part of the output.Mode interface; the scheduler calls it on modes
// that implement it via an optional-interface check.
func (m *Mode) Tick(nowMicros uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.haveLastNow {
		m.lastToggle = nowMicros
		m.haveLastNow = true
		return
	}
	period := turboPeriodsMicros[m.turboIdx]
	if nowMicros-m.lastToggle >= period {
		m.turboOn = !m.turboOn
		m.lastToggle = nowMicros
	}
}

// SendReport builds a 3-byte report:
//
//	0: report id 0x01
//	1: hat switch (0..7 clockwise from up, 8 centered)
//	2: buttons: bit0=I bit1=II bit2=select bit3=run
//
// L1/R1 are turbo-fire variants of I/II: I or II is asserted whenever the
// plain button is held, or whenever its turbo counterpart is held and the
// oscillator's current phase is on.
func (m *Mode) SendReport(port int, out profile.Output) ([]byte, bool) {
	if port != 0 || !m.IsReady(port) {
		return nil, false
	}

	m.mu.Lock()
	turboOn := m.turboOn
	m.mu.Unlock()

	b := out.Buttons
	rep := make([]byte, reportLen)
	rep[0] = 0x01
	rep[1] = hatFromDpad(b)

	var buttons byte
	if b&uint32(vocab.B1) != 0 || (b&uint32(vocab.L1) != 0 && turboOn) {
		buttons |= 1 << 0
	}
	if b&uint32(vocab.B2) != 0 || (b&uint32(vocab.R1) != 0 && turboOn) {
		buttons |= 1 << 1
	}
	if b&uint32(vocab.S1) != 0 {
		buttons |= 1 << 2
	}
	if b&uint32(vocab.S2) != 0 {
		buttons |= 1 << 3
	}
	rep[2] = buttons

	return rep, true
}

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

// HandleOutput is a no-op: the PC Engine Mini pad has no output report.
func (m *Mode) HandleOutput(reportID byte, data []byte) {}

func (m *Mode) GetFeedback(port int) (output.Feedback, bool) {
	return output.Feedback{}, false
}
