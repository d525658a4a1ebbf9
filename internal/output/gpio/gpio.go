// Package gpio drives original arcade/console wiring directly: each
// canonical button and a handful of analog thresholds map to a physical
// line, written the instant input arrives rather than polled. It is the
// one output the router pushes to via its exclusive tap callback
// (internal/router.TapFunc) instead of calling SendReport on a schedule;
// Tap's signature matches TapFunc exactly so it can be registered with
// Router.RegisterOutput without an adapter. Physical pin access is behind
// the PinWriter collaborator, left abstract the same way platform HAL calls
// stay behind a narrow interface rather than importing a board package
// directly.
package gpio

import (
	"sync"

	"github.com/retropad/corebridge/internal/output"
	"github.com/retropad/corebridge/internal/profile"
	"github.com/retropad/corebridge/internal/vocab"
)

// PinWriter is the abstract collaborator for physical line state; a real
// build wires this to PIO/GPIO register access, out of scope here.
type PinWriter interface {
	SetPin(line int, high bool)
}

// Mapping associates canonical buttons with physical lines. Analog
// thresholds (e.g. trigger past halfway) are expressed as button-shaped
// entries by the profile engine's threshold-crossed trigger behavior
// before reaching this mode, so Mapping only ever deals in buttons.
type Mapping map[vocab.Button]int

// Mode drives a single player's worth of original wiring. It implements
// output.Mode for API symmetry with the polled modes, but the expected
// integration path is Tap, registered directly as a router.TapFunc.
type Mode struct {
	mu      sync.Mutex
	ready   bool
	pins    PinWriter
	mapping Mapping
}

// New returns a gpio Mode driving lines through pins according to mapping.
func New(pins PinWriter, mapping Mapping) *Mode {
	return &Mode{pins: pins, mapping: mapping}
}

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

// Tap writes every mapped line's state from out.Buttons. Its signature
// matches router.TapFunc.
func (m *Mode) Tap(player int, out profile.Output) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready || player != 0 {
		return
	}
	for btn, line := range m.mapping {
		m.pins.SetPin(line, out.Buttons&uint32(btn) != 0)
	}
}

// SendReport drives the same lines Tap does and returns no bytes; this
// mode has no polled wire format, only physical pin state.
func (m *Mode) SendReport(port int, out profile.Output) ([]byte, bool) {
	if port != 0 || !m.IsReady(port) {
		return nil, false
	}
	m.Tap(0, out)
	return nil, true
}

// HandleOutput is a no-op: raw wiring has no feedback channel.
func (m *Mode) HandleOutput(reportID byte, data []byte) {}

func (m *Mode) GetFeedback(port int) (output.Feedback, bool) {
	return output.Feedback{}, false
}
