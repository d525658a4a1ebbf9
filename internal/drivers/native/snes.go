package native

import (
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

// SNESDriver decodes the SNES controller's 12-bit shift register (2 bytes,
// low byte first), in the fixed order B,Y,Select,Start,Up,Down,Left,Right,
// A,X,L,R.
type SNESDriver struct {
	mu    sync.Mutex
	conns map[registry.Source]*portState
}

func NewSNES() *SNESDriver { return &SNESDriver{conns: newPortMap()} }

func (d *SNESDriver) Name() string                       { return "native-snes" }
func (d *SNESDriver) Match(id registry.Identity) bool     { return id.Name == "snes" }
func (d *SNESDriver) Init(conn *registry.Connection) bool { return claim(&d.mu, d.conns, conn) }
func (d *SNESDriver) Disconnect(conn *registry.Connection) {
	release(&d.mu, d.conns, conn)
	emitNeutral(conn)
}
func (d *SNESDriver) Task(conn *registry.Connection, nowMicros uint64) {
	if bound(&d.mu, d.conns, conn) {
		sendPoll(conn)
	}
}

var snesBits = []vocab.Button{
	vocab.B1, vocab.B4, vocab.S1, vocab.S2,
	vocab.DU, vocab.DD, vocab.DL, vocab.DR,
	vocab.B2, vocab.B3, vocab.L1, vocab.R1,
}

func (d *SNESDriver) ProcessReport(conn *registry.Connection, data []byte) {
	if len(data) < 2 {
		return
	}
	bits := uint16(data[0]) | uint16(data[1])<<8
	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance
	e.Layout = "snes"
	e.ButtonCount = len(snesBits)
	for i, b := range snesBits {
		if bits&(1<<uint(i)) != 0 {
			e.Buttons |= uint32(b)
		}
	}
	conn.Sink.SubmitInput(e)
}
