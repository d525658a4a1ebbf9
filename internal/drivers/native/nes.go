package native

import (
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

// NESDriver decodes the NES controller's 8-bit shift register: one bit per
// poll clock, A in bit0 through Right in bit7, in the fixed order
// A,B,Select,Start,Up,Down,Left,Right.
type NESDriver struct {
	mu    sync.Mutex
	conns map[registry.Source]*portState
}

func NewNES() *NESDriver { return &NESDriver{conns: newPortMap()} }

func (d *NESDriver) Name() string                         { return "native-nes" }
func (d *NESDriver) Match(id registry.Identity) bool       { return id.Name == "nes" }
func (d *NESDriver) Init(conn *registry.Connection) bool   { return claim(&d.mu, d.conns, conn) }
func (d *NESDriver) Disconnect(conn *registry.Connection) {
	release(&d.mu, d.conns, conn)
	emitNeutral(conn)
}
func (d *NESDriver) Task(conn *registry.Connection, nowMicros uint64) {
	if bound(&d.mu, d.conns, conn) {
		sendPoll(conn)
	}
}

var nesBits = []vocab.Button{
	vocab.B1, vocab.B2, vocab.S1, vocab.S2,
	vocab.DU, vocab.DD, vocab.DL, vocab.DR,
}

func (d *NESDriver) ProcessReport(conn *registry.Connection, data []byte) {
	if len(data) < 1 {
		return
	}
	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance
	e.Layout = "nes"
	e.ButtonCount = len(nesBits)
	for i, b := range nesBits {
		if data[0]&(1<<uint(i)) != 0 {
			e.Buttons |= uint32(b)
		}
	}
	conn.Sink.SubmitInput(e)
}
