package native

import (
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

// NeoGeoDriver decodes the NEOGEO pad's single active-low digital byte:
// Up,Down,Left,Right,A,B,C,D, all pressed-when-0.
type NeoGeoDriver struct {
	mu    sync.Mutex
	conns map[registry.Source]*portState
}

func NewNeoGeo() *NeoGeoDriver { return &NeoGeoDriver{conns: newPortMap()} }

func (d *NeoGeoDriver) Name() string                       { return "native-neogeo" }
func (d *NeoGeoDriver) Match(id registry.Identity) bool     { return id.Name == "neogeo" }
func (d *NeoGeoDriver) Init(conn *registry.Connection) bool { return claim(&d.mu, d.conns, conn) }
func (d *NeoGeoDriver) Disconnect(conn *registry.Connection) {
	release(&d.mu, d.conns, conn)
	emitNeutral(conn)
}
func (d *NeoGeoDriver) Task(conn *registry.Connection, nowMicros uint64) {
	if bound(&d.mu, d.conns, conn) {
		sendPoll(conn)
	}
}

var neogeoBits = []vocab.Button{vocab.DU, vocab.DD, vocab.DL, vocab.DR, vocab.B1, vocab.B2, vocab.B3, vocab.B4}

func (d *NeoGeoDriver) ProcessReport(conn *registry.Connection, data []byte) {
	if len(data) < 1 {
		return
	}
	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance
	e.Layout = "neogeo"
	e.ButtonCount = len(neogeoBits)
	for i, b := range neogeoBits {
		if data[0]&(1<<uint(i)) == 0 { // active low
			e.Buttons |= uint32(b)
		}
	}
	conn.Sink.SubmitInput(e)
}
