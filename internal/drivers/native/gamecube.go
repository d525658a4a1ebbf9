package native

import (
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

// GameCubeDriver decodes the GameCube controller's fixed 8-byte polling
// response: byte0 bit0..6 = A,B,X,Y,Start,L,R (digital); byte1 bit0..3 =
// Du,Dd,Dl,Dr; bytes2-3 = joystick X,Y; bytes4-5 = C-stick X,Y; bytes6-7 =
// analog L,R trigger pressure, which also set L2/R2 once above 20. Z is not
// decoded.
type GameCubeDriver struct {
	mu    sync.Mutex
	conns map[registry.Source]*portState
}

func NewGameCube() *GameCubeDriver { return &GameCubeDriver{conns: newPortMap()} }

func (d *GameCubeDriver) Name() string                       { return "native-gamecube" }
func (d *GameCubeDriver) Match(id registry.Identity) bool     { return id.Name == "gamecube" }
func (d *GameCubeDriver) Init(conn *registry.Connection) bool { return claim(&d.mu, d.conns, conn) }
func (d *GameCubeDriver) Disconnect(conn *registry.Connection) {
	release(&d.mu, d.conns, conn)
	emitNeutral(conn)
}
func (d *GameCubeDriver) Task(conn *registry.Connection, nowMicros uint64) {
	if bound(&d.mu, d.conns, conn) {
		sendPoll(conn)
	}
}

func (d *GameCubeDriver) ProcessReport(conn *registry.Connection, data []byte) {
	if len(data) < 8 {
		return
	}
	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance
	e.Layout = "gamecube"
	e.ButtonCount = 12

	b0, b1 := data[0], data[1]
	if b0&0x10 != 0 {
		e.Buttons |= uint32(vocab.S2) // Start
	}
	if b0&0x08 != 0 {
		e.Buttons |= uint32(vocab.B4) // Y
	}
	if b0&0x04 != 0 {
		e.Buttons |= uint32(vocab.B3) // X
	}
	if b0&0x02 != 0 {
		e.Buttons |= uint32(vocab.B2) // B
	}
	if b0&0x01 != 0 {
		e.Buttons |= uint32(vocab.B1) // A
	}
	if b0&0x20 != 0 {
		e.Buttons |= uint32(vocab.L1)
	}
	if b0&0x40 != 0 {
		e.Buttons |= uint32(vocab.R1)
	}
	applyHat4(b1&0x0F, &e)

	e.Analog[vocab.LX] = data[2]
	e.Analog[vocab.LY] = 255 - data[3]
	e.Analog[vocab.RX] = data[4]
	e.Analog[vocab.RY] = 255 - data[5]
	e.Analog[vocab.L2A] = data[6]
	e.Analog[vocab.R2A] = data[7]
	if data[6] > 20 {
		e.Buttons |= uint32(vocab.L2)
	}
	if data[7] > 20 {
		e.Buttons |= uint32(vocab.R2)
	}

	conn.Sink.SubmitInput(e)
}
