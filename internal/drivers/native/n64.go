package native

import (
	"context"
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

// N64Driver decodes the N64 controller's fixed 4-byte polling response:
// byte0 = A,B,Z,Start,Du,Dd,Dl,Dr; byte1 = (reserved),L,R,Cu,Cd,Cl,Cr;
// byte2 = signed analog stick X; byte3 = signed analog stick Y.
// SetRumble stages a rumble-pak write for the next Task tick.
type N64Driver struct {
	mu    sync.Mutex
	conns map[registry.Source]*n64State
}

type n64State struct {
	rumbleOn    bool
	rumbleDirty bool
}

func NewN64() *N64Driver {
	return &N64Driver{conns: make(map[registry.Source]*n64State)}
}

func (d *N64Driver) Name() string                   { return "native-n64" }
func (d *N64Driver) Match(id registry.Identity) bool { return id.Name == "n64" }

func (d *N64Driver) Init(conn *registry.Connection) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) >= maxPorts {
		return false
	}
	d.conns[registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}] = &n64State{}
	return true
}

func (d *N64Driver) Disconnect(conn *registry.Connection) {
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.mu.Lock()
	delete(d.conns, src)
	d.mu.Unlock()
	emitNeutral(conn)
}

func (d *N64Driver) Task(conn *registry.Connection, nowMicros uint64) {
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.mu.Lock()
	st, ok := d.conns[src]
	var sendRumble, rumbleOn bool
	if ok && st.rumbleDirty {
		sendRumble = true
		rumbleOn = st.rumbleOn
		st.rumbleDirty = false
	}
	d.mu.Unlock()
	if !ok {
		return
	}
	if sendRumble {
		v := byte(0x00)
		if rumbleOn {
			v = 0x01
		}
		_ = conn.Raw.Send(context.Background(), []byte{0xC0, v})
	}
	sendPoll(conn)
}

// SetRumble enables or disables the rumble pak.
func (d *N64Driver) SetRumble(conn *registry.Connection, on bool) {
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.conns[src]; ok {
		st.rumbleOn = on
		st.rumbleDirty = true
	}
}

func (d *N64Driver) ProcessReport(conn *registry.Connection, data []byte) {
	if len(data) < 4 {
		return
	}
	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance
	e.Layout = "n64"
	e.ButtonCount = 10

	b0, b1 := data[0], data[1]
	if b0&0x80 != 0 {
		e.Buttons |= uint32(vocab.B1) // A
	}
	if b0&0x40 != 0 {
		e.Buttons |= uint32(vocab.B2) // B
	}
	if b0&0x20 != 0 {
		e.Buttons |= uint32(vocab.L2) // Z
	}
	if b0&0x10 != 0 {
		e.Buttons |= uint32(vocab.S2) // Start
	}
	if b0&0x08 != 0 {
		e.Buttons |= uint32(vocab.DU)
	}
	if b0&0x04 != 0 {
		e.Buttons |= uint32(vocab.DD)
	}
	if b0&0x02 != 0 {
		e.Buttons |= uint32(vocab.DL)
	}
	if b0&0x01 != 0 {
		e.Buttons |= uint32(vocab.DR)
	}
	if b1&0x20 != 0 {
		e.Buttons |= uint32(vocab.L1)
	}
	if b1&0x10 != 0 {
		e.Buttons |= uint32(vocab.R1)
	}
	// Only C-up and C-down are decoded (onto B4 and B3); C-left and C-right
	// are not mapped.
	if b1&0x08 != 0 {
		e.Buttons |= uint32(vocab.B4)
	}
	if b1&0x04 != 0 {
		e.Buttons |= uint32(vocab.B3)
	}

	e.Analog[vocab.LX] = vocab.ClampAxis1to255(128 + int(int8(data[2])))
	e.Analog[vocab.LY] = vocab.ClampAxis1to255(128 - int(int8(data[3])))

	conn.Sink.SubmitInput(e)
}
