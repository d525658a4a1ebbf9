// Package eightbitdo implements the 8BitDo Ultimate (BLE) vendor driver.
// It claims its report id directly instead of relying on descriptor
// parsing: the 11-byte input report and 5-byte rumble output report are
// fixed and well known for this product line.
package eightbitdo

import (
	"context"
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

const (
	vendorID8BitDo = 0x2DC8
	productUltimate = 0x6003

	reportIDInput  = 0x03
	inputReportLen = 11
	reportIDRumble = 0x05
)

const maxConnections = 8

// RumbleState is what SetRumble stages and the next Task writes to the
// owning connection as a rumble output report.
type RumbleState struct {
	Strong uint8 // 0..100
	Weak   uint8 // 0..100
}

type connState struct {
	rumble     RumbleState
	rumbleDirty bool
}

// Driver is the 8BitDo Ultimate BLE vendor driver.
type Driver struct {
	mu    sync.Mutex
	conns map[registry.Source]*connState
}

func New() *Driver { return &Driver{conns: make(map[registry.Source]*connState)} }

func (d *Driver) Name() string { return "8bitdo-ultimate" }

func (d *Driver) Match(id registry.Identity) bool {
	return id.VendorID == vendorID8BitDo && id.ProductID == productUltimate
}

func (d *Driver) Init(conn *registry.Connection) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) >= maxConnections {
		return false
	}
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.conns[src] = &connState{}
	return true
}

func (d *Driver) Disconnect(conn *registry.Connection) {
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.mu.Lock()
	delete(d.conns, src)
	d.mu.Unlock()

	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance
	conn.Sink.SubmitInput(e)
}

// buttonBits maps the 16-bit field at bytes 8..9 to canonical buttons,
// following the common 8BitDo/Switch-Pro-style face/shoulder/system order.
var buttonBits = []struct {
	byteIdx int
	bit     uint
	button  vocab.Button
}{
	{8, 0, vocab.B4}, // Y
	{8, 1, vocab.B1}, // B
	{8, 2, vocab.B2}, // A
	{8, 3, vocab.B3}, // X
	{8, 4, vocab.L1},
	{8, 5, vocab.R1},
	{8, 6, vocab.L2},
	{8, 7, vocab.R2},
	{9, 0, vocab.S1},
	{9, 1, vocab.S2},
	{9, 2, vocab.L3},
	{9, 3, vocab.R3},
	{9, 4, vocab.A1}, // home
	{9, 5, vocab.A2}, // capture
}

func decodeHat(nibble byte, e *event.Event) {
	switch nibble & 0x0F {
	case 0:
		e.Buttons |= uint32(vocab.DU)
	case 1:
		e.Buttons |= uint32(vocab.DU) | uint32(vocab.DR)
	case 2:
		e.Buttons |= uint32(vocab.DR)
	case 3:
		e.Buttons |= uint32(vocab.DR) | uint32(vocab.DD)
	case 4:
		e.Buttons |= uint32(vocab.DD)
	case 5:
		e.Buttons |= uint32(vocab.DD) | uint32(vocab.DL)
	case 6:
		e.Buttons |= uint32(vocab.DL)
	case 7:
		e.Buttons |= uint32(vocab.DL) | uint32(vocab.DU)
	}
}

func (d *Driver) ProcessReport(conn *registry.Connection, data []byte) {
	if len(data) < inputReportLen || data[0] != reportIDInput {
		return
	}
	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance
	e.ButtonCount = 16

	decodeHat(data[1], &e)

	e.Analog[vocab.LX] = data[2]
	e.Analog[vocab.LY] = data[3]
	e.Analog[vocab.RX] = data[4]
	e.Analog[vocab.RY] = data[5]
	// The device reports LT at the "brake" byte offset (6) and RT at the
	// "accelerator" offset (7); this is intentionally NOT swapped.
	e.Analog[vocab.L2A] = data[6]
	e.Analog[vocab.R2A] = data[7]

	for _, bb := range buttonBits {
		if data[bb.byteIdx]&(1<<bb.bit) != 0 {
			e.Buttons |= uint32(bb.button)
		}
	}

	conn.Sink.SubmitInput(e)
}

// SetRumble stages a rumble command for delivery on the next Task tick.
func (d *Driver) SetRumble(conn *registry.Connection, r RumbleState) {
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.conns[src]
	if !ok {
		return
	}
	st.rumble = r
	st.rumbleDirty = true
}

func (d *Driver) Task(conn *registry.Connection, nowMicros uint64) {
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.mu.Lock()
	st, ok := d.conns[src]
	var send bool
	var r RumbleState
	if ok && st.rumbleDirty {
		send = true
		r = st.rumble
		st.rumbleDirty = false
	}
	d.mu.Unlock()
	if !send {
		return
	}
	report := []byte{reportIDRumble, r.Strong, r.Weak, 0, 0}
	_ = conn.Raw.Send(context.Background(), report)
}
