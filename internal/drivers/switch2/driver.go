// Package switch2 implements the Nintendo Switch 2 Pro Controller / GameCube
// Controller BLE driver. Both report the same 63-byte shape; the GameCube
// variant is distinguished by product id and swaps L1/L2 and R1/R2 relative
// to the Pro Controller's layout. The first four reports after connect
// carry the stick calibration center, captured before any event is emitted
// with a scaled stick value.
package switch2

import (
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

const (
	vendorIDNintendo = 0x057E
	productPro2      = 0x2069
	productGC2       = 0x2073

	reportLen        = 63
	calibrationFrames = 4

	rangePro   = 1610
	rangeGCMain = 1225
	rangeGCC    = 1120

	maxConnections = 4
)

type stickCenters struct {
	lx, ly, rx, ry uint16
}

type connState struct {
	isGC     bool
	frames   int
	centers  stickCenters
	accumLX, accumLY, accumRX, accumRY uint32
}

// Driver is the Switch 2 Pro/GameCube Controller BLE driver.
type Driver struct {
	mu    sync.Mutex
	conns map[registry.Source]*connState
}

func New() *Driver { return &Driver{conns: make(map[registry.Source]*connState)} }

func (d *Driver) Name() string { return "switch2" }

func (d *Driver) Match(id registry.Identity) bool {
	return id.VendorID == vendorIDNintendo && (id.ProductID == productPro2 || id.ProductID == productGC2)
}

func (d *Driver) Init(conn *registry.Connection) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) >= maxConnections {
		return false
	}
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.conns[src] = &connState{isGC: conn.Identity.ProductID == productGC2}
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

func (d *Driver) Task(conn *registry.Connection, nowMicros uint64) {}

// button bit positions within the 32-bit LE field at bytes 4..7 (the Pro
// Controller layout; the GameCube variant swaps L1<->L2 and R1<->R2 after
// this table is applied).
var buttonBits = []struct {
	bit    uint
	button vocab.Button
}{
	0: {0, vocab.B2}, 1: {1, vocab.B1}, 2: {2, vocab.B4}, 3: {3, vocab.B3},
	4: {4, vocab.L1}, 5: {5, vocab.R1}, 6: {6, vocab.L2}, 7: {7, vocab.R2},
	8: {8, vocab.S1}, 9: {9, vocab.S2}, 10: {10, vocab.L3}, 11: {11, vocab.R3},
	12: {12, vocab.DU}, 13: {13, vocab.DD}, 14: {14, vocab.DL}, 15: {15, vocab.DR},
	16: {16, vocab.A1}, 17: {17, vocab.A2},
}

func (d *Driver) ProcessReport(conn *registry.Connection, data []byte) {
	if len(data) < reportLen {
		return
	}
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.mu.Lock()
	st, ok := d.conns[src]
	if !ok {
		d.mu.Unlock()
		return
	}

	lx := readPacked12(data, 0)
	ly := readPacked12(data, 1)
	rx := readPacked12(data, 2)
	ry := readPacked12(data, 3)

	if st.frames < calibrationFrames {
		st.accumLX += uint32(lx)
		st.accumLY += uint32(ly)
		st.accumRX += uint32(rx)
		st.accumRY += uint32(ry)
		st.frames++
		if st.frames == calibrationFrames {
			st.centers = stickCenters{
				lx: uint16(st.accumLX / calibrationFrames),
				ly: uint16(st.accumLY / calibrationFrames),
				rx: uint16(st.accumRX / calibrationFrames),
				ry: uint16(st.accumRY / calibrationFrames),
			}
		}
		d.mu.Unlock()
		return
	}
	centers := st.centers
	isGC := st.isGC
	d.mu.Unlock()

	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance
	if isGC {
		e.Layout = "switch2-gc"
	} else {
		e.Layout = "switch2-pro"
	}
	e.ButtonCount = len(buttonBits)

	bits := uint32(data[4]) | uint32(data[5])<<8 | uint32(data[6])<<16 | uint32(data[7])<<24
	for _, bb := range buttonBits {
		if bits&(1<<bb.bit) != 0 {
			e.Buttons |= uint32(bb.button)
		}
	}
	if isGC {
		e.Buttons = swapGCShoulders(e.Buttons)
	}

	mainRange := int32(rangePro)
	cRange := int32(rangePro)
	if isGC {
		mainRange = rangeGCMain
		cRange = rangeGCC
	}
	e.Analog[vocab.LX] = scaleStick(lx, centers.lx, mainRange, false)
	e.Analog[vocab.LY] = scaleStick(ly, centers.ly, mainRange, true)
	e.Analog[vocab.RX] = scaleStick(rx, centers.rx, cRange, false)
	e.Analog[vocab.RY] = scaleStick(ry, centers.ry, cRange, true)
	if isGC {
		e.Analog[vocab.L2A] = data[60]
		e.Analog[vocab.R2A] = data[61]
	}

	conn.Sink.SubmitInput(e)
}

func swapGCShoulders(buttons uint32) uint32 {
	l1 := buttons&uint32(vocab.L1) != 0
	l2 := buttons&uint32(vocab.L2) != 0
	r1 := buttons&uint32(vocab.R1) != 0
	r2 := buttons&uint32(vocab.R2) != 0
	buttons &^= uint32(vocab.L1) | uint32(vocab.L2) | uint32(vocab.R1) | uint32(vocab.R2)
	if l2 {
		buttons |= uint32(vocab.L1)
	}
	if l1 {
		buttons |= uint32(vocab.L2)
	}
	if r2 {
		buttons |= uint32(vocab.R1)
	}
	if r1 {
		buttons |= uint32(vocab.R2)
	}
	return buttons
}

// readPacked12 extracts the idx-th 12-bit little-endian-packed axis from
// the three bytes per axis-pair layout: bytes [10 + (idx/2)*3 .. 10 +
// (idx/2)*3 + 2] hold two 12-bit values packed across 3 bytes (even idx in
// the low 12 bits, odd idx in the high 12 bits), matching the Switch Pro
// Controller's analog stick wire format.
func readPacked12(data []byte, idx int) uint16 {
	base := 10 + (idx/2)*3
	raw := uint32(data[base]) | uint32(data[base+1])<<8 | uint32(data[base+2])<<16
	if idx%2 == 0 {
		return uint16(raw & 0xFFF)
	}
	return uint16(raw >> 12)
}

func scaleStick(raw, center uint16, rng int32, invert bool) uint8 {
	delta := int32(raw) - int32(center)
	if delta > rng {
		delta = rng
	}
	if delta < -rng {
		delta = -rng
	}
	if invert {
		delta = -delta
	}
	return vocab.ClampAxis1to255(128 + int(delta*127/rng))
}
