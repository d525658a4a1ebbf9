// Package generichid implements the catch-all HID gamepad driver: it parses
// a HID report descriptor (internal/hiddesc) to locate fields, maps them to
// the canonical vocabulary using a DirectInput-ish table, and falls back to
// a fixed 6-byte layout for BT Classic peripherals with no SDP descriptor.
// It must be registered last in the registry: every BLE HID gamepad and any
// Classic peripheral whose class-of-device is joystick/gamepad matches it.
package generichid

import (
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/hiddesc"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

const (
	usagePageGenericDesktop = 0x01
	usagePageButton         = 0x09

	usageX   = 0x30
	usageY   = 0x31
	usageZ   = 0x32
	usageRx  = 0x33
	usageRy  = 0x34
	usageRz  = 0x35
	usageHat = 0x39
)

// Bluetooth class-of-device decoding (major/minor device class fields).
const (
	codMajorPeripheral = 0x05
	codMinorJoystick    = 0x01
	codMinorGamepad     = 0x02
)

func majorDeviceClass(cod [3]byte) uint8 { return (cod[1] >> 2) & 0x1F }
func minorDeviceClass(cod [3]byte) uint8 { return (cod[0] >> 2) & 0x3F }

const maxConnections = 16

type connState struct {
	fields        []hiddesc.Field
	hasDescriptor bool
}

// Driver is the generic HID gamepad driver.
type Driver struct {
	mu    sync.Mutex
	conns map[registry.Source]*connState
}

// New returns a ready-to-register generic HID driver.
func New() *Driver {
	return &Driver{conns: make(map[registry.Source]*connState)}
}

func (d *Driver) Name() string { return "generic-hid" }

// Match claims any BLE HID device, or a BT Classic peripheral whose
// class-of-device is major=peripheral (0x05) and minor joystick/gamepad.
func (d *Driver) Match(id registry.Identity) bool {
	if id.IsBLE {
		return true
	}
	if majorDeviceClass(id.ClassOfDevice) != codMajorPeripheral {
		return false
	}
	minor := minorDeviceClass(id.ClassOfDevice)
	return minor == codMinorJoystick || minor == codMinorGamepad
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

func (d *Driver) Task(conn *registry.Connection, nowMicros uint64) {}

// SetDescriptor is called by the host integration once the HID report
// descriptor has been retrieved (SDP for Classic, GATT for BLE). It derives
// field locations for subsequent ProcessReport calls.
func (d *Driver) SetDescriptor(conn *registry.Connection, desc []byte) {
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.conns[src]
	if !ok {
		return
	}
	st.fields = hiddesc.Parse(desc)
	st.hasDescriptor = len(st.fields) > 0
}

func (d *Driver) ProcessReport(conn *registry.Connection, data []byte) {
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.mu.Lock()
	st, ok := d.conns[src]
	d.mu.Unlock()
	if !ok {
		return
	}

	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance

	if st.hasDescriptor {
		decodeDescriptor(st.fields, data, &e)
	} else {
		decodeFallback(data, &e)
	}
	conn.Sink.SubmitInput(e)
}

// scaleAnalog maps a raw 0..max value onto 1..255.
func scaleAnalog(raw uint32, max int32) uint8 {
	if max <= 0 {
		return vocab.StickCenter
	}
	scaled := 1 + int(raw)*254/int(max)
	return vocab.ClampAxis1to255(scaled)
}

// buttonMapGE10 is the DirectInput-ish remap used when the descriptor
// declares 10 or more buttons.
var buttonMapGE10 = map[int]vocab.Button{
	1: vocab.B3, 2: vocab.B1, 3: vocab.B2, 4: vocab.B4,
	5: vocab.L1, 6: vocab.R1, 7: vocab.L2, 8: vocab.R2,
	9: vocab.S1, 10: vocab.S2, 11: vocab.L3, 12: vocab.R3,
}

// faceOrderLT10 is the 1:1 fallback order used when fewer than 10 buttons
// are declared; the last two buttons in the sequence become S1/S2.
var faceOrderLT10 = []vocab.Button{vocab.B1, vocab.B2, vocab.B3, vocab.B4, vocab.L1, vocab.R1, vocab.L2, vocab.R2}

func mapButtonIndex(oneIndexed int, total int) vocab.Button {
	if total >= 10 {
		if b, ok := buttonMapGE10[oneIndexed]; ok {
			return b
		}
		return 0
	}
	if oneIndexed > total-2 && total >= 2 {
		if oneIndexed == total-1 {
			return vocab.S1
		}
		return vocab.S2
	}
	idx := oneIndexed - 1
	if idx >= 0 && idx < len(faceOrderLT10) {
		return faceOrderLT10[idx]
	}
	return 0
}

func decodeDescriptor(fields []hiddesc.Field, data []byte, e *event.Event) {
	var buttonFields []hiddesc.Field
	for _, f := range fields {
		if f.UsagePage == usagePageButton {
			buttonFields = append(buttonFields, f)
		}
	}
	e.ButtonCount = len(buttonFields)

	for i, f := range buttonFields {
		v, ok := f.Extract(data)
		if !ok || v == 0 {
			continue
		}
		if b := mapButtonIndex(i+1, len(buttonFields)); b != 0 {
			e.Buttons |= uint32(b)
		}
	}

	for _, f := range fields {
		if f.UsagePage != usagePageGenericDesktop {
			continue
		}
		v, ok := f.Extract(data)
		if !ok {
			continue
		}
		switch f.Usage {
		case usageX:
			e.Analog[vocab.LX] = scaleAnalog(v, f.LogicalMax)
		case usageY:
			e.Analog[vocab.LY] = scaleAnalog(v, f.LogicalMax)
		case usageRx:
			e.Analog[vocab.RX] = scaleAnalog(v, f.LogicalMax)
		case usageRy:
			e.Analog[vocab.RY] = scaleAnalog(v, f.LogicalMax)
		case usageZ:
			e.Analog[vocab.L2A] = scaleAnalog(v, f.LogicalMax)
		case usageRz:
			e.Analog[vocab.R2A] = scaleAnalog(v, f.LogicalMax)
		case usageHat:
			applyHat(v, e)
		}
	}
}

// applyHat decodes a standard 4-bit hat switch (0=up .. 7=up-left, 8/15=neutral).
func applyHat(v uint32, e *event.Event) {
	switch v {
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

// decodeFallback applies the BT Classic no-SDP 6-byte layout: byte0/1 are
// the button bitfield (face/shoulder/system/stick clicks/home), bytes 2..5
// are LX/LY/RX/RY raw.
func decodeFallback(data []byte, e *event.Event) {
	if len(data) < 6 {
		return
	}
	b0, b1 := data[0], data[1]
	bit := func(b byte, n uint) bool { return b&(1<<n) != 0 }

	if bit(b0, 0) {
		e.Buttons |= uint32(vocab.B1)
	}
	if bit(b0, 1) {
		e.Buttons |= uint32(vocab.B2)
	}
	if bit(b0, 2) {
		e.Buttons |= uint32(vocab.B3)
	}
	if bit(b0, 3) {
		e.Buttons |= uint32(vocab.B4)
	}
	if bit(b0, 4) {
		e.Buttons |= uint32(vocab.L1)
	}
	if bit(b0, 5) {
		e.Buttons |= uint32(vocab.R1)
	}
	if bit(b0, 6) {
		e.Buttons |= uint32(vocab.L2)
	}
	if bit(b0, 7) {
		e.Buttons |= uint32(vocab.R2)
	}
	if bit(b1, 0) {
		e.Buttons |= uint32(vocab.S1)
	}
	if bit(b1, 1) {
		e.Buttons |= uint32(vocab.S2)
	}
	if bit(b1, 2) {
		e.Buttons |= uint32(vocab.L3)
	}
	if bit(b1, 3) {
		e.Buttons |= uint32(vocab.R3)
	}
	if bit(b1, 4) {
		e.Buttons |= uint32(vocab.A1)
	}

	e.Analog[vocab.LX] = data[2]
	e.Analog[vocab.LY] = data[3]
	e.Analog[vocab.RX] = data[4]
	e.Analog[vocab.RY] = data[5]
}
