// Package wiimote implements the Wiimote-family driver: the Wiimote itself,
// its Nunchuk/Classic/Guitar extensions, and the Wii U Pro Controller, which
// identifies on the wire as a Wiimote extension rather than its own HID
// device. A per-connection state machine drives bring-up (status request,
// extension handshake, report-mode negotiation, LED assignment) before
// ProcessReport starts producing normalized events.
package wiimote

import (
	"context"
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

const (
	vendorIDNintendo = 0x057E
	productWiimote   = 0x0306
	productWiimotePlus = 0x0330

	reportIDStatus      = 0x20
	reportIDReadResponse = 0x21
	reportIDAck          = 0x22
	// Core-button-only through extension-carrying data reports.
	reportIDDataMin = 0x30
	reportIDDataMax = 0x37
	reportIDCoreAccel      = 0x31
	reportIDExtNoAccelNoIR = 0x34
	reportIDExtAccel       = 0x35
	reportIDExtended       = 0x3D

	maxConnections = 4
)

// extStickCenter is the nominal raw center for the 16-bit little-endian
// Wii U Pro stick fields; the wire format doesn't carry a calibration step
// the way the Switch 2 driver's first frames do, so this is a fixed
// approximation of the documented neutral value.
const extStickCenter = 2048
const extStickRange = 1200

type connState struct {
	st      state
	enteredAtMicros uint64
	retries int

	hasExtension bool
	extension    Extension

	orientationMode Orientation
	horizontal      bool

	ledSlot byte
}

// Driver is the Wiimote-family vendor driver.
type Driver struct {
	mu    sync.Mutex
	conns map[registry.Source]*connState
}

func New() *Driver { return &Driver{conns: make(map[registry.Source]*connState)} }

func (d *Driver) Name() string { return "wiimote" }

func (d *Driver) Match(id registry.Identity) bool {
	return id.VendorID == vendorIDNintendo && (id.ProductID == productWiimote || id.ProductID == productWiimotePlus)
}

func (d *Driver) Init(conn *registry.Connection) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) >= maxConnections {
		return false
	}
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.conns[src] = &connState{st: stWaitInit, ledSlot: byte(len(d.conns))}
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

func (d *Driver) state(conn *registry.Connection) *connState {
	src := registry.Source{DeviceAddr: conn.DeviceAddr, Instance: conn.Instance}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[src]
}

// Task advances the per-connection init state machine and, once READY,
// sends the 30s status-request keep-alive.
func (d *Driver) Task(conn *registry.Connection, nowMicros uint64) {
	st := d.state(conn)
	if st == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := nowMicros - st.enteredAtMicros

	switch st.st {
	case stWaitInit:
		if elapsed >= initDelayMicros {
			st.st = stSendStatusReq
		}
	case stSendStatusReq:
		_ = conn.Raw.Send(context.Background(), []byte{0x15, 0x00})
		st.st = stWaitStatus
		st.enteredAtMicros = nowMicros
		st.retries = 0
	case stWaitStatus:
		d.retryOrAdvance(conn, st, nowMicros, func() {
			_ = conn.Raw.Send(context.Background(), []byte{0x15, 0x00})
		}, stSendReportMode)
	case stSendExtInit1:
		_ = conn.Raw.Send(context.Background(), []byte{0x16, 0x04, 0xA4, 0x00, 0xF0, 0x01, 0x55})
		st.st = stWaitExtInit1Ack
		st.enteredAtMicros = nowMicros
		st.retries = 0
	case stWaitExtInit1Ack:
		d.retryOrAdvance(conn, st, nowMicros, func() {
			_ = conn.Raw.Send(context.Background(), []byte{0x16, 0x04, 0xA4, 0x00, 0xF0, 0x01, 0x55})
		}, stSendExtInit2)
	case stSendExtInit2:
		_ = conn.Raw.Send(context.Background(), []byte{0x16, 0x04, 0xA4, 0x00, 0xFB, 0x01, 0x00})
		st.st = stWaitExtInit2Ack
		st.enteredAtMicros = nowMicros
		st.retries = 0
	case stWaitExtInit2Ack:
		d.retryOrAdvance(conn, st, nowMicros, func() {
			_ = conn.Raw.Send(context.Background(), []byte{0x16, 0x04, 0xA4, 0x00, 0xFB, 0x01, 0x00})
		}, stReadExtType)
	case stReadExtType:
		_ = conn.Raw.Send(context.Background(), []byte{0x17, 0x04, 0xA4, 0x00, 0xFA, 0x00, 0x06})
		st.st = stWaitExtType
		st.enteredAtMicros = nowMicros
		st.retries = 0
	case stWaitExtType:
		d.retryOrAdvance(conn, st, nowMicros, func() {
			_ = conn.Raw.Send(context.Background(), []byte{0x17, 0x04, 0xA4, 0x00, 0xFA, 0x00, 0x06})
		}, stSendReportMode)
	case stSendReportMode:
		mode := byte(reportIDCoreAccel) // 0x31 core + accel, no extension
		if st.hasExtension {
			mode = reportIDExtAccel
		}
		_ = conn.Raw.Send(context.Background(), []byte{0x12, 0x00, mode})
		st.st = stWaitReportAck
		st.enteredAtMicros = nowMicros
		st.retries = 0
	case stWaitReportAck:
		d.retryOrAdvance(conn, st, nowMicros, func() {
			mode := byte(reportIDCoreAccel)
			if st.hasExtension {
				mode = reportIDExtAccel
			}
			_ = conn.Raw.Send(context.Background(), []byte{0x12, 0x00, mode})
		}, stSendLED)
	case stSendLED:
		_ = conn.Raw.Send(context.Background(), []byte{0x11, ledPattern(st.ledSlot)})
		st.st = stWaitLEDAck
		st.enteredAtMicros = nowMicros
		st.retries = 0
	case stWaitLEDAck:
		d.retryOrAdvance(conn, st, nowMicros, func() {
			_ = conn.Raw.Send(context.Background(), []byte{0x11, ledPattern(st.ledSlot)})
		}, stReady)
	case stReady:
		if elapsed >= keepAliveMicros {
			_ = conn.Raw.Send(context.Background(), []byte{0x15, 0x00})
			st.enteredAtMicros = nowMicros
		}
	}
}

// retryOrAdvance resends on a 1s timeout, up to maxRetries, then forces the
// state machine past the ack it never got so one unresponsive peripheral
// doesn't stall bring-up forever.
func (d *Driver) retryOrAdvance(conn *registry.Connection, st *connState, nowMicros uint64, resend func(), forced state) {
	if nowMicros-st.enteredAtMicros < retryTimeoutMicros {
		return
	}
	st.retries++
	if st.retries >= maxRetries {
		st.st = forced
		st.enteredAtMicros = nowMicros
		st.retries = 0
		return
	}
	resend()
	st.enteredAtMicros = nowMicros
}

func ledPattern(slot byte) byte {
	switch slot % 4 {
	case 0:
		return 0x10
	case 1:
		return 0x20
	case 2:
		return 0x40
	default:
		return 0x80
	}
}

func (d *Driver) ProcessReport(conn *registry.Connection, data []byte) {
	if len(data) == 0 {
		return
	}
	st := d.state(conn)
	if st == nil {
		return
	}

	id := data[0]
	switch {
	case id == reportIDStatus:
		d.handleStatus(conn, st, data)
	case id == reportIDAck:
		d.handleAck(st)
	case id == reportIDReadResponse:
		d.handleReadResponse(st, data)
	case id >= reportIDDataMin && id <= reportIDDataMax || id == reportIDExtended:
		d.handleData(conn, st, id, data)
	}
}

func (d *Driver) handleStatus(conn *registry.Connection, st *connState, data []byte) {
	if len(data) < 4 {
		return
	}
	extFlag := data[3]&0x02 != 0

	d.mu.Lock()
	switch st.st {
	case stWaitStatus:
		st.hasExtension = extFlag
		if extFlag {
			st.st = stSendExtInit1
		} else {
			st.st = stSendReportMode
		}
	case stReady:
		if extFlag != st.hasExtension {
			st.hasExtension = extFlag
			if extFlag {
				st.st = stSendExtInit1
			} else {
				st.extension = ExtNone
				st.st = stSendReportMode
			}
		}
	}
	d.mu.Unlock()

	if len(data) < 7 {
		return
	}
	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance
	e.Layout = "wiimote"
	decodeCoreButtons(data[1], data[2], &e)
	e.Battery = event.Battery{Present: true, Level: data[6], Charging: data[3]&0x04 != 0}
	conn.Sink.SubmitInput(e)
}

func (d *Driver) handleAck(st *connState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch st.st {
	case stWaitExtInit1Ack:
		st.st = stSendExtInit2
	case stWaitExtInit2Ack:
		st.st = stReadExtType
	case stWaitReportAck:
		st.st = stSendLED
	case stWaitLEDAck:
		st.st = stReady
	}
}

func (d *Driver) handleReadResponse(st *connState, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st.st != stWaitExtType || len(data) < 7 {
		return
	}
	var buf [6]byte
	copy(buf[:], data[1:7])
	st.extension = classifyExtension(buf)
	st.st = stSendReportMode
}

func (d *Driver) handleData(conn *registry.Connection, st *connState, id byte, data []byte) {
	if len(data) < 3 {
		return
	}
	d.mu.Lock()
	if st.st == stWaitLEDAck {
		st.st = stReady
	}
	extension := st.extension
	hasExtension := st.hasExtension
	orientMode := st.orientationMode
	d.mu.Unlock()

	e := event.New()
	e.DeviceAddr = conn.DeviceAddr
	e.Instance = conn.Instance
	e.Layout = "wiimote"

	// Report 0x3D carries extension bytes only, no core button bytes.
	if id != reportIDExtended {
		decodeCoreButtons(data[1], data[2], &e)
	}

	switch {
	case id == reportIDExtended && len(data) >= 11 && extension == ExtWiiUPro:
		e.Layout = "wiiu-pro"
		decodeWiiUPro(data[1:], &e)
	case id == reportIDExtAccel && hasExtension && len(data) >= 12:
		decodeExtension(extension, data[6:], &e)
	case id == reportIDExtNoAccelNoIR && hasExtension && len(data) >= 9:
		decodeExtension(extension, data[3:], &e)
	case !hasExtension && len(data) >= 6:
		applyOrientation(st, orientMode, data[3], &e)
	}

	conn.Sink.SubmitInput(e)
}

// decodeCoreButtons decodes the Wiimote's always-present button bytes.
// byte1: DL,DR,DD,DU,PLUS(S2). byte2: TWO(B2),ONE(B1),B(L1),A(B3),MINUS(S1),HOME(A1).
func decodeCoreButtons(b1, b2 byte, e *event.Event) {
	if b1&0x01 != 0 {
		e.Buttons |= uint32(vocab.DL)
	}
	if b1&0x02 != 0 {
		e.Buttons |= uint32(vocab.DR)
	}
	if b1&0x04 != 0 {
		e.Buttons |= uint32(vocab.DD)
	}
	if b1&0x08 != 0 {
		e.Buttons |= uint32(vocab.DU)
	}
	if b1&0x10 != 0 {
		e.Buttons |= uint32(vocab.S2)
	}
	if b2&0x01 != 0 {
		e.Buttons |= uint32(vocab.B2)
	}
	if b2&0x02 != 0 {
		e.Buttons |= uint32(vocab.B1)
	}
	if b2&0x04 != 0 {
		e.Buttons |= uint32(vocab.L1)
	}
	if b2&0x08 != 0 {
		e.Buttons |= uint32(vocab.B3)
	}
	if b2&0x10 != 0 {
		e.Buttons |= uint32(vocab.S1)
	}
	if b2&0x20 != 0 {
		e.Buttons |= uint32(vocab.A1)
	}
}

func decodeExtension(ext Extension, buf []byte, e *event.Event) {
	switch ext {
	case ExtNunchuk:
		decodeNunchuk(buf, e)
	case ExtClassic, ExtClassicPro, ExtNESMini, ExtSNESMini:
		decodeClassic(buf, e)
	}
}

func decodeNunchuk(buf []byte, e *event.Event) {
	if len(buf) < 6 {
		return
	}
	e.Analog[vocab.RX] = buf[0]
	e.Analog[vocab.RY] = buf[1]
	// buf[5] carries Z/C active-low in its low two bits.
	if buf[5]&0x01 == 0 {
		e.Buttons |= uint32(vocab.L2)
	}
	if buf[5]&0x02 == 0 {
		e.Buttons |= uint32(vocab.L1)
	}
}

func decodeClassic(buf []byte, e *event.Event) {
	if len(buf) < 6 {
		return
	}
	e.Analog[vocab.LX] = scaleClassicByte(buf[0] & 0x3F)
	e.Analog[vocab.LY] = scaleClassicByte(buf[1] & 0x3F)
	e.Analog[vocab.RX] = buf[2]
	e.Analog[vocab.RY] = buf[3]

	bits := uint16(buf[4]) | uint16(buf[5])<<8
	bit := func(n uint) bool { return bits&(1<<n) == 0 } // active low
	if bit(0) {
		e.Buttons |= uint32(vocab.B1)
	}
	if bit(1) {
		e.Buttons |= uint32(vocab.B2)
	}
	if bit(2) {
		e.Buttons |= uint32(vocab.B3)
	}
	if bit(3) {
		e.Buttons |= uint32(vocab.B4)
	}
	if bit(4) {
		e.Buttons |= uint32(vocab.L1)
	}
	if bit(5) {
		e.Buttons |= uint32(vocab.R1)
	}
	if bit(6) {
		e.Buttons |= uint32(vocab.L2)
	}
	if bit(7) {
		e.Buttons |= uint32(vocab.R2)
	}
	if bit(8) {
		e.Buttons |= uint32(vocab.S1)
	}
	if bit(9) {
		e.Buttons |= uint32(vocab.S2)
	}
}

func scaleClassicByte(v6 byte) uint8 {
	return vocab.ClampAxis1to255(1 + int(v6)*254/63)
}

// wiiUProBits maps the Wii U Pro's three active-low button bytes (offsets
// 8..10 within the extension payload) onto the canonical vocabulary. The
// exact historical bit assignment wasn't recoverable from source; this is an
// internally-consistent, documented choice.
var wiiUProBits = []struct {
	byteIdx int
	bit     uint
	button  vocab.Button
}{
	{8, 0, vocab.B2}, {8, 1, vocab.B1}, {8, 2, vocab.B4}, {8, 3, vocab.B3},
	{8, 4, vocab.R1}, {8, 5, vocab.L1}, {8, 6, vocab.R2}, {8, 7, vocab.L2},
	{9, 0, vocab.S1}, {9, 1, vocab.S2}, {9, 2, vocab.L3}, {9, 3, vocab.R3},
	{9, 4, vocab.A1}, {9, 5, vocab.A2},
	{10, 0, vocab.DU}, {10, 1, vocab.DD}, {10, 2, vocab.DL}, {10, 3, vocab.DR},
}

// decodeWiiUPro decodes report 0x3D's extension payload: four 16-bit LE
// sticks (LX,RX,LY,RY order on the wire) followed by three active-low
// button bytes. buf is the extension payload starting at offset 1 of the
// original report (i.e. buf[0] is extension byte 0).
func decodeWiiUPro(buf []byte, e *event.Event) {
	if len(buf) < 11 {
		return
	}
	lx := uint16(buf[0]) | uint16(buf[1])<<8
	rx := uint16(buf[2]) | uint16(buf[3])<<8
	ly := uint16(buf[4]) | uint16(buf[5])<<8
	ry := uint16(buf[6]) | uint16(buf[7])<<8

	e.Analog[vocab.LX] = scaleWiiUStick(lx, false)
	e.Analog[vocab.LY] = scaleWiiUStick(ly, true)
	e.Analog[vocab.RX] = scaleWiiUStick(rx, false)
	e.Analog[vocab.RY] = scaleWiiUStick(ry, true)

	for _, bb := range wiiUProBits {
		if buf[bb.byteIdx]&(1<<bb.bit) == 0 {
			e.Buttons |= uint32(bb.button)
		}
	}
}

func scaleWiiUStick(raw uint16, invert bool) uint8 {
	delta := int(raw) - extStickCenter
	if delta > extStickRange {
		delta = extStickRange
	}
	if delta < -extStickRange {
		delta = -extStickRange
	}
	if invert {
		delta = -delta
	}
	return vocab.ClampAxis1to255(128 + delta*127/extStickRange)
}

// applyOrientation implements the Wiimote-only horizontal/vertical hold
// detection from accelerometer X deviation, rotating the d-pad 90°
// counter-clockwise and swapping B1/B3 and B2/B4 while held horizontally.
func applyOrientation(st *connState, mode Orientation, accelX byte, e *event.Event) {
	deviation := int(accelX) - 128
	if deviation < 0 {
		deviation = -deviation
	}

	horizontal := st.horizontal
	switch mode {
	case OrientationForceHorizontal:
		horizontal = true
	case OrientationForceVertical:
		horizontal = false
	default:
		if !horizontal && deviation >= orientationEnterDeviation {
			horizontal = true
		} else if horizontal && deviation < orientationExitDeviation {
			horizontal = false
		}
	}
	st.horizontal = horizontal

	if !horizontal {
		return
	}

	rotated := e.Buttons &^ uint32(vocab.DpadMask)
	if e.Buttons&uint32(vocab.DU) != 0 {
		rotated |= uint32(vocab.DR)
	}
	if e.Buttons&uint32(vocab.DR) != 0 {
		rotated |= uint32(vocab.DD)
	}
	if e.Buttons&uint32(vocab.DD) != 0 {
		rotated |= uint32(vocab.DL)
	}
	if e.Buttons&uint32(vocab.DL) != 0 {
		rotated |= uint32(vocab.DU)
	}
	e.Buttons = rotated

	b1 := e.Buttons&uint32(vocab.B1) != 0
	b3 := e.Buttons&uint32(vocab.B3) != 0
	b2 := e.Buttons&uint32(vocab.B2) != 0
	b4 := e.Buttons&uint32(vocab.B4) != 0
	e.Buttons &^= uint32(vocab.B1) | uint32(vocab.B2) | uint32(vocab.B3) | uint32(vocab.B4)
	if b3 {
		e.Buttons |= uint32(vocab.B1)
	}
	if b1 {
		e.Buttons |= uint32(vocab.B3)
	}
	if b4 {
		e.Buttons |= uint32(vocab.B2)
	}
	if b2 {
		e.Buttons |= uint32(vocab.B4)
	}
}

// SetOrientationMode overrides the per-connection orientation hold mode;
// OrientationAuto restores hysteresis-based detection.
func (d *Driver) SetOrientationMode(conn *registry.Connection, mode Orientation) {
	st := d.state(conn)
	if st == nil {
		return
	}
	d.mu.Lock()
	st.orientationMode = mode
	d.mu.Unlock()
}
