// Package event defines the normalized Input Event record that every driver
// produces and the router consumes. It is a plain value type: copied into
// the pipeline, never mutated after submission.
package event

import "github.com/retropad/corebridge/internal/vocab"

// Kind is the input event's device category.
type Kind uint8

const (
	KindGamepad Kind = iota
	KindKeyboard
	KindMouse
)

// Transport names the physical link a device arrived over.
type Transport uint8

const (
	TransportUSB Transport = iota
	TransportBTClassic
	TransportBTBLE
	TransportNative
)

// Motion carries optional accelerometer/gyroscope samples, normalized to
// ±32767 ≙ ±4 g / ±2000 °/s.
type Motion struct {
	Present     bool
	Accel       [3]int16
	Gyro        [3]int16
	AccelRangeG float32
	GyroRangeDS float32
}

// Battery carries optional battery telemetry.
type Battery struct {
	Present   bool
	Level     uint8 // 0..100
	Charging  bool
}

// Event is the immutable, post-decode, pre-profile normalized record a
// driver produces once per poll/notification and the router consumes within
// the same scheduler tick.
type Event struct {
	// DeviceAddr/Instance are the stable identity of the physical source for
	// the connection's lifetime. Addresses are partitioned by transport:
	// 0x00-0x7F USB host, 0xA0-0xAF BT, 0xD0-0xFF native ports.
	DeviceAddr byte
	Instance   byte

	Kind      Kind
	Transport Transport
	Layout    string // vendor hint, e.g. "8bitdo-ultimate", "wiiu-pro"

	Buttons     uint32
	Analog      [vocab.AxisCount]uint8
	ButtonCount int

	Motion  Motion
	Battery Battery
}

// Init resets e to its neutral state: sticks centered, triggers released,
// no buttons held, no motion or battery telemetry.
func Init(e *Event) {
	*e = Event{}
	e.Analog[vocab.LX] = vocab.StickCenter
	e.Analog[vocab.LY] = vocab.StickCenter
	e.Analog[vocab.RX] = vocab.StickCenter
	e.Analog[vocab.RY] = vocab.StickCenter
	e.Analog[vocab.L2A] = vocab.TriggerReleased
	e.Analog[vocab.R2A] = vocab.TriggerReleased
	e.Analog[vocab.RZ] = vocab.TriggerReleased
}

// New returns a freshly initialized Event.
func New() Event {
	var e Event
	Init(&e)
	return e
}

// Source identifies a physical connection for router/player-manager lookups.
type Source struct {
	DeviceAddr byte
	Instance   byte
}

// SourceOf extracts the (address, instance) identity from an event.
func SourceOf(e *Event) Source {
	return Source{DeviceAddr: e.DeviceAddr, Instance: e.Instance}
}

// Address partitions: never overlapping across transports.
const (
	USBAddrMin    = 0x00
	USBAddrMax    = 0x7F
	BTAddrMin     = 0xA0
	BTAddrMax     = 0xAF
	NativeAddrMin = 0xD0
	NativeAddrMax = 0xFF
)
