package wiimote

// state is the Wiimote/Wii U Pro family's init/runtime state machine.
type state int

const (
	stWaitInit state = iota
	stSendStatusReq
	stWaitStatus
	stSendExtInit1
	stWaitExtInit1Ack
	stSendExtInit2
	stWaitExtInit2Ack
	stReadExtType
	stWaitExtType
	stSendReportMode
	stWaitReportAck
	stSendLED
	stWaitLEDAck
	stReady
)

// Extension identifies the peripheral plugged into the Wiimote's extension
// port, classified from the 6-byte signature read at register 0xA400FA.
type Extension int

const (
	ExtNone Extension = iota
	ExtNunchuk
	ExtClassic
	ExtClassicPro
	ExtNESMini
	ExtSNESMini
	ExtGuitar
	ExtWiiUPro
	ExtUnknown
)

// classifyExtension decodes the 6-byte extension signature: the suffix at
// buf[4],buf[5] selects the family; buf[0] selects the Classic Controller
// sub-variant.
func classifyExtension(buf [6]byte) Extension {
	switch {
	case buf[4] == 0x00 && buf[5] == 0x00:
		return ExtNunchuk
	case buf[4] == 0x01 && buf[5] == 0x01:
		switch buf[0] {
		case 0x00:
			return ExtClassic
		case 0x01:
			return ExtClassicPro
		case 0x02:
			return ExtNESMini
		case 0x03:
			return ExtSNESMini
		default:
			return ExtClassic
		}
	case buf[4] == 0x01 && buf[5] == 0x03:
		return ExtGuitar
	case buf[4] == 0x01 && buf[5] == 0x20:
		return ExtWiiUPro
	default:
		return ExtUnknown
	}
}

// Orientation is the Wiimote-only (no extension) held-orientation mode.
type Orientation int

const (
	OrientationAuto Orientation = iota
	OrientationForceHorizontal
	OrientationForceVertical
)

const (
	retryTimeoutMicros = 1_000_000 // 1s
	maxRetries         = 5
	initDelayMicros    = 100_000 // 100ms
	keepAliveMicros    = 30_000_000 // 30s

	orientationEnterDeviation = 20
	orientationExitDeviation  = 12
)
