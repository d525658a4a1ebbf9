// Package vocab defines the canonical button and analog-axis vocabulary that
// every driver and output mode agrees on. Nothing else in the data plane
// knows about a vendor's native bit layout past the driver boundary.
package vocab

// Button is one of the 22 canonical button bits, active-high: a set bit
// means pressed. Stored packed into a 32-bit word (10 bits reserved for
// future growth).
type Button uint32

const (
	B1 Button = 1 << iota // face bottom
	B2                    // face right
	B3                    // face left
	B4                    // face top
	L1                    // left shoulder
	R1                    // right shoulder
	L2                    // left trigger, digital
	R2                    // right trigger, digital
	S1                    // select/back
	S2                    // start
	L3                    // left stick click
	R3                    // right stick click
	DU                    // d-pad up
	DD                    // d-pad down
	DL                    // d-pad left
	DR                    // d-pad right
	A1                    // home
	A2                    // capture
	A3                    // mute
	A4                    // aux
	L4                    // left paddle
	R4                    // right paddle
)

// AllButtons lists every canonical button in stable bit order, used by
// profile UIs and tests that need to enumerate the vocabulary.
var AllButtons = []Button{
	B1, B2, B3, B4,
	L1, R1, L2, R2,
	S1, S2,
	L3, R3,
	DU, DD, DL, DR,
	A1, A2, A3, A4,
	L4, R4,
}

// DpadMask isolates the four d-pad bits, used by SOCD resolution.
const DpadMask = DU | DD | DL | DR
