// Package output holds the output-mode implementations: each one turns a
// profile.Output into a device-specific USB/wire report, and decodes
// incoming OUT reports (rumble, LED) into per-player feedback. A mode owns
// only its own state; the router pushes to it once per SubmitInput call or
// once per router.task tick for polled outputs.
package output

import "github.com/retropad/corebridge/internal/profile"

// Feedback is what an output mode has decoded from a host OUT report for
// one port: rumble motor intensities and, where the device has one, a
// player-indicator LED pattern. The dirty bit lets a device driver's task
// pick up only feedback that actually changed since the last tick.
type Feedback struct {
	RumbleLeft  uint8
	RumbleRight uint8
	LEDPattern  uint8
	Dirty       bool
}

// Mode is the capability set every output implementation provides:
// init/is_ready/send_report/handle_output/get_feedback.
type Mode interface {
	// Init prepares the mode's internal state. Safe to call once at startup.
	Init() error
	// IsReady reports whether port is attached and can accept a report.
	IsReady(port int) bool
	// SendReport builds the wire report for port from out. ok is false if
	// port is out of range or the mode isn't ready yet.
	SendReport(port int, out profile.Output) (report []byte, ok bool)
	// HandleOutput decodes one host->device OUT report.
	HandleOutput(reportID byte, data []byte)
	// GetFeedback returns the decoded feedback for port and clears its dirty
	// bit. ok is false if nothing is pending.
	GetFeedback(port int) (fb Feedback, ok bool)
	// Ports returns how many independent output ports this mode exposes.
	Ports() int
}
