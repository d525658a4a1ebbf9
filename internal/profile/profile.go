// Package profile implements the per-output transform pipeline: combo
// resolution, button remapping, stick transforms, trigger behavior, and
// SOCD resolution, applied in that fixed order to every submitted input
// event before it reaches an output mode.
package profile

import (
	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/vocab"
)

// ComboEntry fires its replacement mask into the button word when the
// configured mask matches.
type ComboEntry struct {
	Mask        uint32
	Replacement uint32
	Exclusive   bool // fires only when buttons == Mask, not just buttons&Mask == Mask
	OrIn        bool // true: buttons |= Replacement; false: buttons = Replacement
}

// fires reports whether c's mask condition is met against buttons.
func (c ComboEntry) fires(buttons uint32) bool {
	if c.Exclusive {
		return buttons == c.Mask
	}
	return buttons&c.Mask == c.Mask
}

// ButtonMapEntry remaps one input bit. Disabled takes priority over any
// other entry for the same InputBit (see TestDisabledWinsOverRemap).
type ButtonMapEntry struct {
	InputBit  vocab.Button
	OutputBit vocab.Button
	Disabled  bool

	HasAnalogTarget bool
	AnalogTarget    vocab.Axis
	Pressure        uint8 // value written to AnalogTarget when InputBit is held
}

// TriggerMode selects how an analog trigger's digital/analog halves combine.
type TriggerMode int

const (
	TriggerPassthrough TriggerMode = iota
	TriggerDigitalOnly
	TriggerAnalogOnly
	TriggerFixed
	TriggerDisabled
	TriggerThresholdCrossed
)

// TriggerBehavior configures one trigger (L2 or R2).
type TriggerBehavior struct {
	Mode      TriggerMode
	Fixed     uint8
	Threshold uint8
}

// SOCDMode selects the simultaneous-opposite-cardinal-direction strategy.
type SOCDMode int

const (
	SOCDNeutral SOCDMode = iota
	SOCDLastWins
	SOCDSecondPriority
	SOCDUpPriority
	SOCDLeftRightNeutral
)

// Profile is the full per-output transform configuration.
type Profile struct {
	Combos     []ComboEntry
	ButtonMap  []ButtonMapEntry
	SwapSticks bool
	InvertY    bool
	Sensitivity float64 // multiplier, 1.0 = unity

	TriggerL TriggerBehavior
	TriggerR TriggerBehavior

	SOCD SOCDMode
}

// Output is the post-profile record pushed to an output mode.
type Output struct {
	Buttons uint32
	LX, LY, RX, RY uint8
	L2A, R2A       uint8
	Pressure       [12]uint8
	HasPressure    bool
}

// SOCDState tracks per-player recency for the last-wins/second-priority
// strategies across ticks; callers keep one per (player, output).
type SOCDState struct {
	prevRaw       uint32
	horizWinner   vocab.Button
	vertWinner    vocab.Button
}

// Apply runs the full pipeline against e and returns the profile output.
// preProfileButtons is the button word as it stood before step 1 (combo
// resolution), for hotkey detectors that must inspect raw input.
func Apply(p *Profile, e *event.Event, socd *SOCDState) (out Output, preProfileButtons uint32) {
	preProfileButtons = e.Buttons
	buttons := e.Buttons

	buttons = resolveCombos(p.Combos, buttons)

	var analogOverride [vocab.AxisCount]uint8
	var analogOverridden [vocab.AxisCount]bool
	buttons = applyButtonMap(p.ButtonMap, buttons, &analogOverride, &analogOverridden)

	lx, ly, rx, ry := e.Analog[vocab.LX], e.Analog[vocab.LY], e.Analog[vocab.RX], e.Analog[vocab.RY]
	if p.SwapSticks {
		lx, ly, rx, ry = rx, ry, lx, ly
	}
	if p.InvertY {
		ly = invertAxis(ly)
		ry = invertAxis(ry)
	}
	if p.Sensitivity != 0 && p.Sensitivity != 1.0 {
		lx = scaleSensitivity(lx, p.Sensitivity)
		ly = scaleSensitivity(ly, p.Sensitivity)
		rx = scaleSensitivity(rx, p.Sensitivity)
		ry = scaleSensitivity(ry, p.Sensitivity)
	}

	l2a := e.Analog[vocab.L2A]
	r2a := e.Analog[vocab.R2A]
	buttons, l2a = applyTrigger(p.TriggerL, buttons, vocab.L2, l2a)
	buttons, r2a = applyTrigger(p.TriggerR, buttons, vocab.R2, r2a)

	if socd != nil {
		buttons = resolveSOCD(p.SOCD, buttons, socd)
	}

	if analogOverridden[vocab.L2A] {
		l2a = analogOverride[vocab.L2A]
	}
	if analogOverridden[vocab.R2A] {
		r2a = analogOverride[vocab.R2A]
	}

	out = Output{Buttons: buttons, LX: lx, LY: ly, RX: rx, RY: ry, L2A: l2a, R2A: r2a}
	return out, preProfileButtons
}

func resolveCombos(combos []ComboEntry, buttons uint32) uint32 {
	for _, c := range combos {
		if !c.fires(buttons) {
			continue
		}
		if c.OrIn {
			buttons |= c.Replacement
		} else {
			buttons = c.Replacement
		}
	}
	return buttons
}

func applyButtonMap(entries []ButtonMapEntry, buttons uint32, analogOverride *[vocab.AxisCount]uint8, analogOverridden *[vocab.AxisCount]bool) uint32 {
	if len(entries) == 0 {
		return buttons
	}

	var disabled uint32
	for _, me := range entries {
		if me.Disabled {
			disabled |= uint32(me.InputBit)
		}
	}

	var mapped uint32
	var touched uint32
	for _, me := range entries {
		touched |= uint32(me.InputBit)
		if disabled&uint32(me.InputBit) != 0 {
			continue
		}
		if buttons&uint32(me.InputBit) == 0 {
			continue
		}
		if me.OutputBit != 0 {
			mapped |= uint32(me.OutputBit)
		}
		if me.HasAnalogTarget {
			analogOverride[me.AnalogTarget] = me.Pressure
			analogOverridden[me.AnalogTarget] = true
		}
	}

	// Bits with no map entry at all pass through unchanged.
	passthrough := buttons &^ touched
	return mapped | passthrough
}

func invertAxis(v uint8) uint8 {
	return vocab.ClampAxis1to255(256 - int(v))
}

func scaleSensitivity(v uint8, mult float64) uint8 {
	delta := float64(int(v) - 128)
	return vocab.ClampU8(128 + int(delta*mult))
}

func applyTrigger(tb TriggerBehavior, buttons uint32, digitalBit vocab.Button, analog uint8) (uint32, uint8) {
	held := buttons&uint32(digitalBit) != 0
	switch tb.Mode {
	case TriggerPassthrough:
		return buttons, analog
	case TriggerDigitalOnly:
		return buttons, 0
	case TriggerAnalogOnly:
		buttons &^= uint32(digitalBit)
		return buttons, analog
	case TriggerFixed:
		if held {
			return buttons, tb.Fixed
		}
		return buttons, analog
	case TriggerDisabled:
		buttons &^= uint32(digitalBit)
		return buttons, 0
	case TriggerThresholdCrossed:
		if analog >= tb.Threshold {
			buttons |= uint32(digitalBit)
		} else {
			buttons &^= uint32(digitalBit)
		}
		return buttons, analog
	}
	return buttons, analog
}

func resolveSOCD(mode SOCDMode, buttons uint32, st *SOCDState) uint32 {
	rawIncoming := buttons
	buttons = resolveAxisPair(mode, buttons, st.prevRaw, vocab.DL, vocab.DR, &st.horizWinner, horizontalPriorityWinner(mode))
	buttons = resolveAxisPair(mode, buttons, st.prevRaw, vocab.DU, vocab.DD, &st.vertWinner, verticalPriorityWinner(mode))
	st.prevRaw = rawIncoming
	return buttons
}

// horizontalPriorityWinner/verticalPriorityWinner give the fixed-priority
// winner for modes that don't use recency.
func horizontalPriorityWinner(mode SOCDMode) vocab.Button {
	switch mode {
	case SOCDSecondPriority:
		return vocab.DR
	case SOCDLeftRightNeutral:
		return 0 // neutralize, handled specially below
	default:
		return 0
	}
}

func verticalPriorityWinner(mode SOCDMode) vocab.Button {
	switch mode {
	case SOCDSecondPriority:
		return vocab.DD
	case SOCDUpPriority:
		return vocab.DU
	default:
		return 0
	}
}

// resolveAxisPair applies mode to one opposing pair (a, b), e.g. (DL, DR).
// prevRawPair is the raw (pre-SOCD) state of this pair from the previous
// tick, used by last-wins to detect which side was pressed more recently.
func resolveAxisPair(mode SOCDMode, buttons uint32, prevRaw uint32, a, b vocab.Button, winnerState *vocab.Button, priorityWinner vocab.Button) uint32 {
	pairMask := uint32(a) | uint32(b)
	cur := buttons & pairMask
	if cur != pairMask {
		if cur == uint32(a) {
			*winnerState = a
		} else if cur == uint32(b) {
			*winnerState = b
		} else {
			*winnerState = 0
		}
		return buttons
	}

	// Both held.
	switch mode {
	case SOCDNeutral:
		return buttons &^ pairMask
	case SOCDLeftRightNeutral:
		if a == vocab.DL {
			return buttons &^ pairMask
		}
		fallthrough
	case SOCDLastWins:
		prevPair := prevRaw & pairMask
		var winner vocab.Button
		switch {
		case prevPair == uint32(a):
			winner = b // b newly pressed this tick
		case prevPair == uint32(b):
			winner = a
		case *winnerState != 0:
			winner = *winnerState
		default:
			winner = a
		}
		*winnerState = winner
		return (buttons &^ pairMask) | uint32(winner)
	case SOCDSecondPriority, SOCDUpPriority:
		winner := priorityWinner
		if winner == 0 {
			winner = a
		}
		*winnerState = winner
		return (buttons &^ pairMask) | uint32(winner)
	}
	return buttons &^ pairMask
}
