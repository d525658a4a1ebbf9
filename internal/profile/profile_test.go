package profile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/vocab"
)

func neutralEvent(buttons uint32) *event.Event {
	e := event.New()
	e.Buttons = buttons
	return &e
}

func TestButtonMapIdempotencePassthrough(t *testing.T) {
	p := &Profile{
		ButtonMap: []ButtonMapEntry{
			{InputBit: vocab.B1, OutputBit: vocab.B1},
			{InputBit: vocab.B2, OutputBit: vocab.B2},
		},
	}
	for _, buttons := range []uint32{0, uint32(vocab.B1), uint32(vocab.B1 | vocab.B2), uint32(vocab.DU)} {
		e := neutralEvent(buttons)
		out, _ := Apply(p, e, nil)
		require.Equal(t, buttons, out.Buttons)
		require.EqualValues(t, vocab.StickCenter, out.LX)
		require.EqualValues(t, vocab.StickCenter, out.LY)
	}
}

func TestDisabledWinsOverRemap(t *testing.T) {
	p := &Profile{
		ButtonMap: []ButtonMapEntry{
			{InputBit: vocab.B1, OutputBit: vocab.B3},
			{InputBit: vocab.B1, Disabled: true},
		},
	}
	e := neutralEvent(uint32(vocab.B1))
	out, _ := Apply(p, e, nil)
	require.Zero(t, out.Buttons&uint32(vocab.B1))
	require.Zero(t, out.Buttons&uint32(vocab.B3))
}

func TestSOCDNeutralize(t *testing.T) {
	p := &Profile{SOCD: SOCDNeutral}
	st := &SOCDState{}
	for _, buttons := range []uint32{
		uint32(vocab.DL | vocab.DR),
		uint32(vocab.DU | vocab.DD),
		uint32(vocab.DL | vocab.DR | vocab.DU | vocab.DD),
	} {
		e := neutralEvent(buttons)
		out, _ := Apply(p, e, st)
		require.NotEqual(t, uint32(vocab.DL|vocab.DR), out.Buttons&uint32(vocab.DL|vocab.DR))
		require.NotEqual(t, uint32(vocab.DU|vocab.DD), out.Buttons&uint32(vocab.DU|vocab.DD))
	}
}

// TestSOCDLastWins verifies the last-direction-wins SOCD resolution mode.
func TestSOCDLastWins(t *testing.T) {
	p := &Profile{SOCD: SOCDLastWins}
	st := &SOCDState{}

	out1, _ := Apply(p, neutralEvent(uint32(vocab.DU)), st)
	require.EqualValues(t, vocab.DU, out1.Buttons)

	out2, _ := Apply(p, neutralEvent(uint32(vocab.DU|vocab.DD)), st)
	require.EqualValues(t, vocab.DD, out2.Buttons, "DD was newly pressed, so it wins")

	out3, _ := Apply(p, neutralEvent(uint32(vocab.DD)), st)
	require.EqualValues(t, vocab.DD, out3.Buttons)
}

func TestComboExclusivity(t *testing.T) {
	mask := uint32(vocab.B1 | vocab.B2)
	p := &Profile{
		Combos: []ComboEntry{
			{Mask: mask, Replacement: uint32(vocab.A1), Exclusive: true},
		},
	}

	out, _ := Apply(p, neutralEvent(mask), nil)
	require.EqualValues(t, vocab.A1, out.Buttons)

	extra := mask | uint32(vocab.B3)
	out2, _ := Apply(p, neutralEvent(extra), nil)
	require.Equal(t, extra, out2.Buttons, "extra bits prevent an exclusive combo from firing; input passes through")
}

func TestTriggerThresholdCrossed(t *testing.T) {
	p := &Profile{TriggerL: TriggerBehavior{Mode: TriggerThresholdCrossed, Threshold: 200}}
	e := neutralEvent(0)
	e.Analog[vocab.L2A] = 210
	out, _ := Apply(p, e, nil)
	require.NotZero(t, out.Buttons&uint32(vocab.L2))

	e2 := neutralEvent(0)
	e2.Analog[vocab.L2A] = 50
	out2, _ := Apply(p, e2, nil)
	require.Zero(t, out2.Buttons&uint32(vocab.L2))
}

func TestStickSwapAndInvert(t *testing.T) {
	p := &Profile{SwapSticks: true, InvertY: true}
	e := neutralEvent(0)
	e.Analog[vocab.LX] = 10
	e.Analog[vocab.LY] = 200
	e.Analog[vocab.RX] = 250
	e.Analog[vocab.RY] = 5
	out, _ := Apply(p, e, nil)
	require.EqualValues(t, 250, out.LX) // swapped from RX
	require.EqualValues(t, 10, out.RX)  // swapped from LX
	require.EqualValues(t, 256-5, out.LY)
}
