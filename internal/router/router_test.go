package router

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/player"
	"github.com/retropad/corebridge/internal/profile"
	"github.com/retropad/corebridge/internal/vocab"
)

func TestSubmitInputStoresPolledOutput(t *testing.T) {
	pm := player.New(player.ModeFixed, false)
	r := New(pm)
	r.RegisterOutput("xinput:0", nil)

	src := event.Source{DeviceAddr: 0xA0, Instance: 0}
	r.AddRoute(src, "xinput:0", MergeNone, 0)

	e := event.New()
	e.DeviceAddr = src.DeviceAddr
	e.Instance = src.Instance
	e.Buttons = uint32(vocab.B1)
	r.SubmitInput(e)

	out, ok := r.GetOutputState("xinput:0", 0)
	require.True(t, ok)
	require.EqualValues(t, vocab.B1, out.Buttons)
}

func TestSubmitInputInvokesTapSynchronously(t *testing.T) {
	pm := player.New(player.ModeFixed, false)
	r := New(pm)

	var tapped profile.Output
	var tappedPlayer int
	called := false
	r.RegisterOutput("gpio:0", func(p int, out profile.Output) {
		called = true
		tappedPlayer = p
		tapped = out
	})

	src := event.Source{DeviceAddr: 0xA1, Instance: 0}
	r.AddRoute(src, "gpio:0", MergeNone, 0)

	e := event.New()
	e.DeviceAddr = src.DeviceAddr
	e.Instance = src.Instance
	e.Buttons = uint32(vocab.B2)
	r.SubmitInput(e)

	require.True(t, called)
	require.Equal(t, 0, tappedPlayer)
	require.EqualValues(t, vocab.B2, tapped.Buttons)
}

func TestMergeOutputsORsButtonsAndKeepsNonCenterAxis(t *testing.T) {
	prev := profile.Output{Buttons: uint32(vocab.B1), LX: 200, LY: 128}
	next := profile.Output{Buttons: uint32(vocab.B2), LX: 128, LY: 64}

	merged := mergeOutputs(prev, next)
	require.EqualValues(t, vocab.B1|vocab.B2, merged.Buttons)
	require.EqualValues(t, 200, merged.LX, "next's centered LX doesn't overwrite prev's held value")
	require.EqualValues(t, 64, merged.LY, "next's non-center LY wins")
}

// TestMergeORAccumulatesAcrossTicks exercises the router's merge path for
// one source submitting repeatedly to the same slot: each tick's buttons OR
// onto the stored state rather than replacing it outright.
func TestMergeORAccumulatesAcrossTicks(t *testing.T) {
	pm := player.New(player.ModeFixed, false)
	r := New(pm)
	r.RegisterOutput("xinput:0", nil)

	src := event.Source{DeviceAddr: 0xA0, Instance: 0}
	r.AddRoute(src, "xinput:0", MergeOR, 0)

	e1 := event.New()
	e1.DeviceAddr, e1.Instance = src.DeviceAddr, src.Instance
	e1.Buttons = uint32(vocab.B1)
	r.SubmitInput(e1)

	e2 := event.New()
	e2.DeviceAddr, e2.Instance = src.DeviceAddr, src.Instance
	e2.Buttons = uint32(vocab.B2)
	r.SubmitInput(e2)

	out, ok := r.GetOutputState("xinput:0", 0)
	require.True(t, ok)
	require.EqualValues(t, vocab.B1|vocab.B2, out.Buttons)
}

func TestDeviceDisconnectedClearsState(t *testing.T) {
	pm := player.New(player.ModeDynamic, false)
	r := New(pm)
	r.RegisterOutput("xinput:0", nil)

	src := event.Source{DeviceAddr: 0xA0, Instance: 0}
	r.AddRoute(src, "xinput:0", MergeNone, 0)

	e := event.New()
	e.DeviceAddr, e.Instance = src.DeviceAddr, src.Instance
	e.Buttons = uint32(vocab.B1)
	r.SubmitInput(e)

	_, ok := r.GetOutputState("xinput:0", 0)
	require.True(t, ok)

	r.DeviceDisconnected(src)
	_, ok2 := r.GetOutputState("xinput:0", 0)
	require.False(t, ok2)
	require.Equal(t, 0, r.GetPlayerCount())
}
