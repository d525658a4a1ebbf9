package directinput

import (
	"testing"

	"github.com/retropad/corebridge/internal/profile"
	"github.com/retropad/corebridge/internal/vocab"
	"github.com/stretchr/testify/require"
)

func TestSendReportNotReadyBeforeInit(t *testing.T) {
	m := New()
	_, ok := m.SendReport(0, profile.Output{})
	require.False(t, ok)
}

func TestSendReportEncodesAxesAndButtons(t *testing.T) {
	m := New()
	require.NoError(t, m.Init())

	out := profile.Output{LX: 10, LY: 20, RX: 30, RY: 40, Buttons: uint32(vocab.B1 | vocab.L2)}
	rep, ok := m.SendReport(0, out)
	require.True(t, ok)
	require.Len(t, rep, reportLen)
	require.Equal(t, byte(10), rep[0])
	require.Equal(t, byte(20), rep[1])
	require.Equal(t, byte(30), rep[2])
	require.Equal(t, byte(40), rep[3])

	buttons := uint16(rep[5]) | uint16(rep[6])<<8
	require.NotZero(t, buttons&(1<<1), "B1 is HID button 2, bit index 1")
	require.NotZero(t, buttons&(1<<6), "L2 is HID button 7, bit index 6")
}

func TestHatFromDpadDirections(t *testing.T) {
	require.EqualValues(t, 0, hatFromDpad(uint32(vocab.DU)))
	require.EqualValues(t, 1, hatFromDpad(uint32(vocab.DU|vocab.DR)))
	require.EqualValues(t, 4, hatFromDpad(uint32(vocab.DD)))
	require.EqualValues(t, hatCentered, hatFromDpad(0))
}

func TestSendReportRejectsOtherPorts(t *testing.T) {
	m := New()
	require.NoError(t, m.Init())
	_, ok := m.SendReport(1, profile.Output{})
	require.False(t, ok)
}

func TestGetFeedbackNeverDirty(t *testing.T) {
	m := New()
	require.NoError(t, m.Init())
	m.HandleOutput(0, []byte{1, 2, 3})
	_, ok := m.GetFeedback(0)
	require.False(t, ok)
}
