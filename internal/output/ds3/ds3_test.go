package ds3

import (
	"testing"

	"github.com/retropad/corebridge/internal/profile"
	"github.com/retropad/corebridge/internal/vocab"
	"github.com/stretchr/testify/require"
)

func TestSendReportLengthAndHeader(t *testing.T) {
	m := New()
	require.NoError(t, m.Init())

	rep, ok := m.SendReport(0, profile.Output{})
	require.True(t, ok)
	require.Len(t, rep, reportLen)
	require.Equal(t, byte(0x01), rep[0])
}

func TestSendReportCrossButtonSetsPressureByte(t *testing.T) {
	m := New()
	require.NoError(t, m.Init())

	rep, ok := m.SendReport(0, profile.Output{Buttons: uint32(vocab.B1)})
	require.True(t, ok)
	require.Equal(t, byte(0x40), rep[3], "buttons2 bit6 is cross")
	require.Equal(t, byte(0xFF), rep[24], "cross pressure byte saturates")
	require.Equal(t, byte(0x00), rep[22], "triangle pressure byte stays released")
}

func TestNotReadyBeforeInit(t *testing.T) {
	m := New()
	_, ok := m.SendReport(0, profile.Output{})
	require.False(t, ok)
}

func TestHandleOutputDecodesRumbleAndLED(t *testing.T) {
	m := New()
	require.NoError(t, m.Init())

	m.HandleOutput(0, []byte{0x10, 0x20, 0x02})
	fb, ok := m.GetFeedback(0)
	require.True(t, ok)
	require.EqualValues(t, 0x20, fb.RumbleLeft)
	require.EqualValues(t, 0x10, fb.RumbleRight)
	require.EqualValues(t, 0x02, fb.LEDPattern)
}
