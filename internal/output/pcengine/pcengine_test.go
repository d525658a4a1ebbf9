package pcengine

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

func TestSendReportEncodesPlainButtons(t *testing.T) {
	m := New()
	require.NoError(t, m.Init())

	rep, ok := m.SendReport(0, profile.Output{Buttons: uint32(vocab.B1 | vocab.S1)})
	require.True(t, ok)
	require.Len(t, rep, reportLen)
	require.EqualValues(t, 1<<0|1<<2, rep[2])
}

func TestHatFromDpad(t *testing.T) {
	require.EqualValues(t, 0, hatFromDpad(uint32(vocab.DU)))
	require.EqualValues(t, hatCentered, hatFromDpad(0))
}

func TestTurboOscillatesAtSelectedPeriod(t *testing.T) {
	m := New()
	require.NoError(t, m.Init())

	m.Tick(0) // first tick only seeds the clock, no toggle yet
	rep, _ := m.SendReport(0, profile.Output{Buttons: uint32(vocab.L1)})
	require.Zero(t, rep[2]&0x01, "turbo starts in the off phase")

	m.Tick(turboPeriodsMicros[0])
	rep, _ = m.SendReport(0, profile.Output{Buttons: uint32(vocab.L1)})
	require.NotZero(t, rep[2]&0x01, "turbo flips on once its period elapses")
}

func TestCycleTurboSpeedWraps(t *testing.T) {
	m := New()
	require.NoError(t, m.Init())
	require.Equal(t, 0, m.turboIdx)
	m.CycleTurboSpeed()
	m.CycleTurboSpeed()
	m.CycleTurboSpeed()
	require.Equal(t, 0, m.turboIdx)
}

func TestGetFeedbackAlwaysEmpty(t *testing.T) {
	m := New()
	require.NoError(t, m.Init())
	_, ok := m.GetFeedback(0)
	require.False(t, ok)
}
