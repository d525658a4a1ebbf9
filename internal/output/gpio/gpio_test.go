package gpio

import (
	"testing"

	"github.com/retropad/corebridge/internal/profile"
	"github.com/retropad/corebridge/internal/vocab"
	"github.com/stretchr/testify/require"
)

type fakePins struct {
	state map[int]bool
}

func newFakePins() *fakePins { return &fakePins{state: make(map[int]bool)} }

func (f *fakePins) SetPin(line int, high bool) { f.state[line] = high }

func TestTapWritesMappedLines(t *testing.T) {
	pins := newFakePins()
	m := New(pins, Mapping{vocab.B1: 2, vocab.DU: 5})
	require.NoError(t, m.Init())

	m.Tap(0, profile.Output{Buttons: uint32(vocab.B1)})
	require.True(t, pins.state[2])
	require.False(t, pins.state[5])
}

func TestTapIgnoresOtherPlayers(t *testing.T) {
	pins := newFakePins()
	m := New(pins, Mapping{vocab.B1: 2})
	require.NoError(t, m.Init())

	m.Tap(1, profile.Output{Buttons: uint32(vocab.B1)})
	require.Empty(t, pins.state)
}

func TestSendReportDrivesPinsAndReturnsNoBytes(t *testing.T) {
	pins := newFakePins()
	m := New(pins, Mapping{vocab.B2: 7})
	require.NoError(t, m.Init())

	rep, ok := m.SendReport(0, profile.Output{Buttons: uint32(vocab.B2)})
	require.True(t, ok)
	require.Nil(t, rep)
	require.True(t, pins.state[7])
}

func TestNotReadyBeforeInit(t *testing.T) {
	pins := newFakePins()
	m := New(pins, Mapping{})
	_, ok := m.SendReport(0, profile.Output{})
	require.False(t, ok)
}
