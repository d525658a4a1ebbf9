package player

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retropad/corebridge/internal/event"
)

func TestAutoAssignDeferredUntilNonzeroButtons(t *testing.T) {
	m := New(ModeFixed, true)
	src := event.Source{DeviceAddr: 0xA0, Instance: 0}

	_, ok := m.Assign(src, 0)
	require.False(t, ok)

	slot, ok := m.Assign(src, 1)
	require.True(t, ok)
	require.Equal(t, 0, slot)

	// subsequent calls, even with zero buttons, keep the existing slot.
	slot2, ok2 := m.Assign(src, 0)
	require.True(t, ok2)
	require.Equal(t, slot, slot2)
}

func TestDynamicCompactsOnDisconnect(t *testing.T) {
	m := New(ModeDynamic, false)
	a := event.Source{DeviceAddr: 0xA0, Instance: 0}
	b := event.Source{DeviceAddr: 0xA1, Instance: 0}
	c := event.Source{DeviceAddr: 0xA2, Instance: 0}

	slotA, _ := m.Assign(a, 1)
	slotB, _ := m.Assign(b, 1)
	slotC, _ := m.Assign(c, 1)
	require.Equal(t, []int{0, 1, 2}, []int{slotA, slotB, slotC})

	m.RemovePlayer(0xA0)
	require.Equal(t, 2, m.Count())

	slotB2, okB := m.Slot(b)
	require.True(t, okB)
	require.Equal(t, 0, slotB2, "dynamic mode compacts surviving slots down, preserving relative order")

	slotC2, okC := m.Slot(c)
	require.True(t, okC)
	require.Equal(t, 1, slotC2)
}

func TestRemovePlayerIdempotent(t *testing.T) {
	m := New(ModeFixed, false)
	require.NotPanics(t, func() {
		m.RemovePlayer(0xFF)
		m.RemovePlayer(0xFF)
	})
}

func TestFixedModeDoesNotShift(t *testing.T) {
	m := New(ModeFixed, false)
	a := event.Source{DeviceAddr: 0xA0, Instance: 0}
	b := event.Source{DeviceAddr: 0xA1, Instance: 0}

	slotA, _ := m.Assign(a, 1)
	slotB, _ := m.Assign(b, 1)
	require.Equal(t, 0, slotA)
	require.Equal(t, 1, slotB)

	m.RemovePlayer(0xA0)
	slotB2, ok := m.Slot(b)
	require.True(t, ok)
	require.Equal(t, 1, slotB2, "fixed mode never shifts surviving slots")
}
