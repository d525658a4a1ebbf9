package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTickRunsStagesInOrder(t *testing.T) {
	var order []string
	l := New(func() uint64 { return 42 })
	l.Use("a", func(uint64) { order = append(order, "a") })
	l.Use("b", func(uint64) { order = append(order, "b") })
	l.Use("c", func(uint64) { order = append(order, "c") })

	l.Tick()

	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTickPassesCurrentTime(t *testing.T) {
	var seen uint64
	now := uint64(100)
	l := New(func() uint64 { return now })
	l.Use("stage", func(n uint64) { seen = n })

	l.Tick()
	require.Equal(t, uint64(100), seen)

	now = 200
	l.Tick()
	require.Equal(t, uint64(200), seen)
}

func TestStopEndsRun(t *testing.T) {
	l := New(func() uint64 { return 0 })
	ticks := 0
	l.Use("stage", func(uint64) { ticks++ })

	done := make(chan struct{})
	go func() {
		l.Run(time.Millisecond)
		close(done)
	}()

	l.Stop()
	<-done
	require.True(t, ticks >= 0)
}
