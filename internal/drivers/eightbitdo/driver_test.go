package eightbitdo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

type sink struct{ got []event.Event }

func (s *sink) SubmitInput(e event.Event) { s.got = append(s.got, e) }

type fakeRaw struct{ sent [][]byte }

func (f *fakeRaw) Send(_ context.Context, b []byte) error {
	f.sent = append(f.sent, append([]byte{}, b...))
	return nil
}

func TestMatch(t *testing.T) {
	d := New()
	require.True(t, d.Match(registry.Identity{VendorID: vendorID8BitDo, ProductID: productUltimate}))
	require.False(t, d.Match(registry.Identity{VendorID: 0x1234, ProductID: productUltimate}))
}

func TestProcessReportLTRTNotSwapped(t *testing.T) {
	d := New()
	s := &sink{}
	conn := &registry.Connection{DeviceAddr: 0xA0, Instance: 0, Sink: s}
	require.True(t, d.Init(conn))

	report := make([]byte, inputReportLen)
	report[0] = reportIDInput
	report[1] = 0x08 // neutral hat nibble
	report[2], report[3], report[4], report[5] = 128, 128, 128, 128
	report[6] = 0x40 // LT ("brake")
	report[7] = 0x90 // RT ("accelerator")

	d.ProcessReport(conn, report)
	require.Len(t, s.got, 1)
	require.EqualValues(t, 0x40, s.got[0].Analog[vocab.L2A])
	require.EqualValues(t, 0x90, s.got[0].Analog[vocab.R2A])
}

func TestRumbleDispatchedOnTask(t *testing.T) {
	d := New()
	s := &sink{}
	raw := &fakeRaw{}
	conn := &registry.Connection{DeviceAddr: 0xA0, Instance: 0, Sink: s, Raw: raw}
	require.True(t, d.Init(conn))

	d.SetRumble(conn, RumbleState{Strong: 80, Weak: 30})
	d.Task(conn, 0)

	require.Len(t, raw.sent, 1)
	require.Equal(t, []byte{reportIDRumble, 80, 30, 0, 0}, raw.sent[0])
}
