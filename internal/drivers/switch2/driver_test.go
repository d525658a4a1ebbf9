package switch2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/registry"
	"github.com/retropad/corebridge/internal/vocab"
)

type sink struct{ got []event.Event }

func (s *sink) SubmitInput(e event.Event) { s.got = append(s.got, e) }

func centeredReport() []byte {
	r := make([]byte, reportLen)
	// pack center value 2048 into both halves of each 3-byte pair:
	// low12=2048 (0x800), high12=2048 (0x800) -> bytes 0x00,0x08,0x80
	for _, base := range []int{10, 13} {
		r[base] = 0x00
		r[base+1] = 0x08
		r[base+2] = 0x80
	}
	return r
}

func TestMatch(t *testing.T) {
	d := New()
	require.True(t, d.Match(registry.Identity{VendorID: vendorIDNintendo, ProductID: productPro2}))
	require.True(t, d.Match(registry.Identity{VendorID: vendorIDNintendo, ProductID: productGC2}))
	require.False(t, d.Match(registry.Identity{VendorID: 0x1234, ProductID: productPro2}))
}

func TestCalibrationThenCenteredSticks(t *testing.T) {
	d := New()
	s := &sink{}
	conn := &registry.Connection{DeviceAddr: 0xA0, Instance: 0, Identity: registry.Identity{ProductID: productPro2}, Sink: s}
	require.True(t, d.Init(conn))

	report := centeredReport()
	for i := 0; i < calibrationFrames; i++ {
		d.ProcessReport(conn, report)
	}
	require.Empty(t, s.got, "no events during calibration window")

	d.ProcessReport(conn, report)
	require.Len(t, s.got, 1)
	require.EqualValues(t, 128, s.got[0].Analog[vocab.LX])
	require.EqualValues(t, 128, s.got[0].Analog[vocab.LY])
	require.EqualValues(t, 128, s.got[0].Analog[vocab.RX])
	require.EqualValues(t, 128, s.got[0].Analog[vocab.RY])
}

func TestGCShoulderSwap(t *testing.T) {
	d := New()
	s := &sink{}
	conn := &registry.Connection{DeviceAddr: 0xA0, Instance: 0, Identity: registry.Identity{ProductID: productGC2}, Sink: s}
	require.True(t, d.Init(conn))

	report := centeredReport()
	for i := 0; i < calibrationFrames; i++ {
		d.ProcessReport(conn, report)
	}
	report[4] = 0x10 // bit4 = L1 in the Pro layout, becomes L2 on GC
	d.ProcessReport(conn, report)

	require.Len(t, s.got, 1)
	require.Zero(t, s.got[0].Buttons&uint32(vocab.L1))
	require.NotZero(t, s.got[0].Buttons&uint32(vocab.L2))
}

func TestGCAnalogTriggers(t *testing.T) {
	d := New()
	s := &sink{}
	conn := &registry.Connection{DeviceAddr: 0xA0, Instance: 0, Identity: registry.Identity{ProductID: productGC2}, Sink: s}
	require.True(t, d.Init(conn))

	report := centeredReport()
	for i := 0; i < calibrationFrames; i++ {
		d.ProcessReport(conn, report)
	}
	report[60] = 0x7F
	report[61] = 0xC0
	d.ProcessReport(conn, report)

	require.Len(t, s.got, 1)
	require.EqualValues(t, 0x7F, s.got[0].Analog[vocab.L2A])
	require.EqualValues(t, 0xC0, s.got[0].Analog[vocab.R2A])
}
