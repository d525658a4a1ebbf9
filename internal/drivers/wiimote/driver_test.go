package wiimote

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

func newConn() (*Driver, *registry.Connection, *sink, *fakeRaw) {
	d := New()
	s := &sink{}
	raw := &fakeRaw{}
	conn := &registry.Connection{DeviceAddr: 0xA0, Instance: 0, Sink: s, Raw: raw}
	d.Init(conn)
	return d, conn, s, raw
}

func TestClassifyExtensionWiiUPro(t *testing.T) {
	buf := [6]byte{0x00, 0x00, 0xA4, 0x20, 0x01, 0x20}
	require.Equal(t, ExtWiiUPro, classifyExtension(buf))
}

func TestClassifyExtensionNunchuk(t *testing.T) {
	buf := [6]byte{0x00, 0x00, 0xA4, 0x20, 0x00, 0x00}
	require.Equal(t, ExtNunchuk, classifyExtension(buf))
}

func TestStatusNoExtensionAdvancesToReportMode(t *testing.T) {
	d, conn, _, _ := newConn()
	st := d.state(conn)
	st.st = stWaitStatus

	d.ProcessReport(conn, []byte{reportIDStatus, 0x00, 0x00, 0x00, 0x00, 0x00, 0x64})
	require.Equal(t, stSendReportMode, st.st)
	require.False(t, st.hasExtension)
}

func TestStatusWithExtensionStartsHandshake(t *testing.T) {
	d, conn, _, _ := newConn()
	st := d.state(conn)
	st.st = stWaitStatus

	d.ProcessReport(conn, []byte{reportIDStatus, 0x00, 0x00, 0x02, 0x00, 0x00, 0x64})
	require.Equal(t, stSendExtInit1, st.st)
	require.True(t, st.hasExtension)
}

// TestWiiUProColdStart verifies that after the extension-type read
// classifies as Wii U Pro, a first 0x3D report with all three button bytes
// 0xFF (active-low, so nothing pressed) surfaces zero buttons.
func TestWiiUProColdStart(t *testing.T) {
	d, conn, s, _ := newConn()
	st := d.state(conn)
	st.st = stWaitExtType

	d.ProcessReport(conn, []byte{reportIDReadResponse, 0x00, 0x00, 0xA4, 0x20, 0x01, 0x20})
	require.Equal(t, ExtWiiUPro, st.extension)
	require.Equal(t, stSendReportMode, st.st)

	report := make([]byte, 12)
	report[0] = reportIDExtended
	// centered sticks
	for _, off := range []int{1, 3, 5, 7} {
		report[off] = byte(extStickCenter & 0xFF)
		report[off+1] = byte(extStickCenter >> 8)
	}
	report[9], report[10], report[11] = 0xFF, 0xFF, 0xFF

	d.ProcessReport(conn, report)
	require.Len(t, s.got, 1)
	require.Zero(t, s.got[0].Buttons)
	require.EqualValues(t, 128, s.got[0].Analog[vocab.LX])
	require.EqualValues(t, 128, s.got[0].Analog[vocab.LY])
}

func TestRetryForcesAdvanceAfterMaxRetries(t *testing.T) {
	d, conn, _, raw := newConn()
	st := d.state(conn)
	st.st = stWaitReportAck
	st.enteredAtMicros = 0

	now := uint64(0)
	for i := 0; i < maxRetries; i++ {
		now += retryTimeoutMicros
		d.Task(conn, now)
	}
	require.Equal(t, stSendLED, st.st)
	require.GreaterOrEqual(t, len(raw.sent), maxRetries-1)
}

func TestOrientationHysteresis(t *testing.T) {
	d, conn, s, _ := newConn()
	st := d.state(conn)
	st.st = stReady
	st.hasExtension = false

	report := []byte{reportIDDataMin, 0x08, 0x00, 128, 0, 0} // DU pressed, accel centered
	d.ProcessReport(conn, report)
	require.Len(t, s.got, 1)
	require.NotZero(t, s.got[0].Buttons&uint32(vocab.DU))
	require.False(t, st.horizontal)

	reportTilted := []byte{reportIDDataMin, 0x08, 0x00, 128 + 25, 0, 0}
	d.ProcessReport(conn, reportTilted)
	require.True(t, st.horizontal)
	require.NotZero(t, s.got[1].Buttons&uint32(vocab.DR), "DU rotates to DR while horizontal")

	reportBackUpright := []byte{reportIDDataMin, 0x00, 0x00, 128 + 10, 0, 0}
	d.ProcessReport(conn, reportBackUpright)
	require.False(t, st.horizontal, "deviation below exit threshold returns to vertical")
}

func TestNunchukZCDecodedActiveLow(t *testing.T) {
	d, conn, s, _ := newConn()
	st := d.state(conn)
	st.st = stReady
	st.hasExtension = true
	st.extension = ExtNunchuk

	report := make([]byte, 12)
	report[0] = reportIDExtAccel
	report[6], report[7] = 0x80, 0x90 // nunchuk stick
	report[11] = 0xFC                 // Z and C both held (bits 0,1 clear)

	d.ProcessReport(conn, report)
	require.Len(t, s.got, 1)
	require.NotZero(t, s.got[0].Buttons&uint32(vocab.L2))
	require.NotZero(t, s.got[0].Buttons&uint32(vocab.L1))
}
