package hiddesc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildItem encodes a short HID item. tag must already be the combined
// bTag|bType byte (as used by Parse's own switch statements, e.g. 0x84 for
// the Report ID global item) with the low 2 size bits left clear.
func buildItem(tag byte, _ itemType, val uint32, size int) []byte {
	b := tag | byte(sizeCode(size))
	out := []byte{b}
	for i := 0; i < size; i++ {
		out = append(out, byte(val>>(8*i)))
	}
	return out
}

func sizeCode(n int) int {
	switch n {
	case 0:
		return 0
	case 1:
		return 1
	case 2:
		return 2
	case 4:
		return 3
	default:
		panic("bad size")
	}
}

// craftedDescriptor builds: usage page 0x01, report id 1, 8 buttons (1 bit
// each) then X/Y 8-bit each, mirroring the kind of gamepad descriptor the
// generic HID driver parses in practice.
func craftedDescriptor() []byte {
	var d []byte
	d = append(d, buildItem(0x04, typeGlobal, 0x01, 1)...) // usage page
	d = append(d, buildItem(0x84, typeGlobal, 1, 1)...)    // report id 1
	d = append(d, buildItem(0x18, typeLocal, 1, 1)...)     // usage min
	d = append(d, buildItem(0x28, typeLocal, 8, 1)...)     // usage max
	d = append(d, buildItem(0x74, typeGlobal, 1, 1)...)    // report size 1
	d = append(d, buildItem(0x94, typeGlobal, 8, 1)...)    // report count 8
	d = append(d, buildItem(0x80, typeMain, 0x02, 1)...)   // input (buttons)

	d = append(d, buildItem(0x08, typeLocal, 0x30, 1)...) // usage X
	d = append(d, buildItem(0x24, typeGlobal, 255, 1)...) // logical max
	d = append(d, buildItem(0x74, typeGlobal, 8, 1)...)   // report size 8
	d = append(d, buildItem(0x94, typeGlobal, 1, 1)...)   // report count 1
	d = append(d, buildItem(0x80, typeMain, 0x02, 1)...)  // input (X)

	d = append(d, buildItem(0x08, typeLocal, 0x31, 1)...) // usage Y
	d = append(d, buildItem(0x80, typeMain, 0x02, 1)...)  // input (Y)
	return d
}

func TestParseRoundTrip(t *testing.T) {
	fields := Parse(craftedDescriptor())
	require.Len(t, fields, 10) // 8 buttons + X + Y

	// Report has report-id reserved at byte 0; 8 button bits fill byte 1.
	buttonField := fields[2] // usage 3 (1-indexed min=1, so index2 -> usage 3)
	require.EqualValues(t, 1, buttonField.ReportID)
	require.EqualValues(t, 8+2, buttonField.BitOffset)

	xField := fields[8]
	yField := fields[9]
	require.EqualValues(t, 0x30, xField.Usage)
	require.EqualValues(t, 0x31, yField.Usage)

	// Inject known values and verify extraction recovers them.
	report := make([]byte, 4)
	report[0] = 1    // report id
	report[1] = 0x04 // bit2 set -> button index2 (usage 3) pressed
	report[2] = 0x7F // X
	report[3] = 0x80 // Y

	v, ok := buttonField.Extract(report)
	require.True(t, ok)
	require.EqualValues(t, 1, v)

	vx, ok := xField.Extract(report)
	require.True(t, ok)
	require.EqualValues(t, 0x7F, vx)

	vy, ok := yField.Extract(report)
	require.True(t, ok)
	require.EqualValues(t, 0x80, vy)
}

func TestByReportID(t *testing.T) {
	fields := Parse(craftedDescriptor())
	grouped := ByReportID(fields)
	require.Len(t, grouped, 1)
	require.Len(t, grouped[1], 10)
}
