// Package hiddesc parses a raw USB HID report descriptor into a flat list of
// field locations (byte offset + bit mask) that a generic gamepad driver can
// use without any device-specific knowledge.
package hiddesc

// Field describes one decoded Input item: where it lives in a report and
// what it nominally means.
type Field struct {
	ReportID   uint8
	BitOffset  uint32
	BitSize    uint32
	UsagePage  uint16
	Usage      uint32
	LogicalMax int32
}

// ByteIndex returns the byte this field starts in: bitOffset/8.
func (f Field) ByteIndex() int { return int(f.BitOffset / 8) }

// BitMask returns the field's mask positioned within its containing byte(s):
// ((0xFFFF >> (16-bitSize)) << (bitOffset%8)).
func (f Field) BitMask() uint32 {
	if f.BitSize == 0 || f.BitSize > 16 {
		return 0
	}
	return (0xFFFF >> (16 - f.BitSize)) << (f.BitOffset % 8)
}

// Extract reads this field's value out of a raw report buffer (report ID
// included at data[0] when the descriptor declared one). If the field's
// mask spans more than a byte, two bytes are read big-endian and shifted
// right by the mask's trailing zero count.
func (f Field) Extract(data []byte) (uint32, bool) {
	bi := f.ByteIndex()
	mask := f.BitMask()
	if mask == 0 || bi >= len(data) {
		return 0, false
	}
	if mask <= 0xFF {
		return (uint32(data[bi]) & mask) >> trailingZeros32(mask), true
	}
	if bi+1 >= len(data) {
		return 0, false
	}
	wide := uint32(data[bi])<<8 | uint32(data[bi+1])
	return (wide & mask) >> trailingZeros32(mask), true
}

func trailingZeros32(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	var n uint32
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}

// Item tag values collide across the global/local/main namespaces (e.g.
// Logical Minimum and Usage Minimum both have bTag 1), so tags are matched
// per itemType inline below rather than through a single shared const set.
type itemType int

const (
	typeMain itemType = iota
	typeGlobal
	typeLocal
)

// Parse walks a raw HID report descriptor and returns every Input-item field
// location in descriptor order.
func Parse(desc []byte) []Field {
	var fields []Field

	var usagePage uint16
	var logicalMax int32
	var reportSize uint32
	var reportCount uint32
	var reportID uint8
	hasReportID := false

	var usageStack []uint32
	var usageMin, usageMax uint32
	haveUsageRange := false

	offsets := map[uint8]uint32{}
	baseOffset := func(id uint8) uint32 {
		if hasReportID {
			return 8
		}
		return 0
	}
	offsetFor := func(id uint8) uint32 {
		if v, ok := offsets[id]; ok {
			return v
		}
		v := baseOffset(id)
		offsets[id] = v
		return v
	}

	clearLocal := func() {
		usageStack = usageStack[:0]
		haveUsageRange = false
		usageMin, usageMax = 0, 0
	}

	i := 0
	for i < len(desc) {
		b := desc[i]
		size := b & 0x03
		tag := b & 0xFC
		itype := itemType((b >> 2) & 0x03)
		n := int(size)
		if size == 3 {
			n = 4
		}
		i++
		if i+n > len(desc) {
			break
		}
		var data uint32
		for k := 0; k < n; k++ {
			data |= uint32(desc[i+k]) << (8 * k)
		}
		i += n

		switch itype {
		case typeGlobal:
			switch tag {
			case 0x04: // Usage Page
				usagePage = uint16(data)
			case 0x14: // Logical Minimum
				// not tracked beyond documentation purposes
			case 0x24: // Logical Maximum
				logicalMax = int32(data)
			case 0x74: // Report Size
				reportSize = data
			case 0x84: // Report ID
				reportID = uint8(data)
				hasReportID = true
			case 0x94: // Report Count
				reportCount = data
			}
		case typeLocal:
			switch tag {
			case 0x08: // Usage
				usageStack = append(usageStack, data)
			case 0x18: // Usage Minimum
				usageMin = data
				haveUsageRange = true
			case 0x28: // Usage Maximum
				usageMax = data
				haveUsageRange = true
			}
		case typeMain:
			switch tag {
			case 0x80: // Input
				off := offsetFor(reportID)
				for k := uint32(0); k < reportCount; k++ {
					var usage uint32
					switch {
					case haveUsageRange && usageMax >= usageMin:
						idx := usageMin + k
						if idx > usageMax {
							idx = usageMax
						}
						usage = idx
					case len(usageStack) > 0:
						if int(k) < len(usageStack) {
							usage = usageStack[k]
						} else {
							usage = usageStack[len(usageStack)-1]
						}
					}
					fields = append(fields, Field{
						ReportID:   reportID,
						BitOffset:  off,
						BitSize:    reportSize,
						UsagePage:  usagePage,
						Usage:      usage,
						LogicalMax: logicalMax,
					})
					off += reportSize
				}
				offsets[reportID] = off
				clearLocal()
			case 0x90, 0xB0: // Output, Feature: consume bits, no fields emitted
				off := offsetFor(reportID)
				off += reportSize * reportCount
				offsets[reportID] = off
				clearLocal()
			case 0xA0, 0xC0: // Collection, End Collection
				clearLocal()
			}
		}
	}
	return fields
}

// ByReportID groups parsed fields by their report ID for driver convenience.
func ByReportID(fields []Field) map[uint8][]Field {
	out := map[uint8][]Field{}
	for _, f := range fields {
		out[f.ReportID] = append(out[f.ReportID], f)
	}
	return out
}
