// Package wire decodes the small set of protobuf message shapes that Flight SQL
// clients send as descriptor commands, without depending on a protobuf runtime.
//
// Commands arrive as an Any envelope: field 1 is the type URL, field 2 carries
// the inner message bytes. The inner messages this server cares about are flat
// (string fields only), so a generic tag/varint/length-delimited scanner plus a
// field-number table per message is enough. Decoding is deliberately forgiving:
// anything malformed degrades to "field absent" so that classification can fall
// back to treating the buffer as a raw SQL string.
package wire

const (
	wireTypeVarint = 0
	wireTypeBytes  = 2
)

// field is one decoded top-level protobuf field. Only varint and
// length-delimited fields are represented; Bytes is nil for varints.
type field struct {
	Number int
	Bytes  []byte
	Varint uint64
}

// readVarint decodes a base-128 varint starting at idx. ok is false when the
// varint runs past the end of the buffer without a terminating byte.
func readVarint(buf []byte, idx int) (value uint64, next int, ok bool) {
	var shift uint
	for idx < len(buf) {
		b := buf[idx]
		idx++
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, idx, true
		}
		shift += 7
	}
	return 0, idx, false
}

// scanFields decodes the top-level fields of buf. Scanning stops at the first
// unsupported wire type, unterminated varint, or length that overruns the
// buffer; whatever was decoded up to that point is returned.
func scanFields(buf []byte) []field {
	var fields []field
	idx := 0
	for idx < len(buf) {
		tag, next, ok := readVarint(buf, idx)
		if !ok {
			break
		}
		idx = next

		num := int(tag >> 3)
		switch tag & 0x7 {
		case wireTypeVarint:
			v, next, ok := readVarint(buf, idx)
			if !ok {
				return fields
			}
			idx = next
			fields = append(fields, field{Number: num, Varint: v})
		case wireTypeBytes:
			length, next, ok := readVarint(buf, idx)
			if !ok {
				return fields
			}
			idx = next
			if length > uint64(len(buf)-idx) {
				return fields
			}
			end := idx + int(length)
			fields = append(fields, field{Number: num, Bytes: buf[idx:end]})
			idx = end
		default:
			// Fixed32/fixed64/groups never appear in the supported
			// commands; treat them as end of input.
			return fields
		}
	}
	return fields
}

// ExtractAnyValue returns the inner message bytes (field 2) of an Any-shaped
// buffer, or nil when the field is absent or the buffer does not decode.
func ExtractAnyValue(buf []byte) []byte {
	for _, f := range scanFields(buf) {
		if f.Number == anyFieldValue && f.Bytes != nil {
			return f.Bytes
		}
	}
	return nil
}

// ExtractStringField returns the UTF-8 content of the requested
// length-delimited field of a flat message, or "" when absent.
func ExtractStringField(buf []byte, fieldNumber int) string {
	for _, f := range scanFields(buf) {
		if f.Number == fieldNumber && f.Bytes != nil {
			return string(f.Bytes)
		}
	}
	return ""
}
