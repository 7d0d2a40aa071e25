package types

import (
	"fmt"
)

// DeviceID is the packed 32-bit ONU index used by CDATA OLTs:
// [byte3 slot][byte2 card][byte1 pon][byte0 onu].
type DeviceID uint32

// Bytes returns the four raw bytes, most significant first.
func (d DeviceID) Bytes() (b3, b2, b1, b0 uint8) {
	return uint8(d >> 24), uint8(d >> 16), uint8(d >> 8), uint8(d)
}

// DecodedIndex holds the fields a decoder derives from a DeviceID.
type DecodedIndex struct {
	Slot uint32
	Card uint32 // raw byte2, informational only
	PON  uint32
	ONU  uint32
}

// LogicalInterface is the human-facing ONU address, e.g. "epon0/0/1/24".
type LogicalInterface struct {
	Technology Technology
	Frame      uint32
	Slot       uint32
	PON        uint32
	ONU        uint32
}

// String formats the interface as "{technology}{frame}/{slot}/{pon}/{onu}".
func (l LogicalInterface) String() string {
	return fmt.Sprintf("%s%d/%d/%d/%d", l.Technology, l.Frame, l.Slot, l.PON, l.ONU)
}

// FieldRange is the inclusive domain an encoder accepts for one field.
type FieldRange struct {
	Min uint32
	Max uint32
}

// Contains reports whether v lies in the range.
func (r FieldRange) Contains(v uint32) bool {
	return v >= r.Min && v <= r.Max
}

// IndexRanges lists the accepted encoder input for each field.
type IndexRanges struct {
	Slot FieldRange
	PON  FieldRange
	ONU  FieldRange
}

// Check validates slot, pon and onu against the ranges in that order.
func (r IndexRanges) Check(slot, pon, onu uint32) error {
	for _, f := range []struct {
		name  string
		value uint32
		rng   FieldRange
	}{
		{"slot", slot, r.Slot},
		{"pon", pon, r.PON},
		{"onu", onu, r.ONU},
	} {
		if !f.rng.Contains(f.value) {
			return &RangeError{Field: f.name, Value: int64(f.value), Min: int64(f.rng.Min), Max: int64(f.rng.Max)}
		}
	}
	return nil
}
