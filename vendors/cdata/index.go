package cdata

import (
	"github.com/nanoncore/pon-telemetry/types"
)

// C-Data packs ONU indices as [slot][card][pon][onu], one byte each.
// EPON stores pon as (pon-1)*16, GPON stores pon+6 and slot+1.

const gponPONOffset = 6

// EPONRanges is the domain EncodeEPON accepts.
var EPONRanges = types.IndexRanges{
	Slot: types.FieldRange{Min: 0, Max: 255},
	PON:  types.FieldRange{Min: 1, Max: 16},
	ONU:  types.FieldRange{Min: 0, Max: 255},
}

// GPONRanges is the domain EncodeGPON accepts.
var GPONRanges = types.IndexRanges{
	Slot: types.FieldRange{Min: 0, Max: 254},
	PON:  types.FieldRange{Min: 0, Max: 255 - gponPONOffset},
	ONU:  types.FieldRange{Min: 0, Max: 255},
}

// DecodeEPON unpacks an EPON device index. Every 32-bit value decodes.
func DecodeEPON(id types.DeviceID) (types.DecodedIndex, error) {
	slot, card, pon, onu := id.Bytes()
	return types.DecodedIndex{
		Slot: uint32(slot),
		Card: uint32(card),
		PON:  uint32(pon)/16 + 1,
		ONU:  uint32(onu),
	}, nil
}

// DecodeGPON unpacks a GPON device index.
// A pon byte below the offset has no logical interface and is reported as a RangeError.
func DecodeGPON(id types.DeviceID) (types.DecodedIndex, error) {
	slot, card, pon, onu := id.Bytes()
	if pon < gponPONOffset {
		return types.DecodedIndex{}, &types.RangeError{Field: "pon byte", Value: int64(pon), Min: gponPONOffset, Max: 255}
	}

	var s uint32
	if slot > 0 {
		s = uint32(slot) - 1
	}

	return types.DecodedIndex{
		Slot: s,
		Card: uint32(card),
		PON:  uint32(pon) - gponPONOffset,
		ONU:  uint32(onu),
	}, nil
}

// EncodeEPON packs an EPON interface into a device index. The card byte stays zero.
func EncodeEPON(slot, pon, onu uint32) (types.DeviceID, error) {
	if err := EPONRanges.Check(slot, pon, onu); err != nil {
		return 0, err
	}
	return pack(slot, (pon-1)*16, onu), nil
}

// EncodeGPON packs a GPON interface into a device index. The card byte stays zero.
func EncodeGPON(slot, pon, onu uint32) (types.DeviceID, error) {
	if err := GPONRanges.Check(slot, pon, onu); err != nil {
		return 0, err
	}
	return pack(slot+1, pon+gponPONOffset, onu), nil
}

func pack(slotByte, ponByte, onuByte uint32) types.DeviceID {
	return types.DeviceID(slotByte<<24 | ponByte<<8 | onuByte)
}
