package cdata

import (
	"errors"
	"testing"

	"github.com/nanoncore/pon-telemetry/types"
)

func TestDecodeEPON(t *testing.T) {
	tests := []struct {
		name string
		id   types.DeviceID
		want types.DecodedIndex
	}{
		{"zero", 0, types.DecodedIndex{Slot: 0, PON: 1, ONU: 0}},
		{"slot 0 pon 1 onu 24", 0x00000018, types.DecodedIndex{Slot: 0, PON: 1, ONU: 24}},
		{"card byte kept", 38285328, types.DecodedIndex{Slot: 2, Card: 0x48, PON: 4, ONU: 16}},
		{"max", 0xFFFFFFFF, types.DecodedIndex{Slot: 255, Card: 255, PON: 16, ONU: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEPON(tt.id)
			if err != nil {
				t.Fatalf("DecodeEPON() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeEPON(%d) = %+v, want %+v", tt.id, got, tt.want)
			}
		})
	}
}

func TestDecodeGPON(t *testing.T) {
	id := types.DeviceID(16779546)
	b3, _, b1, b0 := id.Bytes()

	got, err := DecodeGPON(id)
	if err != nil {
		t.Fatalf("DecodeGPON() error = %v", err)
	}
	want := types.DecodedIndex{Slot: uint32(b3) - 1, PON: uint32(b1) - 6, ONU: uint32(b0)}
	if got != want {
		t.Errorf("DecodeGPON(%d) = %+v, want %+v", id, got, want)
	}
	if got.Slot != 0 || got.PON != 3 || got.ONU != 26 {
		t.Errorf("DecodeGPON(%d) = %+v, want slot 0 pon 3 onu 26", id, got)
	}
}

func TestDecodeGPON_SlotByteZero(t *testing.T) {
	got, err := DecodeGPON(0x00000A01)
	if err != nil {
		t.Fatalf("DecodeGPON() error = %v", err)
	}
	if got.Slot != 0 || got.PON != 4 || got.ONU != 1 {
		t.Errorf("DecodeGPON() = %+v", got)
	}
}

func TestDecodeGPON_PonByteBelowOffset(t *testing.T) {
	_, err := DecodeGPON(0x01000501)
	var rangeErr *types.RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("DecodeGPON() error = %v, want RangeError", err)
	}
}

func TestEncodeEPON_OutOfRange(t *testing.T) {
	tests := []struct {
		name           string
		slot, pon, onu uint32
		wantField      string
	}{
		{"pon above 16", 0, 17, 0, "pon"},
		{"pon zero", 0, 0, 0, "pon"},
		{"slot above 255", 256, 1, 0, "slot"},
		{"onu above 255", 0, 1, 256, "onu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := EncodeEPON(tt.slot, tt.pon, tt.onu)
			var rangeErr *types.RangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("EncodeEPON() = %d, %v, want RangeError", id, err)
			}
			if rangeErr.Field != tt.wantField {
				t.Errorf("RangeError.Field = %q, want %q", rangeErr.Field, tt.wantField)
			}
		})
	}
}

func TestEncodeGPON_OutOfRange(t *testing.T) {
	tests := []struct {
		name           string
		slot, pon, onu uint32
		wantField      string
	}{
		{"slot 255", 255, 0, 0, "slot"},
		{"pon 250", 0, 250, 0, "pon"},
		{"onu 300", 0, 0, 300, "onu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeGPON(tt.slot, tt.pon, tt.onu)
			var rangeErr *types.RangeError
			if !errors.As(err, &rangeErr) || rangeErr.Field != tt.wantField {
				t.Errorf("EncodeGPON() error = %v, want RangeError on %s", err, tt.wantField)
			}
		})
	}
}

func TestEPONRoundTrip(t *testing.T) {
	for slot := uint32(0); slot <= 255; slot++ {
		for pon := uint32(1); pon <= 16; pon++ {
			for _, onu := range []uint32{0, 1, 64, 127, 128, 255} {
				id, err := EncodeEPON(slot, pon, onu)
				if err != nil {
					t.Fatalf("EncodeEPON(%d, %d, %d) error = %v", slot, pon, onu, err)
				}
				got, _ := DecodeEPON(id)
				if got.Slot != slot || got.PON != pon || got.ONU != onu || got.Card != 0 {
					t.Fatalf("DecodeEPON(EncodeEPON(%d, %d, %d)) = %+v", slot, pon, onu, got)
				}
				again, _ := EncodeEPON(got.Slot, got.PON, got.ONU)
				if again != id {
					t.Fatalf("EncodeEPON(DecodeEPON(%d)) = %d", id, again)
				}
			}
		}
	}
}

func TestGPONRoundTrip(t *testing.T) {
	for slot := uint32(0); slot <= 254; slot++ {
		for pon := uint32(0); pon <= 249; pon += 7 {
			for _, onu := range []uint32{0, 1, 127, 255} {
				id, err := EncodeGPON(slot, pon, onu)
				if err != nil {
					t.Fatalf("EncodeGPON(%d, %d, %d) error = %v", slot, pon, onu, err)
				}
				got, err := DecodeGPON(id)
				if err != nil {
					t.Fatalf("DecodeGPON(%d) error = %v", id, err)
				}
				if got.Slot != slot || got.PON != pon || got.ONU != onu {
					t.Fatalf("DecodeGPON(EncodeGPON(%d, %d, %d)) = %+v", slot, pon, onu, got)
				}
			}
		}
	}

	// pon upper bound is not a multiple of the step above
	id, err := EncodeGPON(254, 249, 255)
	if err != nil {
		t.Fatalf("EncodeGPON(254, 249, 255) error = %v", err)
	}
	if id != 0xFFFFFFFF&^0x00FF0000 {
		t.Errorf("EncodeGPON(254, 249, 255) = %#x", uint32(id))
	}
}
