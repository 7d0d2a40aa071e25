// Package codec converts between packed ONU device indices and logical
// interface addresses for every supported (vendor, technology) pair.
package codec

import (
	"errors"
	"fmt"

	"github.com/nanoncore/pon-telemetry/types"
	"github.com/nanoncore/pon-telemetry/vendors/cdata"
)

// ErrUnsupportedVariant is returned for a (vendor, technology) pair with no rule.
var ErrUnsupportedVariant = errors.New("unsupported vendor/technology")

// Key selects a codec rule.
type Key struct {
	Vendor     types.Vendor
	Technology types.Technology
}

// Rule is the index strategy of one vendor and technology.
type Rule struct {
	Decode func(types.DeviceID) (types.DecodedIndex, error)
	Encode func(slot, pon, onu uint32) (types.DeviceID, error)
	Ranges types.IndexRanges
}

// rules is the strategy table. V-SOL has no packed index format.
var rules = map[Key]Rule{
	{types.VendorCData, types.TechnologyEPON}: {
		Decode: cdata.DecodeEPON,
		Encode: cdata.EncodeEPON,
		Ranges: cdata.EPONRanges,
	},
	{types.VendorCData, types.TechnologyGPON}: {
		Decode: cdata.DecodeGPON,
		Encode: cdata.EncodeGPON,
		Ranges: cdata.GPONRanges,
	},
}

// Lookup returns the rule for vendor and tech.
func Lookup(vendor types.Vendor, tech types.Technology) (Rule, error) {
	rule, ok := rules[Key{vendor, tech}]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedVariant, vendor, tech)
	}
	return rule, nil
}

// Supported reports whether a rule exists for vendor and tech.
func Supported(vendor types.Vendor, tech types.Technology) bool {
	_, ok := rules[Key{vendor, tech}]
	return ok
}

// Decode unpacks id using the rule for vendor and tech.
func Decode(vendor types.Vendor, tech types.Technology, id types.DeviceID) (types.DecodedIndex, error) {
	rule, err := Lookup(vendor, tech)
	if err != nil {
		return types.DecodedIndex{}, err
	}
	return rule.Decode(id)
}

// Encode packs slot, pon and onu using the rule for vendor and tech.
func Encode(vendor types.Vendor, tech types.Technology, slot, pon, onu uint32) (types.DeviceID, error) {
	rule, err := Lookup(vendor, tech)
	if err != nil {
		return 0, err
	}
	return rule.Encode(slot, pon, onu)
}

// Interface decodes id into a logical interface on frame 0.
func Interface(vendor types.Vendor, tech types.Technology, id types.DeviceID) (types.LogicalInterface, error) {
	idx, err := Decode(vendor, tech, id)
	if err != nil {
		return types.LogicalInterface{}, err
	}
	return types.LogicalInterface{
		Technology: tech,
		Slot:       idx.Slot,
		PON:        idx.PON,
		ONU:        idx.ONU,
	}, nil
}
