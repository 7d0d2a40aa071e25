package codec

import (
	"regexp"
	"strconv"

	"github.com/nanoncore/pon-telemetry/types"
)

var interfaceRE = regexp.MustCompile(`^(epon|gpon)(\d+)/(\d+)/(\d+)/(\d+)$`)

// ParseInterface parses "epon0/0/1/24" style strings.
func ParseInterface(text string) (types.LogicalInterface, error) {
	m := interfaceRE.FindStringSubmatch(text)
	if m == nil {
		return types.LogicalInterface{}, &types.FormatError{Input: text, Reason: "expected <epon|gpon><frame>/<slot>/<pon>/<onu>"}
	}

	var nums [4]uint32
	for i, field := range []string{"frame", "slot", "pon", "onu"} {
		n, err := strconv.ParseUint(m[i+2], 10, 32)
		if err != nil {
			return types.LogicalInterface{}, &types.FormatError{Input: text, Reason: field + " does not fit in 32 bits"}
		}
		nums[i] = uint32(n)
	}

	return types.LogicalInterface{
		Technology: types.Technology(m[1]),
		Frame:      nums[0],
		Slot:       nums[1],
		PON:        nums[2],
		ONU:        nums[3],
	}, nil
}

// FormatInterface renders l in the notation ParseInterface accepts.
func FormatInterface(l types.LogicalInterface) string {
	return l.String()
}

// EncodeFromString parses text and packs it with vendor's rule for the parsed
// technology. The frame is not part of the device index and is dropped.
func EncodeFromString(text string, vendor types.Vendor) (types.DeviceID, error) {
	l, err := ParseInterface(text)
	if err != nil {
		return 0, err
	}
	return Encode(vendor, l.Technology, l.Slot, l.PON, l.ONU)
}
