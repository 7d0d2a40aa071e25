package collector

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nanoncore/pon-telemetry/types"
	"github.com/nanoncore/pon-telemetry/vendors/cdata"
	"github.com/nanoncore/pon-telemetry/walk"
)

// ErrUnknownTechnology is returned when no interface description names a PON flavour.
var ErrUnknownTechnology = errors.New("no EPON or GPON interface found")

var ponWordRE = regexp.MustCompile(`(?i)\b(epon|gpon|pon)`)

// DetectTechnology walks ifDescr and picks the technology of the first
// interface whose description has a word starting with "epon", "gpon" or
// "pon". Only "epon" selects EPON.
//
// Matching is on word starts, not substrings: "response" is not a PON port,
// and neither are "xgpon0/1" or "xpon". When one description names both
// flavours the earlier word wins, so "gpon-epon" is GPON.
func DetectTechnology(ctx context.Context, snmp types.SNMPExecutor) (types.Technology, error) {
	lines, err := snmp.WalkLines(ctx, cdata.OIDIfDescr)
	if err != nil {
		return "", fmt.Errorf("ifDescr walk failed: %w", err)
	}
	if terr, ok := walk.AsTransportError(lines); ok {
		return "", terr
	}

	for _, line := range lines {
		_, value, ok := strings.Cut(line, " = ")
		if !ok {
			continue
		}
		m := ponWordRE.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		if strings.EqualFold(m[1], "epon") {
			return types.TechnologyEPON, nil
		}
		return types.TechnologyGPON, nil
	}
	return "", ErrUnknownTechnology
}
