package cdata

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nanoncore/pon-telemetry/types"
)

// ShowMacCommand lists the OLT MAC table.
const ShowMacCommand = "show mac-address all"

// One row per line:
// MAC               VLAN  SPORT  PORT     ONU  GEMID  MAC-TYPE
// aa:bb:cc:dd:ee:ff 100   -      gpon0/1  5    3      dynamic
var macRowRE = regexp.MustCompile(`^([0-9A-Fa-f]{2}(?::[0-9A-Fa-f]{2}){5})\s+(\d+)\s+(?:-|\d+)\s+(\S+)\s+(-|\d+)\s+(?:-|\d+)\s+(?:dynamic|static)\b`)

// ParseMacTable parses "show mac-address all" output. Header, footer and
// pager lines are returned as skipped lines; parsing never fails.
func ParseMacTable(text string) ([]types.MacTableRecord, []types.SkippedLine) {
	var (
		records []types.MacTableRecord
		skipped []types.SkippedLine
	)

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := macRowRE.FindStringSubmatch(line)
		if m == nil {
			skipped = append(skipped, types.SkippedLine{Line: i + 1, Text: line, Reason: "not a MAC table row"})
			continue
		}

		vlan, err := strconv.ParseUint(m[2], 10, 16)
		if err != nil {
			skipped = append(skipped, types.SkippedLine{Line: i + 1, Text: line, Reason: "VLAN " + m[2] + " out of range"})
			continue
		}

		port := m[3]
		if onu := m[4]; onu != "-" {
			port += "/" + onu
		}

		records = append(records, types.MacTableRecord{
			MAC:  m[1],
			VLAN: uint16(vlan),
			Port: port,
		})
	}

	return records, skipped
}
