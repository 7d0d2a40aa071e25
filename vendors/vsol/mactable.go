package vsol

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nanoncore/pon-telemetry/types"
)

// ShowMacCommand lists the OLT MAC table.
const ShowMacCommand = "show mac address-table"

var (
	// a dotted MAC at the start of a line opens a record
	recordStartRE = regexp.MustCompile(`(?i)^[0-9a-f]{4}\.[0-9a-f]{4}\.[0-9a-f]{4}(\s|$)`)

	// MAC VLAN TYPE PORT n n TOKEN, after wrapped lines are joined
	recordRE = regexp.MustCompile(`(?i)^([0-9a-f]{4}\.[0-9a-f]{4}\.[0-9a-f]{4})\s+(\d+)\s+\w+\s+(\S+)\s+\d+\s+\d+\s+\w+$`)

	// GPON0/1:18 -> 0/1/18
	portRE = regexp.MustCompile(`^[A-Za-z_-]+(\d+)/(\d+):(\d+)$`)
)

// ParseMacTable parses V-SOL MAC table output. The terminal wraps long rows,
// so physical lines are joined until the next dotted MAC before matching.
// Parsing never fails; unusable lines are returned as skipped.
func ParseMacTable(text string) ([]types.MacTableRecord, []types.SkippedLine) {
	var (
		records []types.MacTableRecord
		skipped []types.SkippedLine
		buf     []string
		start   int
	)

	flush := func() {
		if len(buf) == 0 {
			return
		}
		joined := strings.Join(buf, " ")
		if rec, ok := parseRecord(joined); ok {
			records = append(records, rec)
		} else {
			skipped = append(skipped, types.SkippedLine{Line: start, Text: joined, Reason: "incomplete or malformed MAC table record"})
		}
		buf = nil
	}

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if recordStartRE.MatchString(line) {
			flush()
			buf = []string{line}
			start = i + 1
			continue
		}

		// a complete record is closed before trailing prompts or footers
		if len(buf) > 0 && recordRE.MatchString(strings.Join(buf, " ")) {
			flush()
		}
		if len(buf) == 0 {
			skipped = append(skipped, types.SkippedLine{Line: i + 1, Text: line, Reason: "not part of a MAC table record"})
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return records, skipped
}

func parseRecord(joined string) (types.MacTableRecord, bool) {
	m := recordRE.FindStringSubmatch(joined)
	if m == nil {
		return types.MacTableRecord{}, false
	}

	vlan, err := strconv.ParseUint(m[2], 10, 16)
	if err != nil {
		return types.MacTableRecord{}, false
	}

	return types.MacTableRecord{
		MAC:  FormatMAC(m[1]),
		VLAN: uint16(vlan),
		Port: RewritePort(m[3]),
	}, true
}

// FormatMAC turns "0011.2233.4455" into "00:11:22:33:44:55".
func FormatMAC(dotted string) string {
	clean := strings.ToUpper(strings.ReplaceAll(dotted, ".", ""))
	pairs := make([]string, 0, 6)
	for i := 0; i+2 <= len(clean); i += 2 {
		pairs = append(pairs, clean[i:i+2])
	}
	return strings.Join(pairs, ":")
}

// RewritePort turns "GPON0/1:18" into "0/1/18"; other ports are returned unchanged.
func RewritePort(port string) string {
	m := portRE.FindStringSubmatch(port)
	if m == nil {
		return port
	}
	return m[1] + "/" + m[2] + "/" + m[3]
}
