// Package snmpfmt renders SNMP values in net-snmp style "TAG: value" text,
// the input format of the walk parser.
package snmpfmt

import (
	"fmt"
	"net"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// Type tags written in front of formatted values.
const (
	TagString    = "STRING"
	TagHexString = "HEX-STRING"
	TagOID       = "OID"
	TagGauge32   = "GAUGE32"
	TagCounter32 = "COUNTER32"
	TagCounter64 = "COUNTER64"
	TagTimeTicks = "TIMETICKS"
	TagIPAddress = "IPADDRESS"
	TagInteger   = "INTEGER"
	TagNull      = "NULL"
)

// Empty is how empty octet strings and NULL values are rendered.
const Empty = `""`

// Format renders the value of pdu. It never fails; unknown types fall back
// to their ASN.1 type name and default formatting.
func Format(pdu gosnmp.SnmpPDU) string {
	switch pdu.Type {
	case gosnmp.OctetString:
		return formatOctets(toBytes(pdu.Value))
	case gosnmp.ObjectIdentifier:
		return TagOID + ": " + strings.TrimPrefix(fmt.Sprint(pdu.Value), ".")
	case gosnmp.Gauge32:
		return TagGauge32 + ": " + gosnmp.ToBigInt(pdu.Value).String()
	case gosnmp.Counter32:
		return TagCounter32 + ": " + gosnmp.ToBigInt(pdu.Value).String()
	case gosnmp.Counter64:
		return TagCounter64 + ": " + gosnmp.ToBigInt(pdu.Value).String()
	case gosnmp.TimeTicks:
		return TagTimeTicks + ": " + FormatTimeTicks(uint32(gosnmp.ToBigInt(pdu.Value).Uint64()))
	case gosnmp.IPAddress:
		return TagIPAddress + ": " + formatIP(pdu.Value)
	case gosnmp.Integer:
		return TagInteger + ": " + gosnmp.ToBigInt(pdu.Value).String()
	case gosnmp.Null:
		return Empty
	default:
		return strings.ToUpper(pdu.Type.String()) + ": " + fmt.Sprint(pdu.Value)
	}
}

// Line renders a full walk line, "<name> = <value>".
func Line(name string, pdu gosnmp.SnmpPDU) string {
	return name + " = " + Format(pdu)
}

// FormatTimeTicks renders hundredths of a second as "(raw) D days, H:MM:SS.CS".
func FormatTimeTicks(ticks uint32) string {
	days := ticks / 8640000
	hours := ticks / 360000 % 24
	minutes := ticks / 6000 % 60
	seconds := ticks / 100 % 60
	centis := ticks % 100
	return fmt.Sprintf("(%d) %d days, %d:%02d:%02d.%02d", ticks, days, hours, minutes, seconds, centis)
}

// FormatHex renders b as upper-case, space-separated byte pairs.
func FormatHex(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02X", c)
	}
	return strings.Join(parts, " ")
}

func formatOctets(b []byte) string {
	if len(b) == 0 {
		return Empty
	}
	if isPrintable(b) && !strings.HasPrefix(string(b), "0x") {
		return TagString + `: "` + string(b) + `"`
	}
	return TagHexString + ": " + FormatHex(b)
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

func toBytes(v any) []byte {
	switch b := v.(type) {
	case []byte:
		return b
	case string:
		return []byte(b)
	default:
		return nil
	}
}

func formatIP(v any) string {
	switch ip := v.(type) {
	case string:
		return ip
	case []byte:
		return net.IP(ip).String()
	case net.IP:
		return ip.String()
	default:
		return fmt.Sprint(v)
	}
}
