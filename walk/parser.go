// Package walk turns net-snmp style walk output into per-interface values.
package walk

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nanoncore/pon-telemetry/codec"
	"github.com/nanoncore/pon-telemetry/types"
)

// Object name fragments with dedicated value handling.
const (
	fragmentOpticalPower   = "ReceivedOpticalPower"
	fragmentSinceRegister  = "TimeSinceLastRegister"
	fragmentMacAddress     = "MacAddress"
	emptyOctets            = `""`
	tagNull                = "NULL"
	tagHexString           = "HEX-STRING"
	tagString              = "STRING"
	transportErrorPrefix   = "Error: "
	snmpTransportErrPrefix = "SNMP Error: "
)

// ObjectValues holds every value seen for one object, keyed by interface id.
type ObjectValues struct {
	Object string
	Values map[string]any
}

// Result is the structured form of one walk batch.
type Result struct {
	Vendor     types.Vendor
	Technology types.Technology

	// Objects in first-seen order
	Objects []ObjectValues

	// Index maps an interface id to the device id it was decoded from
	Index map[string]types.DeviceID

	Diagnostics []Diagnostic

	positions map[string]int
}

// Get returns the values of object.
func (r *Result) Get(object string) (map[string]any, bool) {
	pos, ok := r.positions[object]
	if !ok {
		return nil, false
	}
	return r.Objects[pos].Values, true
}

func (r *Result) set(object, iface string, value any) {
	pos, ok := r.positions[object]
	if !ok {
		pos = len(r.Objects)
		r.positions[object] = pos
		r.Objects = append(r.Objects, ObjectValues{Object: object, Values: make(map[string]any)})
	}
	r.Objects[pos].Values[iface] = value
}

// TransportError is returned when the walk output is the collaborator's
// single-line error report instead of data.
type TransportError struct {
	Message string
}

func (e *TransportError) Error() string {
	return "snmp transport: " + e.Message
}

// AsTransportError reports whether lines is a transport error report.
func AsTransportError(lines []string) (*TransportError, bool) {
	if len(lines) != 1 {
		return nil, false
	}
	line := strings.TrimSpace(lines[0])
	for _, prefix := range []string{snmpTransportErrPrefix, transportErrorPrefix} {
		if strings.HasPrefix(line, prefix) {
			return &TransportError{Message: strings.TrimPrefix(line, prefix)}, true
		}
	}
	return nil, false
}

// maxSinceSeconds is the largest age a time.Duration can hold.
const maxSinceSeconds = math.MaxInt64 / int64(time.Second)

type parser struct {
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures Parse.
type Option func(*parser)

// WithClock sets the clock used for TimeSinceLastRegister values.
func WithClock(now func() time.Time) Option {
	return func(p *parser) {
		p.now = now
	}
}

// WithLogger sets the logger that receives per-line diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *parser) {
		p.logger = logger
	}
}

// Parse structures walk lines for the given vendor and technology.
// Malformed lines never fail the batch; they are skipped and recorded in
// Result.Diagnostics. An error is returned only for an unsupported
// vendor/technology pair or a transport error report.
func Parse(lines []string, vendor types.Vendor, tech types.Technology, opts ...Option) (*Result, error) {
	if terr, ok := AsTransportError(lines); ok {
		return nil, terr
	}

	rule, err := codec.Lookup(vendor, tech)
	if err != nil {
		return nil, err
	}

	p := &parser{now: time.Now, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	now := p.now()

	res := &Result{
		Vendor:     vendor,
		Technology: tech,
		Index:      make(map[string]types.DeviceID),
		positions:  make(map[string]int),
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.parseLine(res, rule, i+1, line, now)
	}

	return res, nil
}

func (p *parser) parseLine(res *Result, rule codec.Rule, n int, line string, now time.Time) {
	left, right, ok := strings.Cut(line, " = ")
	if !ok {
		p.skip(res, n, line, "missing \" = \" separator")
		return
	}

	components := strings.Split(left, ".")
	object := components[0]
	if _, name, found := strings.Cut(object, "::"); found {
		object = name
	}
	if object == "" {
		p.skip(res, n, line, "empty object name")
		return
	}
	if len(components) < 2 {
		p.skip(res, n, line, "missing device index")
		return
	}
	raw, err := strconv.ParseUint(components[1], 10, 32)
	if err != nil {
		p.skip(res, n, line, fmt.Sprintf("device index %q is not a 32-bit unsigned integer", components[1]))
		return
	}

	tag, text, found := strings.Cut(right, ": ")
	if !found {
		text = right
		tag = ""
		if right == "" || right == emptyOctets {
			tag = tagNull
		}
	}

	id := types.DeviceID(raw)
	idx, err := rule.Decode(id)
	if err != nil {
		p.skip(res, n, line, fmt.Sprintf("decode device index %d: %v", raw, err))
		return
	}
	iface := types.LogicalInterface{
		Technology: res.Technology,
		Slot:       idx.Slot,
		PON:        idx.PON,
		ONU:        idx.ONU,
	}.String()

	value := p.interpret(res, n, line, object, tag, text, now)
	res.set(object, iface, value)
	res.Index[iface] = id
}

func (p *parser) interpret(res *Result, n int, line, object, tag, text string, now time.Time) any {
	upper := strings.ToUpper(tag)

	switch {
	case strings.Contains(object, fragmentOpticalPower):
		v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			p.fallback(res, n, line, "optical power is not an integer")
			return text
		}
		return float64(v) / 100.0

	case strings.Contains(object, fragmentSinceRegister):
		v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			p.fallback(res, n, line, "time since last register is not an integer")
			return text
		}
		if v > maxSinceSeconds || v < -maxSinceSeconds {
			p.fallback(res, n, line, "time since last register is out of range")
			return text
		}
		return now.Add(-time.Duration(v) * time.Second)

	case upper == tagString && strings.Contains(object, fragmentMacAddress):
		// printable MAC octets arrive as a quoted string
		return octetsToColon(unquote(text))

	case upper == tagHexString:
		return HexToColon(text)

	case strings.HasPrefix(upper, "INTEGER"), strings.HasPrefix(upper, "GAUGE"), strings.HasPrefix(upper, "COUNTER"):
		s := strings.TrimSpace(text)
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			return v
		}
		p.fallback(res, n, line, tag+" value is not numeric")
		return text

	case upper == tagString:
		return unquote(text)

	case upper == tagNull:
		return nil

	default:
		return text
	}
}

func (p *parser) skip(res *Result, n int, line, reason string) {
	res.Diagnostics = append(res.Diagnostics, Diagnostic{Line: n, Kind: LineSkip, Text: line, Reason: reason})
	p.logger.Warn().Int("line", n).Str("text", line).Str("reason", reason).Msg("skipping walk line")
}

func (p *parser) fallback(res *Result, n int, line, reason string) {
	res.Diagnostics = append(res.Diagnostics, Diagnostic{Line: n, Kind: ValueFallback, Text: line, Reason: reason})
	p.logger.Debug().Int("line", n).Str("reason", reason).Msg("keeping raw value")
}

// HexToColon turns "A2 4F 02" (or "A24F02") into "A2:4F:02".
func HexToColon(text string) string {
	clean := strings.Join(strings.Fields(text), "")
	if clean == "" {
		return ""
	}
	pairs := make([]string, 0, (len(clean)+1)/2)
	for i := 0; i < len(clean); i += 2 {
		end := min(i+2, len(clean))
		pairs = append(pairs, clean[i:end])
	}
	return strings.Join(pairs, ":")
}

// octetsToColon renders raw octets as "48:5B:39".
func octetsToColon(s string) string {
	pairs := make([]string, len(s))
	for i := 0; i < len(s); i++ {
		pairs[i] = fmt.Sprintf("%02X", s[i])
	}
	return strings.Join(pairs, ":")
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
