// Package mactable parses MAC address tables scraped from OLT terminals.
package mactable

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nanoncore/pon-telemetry/types"
	"github.com/nanoncore/pon-telemetry/vendors/cdata"
	"github.com/nanoncore/pon-telemetry/vendors/common"
	"github.com/nanoncore/pon-telemetry/vendors/vsol"
)

// Dialect is a vendor's MAC table parser.
type Dialect struct {
	// Command prints the table on the OLT
	Command string
	Parse   func(text string) ([]types.MacTableRecord, []types.SkippedLine)
}

var dialects = map[types.Vendor]Dialect{
	types.VendorCData: {Command: cdata.ShowMacCommand, Parse: cdata.ParseMacTable},
	types.VendorVSOL:  {Command: vsol.ShowMacCommand, Parse: vsol.ParseMacTable},
}

// DialectFor returns the dialect of vendor.
func DialectFor(vendor types.Vendor) (Dialect, error) {
	d, ok := dialects[vendor]
	if !ok {
		return Dialect{}, fmt.Errorf("no MAC table dialect for vendor %q", vendor)
	}
	return d, nil
}

type options struct {
	logger zerolog.Logger
}

// Option configures Parse.
type Option func(*options)

// WithLogger sets the logger that receives skipped lines at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Parse extracts MAC table rows from raw terminal text. ANSI codes and
// backspace-erased pager prompts are removed first. Malformed lines never
// fail the call; only an unknown vendor does.
func Parse(vendor types.Vendor, text string, opts ...Option) ([]types.MacTableRecord, []types.SkippedLine, error) {
	d, err := DialectFor(vendor)
	if err != nil {
		return nil, nil, err
	}

	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	records, skipped := d.Parse(common.CleanTerminal(text))
	for _, s := range skipped {
		o.logger.Debug().
			Str("vendor", string(vendor)).
			Int("line", s.Line).
			Str("text", s.Text).
			Str("reason", s.Reason).
			Msg("skipping MAC table line")
	}

	return records, skipped, nil
}
