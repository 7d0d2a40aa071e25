package snmp

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sleepinggenius2/gosmi"
	smitypes "github.com/sleepinggenius2/gosmi/types"

	"github.com/nanoncore/pon-telemetry/types"
	"github.com/nanoncore/pon-telemetry/vendors/cdata"
)

// Resolver names numeric OIDs as "MODULE::object.index". The C-Data ONU
// tables and ifDescr are built in; anything else is looked up in MIB files
// loaded through gosmi when a MIB directory is configured.
type Resolver struct {
	static []symbol
	useMIB bool
}

type symbol struct {
	oid    string
	module string
	object string
}

var smiInit sync.Once

// ResolverOption configures a Resolver.
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	mibDirs []string
	modules []string
}

// WithMIBs loads modules from dirs through gosmi.
func WithMIBs(dirs []string, modules ...string) ResolverOption {
	return func(c *resolverConfig) {
		c.mibDirs = append(c.mibDirs, dirs...)
		c.modules = append(c.modules, modules...)
	}
}

// NewResolver builds a resolver with the built-in symbol table.
func NewResolver(opts ...ResolverOption) (*Resolver, error) {
	var cfg resolverConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Resolver{static: builtinSymbols()}

	if len(cfg.mibDirs) > 0 {
		smiInit.Do(func() { gosmi.Init() })
		for _, dir := range cfg.mibDirs {
			gosmi.AppendPath(dir)
		}
		for _, module := range cfg.modules {
			if _, err := gosmi.LoadModule(module); err != nil {
				return nil, fmt.Errorf("failed to load MIB module %s: %w", module, err)
			}
		}
		r.useMIB = true
	}

	return r, nil
}

func builtinSymbols() []symbol {
	symbols := []symbol{{oid: cdata.OIDIfDescr, module: "IF-MIB", object: "ifDescr"}}
	for _, e := range cdata.OIDTable {
		symbols = append(symbols,
			symbol{oid: e.EPON, module: cdata.Module(types.TechnologyEPON), object: e.Object},
			symbol{oid: e.GPON, module: cdata.Module(types.TechnologyGPON), object: e.Object},
		)
	}
	// longest prefix first
	sort.Slice(symbols, func(i, j int) bool { return len(symbols[i].oid) > len(symbols[j].oid) })
	return symbols
}

// Name returns the symbolic name of oid, or oid itself (without the leading
// dot) when no symbol covers it.
func (r *Resolver) Name(oid string) string {
	oid = strings.TrimPrefix(oid, ".")

	for _, s := range r.static {
		if suffix, ok := under(oid, s.oid); ok {
			return s.module + "::" + s.object + suffix
		}
	}

	if r.useMIB {
		if name, ok := r.lookupMIB(oid); ok {
			return name
		}
	}

	return oid
}

func (r *Resolver) lookupMIB(oid string) (string, bool) {
	parsed, err := smitypes.OidFromString(oid)
	if err != nil {
		return "", false
	}
	node, err := gosmi.GetNodeByOID(parsed)
	if err != nil || node.Name == "" {
		return "", false
	}

	parts := strings.Split(oid, ".")
	if node.OidLen > len(parts) {
		return "", false
	}
	suffix := ""
	if rest := parts[node.OidLen:]; len(rest) > 0 {
		suffix = "." + strings.Join(rest, ".")
	}
	return node.GetModule().Name + "::" + node.Name + suffix, true
}

// under reports whether oid is base or lies below it, returning the remaining
// index with its leading dot.
func under(oid, base string) (string, bool) {
	if oid == base {
		return "", true
	}
	if strings.HasPrefix(oid, base+".") {
		return oid[len(base):], true
	}
	return "", false
}
