package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mcastd/mrelay/pkg/netif"
)

// Options controls configuration loading.
type Options struct {
	// ResetRPFilter clears the IPv4 reverse-path filter on every resolved
	// interface. Ignored in test mode and for MLDv2 configurations.
	ResetRPFilter bool

	// TestMode skips interface resolution, so grammar and policy can be
	// exercised without live network interfaces.
	TestMode bool

	// Resolver maps interface names to OS interface indices. Nil selects the
	// netlink-backed resolver.
	Resolver netif.Resolver
}

// Configuration is the compiled, immutable policy model of one configuration
// file. Construction is atomic: Load either returns a fully built model or
// an error, never a partial one. Once built, the model is safe for
// concurrent readers without locking.
type Configuration struct {
	path      string
	proto     GroupMemProtocol
	protoSet  bool
	tables    *TableSet
	instances *InstanceDefSet
	resolved  map[string]*netif.InterfaceSet
	rpf       *netif.RPFilter
}

// Load reads, preprocesses, parses, and (outside test mode) resolves the
// configuration file at path.
func Load(path string, opts Options) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	c := &Configuration{
		path:      path,
		proto:     ProtoIGMPv3, // default setting
		tables:    NewTableSet(),
		instances: NewInstanceDefSet(),
		resolved:  make(map[string]*netif.InterfaceSet),
		rpf:       netif.NewRPFilter(),
	}

	for _, st := range Segment(StripComments(string(data))) {
		if err := c.dispatch(st); err != nil {
			return nil, err
		}
	}

	if !opts.TestMode {
		resolver := opts.Resolver
		if resolver == nil {
			resolver = netif.NetlinkResolver{}
		}
		if err := c.resolveInterfaces(resolver, opts.ResetRPFilter); err != nil {
			c.rpf.Restore()
			return nil, err
		}
	}

	return c, nil
}

// dispatch classifies one statement and routes it to its parser.
func (c *Configuration) dispatch(st Statement) error {
	switch classify(st) {
	case stmtProtocol:
		return c.parseProtocol(st)
	case stmtTable:
		return c.parseTable(st)
	case stmtInstanceDef:
		return c.parseInstanceDefinition(st)
	case stmtRuleBinding:
		return c.parseRuleBinding(st)
	default:
		word := st.Text
		if i := strings.IndexAny(word, " \t\n"); i > 0 {
			word = word[:i]
		}
		return syntaxErrorf(st.Line, "unrecognized statement %q", word)
	}
}

// resolveInterfaces maps every declared interface name of every instance to
// its OS interface index and builds the per-instance runtime interface sets.
func (c *Configuration) resolveInterfaces(resolver netif.Resolver, resetRPF bool) error {
	for _, inst := range c.instances.All() {
		set := netif.NewInterfaceSet()
		for _, d := range inst.Interfaces() {
			index, err := resolver.IfIndex(d.Name)
			if err != nil || index == 0 {
				return &UnknownInterfaceError{Name: d.Name, Err: err}
			}
			if !set.Add(index, d.Name) {
				return &DuplicateInterfaceError{Instance: inst.Name, Name: d.Name, Index: index}
			}
			if resetRPF && c.proto.Is4() {
				if err := c.rpf.Disable(d.Name); err != nil {
					slog.Warn("failed to reset reverse path filter", "interface", d.Name, "err", err)
				}
			}
		}
		// Instance uniqueness is enforced at parse time; this is a second
		// integrity gate.
		if _, ok := c.resolved[inst.Name]; ok {
			return &DuplicateNameError{Kind: "interface set", Name: inst.Name}
		}
		c.resolved[inst.Name] = set
	}
	return nil
}

// Path returns the configuration file path this model was loaded from.
func (c *Configuration) Path() string {
	return c.path
}

// Protocol returns the group-membership protocol of the configuration.
func (c *Configuration) Protocol() GroupMemProtocol {
	return c.proto
}

// Tables returns the table set. Read-only after load.
func (c *Configuration) Tables() *TableSet {
	return c.tables
}

// Instances returns the instance definitions. Read-only after load.
func (c *Configuration) Instances() *InstanceDefSet {
	return c.instances
}

// ResolvedInterfaces returns the runtime interface set for an instance, or
// false if the instance is unknown or resolution did not run (test mode).
func (c *Configuration) ResolvedInterfaces(instanceName string) (*netif.InterfaceSet, bool) {
	set, ok := c.resolved[instanceName]
	return set, ok
}

// RestoreRPFilter writes back any reverse-path-filter values changed during
// load. Called on daemon shutdown.
func (c *Configuration) RestoreRPFilter() {
	c.rpf.Restore()
}

// String renders the whole resolved configuration in a fixed order: protocol,
// tables, instance definitions, then resolved interface sets, each in
// declaration order. The output is one-way diagnostic text, never parsed
// back.
func (c *Configuration) String() string {
	var b strings.Builder
	b.WriteString("##-- mrelay configuration --##\n")
	fmt.Fprintf(&b, "protocol %s\n", c.proto)
	b.WriteString(c.tables.String())
	b.WriteString(c.instances.String())
	for _, inst := range c.instances.All() {
		if set, ok := c.resolved[inst.Name]; ok {
			fmt.Fprintf(&b, "resolved %s: %s\n", inst.Name, set)
		}
	}
	return b.String()
}
