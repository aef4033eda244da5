package config

import (
	"fmt"
	"net/netip"
	"strings"
)

// GroupMemProtocol is the group-membership protocol the whole configuration
// is compiled under. It determines the address family of table entries where
// a statement does not say otherwise.
type GroupMemProtocol int

const (
	ProtoIGMPv3 GroupMemProtocol = iota // IPv4
	ProtoMLDv2                          // IPv6
)

func (p GroupMemProtocol) String() string {
	switch p {
	case ProtoIGMPv3:
		return "IGMPv3"
	case ProtoMLDv2:
		return "MLDv2"
	default:
		return "unknown"
	}
}

// Is4 reports whether the protocol implies the IPv4 address family.
func (p GroupMemProtocol) Is4() bool {
	return p == ProtoIGMPv3
}

// ParseProtocol resolves a protocol name from the configuration grammar.
func ParseProtocol(name string) (GroupMemProtocol, bool) {
	switch name {
	case "IGMPv3":
		return ProtoIGMPv3, true
	case "MLDv2":
		return ProtoMLDv2, true
	default:
		return 0, false
	}
}

// Direction is the direction of multicast traffic relative to an interface.
type Direction int

const (
	DirIn Direction = iota
	DirOut
)

func (d Direction) String() string {
	if d == DirIn {
		return "in"
	}
	return "out"
}

// ParseDirection resolves a direction keyword.
func ParseDirection(name string) (Direction, bool) {
	switch name {
	case "in":
		return DirIn, true
	case "out":
		return DirOut, true
	default:
		return 0, false
	}
}

// FilterType selects whether table membership grants or denies forwarding.
type FilterType int

const (
	FilterWhitelist FilterType = iota
	FilterBlacklist
)

func (t FilterType) String() string {
	if t == FilterWhitelist {
		return "whitelist"
	}
	return "blacklist"
}

// ParseFilterType resolves a filter type keyword.
func ParseFilterType(name string) (FilterType, bool) {
	switch name {
	case "whitelist":
		return FilterWhitelist, true
	case "blacklist":
		return FilterBlacklist, true
	default:
		return 0, false
	}
}

// TableEntry is one member of an address table: either a literal address or
// the '*' wildcard, which matches any address.
type TableEntry struct {
	Addr     netip.Addr
	Wildcard bool
}

func (e TableEntry) String() string {
	if e.Wildcard {
		return "*"
	}
	return e.Addr.String()
}

// Matches reports whether the entry covers the given address.
func (e TableEntry) Matches(a netip.Addr) bool {
	return e.Wildcard || e.Addr == a
}

// Table is a named, ordered collection of address entries compiled under one
// group-membership protocol. Tables are immutable once their defining
// statement has been parsed.
type Table struct {
	Name    string
	Proto   GroupMemProtocol
	Entries []TableEntry
}

// Contains reports whether any entry of the table covers the address.
func (t *Table) Contains(a netip.Addr) bool {
	for _, e := range t.Entries {
		if e.Matches(a) {
			return true
		}
	}
	return false
}

func (t *Table) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %s = {", t.Name)
	for _, e := range t.Entries {
		b.WriteByte(' ')
		b.WriteString(e.String())
	}
	b.WriteString(" }")
	return b.String()
}

// TableSet owns every named table of a configuration. Table names are unique;
// Insert rejects duplicates. After parsing completes the set is read-only and
// shared by every interface rule that references a table by name.
type TableSet struct {
	tables map[string]*Table
	order  []string
}

// NewTableSet creates an empty table set.
func NewTableSet() *TableSet {
	return &TableSet{tables: make(map[string]*Table)}
}

// Insert adds a table, returning false if the name is already taken.
func (s *TableSet) Insert(t *Table) bool {
	if _, ok := s.tables[t.Name]; ok {
		return false
	}
	s.tables[t.Name] = t
	s.order = append(s.order, t.Name)
	return true
}

// Lookup returns the table with the given name.
func (s *TableSet) Lookup(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Len returns the number of tables.
func (s *TableSet) Len() int {
	return len(s.order)
}

// All returns the tables in declaration order.
func (s *TableSet) All() []*Table {
	out := make([]*Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

func (s *TableSet) String() string {
	var b strings.Builder
	for _, t := range s.All() {
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// RuleEntry is one (group-table, source-table) pair of an interface rule.
// An empty reference is the wildcard: any group, or any source.
type RuleEntry struct {
	GroupTable  string
	SourceTable string
}

func (e RuleEntry) String() string {
	g, s := e.GroupTable, e.SourceTable
	if g == "" {
		g = "*"
	}
	if s == "" {
		s = "*"
	}
	return fmt.Sprintf("group %s source %s", g, s)
}

// InterfaceRule is the filter for one traffic direction of an interface: a
// filter type plus the ordered rule entries evaluated first-match-wins.
type InterfaceRule struct {
	Type    FilterType
	Entries []RuleEntry
}

// InterfaceDef is a declared proxy interface with its per-direction rules.
// Each InterfaceDef belongs to exactly one instance definition.
type InterfaceDef struct {
	Name   string
	rules  [2]*InterfaceRule // indexed by Direction
	tables *TableSet
}

// Rule returns the filter rule for a direction, or nil if none is bound.
func (d *InterfaceDef) Rule(dir Direction) *InterfaceRule {
	return d.rules[dir]
}

func (d *InterfaceDef) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	for _, dir := range []Direction{DirIn, DirOut} {
		r := d.rules[dir]
		if r == nil {
			continue
		}
		fmt.Fprintf(&b, " filter %s %s", dir, r.Type)
		for _, e := range r.Entries {
			b.WriteByte(' ')
			b.WriteString(e.String())
		}
	}
	return b.String()
}

// InstanceDef is a named proxy instance binding downstream and upstream
// interfaces together.
type InstanceDef struct {
	Name        string
	Downstreams []*InterfaceDef
	Upstreams   []*InterfaceDef
}

// Interfaces returns all declared interfaces, downstreams first, in
// declaration order.
func (i *InstanceDef) Interfaces() []*InterfaceDef {
	out := make([]*InterfaceDef, 0, len(i.Downstreams)+len(i.Upstreams))
	out = append(out, i.Downstreams...)
	out = append(out, i.Upstreams...)
	return out
}

func (i *InstanceDef) findInterface(role, name string) *InterfaceDef {
	list := i.Downstreams
	if role == "upstream" {
		list = i.Upstreams
	}
	for _, d := range list {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func (i *InstanceDef) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "instance %s {\n", i.Name)
	for _, d := range i.Downstreams {
		fmt.Fprintf(&b, "    downstream %s\n", d)
	}
	for _, u := range i.Upstreams {
		fmt.Fprintf(&b, "    upstream %s\n", u)
	}
	b.WriteString("}")
	return b.String()
}

// InstanceDefSet is the ordered collection of all instance definitions.
// Instance names are unique across the configuration.
type InstanceDefSet struct {
	defs   []*InstanceDef
	byName map[string]*InstanceDef
}

// NewInstanceDefSet creates an empty instance set.
func NewInstanceDefSet() *InstanceDefSet {
	return &InstanceDefSet{byName: make(map[string]*InstanceDef)}
}

// Insert adds an instance, returning false if the name is already taken.
func (s *InstanceDefSet) Insert(def *InstanceDef) bool {
	if _, ok := s.byName[def.Name]; ok {
		return false
	}
	s.byName[def.Name] = def
	s.defs = append(s.defs, def)
	return true
}

// Lookup returns the instance with the given name.
func (s *InstanceDefSet) Lookup(name string) (*InstanceDef, bool) {
	def, ok := s.byName[name]
	return def, ok
}

// Len returns the number of instances.
func (s *InstanceDefSet) Len() int {
	return len(s.defs)
}

// All returns the instances in declaration order.
func (s *InstanceDefSet) All() []*InstanceDef {
	return s.defs
}

func (s *InstanceDefSet) String() string {
	var b strings.Builder
	for _, def := range s.defs {
		b.WriteString(def.String())
		b.WriteByte('\n')
	}
	return b.String()
}
