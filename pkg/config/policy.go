package config

import "net/netip"

// IsSourceAllowed decides whether a (group, source) pair may be forwarded in
// the given direction on this interface.
//
// The rule's entries are scanned in declaration order for the first one whose
// group table contains the group address (a wildcard group reference matches
// any group). The source is then a match if the entry's source table contains
// it, or the source reference is the wildcard. A whitelist allows matches, a
// blacklist allows everything else. An interface with no rule for the
// direction allows everything.
func (d *InterfaceDef) IsSourceAllowed(dir Direction, group, source netip.Addr) bool {
	rule := d.rules[dir]
	if rule == nil {
		return true
	}

	matched := false
	for _, e := range rule.Entries {
		if e.GroupTable != "" {
			t, ok := d.tables.Lookup(e.GroupTable)
			if !ok || !t.Contains(group) {
				continue
			}
		}
		if e.SourceTable == "" {
			matched = true
		} else if t, ok := d.tables.Lookup(e.SourceTable); ok {
			matched = t.Contains(source)
		}
		break
	}

	if rule.Type == FilterWhitelist {
		return matched
	}
	return !matched
}

// IsSourceAllowed evaluates the policy for the named interface across all
// instances. The second result reports whether any instance declares the
// interface; an undeclared interface falls back to the allow-all default.
func (c *Configuration) IsSourceAllowed(dir Direction, ifName string, group, source netip.Addr) (allowed, found bool) {
	for _, inst := range c.instances.All() {
		for _, d := range inst.Interfaces() {
			if d.Name == ifName {
				return d.IsSourceAllowed(dir, group, source), true
			}
		}
	}
	return true, false
}
