// Package netif maps declared interface names onto live OS interfaces and
// owns the reverse-path-filter sysctl handling for the daemon.
package netif

import (
	"fmt"
	"strings"

	"github.com/vishvananda/netlink"
)

// Resolver resolves an interface name to its OS interface index. Index 0 is
// the "not found" sentinel; implementations return it together with an error.
type Resolver interface {
	IfIndex(name string) (int, error)
}

// NetlinkResolver resolves interface names through the kernel via netlink.
type NetlinkResolver struct{}

// IfIndex implements Resolver.
func (NetlinkResolver) IfIndex(name string) (int, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return 0, err
	}
	return link.Attrs().Index, nil
}

// StaticResolver resolves names from a fixed map. Used by tests and by
// offline tooling that validates configurations against a recorded interface
// inventory.
type StaticResolver map[string]int

// IfIndex implements Resolver.
func (r StaticResolver) IfIndex(name string) (int, error) {
	idx, ok := r[name]
	if !ok {
		return 0, fmt.Errorf("no such interface: %s", name)
	}
	return idx, nil
}

// InterfaceSet is the resolved set of OS interface indices for one proxy
// instance. It is built once during interface resolution and immutable
// afterward.
type InterfaceSet struct {
	names map[int]string // index -> declared name
	order []int
}

// NewInterfaceSet creates an empty interface set.
func NewInterfaceSet() *InterfaceSet {
	return &InterfaceSet{names: make(map[int]string)}
}

// Add registers a resolved interface, returning false if the index is
// already registered.
func (s *InterfaceSet) Add(index int, name string) bool {
	if _, ok := s.names[index]; ok {
		return false
	}
	s.names[index] = name
	s.order = append(s.order, index)
	return true
}

// Contains reports whether the index is registered.
func (s *InterfaceSet) Contains(index int) bool {
	_, ok := s.names[index]
	return ok
}

// Len returns the number of registered interfaces.
func (s *InterfaceSet) Len() int {
	return len(s.order)
}

// Indices returns the interface indices in registration order.
func (s *InterfaceSet) Indices() []int {
	return append([]int(nil), s.order...)
}

// IndexOf returns the index registered for a declared name.
func (s *InterfaceSet) IndexOf(name string) (int, bool) {
	for _, idx := range s.order {
		if s.names[idx] == name {
			return idx, true
		}
	}
	return 0, false
}

// Names returns the declared interface names in registration order.
func (s *InterfaceSet) Names() []string {
	out := make([]string, 0, len(s.order))
	for _, idx := range s.order {
		out = append(out, s.names[idx])
	}
	return out
}

func (s *InterfaceSet) String() string {
	var b strings.Builder
	for i, idx := range s.order {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s(%d)", s.names[idx], idx)
	}
	return b.String()
}
