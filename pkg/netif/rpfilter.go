package netif

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultRPFilterDir is where the kernel exposes the per-interface
// reverse-path-filter knob.
const DefaultRPFilterDir = "/proc/sys/net/ipv4/conf"

// RPFilter clears the IPv4 reverse-path filter on proxy interfaces and
// remembers the previous values so they can be restored on shutdown.
// Multicast traffic arriving on a downstream interface routinely fails the
// strict RPF check, so the proxy has to relax it.
type RPFilter struct {
	dir   string
	saved map[string]string
}

// NewRPFilter creates an RPFilter operating on the default procfs directory.
func NewRPFilter() *RPFilter {
	return &RPFilter{dir: DefaultRPFilterDir, saved: make(map[string]string)}
}

// NewRPFilterAt creates an RPFilter rooted at dir. Tests point this at a
// temporary directory.
func NewRPFilterAt(dir string) *RPFilter {
	return &RPFilter{dir: dir, saved: make(map[string]string)}
}

// Disable clears rp_filter for the interface, saving the previous value.
// Disabling twice for the same interface is a no-op.
func (r *RPFilter) Disable(ifName string) error {
	if _, ok := r.saved[ifName]; ok {
		return nil
	}
	path := filepath.Join(r.dir, ifName, "rp_filter")
	old, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte("0\n"), 0644); err != nil {
		return err
	}
	r.saved[ifName] = strings.TrimSpace(string(old))
	slog.Debug("reverse path filter disabled", "interface", ifName, "previous", r.saved[ifName])
	return nil
}

// Restore writes back every saved rp_filter value. Failures are logged, not
// returned; restore runs on shutdown paths where there is nothing left to do
// about them.
func (r *RPFilter) Restore() {
	for ifName, val := range r.saved {
		path := filepath.Join(r.dir, ifName, "rp_filter")
		if err := os.WriteFile(path, []byte(val+"\n"), 0644); err != nil {
			slog.Warn("failed to restore reverse path filter", "interface", ifName, "err", err)
			continue
		}
		delete(r.saved, ifName)
	}
}
