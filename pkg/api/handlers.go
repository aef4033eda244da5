package api

import (
	"encoding/json"
	"net/http"
	"net/netip"
	"time"

	"github.com/mcastd/mrelay/pkg/config"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, StatusResponse{
		Uptime:        time.Since(s.startTime).Truncate(time.Second).String(),
		ConfigFile:    s.conf.Path(),
		Protocol:      s.conf.Protocol().String(),
		TableCount:    s.conf.Tables().Len(),
		InstanceCount: s.conf.Instances().Len(),
	})
}

func (s *Server) protocolHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, map[string]string{"protocol": s.conf.Protocol().String()})
}

func (s *Server) tablesHandler(w http.ResponseWriter, _ *http.Request) {
	tables := make([]TableInfo, 0, s.conf.Tables().Len())
	for _, t := range s.conf.Tables().All() {
		info := TableInfo{Name: t.Name, Entries: make([]string, 0, len(t.Entries))}
		for _, e := range t.Entries {
			info.Entries = append(info.Entries, e.String())
		}
		tables = append(tables, info)
	}
	writeOK(w, tables)
}

func (s *Server) instancesHandler(w http.ResponseWriter, _ *http.Request) {
	instances := make([]InstanceInfo, 0, s.conf.Instances().Len())
	for _, inst := range s.conf.Instances().All() {
		info := InstanceInfo{Name: inst.Name}
		set, resolved := s.conf.ResolvedInterfaces(inst.Name)
		info.Resolved = resolved

		appendIfaces := func(defs []*config.InterfaceDef, role string) {
			for _, d := range defs {
				ii := InterfaceInfo{Name: d.Name, Role: role}
				if resolved {
					if idx, ok := set.IndexOf(d.Name); ok {
						ii.Index = idx
					}
				}
				for _, dir := range []config.Direction{config.DirIn, config.DirOut} {
					if r := d.Rule(dir); r != nil {
						ri := RuleInfo{Direction: dir.String(), Type: r.Type.String()}
						for _, e := range r.Entries {
							ri.Entries = append(ri.Entries, e.String())
						}
						ii.Rules = append(ii.Rules, ri)
					}
				}
				info.Interfaces = append(info.Interfaces, ii)
			}
		}
		appendIfaces(inst.Downstreams, "downstream")
		appendIfaces(inst.Upstreams, "upstream")
		instances = append(instances, info)
	}
	writeOK(w, instances)
}

func (s *Server) interfacesHandler(w http.ResponseWriter, _ *http.Request) {
	resolved := make(map[string]string)
	for _, inst := range s.conf.Instances().All() {
		if set, ok := s.conf.ResolvedInterfaces(inst.Name); ok {
			resolved[inst.Name] = set.String()
		}
	}
	writeOK(w, resolved)
}

func (s *Server) checkHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dir, ok := config.ParseDirection(q.Get("direction"))
	if !ok {
		writeError(w, http.StatusBadRequest, "direction must be 'in' or 'out'")
		return
	}
	ifName := q.Get("interface")
	if ifName == "" {
		writeError(w, http.StatusBadRequest, "interface is required")
		return
	}
	group, err := netip.ParseAddr(q.Get("group"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad group address")
		return
	}
	source, err := netip.ParseAddr(q.Get("source"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad source address")
		return
	}

	allowed, found := s.conf.IsSourceAllowed(dir, ifName, group, source)
	verdict := "denied"
	if allowed {
		verdict = "allowed"
	}
	s.checks.WithLabelValues(dir.String(), verdict).Inc()

	writeOK(w, CheckResponse{
		Allowed:   allowed,
		RuleFound: found,
		Direction: dir.String(),
		Interface: ifName,
		Group:     group.String(),
		Source:    source.String(),
	})
}

func (s *Server) dumpHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.conf.String()))
}
