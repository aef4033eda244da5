// Package api implements the read-only HTTP diagnostics API and the
// Prometheus metrics endpoint over a loaded configuration.
package api

// Response is the standard JSON response envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse holds daemon status information.
type StatusResponse struct {
	Uptime        string `json:"uptime"`
	ConfigFile    string `json:"config_file"`
	Protocol      string `json:"protocol"`
	TableCount    int    `json:"table_count"`
	InstanceCount int    `json:"instance_count"`
}

// TableInfo describes one address table.
type TableInfo struct {
	Name    string   `json:"name"`
	Entries []string `json:"entries"`
}

// RuleInfo describes one direction's filter on an interface.
type RuleInfo struct {
	Direction string   `json:"direction"`
	Type      string   `json:"type"`
	Entries   []string `json:"entries"`
}

// InterfaceInfo describes one declared interface of an instance.
type InterfaceInfo struct {
	Name  string     `json:"name"`
	Role  string     `json:"role"` // "downstream" or "upstream"
	Index int        `json:"index,omitempty"`
	Rules []RuleInfo `json:"rules,omitempty"`
}

// InstanceInfo describes one proxy instance.
type InstanceInfo struct {
	Name       string          `json:"name"`
	Interfaces []InterfaceInfo `json:"interfaces"`
	Resolved   bool            `json:"resolved"`
}

// CheckResponse is the verdict of a policy check.
type CheckResponse struct {
	Allowed   bool   `json:"allowed"`
	RuleFound bool   `json:"rule_found"`
	Direction string `json:"direction"`
	Interface string `json:"interface"`
	Group     string `json:"group"`
	Source    string `json:"source"`
}
