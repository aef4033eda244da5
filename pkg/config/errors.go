package config

import "fmt"

// LoadError reports that the configuration file could not be read.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load config file %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SyntaxError reports an unrecognized or malformed statement with the line
// number of the statement in the original file.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func syntaxErrorf(line int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// DuplicateNameError reports a table, instance, or interface-set name
// collision.
type DuplicateNameError struct {
	Kind string // "table", "instance", "interface set"
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// UnknownInterfaceError reports a declared interface name with no live OS
// counterpart.
type UnknownInterfaceError struct {
	Name string
	Err  error
}

func (e *UnknownInterfaceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("interface %q not found: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("interface %q not found", e.Name)
}

func (e *UnknownInterfaceError) Unwrap() error { return e.Err }

// DuplicateInterfaceError reports that the same OS interface index is used
// twice within one proxy instance.
type DuplicateInterfaceError struct {
	Instance string
	Name     string
	Index    int
}

func (e *DuplicateInterfaceError) Error() string {
	return fmt.Sprintf("instance %q: interface %q (index %d) already in use",
		e.Instance, e.Name, e.Index)
}
