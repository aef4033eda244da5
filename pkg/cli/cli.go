// Package cli implements the interactive policy shell for mrelay.
package cli

import (
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mcastd/mrelay/pkg/config"
)

// Shell is the interactive command-line interface over a loaded
// configuration.
type Shell struct {
	rl       *readline.Instance
	conf     *config.Configuration
	hostname string
}

// New creates a new shell.
func New(conf *config.Configuration) *Shell {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "mrelay"
	}
	return &Shell{
		conf:     conf,
		hostname: hostname,
	}
}

func (s *Shell) completer() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("show",
			readline.PcItem("configuration"),
			readline.PcItem("protocol"),
			readline.PcItem("tables"),
			readline.PcItem("instances"),
			readline.PcItem("interfaces"),
		),
		readline.PcItem("check",
			readline.PcItem("in"),
			readline.PcItem("out"),
		),
		readline.PcItem("help"),
		readline.PcItem("quit"),
		readline.PcItem("exit"),
	)
}

// Run starts the interactive loop.
func (s *Shell) Run() error {
	var err error
	s.rl, err = readline.NewEx(&readline.Config{
		Prompt:          s.hostname + "> ",
		HistoryFile:     "/tmp/mrelay_history",
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer s.rl.Close()

	fmt.Printf("mrelay - multicast proxy policy shell (%s)\n", s.conf.Path())
	fmt.Println("Type 'help' for help")
	fmt.Println()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := s.dispatch(line); err != nil {
			if err == errExit {
				return nil
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return nil
}

var errExit = fmt.Errorf("exit")

func (s *Shell) dispatch(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	switch parts[0] {
	case "show":
		return s.handleShow(parts[1:])

	case "check":
		return s.handleCheck(parts[1:])

	case "quit", "exit":
		return errExit

	case "?", "help":
		s.showHelp()
		return nil

	default:
		return fmt.Errorf("unknown command: %s", parts[0])
	}
}

func (s *Shell) handleShow(args []string) error {
	if len(args) == 0 {
		fmt.Println("show: specify what to show")
		fmt.Println("  configuration    Show the full configuration dump")
		fmt.Println("  protocol         Show the group membership protocol")
		fmt.Println("  tables           Show address tables")
		fmt.Println("  instances        Show proxy instances")
		fmt.Println("  interfaces       Show resolved interfaces")
		return nil
	}

	switch args[0] {
	case "configuration":
		fmt.Println(s.conf.String())
		return nil

	case "protocol":
		fmt.Println(s.conf.Protocol())
		return nil

	case "tables":
		for _, t := range s.conf.Tables().All() {
			fmt.Println(t)
		}
		return nil

	case "instances":
		for _, inst := range s.conf.Instances().All() {
			fmt.Println(inst)
		}
		return nil

	case "interfaces":
		return s.showInterfaces()

	default:
		return fmt.Errorf("unknown show target: %s", args[0])
	}
}

func (s *Shell) showInterfaces() error {
	for _, inst := range s.conf.Instances().All() {
		set, ok := s.conf.ResolvedInterfaces(inst.Name)
		if !ok {
			fmt.Printf("%s: not resolved\n", inst.Name)
			continue
		}
		fmt.Printf("%s: %s\n", inst.Name, set)
	}
	return nil
}

// handleCheck evaluates one policy check:
//
//	check <in|out> <interface> <group> <source>
func (s *Shell) handleCheck(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: check <in|out> <interface> <group> <source>")
	}

	dir, ok := config.ParseDirection(args[0])
	if !ok {
		return fmt.Errorf("direction must be 'in' or 'out', got %q", args[0])
	}
	ifName := args[1]
	group, err := netip.ParseAddr(args[2])
	if err != nil {
		return fmt.Errorf("bad group address %q: %w", args[2], err)
	}
	source, err := netip.ParseAddr(args[3])
	if err != nil {
		return fmt.Errorf("bad source address %q: %w", args[3], err)
	}

	allowed, found := s.conf.IsSourceAllowed(dir, ifName, group, source)
	verdict := "denied"
	if allowed {
		verdict = "allowed"
	}
	if !found {
		fmt.Printf("%s (interface %q is not part of any instance)\n", verdict, ifName)
		return nil
	}
	fmt.Println(verdict)
	return nil
}

func (s *Shell) showHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  show configuration                       Full configuration dump")
	fmt.Println("  show protocol                            Group membership protocol")
	fmt.Println("  show tables                              Address tables")
	fmt.Println("  show instances                           Proxy instances")
	fmt.Println("  show interfaces                          Resolved interfaces per instance")
	fmt.Println("  check <in|out> <if> <group> <source>     Evaluate a policy check")
	fmt.Println("  quit, exit                               Leave the shell")
}
