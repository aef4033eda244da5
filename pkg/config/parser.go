package config

import "net/netip"

// Statement kinds, identified by keyword prefix or structural lookahead.
// The two "instance" forms share a keyword: a brace after the instance name
// means a definition, anything else is a rule binding onto an existing
// instance.
type stmtKind int

const (
	stmtUnknown stmtKind = iota
	stmtProtocol
	stmtTable
	stmtInstanceDef
	stmtRuleBinding
)

func classify(st Statement) stmtKind {
	lex := NewLexer(st.Text, st.Line)
	first := lex.Next()
	if first.Type != TokenIdentifier {
		return stmtUnknown
	}
	switch first.Value {
	case "protocol":
		return stmtProtocol
	case "table":
		return stmtTable
	case "instance":
		if name := lex.Next(); name.Type != TokenIdentifier {
			return stmtUnknown
		}
		if lex.Peek().Type == TokenLBrace {
			return stmtInstanceDef
		}
		return stmtRuleBinding
	default:
		return stmtUnknown
	}
}

// stmtParser wraps the lexer with expectation helpers for the per-kind
// recursive-descent parsers.
type stmtParser struct {
	lex *Lexer
}

func newStmtParser(st Statement) *stmtParser {
	return &stmtParser{lex: NewLexer(st.Text, st.Line)}
}

func (p *stmtParser) expect(tt TokenType) (Token, error) {
	tok := p.lex.Next()
	if tok.Type == TokenError {
		return tok, syntaxErrorf(tok.Line, "%s", tok.Value)
	}
	if tok.Type != tt {
		return tok, syntaxErrorf(tok.Line, "expected %s, got %s", tt, tok)
	}
	return tok, nil
}

func (p *stmtParser) expectIdent(what string) (Token, error) {
	tok := p.lex.Next()
	if tok.Type == TokenError {
		return tok, syntaxErrorf(tok.Line, "%s", tok.Value)
	}
	if tok.Type != TokenIdentifier {
		return tok, syntaxErrorf(tok.Line, "expected %s, got %s", what, tok)
	}
	return tok, nil
}

func (p *stmtParser) expectEOF() error {
	if tok := p.lex.Next(); tok.Type != TokenEOF {
		return syntaxErrorf(tok.Line, "unexpected %s after statement", tok)
	}
	return nil
}

// parseProtocol handles: protocol (IGMPv3|MLDv2)
//
// The protocol must be declared before any table or instance, because tables
// are compiled under the protocol in effect, and at most once.
func (c *Configuration) parseProtocol(st Statement) error {
	p := newStmtParser(st)
	p.lex.Next() // "protocol"

	name, err := p.expectIdent("protocol name")
	if err != nil {
		return err
	}
	proto, ok := ParseProtocol(name.Value)
	if !ok {
		return syntaxErrorf(name.Line, "unknown protocol %q", name.Value)
	}
	if err := p.expectEOF(); err != nil {
		return err
	}

	if c.protoSet {
		return syntaxErrorf(st.Line, "protocol already set to %s", c.proto)
	}
	if c.tables.Len() > 0 || c.instances.Len() > 0 {
		return syntaxErrorf(st.Line, "protocol must precede table and instance definitions")
	}
	c.proto = proto
	c.protoSet = true
	return nil
}

// parseTable handles: table <name> = { <addr>|* ... }
func (c *Configuration) parseTable(st Statement) error {
	p := newStmtParser(st)
	p.lex.Next() // "table"

	name, err := p.expectIdent("table name")
	if err != nil {
		return err
	}
	if _, err := p.expect(TokenEquals); err != nil {
		return err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return err
	}

	t := &Table{Name: name.Value, Proto: c.proto}
	for {
		tok := p.lex.Next()
		switch tok.Type {
		case TokenRBrace:
			if err := p.expectEOF(); err != nil {
				return err
			}
			if !c.tables.Insert(t) {
				return &DuplicateNameError{Kind: "table", Name: t.Name}
			}
			return nil
		case TokenIdentifier:
			entry, err := parseTableEntry(tok, c.proto)
			if err != nil {
				return err
			}
			t.Entries = append(t.Entries, entry)
		case TokenError:
			return syntaxErrorf(tok.Line, "%s", tok.Value)
		default:
			return syntaxErrorf(tok.Line, "expected address or '}', got %s", tok)
		}
	}
}

func parseTableEntry(tok Token, proto GroupMemProtocol) (TableEntry, error) {
	if tok.Value == "*" {
		return TableEntry{Wildcard: true}, nil
	}
	addr, err := netip.ParseAddr(tok.Value)
	if err != nil {
		return TableEntry{}, syntaxErrorf(tok.Line, "bad address %q", tok.Value)
	}
	if addr.Is4() != proto.Is4() {
		return TableEntry{}, syntaxErrorf(tok.Line,
			"address %s does not match the %s address family", addr, proto)
	}
	return TableEntry{Addr: addr}, nil
}

// parseInstanceDefinition handles:
//
//	instance <name> { (downstream|upstream) <if> [filter ...]* ... }
func (c *Configuration) parseInstanceDefinition(st Statement) error {
	p := newStmtParser(st)
	p.lex.Next() // "instance"

	name, err := p.expectIdent("instance name")
	if err != nil {
		return err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return err
	}

	def := &InstanceDef{Name: name.Value}
	for {
		tok := p.lex.Next()
		switch {
		case tok.Type == TokenRBrace:
			if err := p.expectEOF(); err != nil {
				return err
			}
			if !c.instances.Insert(def) {
				return &DuplicateNameError{Kind: "instance", Name: def.Name}
			}
			return nil
		case tok.Type == TokenIdentifier && (tok.Value == "downstream" || tok.Value == "upstream"):
			ifName, err := p.expectIdent("interface name")
			if err != nil {
				return err
			}
			d := &InterfaceDef{Name: ifName.Value, tables: c.tables}
			if err := c.parseFilterClauses(p, d); err != nil {
				return err
			}
			if tok.Value == "downstream" {
				def.Downstreams = append(def.Downstreams, d)
			} else {
				def.Upstreams = append(def.Upstreams, d)
			}
		case tok.Type == TokenError:
			return syntaxErrorf(tok.Line, "%s", tok.Value)
		default:
			return syntaxErrorf(tok.Line, "expected 'downstream', 'upstream' or '}', got %s", tok)
		}
	}
}

// parseRuleBinding handles the block-less instance form, which binds filter
// rules onto an interface of an already-defined instance:
//
//	instance <name> (downstream|upstream) <if> filter ...
func (c *Configuration) parseRuleBinding(st Statement) error {
	p := newStmtParser(st)
	p.lex.Next() // "instance"

	name, err := p.expectIdent("instance name")
	if err != nil {
		return err
	}
	def, ok := c.instances.Lookup(name.Value)
	if !ok {
		return syntaxErrorf(name.Line, "unknown instance %q", name.Value)
	}

	role, err := p.expectIdent("'downstream' or 'upstream'")
	if err != nil {
		return err
	}
	if role.Value != "downstream" && role.Value != "upstream" {
		return syntaxErrorf(role.Line, "expected 'downstream' or 'upstream', got %q", role.Value)
	}
	ifName, err := p.expectIdent("interface name")
	if err != nil {
		return err
	}
	d := def.findInterface(role.Value, ifName.Value)
	if d == nil {
		return syntaxErrorf(ifName.Line, "interface %q not declared as %s of instance %q",
			ifName.Value, role.Value, def.Name)
	}

	if p.lex.Peek().Type == TokenEOF {
		return syntaxErrorf(st.Line, "expected 'filter' after interface name")
	}
	if err := c.parseFilterClauses(p, d); err != nil {
		return err
	}
	return p.expectEOF()
}

// parseFilterClauses consumes zero or more clauses of the form
//
//	filter (in|out) (whitelist|blacklist) [group <ref>] [source <ref>] ...
//
// and binds them to the interface. Table references must already be defined;
// '*' is the wildcard reference. At most one filter per direction.
func (c *Configuration) parseFilterClauses(p *stmtParser, d *InterfaceDef) error {
	for {
		next := p.lex.Peek()
		if next.Type != TokenIdentifier || next.Value != "filter" {
			return nil
		}
		p.lex.Next() // "filter"

		dirTok, err := p.expectIdent("direction")
		if err != nil {
			return err
		}
		dir, ok := ParseDirection(dirTok.Value)
		if !ok {
			return syntaxErrorf(dirTok.Line, "expected 'in' or 'out', got %q", dirTok.Value)
		}
		typeTok, err := p.expectIdent("filter type")
		if err != nil {
			return err
		}
		ftype, ok := ParseFilterType(typeTok.Value)
		if !ok {
			return syntaxErrorf(typeTok.Line, "expected 'whitelist' or 'blacklist', got %q", typeTok.Value)
		}

		rule := &InterfaceRule{Type: ftype}
		for {
			peek := p.lex.Peek()
			if peek.Type != TokenIdentifier || (peek.Value != "group" && peek.Value != "source") {
				break
			}
			entry := RuleEntry{}
			if peek.Value == "group" {
				p.lex.Next()
				ref, err := c.parseTableRef(p)
				if err != nil {
					return err
				}
				entry.GroupTable = ref
				if src := p.lex.Peek(); src.Type == TokenIdentifier && src.Value == "source" {
					p.lex.Next()
					ref, err := c.parseTableRef(p)
					if err != nil {
						return err
					}
					entry.SourceTable = ref
				}
			} else {
				p.lex.Next()
				ref, err := c.parseTableRef(p)
				if err != nil {
					return err
				}
				entry.SourceTable = ref
			}
			rule.Entries = append(rule.Entries, entry)
		}

		if d.rules[dir] != nil {
			return syntaxErrorf(dirTok.Line, "interface %q already has a filter for direction %s",
				d.Name, dir)
		}
		d.rules[dir] = rule
	}
}

// parseTableRef reads a table reference: a defined table name or '*'.
// The wildcard is represented as the empty string in RuleEntry.
func (c *Configuration) parseTableRef(p *stmtParser) (string, error) {
	tok, err := p.expectIdent("table name or '*'")
	if err != nil {
		return "", err
	}
	if tok.Value == "*" {
		return "", nil
	}
	if _, ok := c.tables.Lookup(tok.Value); !ok {
		return "", syntaxErrorf(tok.Line, "unknown table %q", tok.Value)
	}
	return tok.Value, nil
}
