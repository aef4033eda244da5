package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// loadTest writes text to a temp file and loads it in test mode (no
// interface resolution).
func loadTest(t *testing.T, text string) (*Configuration, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mrelay.conf")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return Load(path, Options{TestMode: true})
}

// mustLoadTest is loadTest for fixtures that are expected to be valid.
func mustLoadTest(t *testing.T, text string) *Configuration {
	t.Helper()
	c, err := loadTest(t, text)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func TestLexer(t *testing.T) {
	lex := NewLexer("table groupA = {\n    239.1.1.1 *\n}", 10)
	expected := []struct {
		typ  TokenType
		val  string
		line int
	}{
		{TokenIdentifier, "table", 10},
		{TokenIdentifier, "groupA", 10},
		{TokenEquals, "=", 10},
		{TokenLBrace, "{", 10},
		{TokenIdentifier, "239.1.1.1", 11},
		{TokenIdentifier, "*", 11},
		{TokenRBrace, "}", 12},
		{TokenEOF, "", 12},
	}
	for i, exp := range expected {
		tok := lex.Next()
		if tok.Type != exp.typ {
			t.Errorf("token %d: expected type %s, got %s (value=%q)", i, exp.typ, tok.Type, tok.Value)
		}
		if exp.val != "" && tok.Value != exp.val {
			t.Errorf("token %d: expected value %q, got %q", i, exp.val, tok.Value)
		}
		if tok.Line != exp.line {
			t.Errorf("token %d: expected line %d, got %d", i, exp.line, tok.Line)
		}
	}
}

func TestProtocolDefault(t *testing.T) {
	c := mustLoadTest(t, "table a = { 239.1.1.1 };")
	if c.Protocol() != ProtoIGMPv3 {
		t.Errorf("default protocol = %s, want IGMPv3", c.Protocol())
	}
}

func TestProtocolStatement(t *testing.T) {
	c := mustLoadTest(t, "protocol MLDv2;\ntable a = { ff0e::1 };")
	if c.Protocol() != ProtoMLDv2 {
		t.Errorf("protocol = %s, want MLDv2", c.Protocol())
	}
}

func TestProtocolUnknown(t *testing.T) {
	_, err := loadTest(t, "protocol IGMPv9;")
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
}

func TestProtocolTwiceFails(t *testing.T) {
	_, err := loadTest(t, "protocol IGMPv3;\nprotocol MLDv2;")
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if serr.Line != 2 {
		t.Errorf("error line = %d, want 2", serr.Line)
	}
}

func TestProtocolAfterTableFails(t *testing.T) {
	_, err := loadTest(t, "table a = { 239.1.1.1 };\nprotocol MLDv2;")
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
}

func TestTableParsing(t *testing.T) {
	c := mustLoadTest(t, "table groupA = { 239.1.1.1 239.1.1.2 * };")
	tbl, ok := c.Tables().Lookup("groupA")
	if !ok {
		t.Fatal("table groupA not found")
	}
	if len(tbl.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(tbl.Entries))
	}
	if tbl.Entries[0].String() != "239.1.1.1" {
		t.Errorf("entry 0 = %s", tbl.Entries[0])
	}
	if !tbl.Entries[2].Wildcard {
		t.Error("entry 2 should be the wildcard")
	}
	if tbl.Proto != ProtoIGMPv3 {
		t.Errorf("table protocol = %s, want IGMPv3", tbl.Proto)
	}
}

func TestTableMissingEquals(t *testing.T) {
	_, err := loadTest(t, "table a { 239.1.1.1 };")
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
}

func TestTableBadAddress(t *testing.T) {
	_, err := loadTest(t, "table a = { 239.1.1 };")
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
}

func TestTableFamilyMismatch(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"v6 under IGMPv3", "table a = { ff0e::1 };"},
		{"v4 under MLDv2", "protocol MLDv2;\ntable a = { 239.1.1.1 };"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadTest(t, tt.text)
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("expected SyntaxError, got %v", err)
			}
		})
	}
}

func TestDuplicateTable(t *testing.T) {
	_, err := loadTest(t, "table a = { 239.1.1.1 };\ntable a = { 239.1.1.2 };")
	var derr *DuplicateNameError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
	if derr.Kind != "table" || derr.Name != "a" {
		t.Errorf("got %s %q, want table \"a\"", derr.Kind, derr.Name)
	}
}

func TestInstanceDefinition(t *testing.T) {
	c := mustLoadTest(t, `
table groupA = { 239.1.1.1 };
table srcA = { 2.2.2.3 };
instance myProxy {
    downstream eth0 filter in whitelist group groupA source srcA
    downstream eth1
    upstream wan0
};`)

	inst, ok := c.Instances().Lookup("myProxy")
	if !ok {
		t.Fatal("instance myProxy not found")
	}
	if len(inst.Downstreams) != 2 || len(inst.Upstreams) != 1 {
		t.Fatalf("got %d downstreams, %d upstreams", len(inst.Downstreams), len(inst.Upstreams))
	}

	eth0 := inst.Downstreams[0]
	if eth0.Name != "eth0" {
		t.Errorf("first downstream = %q, want eth0", eth0.Name)
	}
	rule := eth0.Rule(DirIn)
	if rule == nil {
		t.Fatal("eth0 has no in rule")
	}
	if rule.Type != FilterWhitelist {
		t.Errorf("rule type = %s, want whitelist", rule.Type)
	}
	if len(rule.Entries) != 1 {
		t.Fatalf("expected 1 rule entry, got %d", len(rule.Entries))
	}
	if e := rule.Entries[0]; e.GroupTable != "groupA" || e.SourceTable != "srcA" {
		t.Errorf("rule entry = %+v", e)
	}
	if eth0.Rule(DirOut) != nil {
		t.Error("eth0 should have no out rule")
	}
	if inst.Downstreams[1].Rule(DirIn) != nil {
		t.Error("eth1 should have no rules")
	}
}

func TestInstanceMultipleFilters(t *testing.T) {
	c := mustLoadTest(t, `
table g = { 239.1.1.1 };
instance p {
    downstream eth0 filter in whitelist group g filter out blacklist group g
};`)
	eth0 := mustInstanceIface(t, c, "p")
	if eth0.Rule(DirIn) == nil || eth0.Rule(DirOut) == nil {
		t.Fatal("expected rules for both directions")
	}
	if eth0.Rule(DirOut).Type != FilterBlacklist {
		t.Errorf("out rule type = %s, want blacklist", eth0.Rule(DirOut).Type)
	}
}

func TestDuplicateFilterDirection(t *testing.T) {
	_, err := loadTest(t, `
table g = { 239.1.1.1 };
instance p {
    downstream eth0 filter in whitelist group g filter in blacklist group g
};`)
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
}

func TestDuplicateInstance(t *testing.T) {
	_, err := loadTest(t, "instance p { downstream eth0 };\ninstance p { downstream eth1 };")
	var derr *DuplicateNameError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
	if derr.Kind != "instance" || derr.Name != "p" {
		t.Errorf("got %s %q, want instance \"p\"", derr.Kind, derr.Name)
	}
}

func TestRuleBinding(t *testing.T) {
	c := mustLoadTest(t, `
table g = { 239.1.1.1 };
table s = { 2.2.2.3 };
instance p { downstream eth0 };
instance p downstream eth0 filter in whitelist group g source s;`)

	eth0 := mustInstanceIface(t, c, "p")
	rule := eth0.Rule(DirIn)
	if rule == nil {
		t.Fatal("binding did not attach a rule")
	}
	if e := rule.Entries[0]; e.GroupTable != "g" || e.SourceTable != "s" {
		t.Errorf("rule entry = %+v", e)
	}
}

func TestRuleBindingErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"unknown instance", "instance p downstream eth0 filter in whitelist;"},
		{"undeclared interface", "instance p { downstream eth0 };\ninstance p downstream eth9 filter in whitelist;"},
		{"wrong role", "instance p { downstream eth0 };\ninstance p upstream eth0 filter in whitelist;"},
		{"missing filter", "instance p { downstream eth0 };\ninstance p downstream eth0;"},
		{"already bound", "instance p { downstream eth0 filter in whitelist };\ninstance p downstream eth0 filter in blacklist;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadTest(t, tt.text)
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("expected SyntaxError, got %v", err)
			}
		})
	}
}

func TestForwardTableReference(t *testing.T) {
	_, err := loadTest(t, `
instance p {
    downstream eth0 filter in whitelist group later
};
table later = { 239.1.1.1 };`)
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
}

func TestUnknownStatement(t *testing.T) {
	_, err := loadTest(t, "protocol IGMPv3;\nfrobnicate all the things;")
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if serr.Line != 2 {
		t.Errorf("error line = %d, want 2", serr.Line)
	}
}

func TestWildcardReferences(t *testing.T) {
	c := mustLoadTest(t, `
table g = { 239.1.1.1 };
instance p {
    downstream eth0 filter in whitelist group * source *
};`)
	eth0 := mustInstanceIface(t, c, "p")
	e := eth0.Rule(DirIn).Entries[0]
	if e.GroupTable != "" || e.SourceTable != "" {
		t.Errorf("wildcard refs should be empty, got %+v", e)
	}
}

// mustInstanceIface returns the first downstream interface of the named
// instance.
func mustInstanceIface(t *testing.T, c *Configuration, instance string) *InterfaceDef {
	t.Helper()
	inst, ok := c.Instances().Lookup(instance)
	if !ok {
		t.Fatalf("instance %s not found", instance)
	}
	if len(inst.Downstreams) == 0 {
		t.Fatalf("instance %s has no downstreams", instance)
	}
	return inst.Downstreams[0]
}
