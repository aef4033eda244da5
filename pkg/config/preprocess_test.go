package config

import "testing"

func TestStripComments(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#1234\n1234", "\n1234"},
		{"1234\n#1234", "1234\n"},
		{"#\n1234\n#1234", "\n1234\n"},
		{"1234#1234\n", "1234\n"},
		{"1234", "1234"},
		{"", ""},
		{"##\n1234", "\n1234"},
		{"\n1234#", "\n1234"},
		{"#12#34\n#56#78#910\n\n\n1234#", "\n\n\n\n1234"},
		{"#12#34\n#56#78#910\n1\n2\n3\n4#", "\n\n1\n2\n3\n4"},
		{"1234#\n", "1234\n"},
	}
	for i, tt := range tests {
		if got := StripComments(tt.in); got != tt.want {
			t.Errorf("case %d: StripComments(%q) = %q, want %q", i+1, tt.in, got, tt.want)
		}
	}
}

func TestStripCommentsIdempotent(t *testing.T) {
	inputs := []string{
		"#12#34\n#56#78#910\n1\n2\n3\n4#",
		"protocol IGMPv3; # default\ntable a = { 239.1.1.1 };",
		"no comments at all\n",
	}
	for _, in := range inputs {
		once := StripComments(in)
		twice := StripComments(once)
		if once != twice {
			t.Errorf("StripComments not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSegment(t *testing.T) {
	text := "protocol IGMPv3;\n\ntable groupA = {\n    239.1.1.1\n};\n\ninstance myProxy {\n    downstream eth0\n};\n"
	stmts := Segment(text)

	want := []Statement{
		{Line: 1, Text: "protocol IGMPv3"},
		{Line: 3, Text: "table groupA = {\n    239.1.1.1\n}"},
		{Line: 7, Text: "instance myProxy {\n    downstream eth0\n}"},
	}
	if len(stmts) != len(want) {
		t.Fatalf("expected %d statements, got %d: %v", len(want), len(stmts), stmts)
	}
	for i, w := range want {
		if stmts[i] != w {
			t.Errorf("statement %d: got {%d, %q}, want {%d, %q}",
				i, stmts[i].Line, stmts[i].Text, w.Line, w.Text)
		}
	}
}

func TestSegmentDropsEmpty(t *testing.T) {
	stmts := Segment(";a; b; c;;;")
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %v", len(stmts), stmts)
	}
	for _, st := range stmts {
		if st.Text == "" {
			t.Error("Segment returned an empty statement")
		}
	}
}

func TestSegmentLineNumbersMonotonic(t *testing.T) {
	text := "a;\nb;\n\n\nc;\nd\n;\ne;"
	stmts := Segment(text)
	prev := 0
	for _, st := range stmts {
		if st.Line < prev {
			t.Fatalf("line numbers not non-decreasing: %v", stmts)
		}
		prev = st.Line
	}
}

func TestSegmentAfterStripComments(t *testing.T) {
	// Comment stripping keeps newlines, so line numbers still match the
	// original file.
	text := "# header comment\nprotocol IGMPv3;\n# another\ntable a = { 239.1.1.1 };\n"
	stmts := Segment(StripComments(text))
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if stmts[0].Line != 2 {
		t.Errorf("protocol statement line = %d, want 2", stmts[0].Line)
	}
	if stmts[1].Line != 4 {
		t.Errorf("table statement line = %d, want 4", stmts[1].Line)
	}
}
