package fonts

import "testing"

func TestEmbeddedTable(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	for _, r := range "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-_. " {
		if _, ok := Lookup(r); !ok {
			t.Errorf("Lookup(%q) missing", r)
		}
	}
	if _, ok := Lookup('~'); ok {
		t.Error("Lookup('~') should be missing")
	}
	lower, _ := Lookup('a')
	upper, _ := Lookup('A')
	if lower != upper {
		t.Error("lowercase should map to uppercase")
	}
}

func TestRuns(t *testing.T) {
	g, _ := Lookup('1')
	tests := []struct {
		row  int
		want [][2]int
	}{
		{0, [][2]int{{1, 2}}},
		{1, [][2]int{{0, 2}}},
		{4, [][2]int{{0, 3}}},
	}
	for _, tt := range tests {
		got := g.Runs(tt.row)
		if len(got) != len(tt.want) {
			t.Errorf("Runs(%d) = %v, want %v", tt.row, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Runs(%d) = %v, want %v", tt.row, got, tt.want)
			}
		}
	}
	zero, _ := Lookup('0')
	if got := zero.Runs(2); len(got) != 2 {
		t.Errorf("'0' middle row runs = %v, want 2 runs", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"glyph ab\n###\n###\n###\n###\n###\n",
		"glyph a\n###\n##\n###\n###\n###\n",
		"glyph a\n###\n",
	}
	for _, src := range tests {
		if _, err := parse(src); err == nil {
			t.Errorf("parse(%q) should fail", src)
		}
	}
}
