package mdtable

import (
	"strings"
	"testing"
)

func TestRenderPadsShortRows(t *testing.T) {
	got := Render([][]string{
		{"A", "B", "C"},
		{"1"},
	})
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), got)
	}
	if lines[2] != "| 1 |  |  |" {
		t.Errorf("short row = %q, want padded to 3 columns", lines[2])
	}
}

func TestRenderEmpty(t *testing.T) {
	if got := Render(nil); got != "" {
		t.Errorf("Render(nil) = %q", got)
	}
	if got := Render([][]string{{}}); got != "" {
		t.Errorf("Render of empty row = %q", got)
	}
}

func TestRenderColumnCap(t *testing.T) {
	wide := make([]string, MaxColumns+20)
	for i := range wide {
		wide[i] = "x"
	}
	got := Render([][]string{wide})
	if n := strings.Count(strings.Split(got, "\n")[0], "|"); n != MaxColumns+1 {
		t.Errorf("header has %d pipes, want %d", n, MaxColumns+1)
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"two\nlines", "two<br>lines"},
		{"crlf\r\nlines", "crlf<br>lines"},
		{"a|b", "a\\|b"},
		{"  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
