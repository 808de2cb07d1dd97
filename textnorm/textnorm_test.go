package textnorm

import (
	"strings"
	"testing"
)

func TestRepairHyphenation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"basic split word", "exam-\nple", "example"},
		{"trailing spaces before break", "frag-  \nment", "fragment"},
		{"hyphen kept between digits", "2023-\n2024", "2023-\n2024"},
		{"hyphen kept mid line", "well-known", "well-known"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RepairHyphenation(tt.input); got != tt.want {
				t.Errorf("RepairHyphenation(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMergeLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"wrapped line joins with space",
			"first part\nsecond part",
			"first part second part",
		},
		{
			"sentence end starts paragraph",
			"End of sentence.\nNew paragraph",
			"End of sentence.\n\nNew paragraph",
		},
		{
			"blank line forces break",
			"one\n\ntwo",
			"one\n\ntwo",
		},
		{
			"whitespace runs collapse",
			"a   b\t\tc",
			"a b c",
		},
		{
			"bullet successor keeps break",
			"intro\n• first item",
			"intro\n\n• first item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLines(tt.input); got != tt.want {
				t.Errorf("MergeLines(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatLists(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bullet glyph", "• item one", "- item one"},
		{"square bullet", "▪ item", "- item"},
		{"numbered line", "3.  third thing", "3. third thing"},
		{"plain line untouched", "version 2.0 shipped", "version 2.0 shipped"},
		{"already canonical", "- item", "- item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLists(tt.input); got != tt.want {
				t.Errorf("FormatLists(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatCitations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single citation", "as shown [12] here", "as shown <sup>[12]</sup> here"},
		{"citation group", "result [3, 4]", "result <sup>[3, 4]</sup>"},
		{"already wrapped untouched", "<sup>[7]</sup>", "<sup>[7]</sup>"},
		{"non-numeric bracket untouched", "[sic]", "[sic]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCitations(tt.input); got != tt.want {
				t.Errorf("FormatCitations(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestProcess(t *testing.T) {
	input := "The experi-\nment succeeded.\nResults follow [1, 2]:\n• accuracy up\n• latency down\n"
	want := "The experiment succeeded.\n\nResults follow <sup>[1, 2]</sup>:\n\n- accuracy up\n\n- latency down"

	if got := Process(input); got != want {
		t.Errorf("Process() = %q, want %q", got, want)
	}
}

func TestProcessIdempotent(t *testing.T) {
	inputs := []string{
		"The experi-\nment succeeded.\nResults follow [1, 2]:\n• accuracy up\n1. numbered\n",
		"plain single line",
		"Heading:\nbody text\nmore body.\nNext paragraph",
		"",
		"   spaced   out   ",
	}

	for _, input := range inputs {
		once := Process(input)
		twice := Process(once)
		if once != twice {
			t.Errorf("Process not idempotent for %q:\n once: %q\ntwice: %q", input, once, twice)
		}
	}
}

func TestProcessNoPanicOnOddInput(t *testing.T) {
	inputs := []string{
		strings.Repeat("-\n", 100),
		"\n\n\n\n",
		"[1",
		"•",
	}
	for _, input := range inputs {
		_ = Process(input)
	}
}
