package xlsx

import "testing"

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		ref     string
		col     int
		row     int
		wantErr bool
	}{
		{"A1", 0, 0, false},
		{"B3", 1, 2, false},
		{"Z10", 25, 9, false},
		{"AA1", 26, 0, false},
		{"AB2", 27, 1, false},
		{"cv100", 99, 99, false},
		{"", 0, 0, true},
		{"123", 0, 0, true},
		{"ABC", 0, 0, true},
		{"A0", 0, 0, true},
	}
	for _, tt := range tests {
		col, row, err := ParseCellRef(tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCellRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if err == nil && (col != tt.col || row != tt.row) {
			t.Errorf("ParseCellRef(%q) = (%d, %d), want (%d, %d)", tt.ref, col, row, tt.col, tt.row)
		}
	}
}

func TestColumnToIndex(t *testing.T) {
	tests := []struct {
		col  string
		want int
	}{
		{"A", 0},
		{"Z", 25},
		{"AA", 26},
		{"AZ", 51},
		{"BA", 52},
		{"ZZ", 701},
		{"A1", -1},
	}
	for _, tt := range tests {
		if got := ColumnToIndex(tt.col); got != tt.want {
			t.Errorf("ColumnToIndex(%q) = %d, want %d", tt.col, got, tt.want)
		}
	}
}
