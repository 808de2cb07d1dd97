package xlsx

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCellRef parses an A1-style cell reference into 0-indexed column and
// row numbers.
func ParseCellRef(ref string) (col, row int, err error) {
	if ref == "" {
		return 0, 0, fmt.Errorf("empty cell reference")
	}

	i := 0
	for i < len(ref) && isLetter(ref[i]) {
		i++
	}
	if i == 0 {
		return 0, 0, fmt.Errorf("invalid cell reference %q: no column letters", ref)
	}
	if i == len(ref) {
		return 0, 0, fmt.Errorf("invalid cell reference %q: no row number", ref)
	}

	col = ColumnToIndex(ref[:i])
	if col < 0 {
		return 0, 0, fmt.Errorf("invalid column in %q", ref)
	}
	rowNum, err := strconv.Atoi(ref[i:])
	if err != nil || rowNum < 1 {
		return 0, 0, fmt.Errorf("invalid row in %q", ref)
	}
	return col, rowNum - 1, nil
}

// ColumnToIndex converts column letters to a 0-indexed column number:
// A=0, B=1, ..., Z=25, AA=26.
func ColumnToIndex(col string) int {
	col = strings.ToUpper(col)
	index := 0
	for _, c := range col {
		if c < 'A' || c > 'Z' {
			return -1
		}
		index = index*26 + int(c-'A') + 1
	}
	return index - 1
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
