package docx

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chatdocs/docmd/internal/xmltree"
	"github.com/chatdocs/docmd/ooxml"
)

var headingStyleRe = regexp.MustCompile(`(?i)^heading\s*(\d)$`)

// styleSheet maps paragraph style ids to display names for heading
// detection.
type styleSheet struct {
	names map[string]string
}

// loadStyles reads word/styles.xml. Styles are optional; a missing or
// malformed part yields an empty sheet.
func loadStyles(pkg *ooxml.Package) *styleSheet {
	s := &styleSheet{names: make(map[string]string)}

	data, err := pkg.Part("word/styles.xml")
	if err != nil {
		return s
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		return s
	}

	for _, style := range root.ChildrenNamed("style") {
		id := style.Attr("styleId")
		if id == "" {
			continue
		}
		name := id
		if n := style.Child("name"); n != nil && n.Attr("val") != "" {
			name = n.Attr("val")
		}
		s.names[id] = name
	}
	return s
}

// headingLevel maps a style id to a heading level, or 0 for body styles.
// Both the id and the display name are checked: authors rename styles but
// ids like Heading1 usually survive.
func (s *styleSheet) headingLevel(styleID string) int {
	if styleID == "" {
		return 0
	}
	for _, candidate := range []string{styleID, s.names[styleID]} {
		if candidate == "" {
			continue
		}
		if strings.EqualFold(candidate, "title") {
			return 1
		}
		if m := headingStyleRe.FindStringSubmatch(candidate); m != nil {
			level, _ := strconv.Atoi(m[1])
			if level >= 1 && level <= 6 {
				return level
			}
		}
	}
	return 0
}
