package pptx

import (
	"fmt"
	"strconv"

	"github.com/chatdocs/docmd/internal/xmltree"
)

// Indentation levels derive from an explicit lvl attribute or from the left
// margin, one level per 342900 EMU, capped at maxBulletLevel.
const (
	marginPerLevel = 342900
	maxBulletLevel = 6
)

type bulletType int

const (
	bulletDefault bulletType = iota // no explicit bullet properties
	bulletChar                      // buChar
	bulletAuto                      // buAutoNum
	bulletNone                      // buNone
)

// bulletKind inspects a paragraph's properties for an explicit bullet choice.
func bulletKind(p *xmltree.Node) bulletType {
	pPr := p.Child("pPr")
	if pPr == nil {
		return bulletDefault
	}
	switch {
	case pPr.Child("buNone") != nil:
		return bulletNone
	case pPr.Child("buAutoNum") != nil:
		return bulletAuto
	case pPr.Child("buChar") != nil:
		return bulletChar
	}
	return bulletDefault
}

// paragraphLevel derives the indentation level of a paragraph.
func paragraphLevel(p *xmltree.Node) int {
	pPr := p.Child("pPr")
	if pPr == nil {
		return 0
	}
	if lvl := pPr.Attr("lvl"); lvl != "" {
		if n, err := strconv.Atoi(lvl); err == nil && n >= 0 {
			return clampLevel(n)
		}
	}
	if marL := pPr.Attr("marL"); marL != "" {
		if n, err := strconv.Atoi(marL); err == nil && n > 0 {
			return clampLevel(n / marginPerLevel)
		}
	}
	return 0
}

func clampLevel(n int) int {
	if n > maxBulletLevel {
		return maxBulletLevel
	}
	return n
}

// bulletState carries numbered-list counters across a slide's paragraphs.
// Counters persist per level, reset when a non-bulleted paragraph interrupts
// the sequence, and reset for deeper levels when indentation drops back.
type bulletState struct {
	counters  map[int]int
	prevLevel int
}

func newBulletState() *bulletState {
	return &bulletState{counters: make(map[int]int)}
}

// prefix returns the Markdown list prefix for a paragraph and advances the
// counter state.
func (b *bulletState) prefix(level int, kind bulletType) string {
	if level < b.prevLevel {
		// Dropping below a seen level restarts numbering there.
		for l := range b.counters {
			if l > level {
				delete(b.counters, l)
			}
		}
	}
	b.prevLevel = level

	switch kind {
	case bulletAuto:
		b.counters[level]++
		return fmt.Sprintf("%d. ", b.counters[level])
	case bulletChar:
		return "- "
	case bulletNone:
		b.interrupt()
		return ""
	default:
		return ""
	}
}

// interrupt resets all counters; the next numbered paragraph restarts at 1.
func (b *bulletState) interrupt() {
	b.counters = make(map[int]int)
	b.prevLevel = 0
}
