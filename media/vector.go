package media

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	xvector "golang.org/x/image/vector"
)

// Capability describes an on-demand vector renderer. Availability is decided
// once when the resolver is constructed; callers check Available instead of
// probing the renderer per call.
type Capability struct {
	Available bool
	Render    func(data []byte, width, height int) (image.Image, error)
}

type metafileFormat int

const (
	metafileWMF metafileFormat = iota
	metafileEMF
)

// loadMetafileRenderer returns the renderer capability for a legacy metafile
// format. Unknown formats report unavailable.
func loadMetafileRenderer(format metafileFormat) Capability {
	switch format {
	case metafileWMF:
		return Capability{Available: true, Render: renderWMF}
	case metafileEMF:
		return Capability{Available: true, Render: renderEMF}
	default:
		return Capability{}
	}
}

// polyShape is one collected path from a metafile: a polygon (filled) or a
// polyline (stroked).
type polyShape struct {
	points []image.Point
	closed bool
}

// renderShapes rasterizes collected shapes into a white-backed RGBA image,
// mapping the source coordinate box onto the target size.
func renderShapes(shapes []polyShape, src image.Rectangle, width, height int) (image.Image, error) {
	if len(shapes) == 0 {
		return nil, fmt.Errorf("metafile contains no drawable shapes")
	}
	if src.Dx() <= 0 || src.Dy() <= 0 {
		src = boundsOf(shapes)
	}
	if src.Dx() <= 0 || src.Dy() <= 0 {
		return nil, fmt.Errorf("metafile has degenerate bounds")
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	sx := float32(width) / float32(src.Dx())
	sy := float32(height) / float32(src.Dy())
	tx := func(p image.Point) (float32, float32) {
		return float32(p.X-src.Min.X) * sx, float32(p.Y-src.Min.Y) * sy
	}

	ras := xvector.NewRasterizer(width, height)
	for _, shape := range shapes {
		if len(shape.points) < 2 {
			continue
		}
		if shape.closed {
			fillPolygon(ras, shape.points, tx)
		} else {
			strokePolyline(ras, shape.points, tx)
		}
	}
	ras.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{})

	return dst, nil
}

func fillPolygon(ras *xvector.Rasterizer, pts []image.Point, tx func(image.Point) (float32, float32)) {
	x, y := tx(pts[0])
	ras.MoveTo(x, y)
	for _, p := range pts[1:] {
		x, y = tx(p)
		ras.LineTo(x, y)
	}
	ras.ClosePath()
}

// strokePolyline approximates a stroked line by filling a thin quad per
// segment. The rasterizer is fill-only.
func strokePolyline(ras *xvector.Rasterizer, pts []image.Point, tx func(image.Point) (float32, float32)) {
	const halfWidth = 0.75

	for i := 0; i+1 < len(pts); i++ {
		x0, y0 := tx(pts[i])
		x1, y1 := tx(pts[i+1])

		dx, dy := x1-x0, y1-y0
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			continue
		}
		// Perpendicular offset.
		ox := -dy / length * halfWidth
		oy := dx / length * halfWidth

		ras.MoveTo(x0+ox, y0+oy)
		ras.LineTo(x1+ox, y1+oy)
		ras.LineTo(x1-ox, y1-oy)
		ras.LineTo(x0-ox, y0-oy)
		ras.ClosePath()
	}
}

func boundsOf(shapes []polyShape) image.Rectangle {
	first := true
	var r image.Rectangle
	for _, s := range shapes {
		for _, p := range s.points {
			if first {
				r = image.Rectangle{Min: p, Max: p.Add(image.Point{1, 1})}
				first = false
				continue
			}
			if p.X < r.Min.X {
				r.Min.X = p.X
			}
			if p.Y < r.Min.Y {
				r.Min.Y = p.Y
			}
			if p.X >= r.Max.X {
				r.Max.X = p.X + 1
			}
			if p.Y >= r.Max.Y {
				r.Max.Y = p.Y + 1
			}
		}
	}
	return r
}

// WMF record function numbers handled by the renderer. Everything else
// (pens, brushes, text) is skipped.
const (
	wmfSetWindowOrg = 0x020B
	wmfSetWindowExt = 0x020C
	wmfMoveTo       = 0x0214
	wmfLineTo       = 0x0213
	wmfPolygon      = 0x0324
	wmfPolyline     = 0x0325
)

const wmfPlaceableMagic = 0x9AC6CDD7

// renderWMF parses the polygon/polyline subset of a Windows Metafile and
// rasterizes it at the requested size.
func renderWMF(data []byte, width, height int) (image.Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("wmf too short: %d bytes", len(data))
	}

	offset := 0
	var window image.Rectangle

	if binary.LittleEndian.Uint32(data) == wmfPlaceableMagic {
		// Placeable header: bounding box at offset 6, four int16 values.
		if len(data) < 22+18 {
			return nil, fmt.Errorf("truncated placeable wmf header")
		}
		left := int(int16(binary.LittleEndian.Uint16(data[6:])))
		top := int(int16(binary.LittleEndian.Uint16(data[8:])))
		right := int(int16(binary.LittleEndian.Uint16(data[10:])))
		bottom := int(int16(binary.LittleEndian.Uint16(data[12:])))
		window = image.Rect(left, top, right, bottom)
		offset = 22
	}

	// Standard header is 9 uint16 words.
	offset += 18

	var shapes []polyShape
	var cur image.Point
	var orgX, orgY, extX, extY int

	for offset+6 <= len(data) {
		size := int(binary.LittleEndian.Uint32(data[offset:])) * 2 // words to bytes
		fn := binary.LittleEndian.Uint16(data[offset+4:])
		if size < 6 || offset+size > len(data) {
			break
		}
		params := data[offset+6 : offset+size]
		offset += size

		readPoint16 := func(b []byte) image.Point {
			// WMF parameters are y-first for MoveTo/LineTo, x-first in
			// poly point arrays; both are int16 pairs.
			return image.Point{
				X: int(int16(binary.LittleEndian.Uint16(b))),
				Y: int(int16(binary.LittleEndian.Uint16(b[2:]))),
			}
		}

		switch fn {
		case 0: // EOF record
			offset = len(data)
		case wmfSetWindowOrg:
			if len(params) >= 4 {
				orgY = int(int16(binary.LittleEndian.Uint16(params)))
				orgX = int(int16(binary.LittleEndian.Uint16(params[2:])))
			}
		case wmfSetWindowExt:
			if len(params) >= 4 {
				extY = int(int16(binary.LittleEndian.Uint16(params)))
				extX = int(int16(binary.LittleEndian.Uint16(params[2:])))
			}
		case wmfMoveTo:
			if len(params) >= 4 {
				cur = image.Point{
					X: int(int16(binary.LittleEndian.Uint16(params[2:]))),
					Y: int(int16(binary.LittleEndian.Uint16(params))),
				}
			}
		case wmfLineTo:
			if len(params) >= 4 {
				next := image.Point{
					X: int(int16(binary.LittleEndian.Uint16(params[2:]))),
					Y: int(int16(binary.LittleEndian.Uint16(params))),
				}
				shapes = append(shapes, polyShape{points: []image.Point{cur, next}})
				cur = next
			}
		case wmfPolygon, wmfPolyline:
			if len(params) < 2 {
				continue
			}
			count := int(int16(binary.LittleEndian.Uint16(params)))
			if count < 2 || len(params) < 2+count*4 {
				continue
			}
			pts := make([]image.Point, count)
			for i := 0; i < count; i++ {
				pts[i] = readPoint16(params[2+i*4:])
			}
			shapes = append(shapes, polyShape{points: pts, closed: fn == wmfPolygon})
		}
	}

	if window.Empty() && extX > 0 && extY > 0 {
		window = image.Rect(orgX, orgY, orgX+extX, orgY+extY)
	}
	return renderShapes(shapes, window, width, height)
}

// EMF record types handled by the renderer.
const (
	emrHeader     = 1
	emrPolygon    = 3
	emrPolyline   = 4
	emrMoveToEx   = 27
	emrLineTo     = 54
	emrPolygon16  = 86
	emrPolyline16 = 87
	emrEOF        = 14
)

const emfSignature = 0x464D4520 // " EMF"

// renderEMF parses the polygon/polyline subset of an Enhanced Metafile and
// rasterizes it at the requested size.
func renderEMF(data []byte, width, height int) (image.Image, error) {
	if len(data) < 88 {
		return nil, fmt.Errorf("emf too short: %d bytes", len(data))
	}
	if binary.LittleEndian.Uint32(data[40:]) != emfSignature {
		return nil, fmt.Errorf("missing emf signature")
	}

	// Header rclBounds: four int32 values at offset 8.
	left := int(int32(binary.LittleEndian.Uint32(data[8:])))
	top := int(int32(binary.LittleEndian.Uint32(data[12:])))
	right := int(int32(binary.LittleEndian.Uint32(data[16:])))
	bottom := int(int32(binary.LittleEndian.Uint32(data[20:])))
	window := image.Rect(left, top, right, bottom)

	var shapes []polyShape
	var cur image.Point
	offset := int(binary.LittleEndian.Uint32(data[4:])) // header nSize

	for offset+8 <= len(data) {
		iType := binary.LittleEndian.Uint32(data[offset:])
		nSize := int(binary.LittleEndian.Uint32(data[offset+4:]))
		if nSize < 8 || offset+nSize > len(data) {
			break
		}
		params := data[offset+8 : offset+nSize]
		offset += nSize

		switch iType {
		case emrEOF:
			offset = len(data)
		case emrMoveToEx:
			if len(params) >= 8 {
				cur = image.Point{
					X: int(int32(binary.LittleEndian.Uint32(params))),
					Y: int(int32(binary.LittleEndian.Uint32(params[4:]))),
				}
			}
		case emrLineTo:
			if len(params) >= 8 {
				next := image.Point{
					X: int(int32(binary.LittleEndian.Uint32(params))),
					Y: int(int32(binary.LittleEndian.Uint32(params[4:]))),
				}
				shapes = append(shapes, polyShape{points: []image.Point{cur, next}})
				cur = next
			}
		case emrPolygon, emrPolyline:
			if pts := emfPoints32(params); len(pts) >= 2 {
				shapes = append(shapes, polyShape{points: pts, closed: iType == emrPolygon})
			}
		case emrPolygon16, emrPolyline16:
			if pts := emfPoints16(params); len(pts) >= 2 {
				shapes = append(shapes, polyShape{points: pts, closed: iType == emrPolygon16})
			}
		}
	}

	return renderShapes(shapes, window, width, height)
}

// emfPoints32 decodes a poly record body: RECTL bounds, point count, then
// int32 coordinate pairs.
func emfPoints32(params []byte) []image.Point {
	if len(params) < 20 {
		return nil
	}
	count := int(binary.LittleEndian.Uint32(params[16:]))
	if count < 2 || len(params) < 20+count*8 {
		return nil
	}
	pts := make([]image.Point, count)
	for i := 0; i < count; i++ {
		base := 20 + i*8
		pts[i] = image.Point{
			X: int(int32(binary.LittleEndian.Uint32(params[base:]))),
			Y: int(int32(binary.LittleEndian.Uint32(params[base+4:]))),
		}
	}
	return pts
}

// emfPoints16 decodes the 16-bit poly record variant.
func emfPoints16(params []byte) []image.Point {
	if len(params) < 20 {
		return nil
	}
	count := int(binary.LittleEndian.Uint32(params[16:]))
	if count < 2 || len(params) < 20+count*4 {
		return nil
	}
	pts := make([]image.Point, count)
	for i := 0; i < count; i++ {
		base := 20 + i*4
		pts[i] = image.Point{
			X: int(int16(binary.LittleEndian.Uint16(params[base:]))),
			Y: int(int16(binary.LittleEndian.Uint16(params[base+2:]))),
		}
	}
	return pts
}
