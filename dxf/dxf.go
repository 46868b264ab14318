// CLAUDE:SUMMARY Minimal ASCII DXF reader for the entity types the plan renderer draws.
// Package dxf reads the ENTITIES section of an ASCII DXF file into a small
// set of drawable entity types: lines, circles, arcs, lightweight
// polylines, and text.
//
// DXF is a line-oriented tagged format: pairs of lines where the first is
// an integer group code and the second its value. This reader only keeps
// the group codes the renderer consumes; everything else (layers, blocks,
// styles) is skipped.
package dxf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Point is a 2D coordinate in drawing units.
type Point struct {
	X, Y float64
}

// Line is a straight segment.
type Line struct {
	Start, End Point
}

// Circle is a full circle.
type Circle struct {
	Center Point
	Radius float64
}

// Arc is a counter-clockwise circular arc; angles are degrees.
type Arc struct {
	Center     Point
	Radius     float64
	StartAngle float64
	EndAngle   float64
}

// Polyline is an LWPOLYLINE vertex chain.
type Polyline struct {
	Points []Point
	Closed bool
}

// Text is a single-line TEXT entity.
type Text struct {
	Insert Point
	Height float64
	Value  string
}

// Drawing holds the drawable entities of one DXF file.
type Drawing struct {
	Lines     []Line
	Circles   []Circle
	Arcs      []Arc
	Polylines []Polyline
	Texts     []Text
}

// Empty reports whether the drawing contains no drawable entities.
func (d *Drawing) Empty() bool {
	return len(d.Lines) == 0 && len(d.Circles) == 0 && len(d.Arcs) == 0 &&
		len(d.Polylines) == 0 && len(d.Texts) == 0
}

// EntityCount returns the total number of drawable entities.
func (d *Drawing) EntityCount() int {
	return len(d.Lines) + len(d.Circles) + len(d.Arcs) + len(d.Polylines) + len(d.Texts)
}

// Open reads a DXF file from disk.
func Open(path string) (*Drawing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

// tag is one group-code/value pair.
type tag struct {
	code  int
	value string
}

// tagReader yields group-code/value pairs from the underlying stream.
type tagReader struct {
	sc   *bufio.Scanner
	line int
}

func (r *tagReader) next() (tag, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return tag{}, err
		}
		return tag{}, io.EOF
	}
	r.line++
	code, err := strconv.Atoi(strings.TrimSpace(r.sc.Text()))
	if err != nil {
		return tag{}, fmt.Errorf("line %d: group code %q: %w", r.line, r.sc.Text(), err)
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return tag{}, err
		}
		return tag{}, fmt.Errorf("line %d: group code %d without value", r.line, code)
	}
	r.line++
	// Values keep interior spaces (TEXT content) but lose the CR that DXF
	// files written on Windows carry.
	return tag{code: code, value: strings.TrimRight(r.sc.Text(), "\r")}, nil
}

// Read parses an ASCII DXF stream.
func Read(r io.Reader) (*Drawing, error) {
	tr := &tagReader{sc: bufio.NewScanner(r)}
	tr.sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	d := &Drawing{}
	inEntities := false

	t, err := tr.next()
	for {
		if err == io.EOF {
			return d, nil
		}
		if err != nil {
			return nil, err
		}

		switch {
		case t.code == 2 && t.value == "ENTITIES":
			inEntities = true
			t, err = tr.next()
		case t.code == 0 && t.value == "ENDSEC":
			inEntities = false
			t, err = tr.next()
		case inEntities && t.code == 0:
			// Entity parsers consume tags until the next 0 tag and hand it
			// back so the loop keeps position.
			t, err = d.readEntity(tr, t.value)
		default:
			t, err = tr.next()
		}
	}
}

// readEntity parses one entity's tags. It returns the first tag that does
// not belong to the entity (always a code-0 tag or EOF).
func (d *Drawing) readEntity(tr *tagReader, kind string) (tag, error) {
	var (
		x, y, x2, y2        float64
		radius, a1, a2      float64
		height              float64
		text                string
		closed              bool
		pts                 []Point
		curX                float64
		haveX               bool
	)

	for {
		t, err := tr.next()
		if err != nil || t.code == 0 {
			// A trailing 10 without its 20 is a malformed vertex; it was
			// never added to pts and is simply dropped.
			d.finish(kind, x, y, x2, y2, radius, a1, a2, height, text, closed, pts)
			return t, err
		}

		switch t.code {
		case 10:
			if kind == "LWPOLYLINE" {
				curX = parseFloat(t.value)
				haveX = true
			} else {
				x = parseFloat(t.value)
			}
		case 20:
			if kind == "LWPOLYLINE" {
				if haveX {
					pts = append(pts, Point{X: curX, Y: parseFloat(t.value)})
					haveX = false
				}
			} else {
				y = parseFloat(t.value)
			}
		case 11:
			x2 = parseFloat(t.value)
		case 21:
			y2 = parseFloat(t.value)
		case 40:
			switch kind {
			case "TEXT":
				height = parseFloat(t.value)
			default:
				radius = parseFloat(t.value)
			}
		case 50:
			a1 = parseFloat(t.value)
		case 51:
			a2 = parseFloat(t.value)
		case 70:
			if kind == "LWPOLYLINE" {
				closed = int(parseFloat(t.value))&1 != 0
			}
		case 1:
			text = t.value
		}
	}
}

// finish materializes the collected fields into an entity, ignoring kinds
// the renderer does not draw.
func (d *Drawing) finish(kind string, x, y, x2, y2, radius, a1, a2, height float64, text string, closed bool, pts []Point) {
	switch kind {
	case "LINE":
		d.Lines = append(d.Lines, Line{Start: Point{x, y}, End: Point{x2, y2}})
	case "CIRCLE":
		if radius > 0 {
			d.Circles = append(d.Circles, Circle{Center: Point{x, y}, Radius: radius})
		}
	case "ARC":
		if radius > 0 {
			d.Arcs = append(d.Arcs, Arc{Center: Point{x, y}, Radius: radius, StartAngle: a1, EndAngle: a2})
		}
	case "LWPOLYLINE":
		if len(pts) > 1 {
			d.Polylines = append(d.Polylines, Polyline{Points: pts, Closed: closed})
		}
	case "TEXT", "MTEXT":
		if text != "" {
			d.Texts = append(d.Texts, Text{Insert: Point{x, y}, Height: height, Value: text})
		}
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}
