// CLAUDE:SUMMARY Renders parsed DXF entities onto a white canvas with fogleman/gg and saves the raster.
package convert

import (
	"fmt"
	"image"
	"math"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/electrovision/planforge/dxf"
)

// Canvas sizing for DXF rasterization. The long side of the drawing maps
// to canvasLongSide pixels after the margin is applied.
const (
	canvasLongSide = 2048
	canvasMargin   = 0.10 // fraction of the drawing extent on each side
	arcSegments    = 100
)

// convertDXF renders a native DXF file; prefix is the kind prefix
// ("dxf_" or "dwg_" when called through the DWG path).
func (c *Converter) convertDXF(path, prefix string) ([]string, error) {
	return c.renderDXFFile(path, prefix+stem(path))
}

// renderDXFFile parses, renders, and saves one DXF as <name>.jpg.
func (c *Converter) renderDXFFile(path, name string) ([]string, error) {
	d, err := dxf.Open(path)
	if err != nil {
		return nil, err
	}
	if d.Empty() {
		return nil, fmt.Errorf("dxf %s contains no drawable entities", path)
	}

	img := renderDrawing(d)
	dst := filepath.Join(c.cfg.OutputDir, name+".jpg")
	if err := c.saveJPEG(img, dst); err != nil {
		return nil, err
	}
	c.logger.Info("rendered dxf", "file", path, "entities", d.EntityCount(), "output", dst)
	return []string{dst}, nil
}

// mapper converts drawing coordinates to canvas pixels. DXF has Y up,
// the canvas has Y down, so Y flips.
type mapper struct {
	minX, minY float64
	scale      float64
	pad        float64
	height     float64
}

func (m mapper) pt(p dxf.Point) (float64, float64) {
	x := (p.X-m.minX)*m.scale + m.pad
	y := m.height - ((p.Y-m.minY)*m.scale + m.pad)
	return x, y
}

// renderDrawing draws all entities in black on a white canvas fitted to
// the drawing's bounding box with a 10% margin.
func renderDrawing(d *dxf.Drawing) image.Image {
	minX, minY, maxX, maxY := bounds(d)

	w := maxX - minX
	h := maxY - minY
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}

	long := math.Max(w, h)
	scale := canvasLongSide / (long * (1 + 2*canvasMargin))
	pad := long * canvasMargin * scale

	cw := int(math.Ceil(w*scale + 2*pad))
	ch := int(math.Ceil(h*scale + 2*pad))
	if cw < 16 {
		cw = 16
	}
	if ch < 16 {
		ch = 16
	}

	m := mapper{minX: minX, minY: minY, scale: scale, pad: pad, height: float64(ch)}

	dc := gg.NewContext(cw, ch)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)

	for _, l := range d.Lines {
		x1, y1 := m.pt(l.Start)
		x2, y2 := m.pt(l.End)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}

	for _, ci := range d.Circles {
		x, y := m.pt(ci.Center)
		dc.DrawCircle(x, y, ci.Radius*scale)
		dc.Stroke()
	}

	// Arcs are sampled into segments; that sidesteps the angle-direction
	// mismatch between DXF (CCW, Y up) and the canvas (Y down).
	for _, a := range d.Arcs {
		start := a.StartAngle * math.Pi / 180
		end := a.EndAngle * math.Pi / 180
		if end < start {
			end += 2 * math.Pi
		}
		step := (end - start) / arcSegments
		for i := 0; i <= arcSegments; i++ {
			ang := start + float64(i)*step
			x, y := m.pt(dxf.Point{
				X: a.Center.X + a.Radius*math.Cos(ang),
				Y: a.Center.Y + a.Radius*math.Sin(ang),
			})
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}

	for _, p := range d.Polylines {
		for i, pt := range p.Points {
			x, y := m.pt(pt)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		if p.Closed {
			dc.ClosePath()
		}
		dc.Stroke()
	}

	for _, t := range d.Texts {
		x, y := m.pt(t.Insert)
		dc.DrawString(t.Value, x, y)
	}

	return dc.Image()
}

// bounds computes the bounding box over every drawable entity.
func bounds(d *dxf.Drawing) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)

	add := func(x, y float64) {
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}

	for _, l := range d.Lines {
		add(l.Start.X, l.Start.Y)
		add(l.End.X, l.End.Y)
	}
	for _, c := range d.Circles {
		add(c.Center.X-c.Radius, c.Center.Y-c.Radius)
		add(c.Center.X+c.Radius, c.Center.Y+c.Radius)
	}
	for _, a := range d.Arcs {
		add(a.Center.X-a.Radius, a.Center.Y-a.Radius)
		add(a.Center.X+a.Radius, a.Center.Y+a.Radius)
	}
	for _, p := range d.Polylines {
		for _, pt := range p.Points {
			add(pt.X, pt.Y)
		}
	}
	for _, t := range d.Texts {
		add(t.Insert.X, t.Insert.Y)
	}

	if math.IsInf(minX, 1) {
		return 0, 0, 1, 1
	}
	return minX, minY, maxX, maxY
}
