package diagram

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/color"
	"math"

	"question-paper-rag/internal/models"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Builder renders a diagram for a question
type Builder interface {
	Build(ctx context.Context, description string, t Type, el Elements) (models.DiagramAsset, error)
}

// Renderer draws simple exam-style figures as PNG
type Renderer struct {
	Width    int
	Height   int
	fontFace font.Face
}

// NewRenderer creates a renderer. fontPath may point at a TTF file; empty
// uses the built-in bitmap face.
func NewRenderer(fontPath string) (*Renderer, error) {
	r := &Renderer{Width: 300, Height: 300, fontFace: basicfont.Face7x13}
	if fontPath != "" {
		face, err := gg.LoadFontFace(fontPath, 14)
		if err != nil {
			return nil, fmt.Errorf("could not load diagram font: %w", err)
		}
		r.fontFace = face
	}
	return r, nil
}

func (r *Renderer) Build(ctx context.Context, description string, t Type, el Elements) (models.DiagramAsset, error) {
	if err := ctx.Err(); err != nil {
		return models.DiagramAsset{}, err
	}

	dc := gg.NewContext(r.Width, r.Height)
	dc.SetColor(color.White)
	dc.DrawRectangle(0, 0, float64(r.Width), float64(r.Height))
	dc.Fill()
	dc.SetFontFace(r.fontFace)
	dc.SetColor(color.Black)
	dc.SetLineWidth(2)

	var err error
	switch t {
	case Geometric:
		err = r.drawGeometric(dc, el)
	case Coordinate:
		err = r.drawPlane(dc, el)
	case Chart:
		err = r.drawChart(dc, el)
	default:
		err = fmt.Errorf("unsupported diagram type %q", t)
	}
	if err != nil {
		return models.DiagramAsset{}, err
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return models.DiagramAsset{}, fmt.Errorf("failed to encode diagram: %w", err)
	}

	return models.DiagramAsset{
		Type:     string(t),
		MimeType: "image/png",
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:    r.Width,
		Height:   r.Height,
	}, nil
}

// drawGeometric draws the named shape. Anything else, heights and distances
// included, gets a right triangle with the right angle at B.
func (r *Renderer) drawGeometric(dc *gg.Context, el Elements) error {
	switch el.Shape {
	case "triangle":
		labels := el.Vertices
		if len(labels) != 3 {
			labels = []string{"A", "B", "C"}
		}
		w, h := float64(r.Width), float64(r.Height)
		pts := [3][2]float64{{w / 2, h * 0.15}, {w * 0.15, h * 0.85}, {w * 0.85, h * 0.85}}
		dc.MoveTo(pts[0][0], pts[0][1])
		dc.LineTo(pts[1][0], pts[1][1])
		dc.LineTo(pts[2][0], pts[2][1])
		dc.ClosePath()
		dc.Stroke()

		offsets := [3][2]float64{{0, -12}, {-12, 12}, {12, 12}}
		for i, p := range pts {
			dc.DrawStringAnchored(labels[i], p[0]+offsets[i][0], p[1]+offsets[i][1], 0.5, 0.5)
		}
		return nil

	case "circle":
		cx, cy, radius := el.Center[0], el.Center[1], el.Radius
		if radius <= 0 {
			cx, cy, radius = 150, 150, 60
		}
		dc.DrawCircle(cx, cy, radius)
		dc.Stroke()
		dc.DrawPoint(cx, cy, 3)
		dc.Fill()
		dc.DrawLine(cx, cy, cx+radius, cy)
		dc.Stroke()
		label := el.CenterLabel
		if label == "" {
			label = "O"
		}
		dc.DrawStringAnchored(label, cx-10, cy-10, 0.5, 0.5)
		return nil
	}

	labels := el.Vertices
	if len(labels) != 3 {
		labels = []string{"A", "B", "C"}
	}
	w, h := float64(r.Width), float64(r.Height)
	top, corner, foot := [2]float64{w * 0.25, h * 0.15}, [2]float64{w * 0.25, h * 0.85}, [2]float64{w * 0.85, h * 0.85}
	dc.MoveTo(top[0], top[1])
	dc.LineTo(corner[0], corner[1])
	dc.LineTo(foot[0], foot[1])
	dc.ClosePath()
	dc.Stroke()

	const mark = 14.0
	dc.SetLineWidth(1)
	dc.DrawRectangle(corner[0], corner[1]-mark, mark, mark)
	dc.Stroke()
	dc.DrawArc(foot[0], foot[1], 30, math.Pi, math.Pi+math.Atan2(corner[1]-top[1], foot[0]-corner[0]))
	dc.Stroke()

	dc.DrawStringAnchored(labels[0], top[0]-12, top[1], 0.5, 0.5)
	dc.DrawStringAnchored(labels[1], corner[0]-12, corner[1]+10, 0.5, 0.5)
	dc.DrawStringAnchored(labels[2], foot[0]+12, foot[1]+10, 0.5, 0.5)
	return nil
}

func (r *Renderer) drawPlane(dc *gg.Context, el Elements) error {
	w, h := float64(r.Width), float64(r.Height)

	span := 5.0
	for _, p := range el.Points {
		span = math.Max(span, math.Max(math.Abs(p.X), math.Abs(p.Y))+1)
	}
	scale := (w/2 - 20) / span
	toX := func(x float64) float64 { return w/2 + x*scale }
	toY := func(y float64) float64 { return h/2 - y*scale }

	dc.SetRGB(0.85, 0.85, 0.85)
	dc.SetLineWidth(1)
	for i := -int(span); i <= int(span); i++ {
		dc.DrawLine(toX(float64(i)), 10, toX(float64(i)), h-10)
		dc.DrawLine(10, toY(float64(i)), w-10, toY(float64(i)))
	}
	dc.Stroke()

	dc.SetColor(color.Black)
	dc.SetLineWidth(2)
	dc.DrawLine(10, h/2, w-10, h/2)
	dc.DrawLine(w/2, 10, w/2, h-10)
	dc.Stroke()
	dc.DrawString("X", w-18, h/2-6)
	dc.DrawString("Y", w/2+6, 18)
	dc.DrawString("O", w/2-12, h/2+14)

	for _, p := range el.Points {
		dc.DrawPoint(toX(p.X), toY(p.Y), 3.5)
		dc.Fill()
		dc.DrawString(fmt.Sprintf("%s(%g, %g)", p.Label, p.X, p.Y), toX(p.X)+5, toY(p.Y)-5)
	}
	if len(el.Points) >= 2 {
		dc.SetLineWidth(1.5)
		for i := 1; i < len(el.Points); i++ {
			a, b := el.Points[i-1], el.Points[i]
			dc.DrawLine(toX(a.X), toY(a.Y), toX(b.X), toY(b.Y))
		}
		dc.Stroke()
	}
	return nil
}

// drawChart draws bars for el.Data; without positive values only the axes are drawn
func (r *Renderer) drawChart(dc *gg.Context, el Elements) error {
	w, h := float64(r.Width), float64(r.Height)
	left, bottom, top := 30.0, h-30, 20.0

	dc.DrawLine(left, top, left, bottom)
	dc.DrawLine(left, bottom, w-10, bottom)
	dc.Stroke()

	peak := 0.0
	for _, d := range el.Data {
		peak = math.Max(peak, d.Value)
	}
	if peak <= 0 {
		return nil
	}

	slot := (w - left - 10) / float64(len(el.Data))
	barWidth := slot * 0.7
	if el.ChartType == "histogram" {
		barWidth = slot
	}
	for i, d := range el.Data {
		barHeight := (bottom - top) * d.Value / peak
		x := left + float64(i)*slot + (slot-barWidth)/2
		dc.SetRGB(0.55, 0.7, 0.9)
		dc.DrawRectangle(x, bottom-barHeight, barWidth, barHeight)
		dc.FillPreserve()
		dc.SetColor(color.Black)
		dc.SetLineWidth(1)
		dc.Stroke()
		dc.DrawStringAnchored(d.Label, x+barWidth/2, bottom+12, 0.5, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%g", d.Value), x+barWidth/2, bottom-barHeight-8, 0.5, 0.5)
	}
	return nil
}
