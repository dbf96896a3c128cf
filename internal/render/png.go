// Package render rasterizes a laid out schematic.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"net/url"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/wellschematic/wellschematic/internal/engine"
	"github.com/wellschematic/wellschematic/internal/schema"
)

var ErrInvalidSize = errors.New("invalid image size")

// Options sizes the output image. Zero values fall back to DefaultOptions.
type Options struct {
	Width  int
	Height int
	// Margin is the pixel gutter left for the axes.
	Margin float64
	// Background is any color accepted by schema.Color.
	Background schema.Color
	// HideAxes suppresses the frame and tick labels.
	HideAxes bool
}

func DefaultOptions() Options {
	return Options{
		Width:      400,
		Height:     800,
		Margin:     48,
		Background: "white",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width == 0 {
		o.Width = d.Width
	}
	if o.Height == 0 {
		o.Height = d.Height
	}
	if o.Margin == 0 {
		o.Margin = d.Margin
	}
	if o.Background == "" {
		o.Background = d.Background
	}
	return o
}

// MaxSize bounds either image dimension.
const MaxSize = 8192

// WithQuery overrides the size from "width" and "height" query parameters.
func (o Options) WithQuery(q url.Values) (Options, error) {
	for _, p := range []struct {
		key string
		dst *int
	}{{"width", &o.Width}, {"height", &o.Height}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > MaxSize {
			return Options{}, fmt.Errorf("%w: %s %q", ErrInvalidSize, p.key, v)
		}
		*p.dst = n
	}
	return o, nil
}

// PNG paints the schematic's primitives in order and encodes the result.
func PNG(w io.Writer, s *engine.Schematic, opts Options) error {
	dc, err := Draw(s, opts)
	if err != nil {
		return err
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Draw paints the schematic onto a new gg context.
func Draw(s *engine.Schematic, opts Options) (*gg.Context, error) {
	if s == nil {
		return nil, fmt.Errorf("render: nil schematic")
	}
	opts = opts.withDefaults()
	plotW := float64(opts.Width) - 2*opts.Margin
	plotH := float64(opts.Height) - 2*opts.Margin
	if opts.HideAxes {
		plotW, plotH = float64(opts.Width), float64(opts.Height)
	}
	if opts.Width <= 0 || opts.Height <= 0 || plotW <= 0 || plotH <= 0 {
		return nil, fmt.Errorf("%w: %dx%d with margin %v", ErrInvalidSize, opts.Width, opts.Height, opts.Margin)
	}

	bg, err := opts.Background.RGBA()
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(bg)
	dc.Clear()

	origin := opts.Margin
	if opts.HideAxes {
		origin = 0
	}
	m := engine.ViewMatrix(s.View, origin, origin, plotW, plotH)

	dc.Push()
	dc.DrawRectangle(origin, origin, plotW, plotH)
	dc.Clip()
	for _, p := range s.Primitives {
		if err := paint(dc, m, p); err != nil {
			return nil, err
		}
	}
	dc.Pop()

	if !opts.HideAxes {
		drawAxes(dc, s.View, m, origin, plotW, plotH)
	}
	return dc, nil
}

func paint(dc *gg.Context, m engine.Matrix2D, p engine.Primitive) error {
	fill, err := schema.Color(p.Fill).RGBA()
	if err != nil {
		return fmt.Errorf("%s %s: %w", p.Source, p.Role, err)
	}

	switch p.Kind {
	case engine.KindRectangle:
		if p.Rect == nil {
			return nil
		}
		r := m.TransformRect(*p.Rect)
		dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	case engine.KindPolygon:
		if len(p.Points) < 3 {
			return nil
		}
		for i, pt := range p.Points {
			x, y := m.TransformPoint(pt.X, pt.Y)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
	default:
		return fmt.Errorf("unknown primitive kind %q", p.Kind)
	}

	dc.SetColor(fill)
	if p.Hatch == schema.HatchNone {
		dc.Fill()
		return nil
	}
	dc.FillPreserve()
	dc.SetFillStyle(gg.NewSurfacePattern(hatchTile(p.Hatch, contrast(fill)), gg.RepeatBoth))
	dc.Fill()
	return nil
}

// contrast picks a mark color that stays visible on top of fill.
func contrast(fill color.RGBA) color.Color {
	lum := 0.299*float64(fill.R) + 0.587*float64(fill.G) + 0.114*float64(fill.B)
	if lum < 96 {
		return color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	}
	return color.RGBA{A: 0xff}
}

const tileSize = 8

// hatchTile draws one repeat of a hatch texture on a transparent tile.
func hatchTile(h schema.Hatch, ink color.Color) image.Image {
	dc := gg.NewContext(tileSize, tileSize)
	dc.SetColor(ink)
	dc.SetLineWidth(1)

	switch h {
	case schema.HatchDot:
		dc.DrawPoint(4, 4, 0.8)
		dc.Fill()
	case schema.HatchDoubleDot:
		dc.DrawPoint(2, 2, 0.7)
		dc.DrawPoint(6, 6, 0.7)
		dc.Fill()
	case schema.HatchAsterisk:
		dc.DrawLine(4, 1, 4, 7)
		dc.DrawLine(1, 4, 7, 4)
		dc.DrawLine(2, 2, 6, 6)
		dc.DrawLine(2, 6, 6, 2)
		dc.Stroke()
	case schema.HatchCross:
		dc.DrawLine(0, 0, tileSize, tileSize)
		dc.DrawLine(0, tileSize, tileSize, 0)
		dc.Stroke()
	case schema.HatchBar:
		dc.DrawLine(4, 0, 4, tileSize)
		dc.Stroke()
	}
	return dc.Image()
}

func drawAxes(dc *gg.Context, v engine.View, m engine.Matrix2D, origin, plotW, plotH float64) {
	dc.SetColor(color.Black)
	dc.SetLineWidth(1)
	dc.DrawRectangle(origin, origin, plotW, plotH)
	dc.Stroke()

	// Diameter ticks along the top edge.
	for _, t := range v.Ticks {
		x, _ := m.TransformPoint(t.Position, v.Top())
		dc.DrawLine(x, origin, x, origin-4)
		dc.Stroke()
	}
	lastX := math.Inf(-1)
	for _, t := range v.Ticks {
		x, _ := m.TransformPoint(t.Position, v.Top())
		w, _ := dc.MeasureString(t.Label)
		if x-w/2 < lastX {
			continue // overlapping label
		}
		lastX = x + w/2
		dc.DrawStringAnchored(t.Label, x, origin-6, 0.5, 0)
	}

	// Depth ticks along the left edge.
	step := DepthStep(v.Bottom() - v.Top())
	if step <= 0 {
		return
	}
	for d := math.Ceil(v.Top()/step) * step; d <= v.Bottom()+step*1e-9; d += step {
		_, y := m.TransformPoint(v.XRange[0], d)
		dc.DrawLine(origin-4, y, origin, y)
		dc.Stroke()
		dc.DrawStringAnchored(strconv.FormatFloat(d, 'f', -1, 64), origin-6, y, 1, 0.5)
	}
}

// DepthStep picks a 1, 2 or 5 times power-of-ten spacing giving roughly ten
// depth labels over span.
func DepthStep(span float64) float64 {
	if !(span > 0) || math.IsInf(span, 0) {
		return 0
	}
	raw := span / 10
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch f := raw / mag; {
	case f <= 1:
		return mag
	case f <= 2:
		return 2 * mag
	case f <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}
