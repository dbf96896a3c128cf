package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"cloud.google.com/go/civil"

	"github.com/wellschematic/wellschematic/internal/schema"
)

var ErrInvalidLimits = errors.New("invalid depth limits")

// Tick is an axis mark at a diameter edge.
type Tick struct {
	Position float64 `json:"position"`
	Value    float64 `json:"value"`
	Label    string  `json:"label"`
}

// View is the axis metadata the rendering backend needs alongside the
// primitives. YRange is [bottom, top] because depth increases downward.
type View struct {
	XRange [2]float64  `json:"xRange"`
	YRange [2]float64  `json:"yRange"`
	Ticks  []Tick      `json:"ticks"`
	Which  []Category  `json:"which"`
	AsOf   *civil.Date `json:"asOf,omitempty"`
}

// Top and Bottom return the depth window of the view.
func (v View) Top() float64    { return v.YRange[1] }
func (v View) Bottom() float64 { return v.YRange[0] }

// Schematic is a fully laid out well diagram.
type Schematic struct {
	Scale      Scale       `json:"scale"`
	View       View        `json:"view"`
	Primitives []Primitive `json:"primitives"`
}

// Render validates the well, computes its scale and emits its primitives.
// Any failure means no schematic is produced.
func Render(w *schema.WellSchema, opts Options) (*Schematic, error) {
	if w == nil {
		return nil, ErrNoDiameters
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	scale, err := ComputeScale(w)
	if err != nil {
		return nil, err
	}

	view, err := NewView(scale, opts)
	if err != nil {
		return nil, err
	}

	prims, err := Emit(w, scale, opts)
	if err != nil {
		return nil, err
	}
	if prims == nil {
		prims = []Primitive{}
	}

	return &Schematic{Scale: scale, View: view, Primitives: prims}, nil
}

// NewView builds the axis metadata for a scale.
func NewView(scale Scale, opts Options) (View, error) {
	top, bottom := scale.Top, scale.Bottom
	if opts.Limits != nil {
		if opts.Limits.Top > opts.Limits.Bottom || math.IsNaN(opts.Limits.Top) || math.IsNaN(opts.Limits.Bottom) {
			return View{}, fmt.Errorf("%w: top %v below bottom %v", ErrInvalidLimits, opts.Limits.Top, opts.Limits.Bottom)
		}
		top, bottom = opts.Limits.Top, opts.Limits.Bottom
	}

	return View{
		XRange: [2]float64{0, 1},
		YRange: [2]float64{bottom, top},
		Ticks:  DiameterTicks(scale),
		Which:  opts.Categories(),
		AsOf:   opts.AsOf,
	}, nil
}

// DiameterTicks places a tick at both edges of every distinct diameter:
// all left edges first, then all right edges.
func DiameterTicks(scale Scale) []Tick {
	ticks := make([]Tick, 0, 2*len(scale.Diameters))
	for _, d := range scale.Diameters {
		ticks = append(ticks, newTick(scale.Left(d), d))
	}
	for _, d := range scale.Diameters {
		ticks = append(ticks, newTick(scale.Right(d), d))
	}
	return ticks
}

func newTick(pos, d float64) Tick {
	v := math.Round(d*10) / 10
	return Tick{
		Position: pos,
		Value:    v,
		Label:    strconv.FormatFloat(v, 'f', 1, 64),
	}
}
