package engine

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/wellschematic/wellschematic/internal/schema"
)

var (
	ErrNoDiameters  = errors.New("no diameters in well")
	ErrInvalidScale = errors.New("invalid diameter scale")
)

// Scale converts physical diameters into normalized horizontal coordinates.
// The wellbore centerline sits at x = 0.5 and the widest diameter anywhere in
// the well spans [0, 1].
type Scale struct {
	MaxDiameter float64   `json:"maxDiameter"`
	Top         float64   `json:"top"`
	Bottom      float64   `json:"bottom"`
	Diameters   []float64 `json:"diameters"` // sorted, distinct
}

// ComputeScale derives the diameter scale factor and the depth bounds over
// every open hole, casing and completion item.
func ComputeScale(w *schema.WellSchema) (Scale, error) {
	if w == nil {
		return Scale{}, ErrNoDiameters
	}

	var diameters []float64
	top, bottom := math.Inf(1), math.Inf(-1)
	add := func(d, t, b float64) {
		diameters = append(diameters, d)
		top = min(top, t)
		bottom = max(bottom, b)
	}

	for _, oh := range w.OpenHoles {
		add(oh.Diameter, oh.Top, oh.Bottom)
	}
	for _, c := range w.Casings {
		add(c.Diameter, c.Top, c.Bottom)
	}
	for _, item := range w.Completion {
		s := item.Section()
		add(item.Diameter(), s.Top, s.Bottom)
	}

	if len(diameters) == 0 {
		return Scale{}, ErrNoDiameters
	}

	maxD := slices.Max(diameters)
	if !(maxD > 0) || math.IsInf(maxD, 0) {
		return Scale{}, fmt.Errorf("%w: max diameter %v", ErrInvalidScale, maxD)
	}

	slices.Sort(diameters)
	return Scale{
		MaxDiameter: maxD,
		Top:         top,
		Bottom:      bottom,
		Diameters:   slices.Compact(diameters),
	}, nil
}

// Left returns the normalized x of the left edge of diameter d.
func (s Scale) Left(d float64) float64 {
	return 0.5 * (1 - d/s.MaxDiameter)
}

// Right returns the normalized x of the right edge of diameter d.
func (s Scale) Right(d float64) float64 {
	return 0.5 * (1 + d/s.MaxDiameter)
}

// Width is Right(d) - Left(d), i.e. d relative to the widest diameter.
func (s Scale) Width(d float64) float64 {
	return d / s.MaxDiameter
}
