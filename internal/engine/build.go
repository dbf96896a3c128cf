package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/wellschematic/wellschematic/internal/schema"
)

// Category groups components for selective emission.
type Category string

const (
	CategoryOpenHole   Category = "open_hole"
	CategoryCasing     Category = "casing"
	CategoryCompletion Category = "completion"
)

// AllCategories is the emission order of component groups.
var AllCategories = []Category{CategoryOpenHole, CategoryCasing, CategoryCompletion}

var ErrUnknownCategory = errors.New("unknown category")

// ParseCategories parses a comma-separated category list. An empty string
// selects every category.
func ParseCategories(s string) ([]Category, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []Category
	for _, part := range strings.Split(s, ",") {
		c := Category(strings.TrimSpace(part))
		switch c {
		case CategoryOpenHole, CategoryCasing, CategoryCompletion:
			out = append(out, c)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, part)
		}
	}
	return out, nil
}

// shoeFill is the fixed color of casing shoes.
const shoeFill = "#000000"

// Options controls what Emit draws.
type Options struct {
	// Which limits emission to these categories; empty means all.
	Which []Category
	// AsOf, when set, restricts completion items to those active on that date.
	AsOf *civil.Date
	// Limits overrides the view's depth range.
	Limits *Limits
}

// Limits is an explicit depth window, top above bottom.
type Limits struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Categories returns the honored category set in emission order.
func (o Options) Categories() []Category {
	if len(o.Which) == 0 {
		return AllCategories
	}
	var out []Category
	for _, c := range AllCategories {
		if o.includes(c) {
			out = append(out, c)
		}
	}
	return out
}

func (o Options) includes(c Category) bool {
	if len(o.Which) == 0 {
		return true
	}
	for _, w := range o.Which {
		if w == c {
			return true
		}
	}
	return false
}

// Emit converts a validated well into primitives in paint order: open holes,
// then casings with their shoes, cement and perforations, then completion
// items. The schema must already have passed validation.
func Emit(w *schema.WellSchema, scale Scale, opts Options) ([]Primitive, error) {
	if w == nil {
		return nil, ErrNoDiameters
	}
	if !(scale.MaxDiameter > 0) || math.IsInf(scale.MaxDiameter, 0) {
		return nil, fmt.Errorf("%w: max diameter %v", ErrInvalidScale, scale.MaxDiameter)
	}
	for _, c := range opts.Which {
		if c != CategoryOpenHole && c != CategoryCasing && c != CategoryCompletion {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
		}
	}

	if err := checkBudget(w, opts); err != nil {
		return nil, err
	}

	e := &emitter{scale: scale}

	if opts.includes(CategoryOpenHole) {
		for _, oh := range w.OpenHoles {
			if err := e.openHole(oh); err != nil {
				return nil, err
			}
		}
	}

	if opts.includes(CategoryCasing) {
		for _, c := range w.Casings {
			if err := e.casing(c); err != nil {
				return nil, err
			}
		}
	}

	if opts.includes(CategoryCompletion) {
		for _, item := range w.Completion {
			if opts.AsOf != nil && !schema.IsActiveAt(item.Section(), *opts.AsOf) {
				continue
			}
			if err := e.completion(item); err != nil {
				return nil, err
			}
		}
	}

	return e.prims, nil
}

// MaxPrimitives bounds the size of a single emission.
const MaxPrimitives = 100_000

var ErrTooManyPrimitives = errors.New("too many primitives")

// checkBudget counts what Emit would produce for w and rejects wells over
// MaxPrimitives before anything is allocated.
func checkBudget(w *schema.WellSchema, opts Options) error {
	var n float64
	if opts.includes(CategoryOpenHole) {
		n += float64(len(w.OpenHoles))
	}
	if opts.includes(CategoryCasing) {
		for _, c := range w.Casings {
			n += 4 + 2*float64(len(c.Cement))
			for _, p := range c.Perforations {
				n += 2 * ticks(p.Top, p.Bottom, p.Scale)
			}
		}
	}
	if opts.includes(CategoryCompletion) {
		for _, item := range w.Completion {
			if opts.AsOf != nil && !schema.IsActiveAt(item.Section(), *opts.AsOf) {
				continue
			}
			switch item.Kind {
			case schema.KindTubing, schema.KindPacker:
				n += 2
			default:
				n++
			}
		}
	}
	if n > MaxPrimitives {
		return fmt.Errorf("%w: %.0f exceeds %d", ErrTooManyPrimitives, n, MaxPrimitives)
	}
	return nil
}

type emitter struct {
	scale Scale
	prims []Primitive
}

func (e *emitter) rect(cat Category, role Role, source string, r Rect, fill string, hatch schema.Hatch) {
	r = normalizeRect(r)
	e.prims = append(e.prims, Primitive{
		Kind:     KindRectangle,
		Category: cat,
		Role:     role,
		Source:   source,
		Rect:     &r,
		Fill:     fill,
		Hatch:    hatch,
	})
}

func (e *emitter) polygon(cat Category, role Role, source string, pts []Point, fill string, hatch schema.Hatch) {
	e.prims = append(e.prims, Primitive{
		Kind:     KindPolygon,
		Category: cat,
		Role:     role,
		Source:   source,
		Points:   pts,
		Fill:     fill,
		Hatch:    hatch,
	})
}

func fill(c schema.Color, source string) (string, error) {
	hex, err := c.Hex()
	if err != nil {
		return "", fmt.Errorf("%s: %w", source, err)
	}
	return hex, nil
}

func (e *emitter) openHole(oh schema.OpenHole) error {
	color, err := fill(oh.Color, oh.Name)
	if err != nil {
		return err
	}
	xl := e.scale.Left(oh.Diameter)
	e.rect(CategoryOpenHole, RoleOpenHole, oh.Name, Rect{
		X:      xl,
		Y:      oh.Top,
		Width:  e.scale.Right(oh.Diameter) - xl,
		Height: oh.Bottom - oh.Top,
	}, color, oh.Hatch)
	return nil
}

// walls emits a pair of pipe walls of thickness width just inside the left
// and right edges of diameter d.
func (e *emitter) walls(cat Category, role Role, source string, s schema.Section, d, width float64, color string, hatch schema.Hatch) {
	xl, xr := e.scale.Left(d), e.scale.Right(d)
	length := s.Bottom - s.Top
	e.rect(cat, role, source, Rect{X: xl, Y: s.Top, Width: width, Height: length}, color, hatch)
	e.rect(cat, role, source, Rect{X: xr - width, Y: s.Top, Width: width, Height: length}, color, hatch)
}

func (e *emitter) casing(c schema.Casing) error {
	color, err := fill(c.Color, c.Name)
	if err != nil {
		return err
	}
	xl, xr := e.scale.Left(c.Diameter), e.scale.Right(c.Diameter)

	e.walls(CategoryCasing, RoleCasingWall, c.Name, c.Section, c.Diameter, c.PipeWidth, color, schema.HatchNone)

	// Shoes hang below the casing bottom, flaring out by one pipe width.
	e.polygon(CategoryCasing, RoleShoe, c.Name, []Point{
		{X: xl, Y: c.Bottom},
		{X: xl, Y: c.Bottom + c.ShoeScale},
		{X: xl - c.PipeWidth, Y: c.Bottom},
	}, shoeFill, schema.HatchNone)
	e.polygon(CategoryCasing, RoleShoe, c.Name, []Point{
		{X: xr, Y: c.Bottom},
		{X: xr, Y: c.Bottom + c.ShoeScale},
		{X: xr + c.PipeWidth, Y: c.Bottom},
	}, shoeFill, schema.HatchNone)

	for _, cem := range c.Cement {
		if err := e.cement(c, cem); err != nil {
			return err
		}
	}
	for _, p := range c.Perforations {
		if err := e.perforation(c, p); err != nil {
			return err
		}
	}
	return nil
}

// cement fills the annulus between the casing edge and the open-hole edge
// at the cement's reference diameter, on both sides.
func (e *emitter) cement(c schema.Casing, cem schema.Cement) error {
	color, err := fill(cem.Color, cem.Name)
	if err != nil {
		return err
	}
	xl, xr := e.scale.Left(c.Diameter), e.scale.Right(c.Diameter)
	cl := e.scale.Left(cem.OH)
	width := xl - cl
	length := cem.Bottom - cem.Top

	e.rect(CategoryCasing, RoleCement, cem.Name, Rect{X: cl, Y: cem.Top, Width: width, Height: length}, color, cem.Hatch)
	e.rect(CategoryCasing, RoleCement, cem.Name, Rect{X: xr, Y: cem.Top, Width: width, Height: length}, color, cem.Hatch)
	return nil
}

// TickCount is the number of whole perforation strides in [top, bottom).
// A trailing partial stride is dropped. Counts saturate at math.MaxInt32.
func TickCount(top, bottom, stride float64) int {
	return int(min(ticks(top, bottom, stride), math.MaxInt32))
}

func ticks(top, bottom, stride float64) float64 {
	if !(stride > 0) || !(bottom > top) {
		return 0
	}
	q := (bottom - top) / stride
	// Tolerate representation error such as 0.3/0.1 = 2.9999999999999996.
	return math.Floor(q + q*1e-12)
}

// perforation emits one outward-pointing tick per stride on each side. The
// tick base sits on the casing edge and its apex reaches the penetration
// diameter at mid-stride.
func (e *emitter) perforation(c schema.Casing, p schema.Perforation) error {
	color, err := fill(p.Color, p.Name)
	if err != nil {
		return err
	}
	xl, xr := e.scale.Left(c.Diameter), e.scale.Right(c.Diameter)
	reach := p.OH * p.Penetrate
	pl, pr := e.scale.Left(reach), e.scale.Right(reach)

	n := TickCount(p.Top, p.Bottom, p.Scale)
	for k := 0; k < n; k++ {
		y0 := p.Top + float64(k)*p.Scale
		y1 := y0 + p.Scale
		mid := y0 + (y1-y0)/2

		e.polygon(CategoryCasing, RolePerforation, p.Name, []Point{
			{X: pl, Y: mid},
			{X: xl, Y: y1},
			{X: xl, Y: y0},
		}, color, p.Hatch)
		e.polygon(CategoryCasing, RolePerforation, p.Name, []Point{
			{X: pr, Y: mid},
			{X: xr, Y: y1},
			{X: xr, Y: y0},
		}, color, p.Hatch)
	}
	return nil
}

func (e *emitter) completion(item schema.Completion) error {
	s := item.Section()
	if item.Diameter() == 0 {
		return fmt.Errorf("completion %q: empty %q variant", s.Name, item.Kind)
	}
	c, hatch := item.Style()
	color, err := fill(c, s.Name)
	if err != nil {
		return err
	}

	switch item.Kind {
	case schema.KindTubing:
		t := item.Tubing
		e.walls(CategoryCompletion, RoleTubingWall, s.Name, s, t.Diameter, t.PipeWidth, color, schema.HatchNone)
	case schema.KindPacker:
		p := item.Packer
		width := e.scale.Left(p.InnerDiameter) - e.scale.Left(p.Diameter)
		e.walls(CategoryCompletion, RolePacker, s.Name, s, p.Diameter, width, color, hatch)
	case schema.KindBridgePlug:
		e.solid(RoleBridgePlug, s, item.Diameter(), color, hatch)
	case schema.KindSleeve:
		e.solid(RoleSleeve, s, item.Diameter(), color, hatch)
	case schema.KindPlug:
		e.solid(RolePlug, s, item.Diameter(), color, hatch)
	default:
		return fmt.Errorf("completion %q: unknown kind %q", s.Name, item.Kind)
	}
	return nil
}

func (e *emitter) solid(role Role, s schema.Section, d float64, color string, hatch schema.Hatch) {
	xl := e.scale.Left(d)
	e.rect(CategoryCompletion, role, s.Name, Rect{
		X:      xl,
		Y:      s.Top,
		Width:  e.scale.Right(d) - xl,
		Height: s.Bottom - s.Top,
	}, color, hatch)
}
