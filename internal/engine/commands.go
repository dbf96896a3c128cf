package engine

import (
	"encoding/json"

	"github.com/wellschematic/wellschematic/internal/schema"
)

// Kind is the geometric type of a primitive.
type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindPolygon   Kind = "polygon"
)

// Role names the well component part a primitive draws.
type Role string

const (
	RoleOpenHole    Role = "open_hole"
	RoleCasingWall  Role = "casing_wall"
	RoleShoe        Role = "shoe"
	RoleCement      Role = "cement"
	RolePerforation Role = "perforation"
	RoleTubingWall  Role = "tubing_wall"
	RolePacker      Role = "packer"
	RoleBridgePlug  Role = "bridge_plug"
	RoleSleeve      Role = "sleeve"
	RolePlug        Role = "plug"
)

// Primitive is a single filled shape for the rendering backend.
// Primitives are in painter's order (back to front).
type Primitive struct {
	Kind     Kind         `json:"kind"`
	Category Category     `json:"category"`         // component group, for filtering
	Role     Role         `json:"role"`             // part of the component
	Source   string       `json:"source,omitempty"` // record name, for hit correlation
	Rect     *Rect        `json:"rect,omitempty"`   // rectangle geometry
	Points   []Point      `json:"points,omitempty"` // polygon vertices, in order
	Fill     string       `json:"fill"`             // "#rrggbb"
	Hatch    schema.Hatch `json:"hatch,omitempty"`  // fill-texture hint
}

// Bounds returns the primitive's axis-aligned bounding box.
func (p Primitive) Bounds() Rect {
	if p.Kind == KindRectangle && p.Rect != nil {
		return *p.Rect
	}
	return polygonBounds(p.Points)
}

// Contains reports whether the point lies inside the primitive.
func (p Primitive) Contains(x, y float64) bool {
	if p.Kind == KindRectangle && p.Rect != nil {
		return p.Rect.Contains(x, y)
	}
	return polygonContains(p.Points, x, y)
}

// PrimitivesToJSON serializes primitives to JSON.
func PrimitivesToJSON(prims []Primitive) (string, error) {
	data, err := json.Marshal(prims)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTest returns the index of the topmost primitive containing the point.
func HitTest(prims []Primitive, x, y float64) (int, bool) {
	// Later primitives paint over earlier ones, so walk back to front.
	for i := len(prims) - 1; i >= 0; i-- {
		if prims[i].Contains(x, y) {
			return i, true
		}
	}
	return -1, false
}

// BoundsOf returns the combined bounding box of the primitives drawn for the
// named source record.
func BoundsOf(prims []Primitive, source string) Rect {
	var result Rect
	for _, p := range prims {
		if p.Source != source {
			continue
		}
		result = result.Union(p.Bounds())
	}
	return result
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
