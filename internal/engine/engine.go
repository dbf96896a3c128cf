package engine

import (
	"encoding/json"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/wellschematic/wellschematic/internal/schema"
)

// Engine owns a loaded well and the view options, and caches the laid out
// schematic until either changes. It is not safe for concurrent use.
type Engine struct {
	// Document state
	well *schema.WellSchema
	mode schema.Mode

	// View state
	opts Options

	// Cached layout; valid while dirty is false
	schematic *Schematic
	err       error
	dirty     bool
}

// NewEngine creates a new engine instance using strict field handling.
func NewEngine() *Engine {
	return &Engine{
		mode:  schema.Strict,
		dirty: true,
	}
}

// --- Commands ---

// SetMode selects how unknown fields are treated by subsequent loads.
func (e *Engine) SetMode(mode schema.Mode) {
	e.mode = mode
}

// LoadDocument loads a well from JSON.
func (e *Engine) LoadDocument(jsonData string) error {
	return e.load([]byte(jsonData), schema.FormatJSON)
}

// LoadYAML loads a well from YAML.
func (e *Engine) LoadYAML(yamlData string) error {
	return e.load([]byte(yamlData), schema.FormatYAML)
}

// LoadSampleDocument loads the built-in sample well.
func (e *Engine) LoadSampleDocument() error {
	return e.load(schema.SampleWellYAML(), schema.FormatYAML)
}

// Load replaces the current well with an already built one.
func (e *Engine) Load(w *schema.WellSchema) error {
	if err := w.Validate(); err != nil {
		return err
	}
	e.well = w
	e.dirty = true
	return nil
}

func (e *Engine) load(data []byte, format schema.Format) error {
	w, err := schema.NewDecoder(e.mode).Decode(data, format)
	if err != nil {
		return err
	}
	e.well = w
	e.dirty = true
	return nil
}

// SetWhich limits rendering to the given categories; nil selects all.
func (e *Engine) SetWhich(which []Category) error {
	for _, c := range which {
		if _, err := ParseCategories(string(c)); err != nil {
			return err
		}
	}
	e.opts.Which = which
	e.dirty = true
	return nil
}

// SetAsOf filters completion items by install state on an ISO date.
// An empty string clears the filter.
func (e *Engine) SetAsOf(date string) error {
	if date == "" {
		e.opts.AsOf = nil
		e.dirty = true
		return nil
	}
	d, err := civil.ParseDate(date)
	if err != nil {
		return fmt.Errorf("parse as-of date: %w", err)
	}
	e.opts.AsOf = &d
	e.dirty = true
	return nil
}

// SetLimits overrides the depth window; nil restores the well's own bounds.
func (e *Engine) SetLimits(limits *Limits) {
	e.opts.Limits = limits
	e.dirty = true
}

// --- Queries ---

// Schematic lays out the well, reusing the previous result when nothing
// changed.
func (e *Engine) Schematic() (*Schematic, error) {
	if e.well == nil {
		return nil, fmt.Errorf("no well loaded")
	}
	if e.dirty {
		e.schematic, e.err = Render(e.well, e.opts)
		e.dirty = false
	}
	return e.schematic, e.err
}

// Render returns the schematic as JSON, or a JSON error object.
func (e *Engine) Render() string {
	s, err := e.Schematic()
	if err != nil {
		return errorJSON(err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errorJSON(err)
	}
	return string(data)
}

// HitTest returns the topmost primitive at drawing-space coordinates as JSON,
// or an empty string when nothing is hit.
func (e *Engine) HitTest(x, y float64) string {
	s, err := e.Schematic()
	if err != nil {
		return ""
	}
	i, ok := HitTest(s.Primitives, x, y)
	if !ok {
		return ""
	}
	data, _ := json.Marshal(s.Primitives[i])
	return string(data)
}

// HitTestPixel maps a pixel in a viewport of size w x h back into drawing
// space before hit testing.
func (e *Engine) HitTestPixel(px, py, w, h float64) string {
	s, err := e.Schematic()
	if err != nil {
		return ""
	}
	x, y := ViewMatrix(s.View, 0, 0, w, h).Invert().TransformPoint(px, py)
	return e.HitTest(x, y)
}

// GetComponentBounds returns the drawing-space bounds of a named record as JSON.
func (e *Engine) GetComponentBounds(name string) string {
	s, err := e.Schematic()
	if err != nil {
		return RectToJSON(Rect{})
	}
	return RectToJSON(BoundsOf(s.Primitives, name))
}

// GetViewMatrix returns the drawing-to-pixel transform for a w x h viewport.
func (e *Engine) GetViewMatrix(w, h float64) string {
	s, err := e.Schematic()
	if err != nil {
		return "[]"
	}
	data, _ := json.Marshal(ViewMatrix(s.View, 0, 0, w, h).ToSlice())
	return string(data)
}

// GetDocument returns the loaded well as JSON.
func (e *Engine) GetDocument() string {
	if e.well == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.well)
	return string(data)
}

// GetView returns the current view metadata as JSON.
func (e *Engine) GetView() string {
	s, err := e.Schematic()
	if err != nil {
		return errorJSON(err)
	}
	data, _ := json.Marshal(s.View)
	return string(data)
}

func errorJSON(err error) string {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(data)
}
