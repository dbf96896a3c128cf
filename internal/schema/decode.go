package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects how unknown fields in a document are handled.
type Mode int

const (
	// Strict rejects documents carrying fields the schema does not declare.
	Strict Mode = iota
	// Lenient silently drops undeclared fields.
	Lenient
)

func (m Mode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict", "forbid", "true":
		return Strict, nil
	case "lenient", "ignore", "false":
		return Lenient, nil
	}
	return Strict, fmt.Errorf("unknown strictness mode %q", s)
}

// Format is the encoding of an input document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromContentType maps an HTTP content type to a document format.
// Anything that is not YAML is treated as JSON.
func FormatFromContentType(ct string) Format {
	ct = strings.ToLower(ct)
	if strings.Contains(ct, "yaml") || strings.Contains(ct, "yml") {
		return FormatYAML
	}
	return FormatJSON
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decoder builds validated WellSchema trees from JSON or YAML documents.
// Field defaults are applied for every record before its fields are read.
type Decoder struct {
	Mode Mode
}

func NewDecoder(mode Mode) *Decoder {
	return &Decoder{Mode: mode}
}

// Decode parses and validates a document in the given format.
func (d *Decoder) Decode(data []byte, format Format) (*WellSchema, error) {
	if format == FormatYAML {
		return d.DecodeYAML(data)
	}
	return d.DecodeJSON(data)
}

// DecodeYAML converts a YAML document to its JSON form and decodes that,
// so both formats share one set of field rules.
func (d *Decoder) DecodeYAML(data []byte) (*WellSchema, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	normalized, err := normalizeYAML(tree)
	if err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	body, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return d.DecodeJSON(body)
}

type wellWire struct {
	OpenHoles  []json.RawMessage `json:"open_holes"`
	Casings    []json.RawMessage `json:"casings"`
	Completion []json.RawMessage `json:"completion"`
}

type casingWire struct {
	Casing
	Cement       []json.RawMessage `json:"cement"`
	Perforations []json.RawMessage `json:"perforations"`
}

type kindWire struct {
	Type Kind `json:"type"`
}

// DecodeJSON parses and validates a JSON document.
func (d *Decoder) DecodeJSON(data []byte) (*WellSchema, error) {
	var wire wellWire
	if err := d.decodeInto(data, &wire, "well"); err != nil {
		return nil, err
	}

	w := &WellSchema{}
	for i, raw := range wire.OpenHoles {
		oh := defaultOpenHole()
		if err := d.decodeRecord(raw, &oh, fmt.Sprintf("open_holes[%d]", i), "diameter"); err != nil {
			return nil, err
		}
		w.OpenHoles = append(w.OpenHoles, oh)
	}

	for i, raw := range wire.Casings {
		c, err := d.decodeCasing(raw, fmt.Sprintf("casings[%d]", i))
		if err != nil {
			return nil, err
		}
		w.Casings = append(w.Casings, c)
	}

	for i, raw := range wire.Completion {
		item, err := d.decodeCompletion(raw, fmt.Sprintf("completion[%d]", i))
		if err != nil {
			return nil, err
		}
		w.Completion = append(w.Completion, item)
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func (d *Decoder) decodeCasing(raw json.RawMessage, path string) (Casing, error) {
	wire := casingWire{Casing: defaultCasing()}
	if err := d.decodeRecord(raw, &wire, path, "diameter"); err != nil {
		return Casing{}, err
	}

	c := wire.Casing
	for i, cr := range wire.Cement {
		cem := defaultCement()
		if err := d.decodeRecord(cr, &cem, fmt.Sprintf("%s.cement[%d]", path, i), "oh"); err != nil {
			return Casing{}, err
		}
		c.Cement = append(c.Cement, cem)
	}
	for i, pr := range wire.Perforations {
		perf := defaultPerforation()
		if err := d.decodeRecord(pr, &perf, fmt.Sprintf("%s.perforations[%d]", path, i), "oh"); err != nil {
			return Casing{}, err
		}
		c.Perforations = append(c.Perforations, perf)
	}
	return c, nil
}

func (d *Decoder) decodeCompletion(raw json.RawMessage, path string) (Completion, error) {
	var k kindWire
	if err := json.Unmarshal(raw, &k); err != nil {
		return Completion{}, fmt.Errorf("%w: %s: %v", ErrValidation, path, err)
	}

	switch k.Type {
	case KindTubing:
		v := struct {
			kindWire
			Tubing
		}{Tubing: defaultTubing()}
		if err := d.decodeRecord(raw, &v, path, "diameter"); err != nil {
			return Completion{}, err
		}
		return TubingItem(v.Tubing), nil
	case KindPacker:
		v := struct {
			kindWire
			Packer
		}{Packer: defaultPacker()}
		if err := d.decodeRecord(raw, &v, path, "diameter", "inner_diameter"); err != nil {
			return Completion{}, err
		}
		return PackerItem(v.Packer), nil
	case KindBridgePlug:
		v := struct {
			kindWire
			BridgePlug
		}{BridgePlug: defaultBridgePlug()}
		if err := d.decodeRecord(raw, &v, path, "diameter"); err != nil {
			return Completion{}, err
		}
		return BridgePlugItem(v.BridgePlug), nil
	case KindSleeve:
		v := struct {
			kindWire
			Sleeve
		}{Sleeve: defaultSleeve()}
		if err := d.decodeRecord(raw, &v, path, "diameter"); err != nil {
			return Completion{}, err
		}
		return SleeveItem(v.Sleeve), nil
	case KindPlug:
		v := struct {
			kindWire
			Plug
		}{Plug: defaultPlug()}
		if err := d.decodeRecord(raw, &v, path, "diameter"); err != nil {
			return Completion{}, err
		}
		return PlugItem(v.Plug), nil
	case "":
		return Completion{}, fmt.Errorf("%w: %s: missing type", ErrValidation, path)
	}
	return Completion{}, fmt.Errorf("%w: %s: unknown completion type %q", ErrValidation, path, k.Type)
}

// sectionFields are the keys every construction record must carry.
var sectionFields = []string{"name", "top", "bottom"}

// decodeRecord checks that raw carries the section fields and the record's
// own required keys before decoding it over dst's defaults.
func (d *Decoder) decodeRecord(raw []byte, dst any, path string, required ...string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrValidation, path, err)
	}
	for _, key := range append(sectionFields, required...) {
		v, ok := obj[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return fmt.Errorf("%w: %s: %w %q", ErrValidation, path, ErrMissingField, key)
		}
	}
	return d.decodeInto(raw, dst, path)
}

func (d *Decoder) decodeInto(raw []byte, dst any, path string) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if d.Mode == Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("%w: %s: %w %s", ErrValidation, path, ErrUnknownField, field)
		}
		return fmt.Errorf("%w: %s: %v", ErrValidation, path, err)
	}
	return nil
}

// normalizeYAML rewrites a yaml.v3 tree into values encoding/json accepts,
// turning timestamps into calendar dates.
func normalizeYAML(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case time.Time:
		return t.Format(time.DateOnly), nil
	}
	return v, nil
}
