package schema

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the completion union.
type Kind string

const (
	KindTubing     Kind = "tubing"
	KindPacker     Kind = "packer"
	KindBridgePlug Kind = "bridge_plug"
	KindSleeve     Kind = "sleeve"
	KindPlug       Kind = "plug"
)

// Completion is one downhole completion item. Exactly the variant named by
// Kind is set.
type Completion struct {
	Kind       Kind
	Tubing     *Tubing
	Packer     *Packer
	BridgePlug *BridgePlug
	Sleeve     *Sleeve
	Plug       *Plug
}

func TubingItem(t Tubing) Completion         { return Completion{Kind: KindTubing, Tubing: &t} }
func PackerItem(p Packer) Completion         { return Completion{Kind: KindPacker, Packer: &p} }
func BridgePlugItem(b BridgePlug) Completion { return Completion{Kind: KindBridgePlug, BridgePlug: &b} }
func SleeveItem(s Sleeve) Completion         { return Completion{Kind: KindSleeve, Sleeve: &s} }
func PlugItem(p Plug) Completion             { return Completion{Kind: KindPlug, Plug: &p} }

// variant returns the populated record, or nil when Kind and payload disagree.
func (c Completion) variant() any {
	switch c.Kind {
	case KindTubing:
		if c.Tubing != nil {
			return c.Tubing
		}
	case KindPacker:
		if c.Packer != nil {
			return c.Packer
		}
	case KindBridgePlug:
		if c.BridgePlug != nil {
			return c.BridgePlug
		}
	case KindSleeve:
		if c.Sleeve != nil {
			return c.Sleeve
		}
	case KindPlug:
		if c.Plug != nil {
			return c.Plug
		}
	}
	return nil
}

// Section returns the item's depth interval and dates.
func (c Completion) Section() Section {
	switch v := c.variant().(type) {
	case *Tubing:
		return v.Section
	case *Packer:
		return v.Section
	case *BridgePlug:
		return v.Section
	case *Sleeve:
		return v.Section
	case *Plug:
		return v.Section
	}
	return Section{}
}

// Diameter returns the item's outer diameter.
func (c Completion) Diameter() float64 {
	switch v := c.variant().(type) {
	case *Tubing:
		return v.Diameter
	case *Packer:
		return v.Diameter
	case *BridgePlug:
		return v.Diameter
	case *Sleeve:
		return v.Diameter
	case *Plug:
		return v.Diameter
	}
	return 0
}

// Style returns the fill color and hatch of the item.
func (c Completion) Style() (Color, Hatch) {
	switch v := c.variant().(type) {
	case *Tubing:
		return v.Color, v.Hatch
	case *Packer:
		return v.Color, v.Hatch
	case *BridgePlug:
		return v.Color, v.Hatch
	case *Sleeve:
		return v.Color, v.Hatch
	case *Plug:
		return v.Color, v.Hatch
	}
	return "", HatchNone
}

func (c Completion) Validate() error {
	v := c.variant()
	if v == nil {
		return fmt.Errorf("%w: completion: unknown or empty variant %q", ErrValidation, c.Kind)
	}
	return checkStruct(v)
}

func (c Completion) clone() Completion {
	out := Completion{Kind: c.Kind}
	switch v := c.variant().(type) {
	case *Tubing:
		t := *v
		t.Section = t.Section.clone()
		out.Tubing = &t
	case *Packer:
		p := *v
		p.Section = p.Section.clone()
		out.Packer = &p
	case *BridgePlug:
		b := *v
		b.Section = b.Section.clone()
		out.BridgePlug = &b
	case *Sleeve:
		s := *v
		s.Section = s.Section.clone()
		out.Sleeve = &s
	case *Plug:
		p := *v
		p.Section = p.Section.clone()
		out.Plug = &p
	}
	return out
}

func (c Completion) MarshalJSON() ([]byte, error) {
	v := c.variant()
	if v == nil {
		return nil, fmt.Errorf("marshal completion: unknown or empty variant %q", c.Kind)
	}
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(c.Kind)
	return json.Marshal(fields)
}

// UnmarshalJSON decodes a single item leniently, applying field defaults.
// Use Decoder to control unknown-field handling for whole documents.
func (c *Completion) UnmarshalJSON(data []byte) error {
	item, err := (&Decoder{Mode: Lenient}).decodeCompletion(data, "completion")
	if err != nil {
		return err
	}
	*c = item
	return nil
}
