package schema

import "cloud.google.com/go/civil"

// Section is the depth interval shared by every well-construction record.
type Section struct {
	Name        string      `json:"name"`
	Top         float64     `json:"top"`
	Bottom      float64     `json:"bottom" validate:"gtefield=Top"`
	InstallDate *civil.Date `json:"install_date,omitempty"`
	RemoveDate  *civil.Date `json:"remove_date,omitempty"`
}

// Interval returns the section's depth bounds.
func (s Section) Interval() (top, bottom float64) {
	return s.Top, s.Bottom
}

type OpenHole struct {
	Section
	Diameter float64 `json:"diameter" validate:"gt=0"`
	Color    Color   `json:"color" validate:"wellcolor"`
	Hatch    Hatch   `json:"hatch" validate:"hatch"`
}

type Cement struct {
	Section
	// OH is the open-hole diameter bounding the annulus over this interval.
	OH    float64 `json:"oh" validate:"gt=0"`
	Color Color   `json:"color" validate:"wellcolor"`
	Hatch Hatch   `json:"hatch" validate:"hatch"`
}

type Perforation struct {
	Section
	OH        float64 `json:"oh" validate:"gt=0"`
	Color     Color   `json:"color" validate:"wellcolor"`
	Hatch     Hatch   `json:"hatch" validate:"hatch"`
	Scale     float64 `json:"scale" validate:"gt=0"`
	Penetrate float64 `json:"penetrate" validate:"gt=0"`
}

type Casing struct {
	Section
	Diameter     float64       `json:"diameter" validate:"gt=0"`
	Cement       []Cement      `json:"cement,omitempty" validate:"dive"`
	Perforations []Perforation `json:"perforations,omitempty" validate:"dive"`
	PipeWidth    float64       `json:"pipe_width" validate:"gt=0"`
	ShoeScale    float64       `json:"shoe_scale" validate:"gt=0"`
	Color        Color         `json:"color" validate:"wellcolor"`
}

type Tubing struct {
	Section
	Diameter  float64 `json:"diameter" validate:"gt=0"`
	PipeWidth float64 `json:"pipe_width" validate:"gt=0"`
	Color     Color   `json:"color" validate:"wellcolor"`
	Hatch     Hatch   `json:"hatch" validate:"hatch"`
}

type BridgePlug struct {
	Section
	Diameter float64 `json:"diameter" validate:"gt=0"`
	Color    Color   `json:"color" validate:"wellcolor"`
	Hatch    Hatch   `json:"hatch" validate:"hatch"`
}

type Sleeve struct {
	Section
	Diameter float64 `json:"diameter" validate:"gt=0"`
	Color    Color   `json:"color" validate:"wellcolor"`
	Hatch    Hatch   `json:"hatch" validate:"hatch"`
}

type Plug struct {
	Section
	Diameter float64 `json:"diameter" validate:"gt=0"`
	Color    Color   `json:"color" validate:"wellcolor"`
	Hatch    Hatch   `json:"hatch" validate:"hatch"`
}

type Packer struct {
	Section
	Diameter      float64 `json:"diameter" validate:"gt=0"`
	InnerDiameter float64 `json:"inner_diameter" validate:"gt=0,ltfield=Diameter"`
	Color         Color   `json:"color" validate:"wellcolor"`
	Hatch         Hatch   `json:"hatch" validate:"hatch"`
}

// WellSchema is the aggregate root of a well's construction.
type WellSchema struct {
	OpenHoles  []OpenHole   `json:"open_holes" validate:"required,min=1,dive"`
	Casings    []Casing     `json:"casings,omitempty" validate:"dive"`
	Completion []Completion `json:"completion,omitempty"`
}

// Field defaults applied before a record is decoded or constructed.

func defaultOpenHole() OpenHole {
	return OpenHole{Color: "#cfd4d3", Hatch: HatchNone}
}

func defaultCement() Cement {
	return Cement{Color: "#60b1eb", Hatch: HatchDot}
}

func defaultPerforation() Perforation {
	return Perforation{Color: "#030302", Hatch: HatchAsterisk, Scale: 1, Penetrate: 1.1}
}

func defaultCasing() Casing {
	return Casing{PipeWidth: 0.03, ShoeScale: 5, Color: "black"}
}

func defaultTubing() Tubing {
	return Tubing{PipeWidth: 0.02, Color: "#828783", Hatch: HatchNone}
}

func defaultBridgePlug() BridgePlug {
	return BridgePlug{Color: "#7a2222", Hatch: HatchCross}
}

func defaultSleeve() Sleeve {
	return Sleeve{Color: "#74876d", Hatch: HatchBar}
}

func defaultPlug() Plug {
	return Plug{Color: "#60b1eb", Hatch: HatchDoubleDot}
}

func defaultPacker() Packer {
	return Packer{Color: "#7a2222", Hatch: HatchCross}
}
