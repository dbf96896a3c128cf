package schema

// Option adjusts a record before it is validated.
type Option[T any] func(*T)

func build[T any](rec T, opts []Option[T]) (T, error) {
	for _, opt := range opts {
		opt(&rec)
	}
	if err := Validate(&rec); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

func section(name string, top, bottom float64) Section {
	return Section{Name: name, Top: top, Bottom: bottom}
}

func NewOpenHole(name string, top, bottom, diameter float64, opts ...Option[OpenHole]) (OpenHole, error) {
	oh := defaultOpenHole()
	oh.Section = section(name, top, bottom)
	oh.Diameter = diameter
	return build(oh, opts)
}

func NewCement(name string, top, bottom, oh float64, opts ...Option[Cement]) (Cement, error) {
	c := defaultCement()
	c.Section = section(name, top, bottom)
	c.OH = oh
	return build(c, opts)
}

func NewPerforation(name string, top, bottom, oh float64, opts ...Option[Perforation]) (Perforation, error) {
	p := defaultPerforation()
	p.Section = section(name, top, bottom)
	p.OH = oh
	return build(p, opts)
}

func NewCasing(name string, top, bottom, diameter float64, opts ...Option[Casing]) (Casing, error) {
	c := defaultCasing()
	c.Section = section(name, top, bottom)
	c.Diameter = diameter
	return build(c, opts)
}

func NewTubing(name string, top, bottom, diameter float64, opts ...Option[Tubing]) (Tubing, error) {
	t := defaultTubing()
	t.Section = section(name, top, bottom)
	t.Diameter = diameter
	return build(t, opts)
}

func NewBridgePlug(name string, top, bottom, diameter float64, opts ...Option[BridgePlug]) (BridgePlug, error) {
	b := defaultBridgePlug()
	b.Section = section(name, top, bottom)
	b.Diameter = diameter
	return build(b, opts)
}

func NewSleeve(name string, top, bottom, diameter float64, opts ...Option[Sleeve]) (Sleeve, error) {
	s := defaultSleeve()
	s.Section = section(name, top, bottom)
	s.Diameter = diameter
	return build(s, opts)
}

func NewPlug(name string, top, bottom, diameter float64, opts ...Option[Plug]) (Plug, error) {
	p := defaultPlug()
	p.Section = section(name, top, bottom)
	p.Diameter = diameter
	return build(p, opts)
}

func NewPacker(name string, top, bottom, diameter, innerDiameter float64, opts ...Option[Packer]) (Packer, error) {
	p := defaultPacker()
	p.Section = section(name, top, bottom)
	p.Diameter = diameter
	p.InnerDiameter = innerDiameter
	return build(p, opts)
}

// NewWellSchema assembles and validates a schema. Casings and completion
// items are optional.
func NewWellSchema(openHoles []OpenHole, casings []Casing, completion []Completion) (*WellSchema, error) {
	w := &WellSchema{
		OpenHoles:  openHoles,
		Casings:    casings,
		Completion: completion,
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Update applies mutate to a deep copy of rec, validates the copy with the
// same rules used at construction, and stores it back only if it is valid.
// On error rec is left untouched.
func Update[T any](rec *T, mutate func(*T)) error {
	next := deepCopy(*rec)
	mutate(&next)
	if err := Validate(&next); err != nil {
		return err
	}
	*rec = next
	return nil
}

func deepCopy[T any](v T) T {
	switch r := any(&v).(type) {
	case *WellSchema:
		*r = r.Clone()
	case *Casing:
		*r = r.Clone()
	case *Completion:
		*r = r.clone()
	}
	return v
}

// Clone returns a copy that shares no slices or records with c.
func (c Casing) Clone() Casing {
	out := c
	out.Section = c.Section.clone()
	if c.Cement != nil {
		out.Cement = make([]Cement, len(c.Cement))
		for i, cem := range c.Cement {
			cem.Section = cem.Section.clone()
			out.Cement[i] = cem
		}
	}
	if c.Perforations != nil {
		out.Perforations = make([]Perforation, len(c.Perforations))
		for i, p := range c.Perforations {
			p.Section = p.Section.clone()
			out.Perforations[i] = p
		}
	}
	return out
}

// Clone returns a copy that shares no slices or records with w.
func (w WellSchema) Clone() WellSchema {
	out := WellSchema{}
	if w.OpenHoles != nil {
		out.OpenHoles = make([]OpenHole, len(w.OpenHoles))
		for i, oh := range w.OpenHoles {
			oh.Section = oh.Section.clone()
			out.OpenHoles[i] = oh
		}
	}
	if w.Casings != nil {
		out.Casings = make([]Casing, len(w.Casings))
		for i, c := range w.Casings {
			out.Casings[i] = c.Clone()
		}
	}
	if w.Completion != nil {
		out.Completion = make([]Completion, len(w.Completion))
		for i, c := range w.Completion {
			out.Completion[i] = c.clone()
		}
	}
	return out
}

func (s Section) clone() Section {
	if s.InstallDate != nil {
		d := *s.InstallDate
		s.InstallDate = &d
	}
	if s.RemoveDate != nil {
		d := *s.RemoveDate
		s.RemoveDate = &d
	}
	return s
}
