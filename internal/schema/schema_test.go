package schema

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *civil.Date {
	return &civil.Date{Year: y, Month: m, Day: d}
}

func TestNewPacker_InnerDiameterMustBeSmaller(t *testing.T) {
	_, err := NewPacker("pk", 100, 110, 9, 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "inner_diameter")

	_, err = NewPacker("pk", 100, 110, 9, 10)
	assert.ErrorIs(t, err, ErrValidation)

	p, err := NewPacker("pk", 100, 110, 9, 4.5)
	require.NoError(t, err)
	assert.Equal(t, 4.5, p.InnerDiameter)
	assert.Equal(t, HatchCross, p.Hatch)
}

func TestNewCasing_Defaults(t *testing.T) {
	c, err := NewCasing("surface", 0, 500, 9)
	require.NoError(t, err)
	assert.Equal(t, 0.03, c.PipeWidth)
	assert.Equal(t, 5.0, c.ShoeScale)
	assert.Equal(t, Color("black"), c.Color)
}

func TestNewCasing_RejectsNonPositiveWidths(t *testing.T) {
	_, err := NewCasing("c", 0, 500, 9, func(c *Casing) { c.PipeWidth = 0 })
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "pipe_width")

	_, err = NewCasing("c", 0, 500, 9, func(c *Casing) { c.ShoeScale = -1 })
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "shoe_scale")
}

func TestNewOpenHole_Invariants(t *testing.T) {
	_, err := NewOpenHole("oh", 0, 100, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewOpenHole("oh", 200, 100, 12)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "bottom")

	_, err = NewOpenHole("oh", 0, 100, 12, func(o *OpenHole) { o.Color = "not-a-color" })
	assert.ErrorIs(t, err, ErrValidation)

	oh, err := NewOpenHole("oh", 0, 100, 12)
	require.NoError(t, err)
	assert.Equal(t, Color("#cfd4d3"), oh.Color)
}

func TestNewPerforation_Defaults(t *testing.T) {
	p, err := NewPerforation("perf", 100, 125, 9)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Scale)
	assert.Equal(t, 1.1, p.Penetrate)
	assert.Equal(t, HatchAsterisk, p.Hatch)
}

func TestNewWellSchema_RequiresOpenHole(t *testing.T) {
	_, err := NewWellSchema(nil, nil, nil)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "open_holes")
}

func TestNewWellSchema_ValidatesCompletionVariants(t *testing.T) {
	oh, err := NewOpenHole("oh", 0, 1000, 12)
	require.NoError(t, err)

	bad := Completion{Kind: KindPacker}
	_, err = NewWellSchema([]OpenHole{oh}, nil, []Completion{bad})
	assert.ErrorIs(t, err, ErrValidation)

	pk := defaultPacker()
	pk.Section = Section{Top: 10, Bottom: 20}
	pk.Diameter = 5
	pk.InnerDiameter = 6
	_, err = NewWellSchema([]OpenHole{oh}, nil, []Completion{PackerItem(pk)})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "completion[0]")
}

func TestUpdate_RevalidatesAndRollsBack(t *testing.T) {
	p, err := NewPacker("pk", 100, 110, 9, 4.5)
	require.NoError(t, err)

	err = Update(&p, func(p *Packer) { p.InnerDiameter = 12 })
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 4.5, p.InnerDiameter, "failed mutation must not be committed")

	require.NoError(t, Update(&p, func(p *Packer) { p.InnerDiameter = 5 }))
	assert.Equal(t, 5.0, p.InnerDiameter)
}

func TestUpdate_NestedMutationDoesNotLeakOnFailure(t *testing.T) {
	cem, err := NewCement("cem", 0, 100, 12)
	require.NoError(t, err)
	c, err := NewCasing("c", 0, 500, 9, func(c *Casing) { c.Cement = []Cement{cem} })
	require.NoError(t, err)

	err = Update(&c, func(c *Casing) { c.Cement[0].OH = -1 })
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 12.0, c.Cement[0].OH)
}

func TestUpdate_WellSchema(t *testing.T) {
	w, err := NewSampleWell()
	require.NoError(t, err)

	err = Update(w, func(w *WellSchema) { w.OpenHoles = nil })
	require.ErrorIs(t, err, ErrValidation)
	assert.NotEmpty(t, w.OpenHoles)

	err = Update(w, func(w *WellSchema) { w.Casings[0].Bottom = -5 })
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 300.0, w.Casings[0].Bottom)
}

func TestIsActiveAt(t *testing.T) {
	on := civil.Date{Year: 2020, Month: time.June, Day: 1}

	tests := []struct {
		name    string
		install *civil.Date
		remove  *civil.Date
		want    bool
	}{
		{"never installed", nil, nil, false},
		{"never installed but removed", nil, date(2021, 1, 1), false},
		{"installed within window", date(2020, 1, 1), date(2021, 1, 1), true},
		{"on install day", date(2020, 6, 1), date(2021, 1, 1), true},
		{"on remove day", date(2019, 1, 1), date(2020, 6, 1), true},
		{"already removed", date(2019, 1, 1), date(2020, 5, 31), false},
		{"not yet installed", date(2020, 6, 2), nil, false},
		{"installed open ended", date(2020, 1, 1), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Section{Top: 0, Bottom: 10, InstallDate: tt.install, RemoveDate: tt.remove}
			assert.Equal(t, tt.want, IsActiveAt(s, on))
		})
	}
}

func TestDecoder_StrictRejectsUnknownFields(t *testing.T) {
	doc := []byte(`{"open_holes":[{"name":"oh","top":0,"bottom":100,"diameter":12,"colour":"red"}]}`)

	_, err := NewDecoder(Strict).DecodeJSON(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "colour")

	w, err := NewDecoder(Lenient).DecodeJSON(doc)
	require.NoError(t, err)
	assert.Equal(t, Color("#cfd4d3"), w.OpenHoles[0].Color)
}

func TestDecoder_StrictReachesNestedRecords(t *testing.T) {
	doc := []byte(`{
		"open_holes":[{"name":"oh","top":0,"bottom":1000,"diameter":12}],
		"casings":[{"name":"c","top":0,"bottom":500,"diameter":9,
			"cement":[{"name":"cem","top":0,"bottom":500,"oh":12,"grade":"G"}]}],
		"completion":[{"type":"plug","name":"p","top":10,"bottom":20,"diameter":4,"seal":"x"}]
	}`)

	_, err := NewDecoder(Strict).DecodeJSON(doc)
	require.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), "casings[0].cement[0]")

	w, err := NewDecoder(Lenient).DecodeJSON(doc)
	require.NoError(t, err)
	require.Len(t, w.Casings[0].Cement, 1)
	assert.Equal(t, HatchDot, w.Casings[0].Cement[0].Hatch)
	require.Len(t, w.Completion, 1)
	assert.Equal(t, KindPlug, w.Completion[0].Kind)
}

func TestDecoder_AppliesDefaultsAndValidates(t *testing.T) {
	doc := []byte(`{
		"open_holes":[{"name":"oh","top":0,"bottom":1000,"diameter":12}],
		"casings":[{"name":"c","top":0,"bottom":500,"diameter":9,
			"perforations":[{"name":"p","top":100,"bottom":125,"oh":9,"scale":10}]}]
	}`)

	w, err := NewDecoder(Strict).DecodeJSON(doc)
	require.NoError(t, err)
	c := w.Casings[0]
	assert.Equal(t, 0.03, c.PipeWidth)
	assert.Equal(t, 5.0, c.ShoeScale)
	assert.Equal(t, 10.0, c.Perforations[0].Scale)
	assert.Equal(t, 1.1, c.Perforations[0].Penetrate)

	_, err = NewDecoder(Strict).DecodeJSON([]byte(`{"open_holes":[{"name":"oh","top":0,"bottom":10,"diameter":12}],
		"casings":[{"name":"c","top":0,"bottom":5,"diameter":9,"pipe_width":0}]}`))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDecoder_CompletionTypes(t *testing.T) {
	_, err := NewDecoder(Strict).DecodeJSON([]byte(`{"open_holes":[{"name":"oh","top":0,"bottom":10,"diameter":12}],
		"completion":[{"name":"x","top":0,"bottom":5,"diameter":3}]}`))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "missing type")

	_, err = NewDecoder(Strict).DecodeJSON([]byte(`{"open_holes":[{"name":"oh","top":0,"bottom":10,"diameter":12}],
		"completion":[{"type":"whipstock","name":"x","top":0,"bottom":5,"diameter":3}]}`))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "whipstock")

	_, err = NewDecoder(Strict).DecodeJSON([]byte(`{"open_holes":[{"name":"oh","top":0,"bottom":10,"diameter":12}],
		"completion":[{"type":"packer","name":"x","top":0,"bottom":5,"diameter":3,"inner_diameter":3}]}`))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDecoder_RequiredFields(t *testing.T) {
	tests := map[string]struct {
		doc     string
		missing string
	}{
		"open hole top": {
			doc:     `{"open_holes":[{"name":"oh","bottom":100,"diameter":12}]}`,
			missing: "top",
		},
		"open hole name": {
			doc:     `{"open_holes":[{"top":0,"bottom":100,"diameter":12}]}`,
			missing: "name",
		},
		"null bottom": {
			doc:     `{"open_holes":[{"name":"oh","top":0,"bottom":null,"diameter":12}]}`,
			missing: "bottom",
		},
		"casing diameter": {
			doc: `{"open_holes":[{"name":"oh","top":0,"bottom":100,"diameter":12}],
				"casings":[{"name":"c","top":0,"bottom":50}]}`,
			missing: "diameter",
		},
		"cement oh": {
			doc: `{"open_holes":[{"name":"oh","top":0,"bottom":100,"diameter":12}],
				"casings":[{"name":"c","top":0,"bottom":50,"diameter":9,
					"cement":[{"name":"cem","top":0,"bottom":50}]}]}`,
			missing: "oh",
		},
		"perforation top": {
			doc: `{"open_holes":[{"name":"oh","top":0,"bottom":100,"diameter":12}],
				"casings":[{"name":"c","top":0,"bottom":50,"diameter":9,
					"perforations":[{"name":"p","bottom":50,"oh":12}]}]}`,
			missing: "top",
		},
		"packer inner diameter": {
			doc: `{"open_holes":[{"name":"oh","top":0,"bottom":100,"diameter":12}],
				"completion":[{"type":"packer","name":"pk","top":10,"bottom":12,"diameter":8}]}`,
			missing: "inner_diameter",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for _, mode := range []Mode{Strict, Lenient} {
				_, err := NewDecoder(mode).DecodeJSON([]byte(tt.doc))
				require.ErrorIs(t, err, ErrMissingField, mode.String())
				assert.ErrorIs(t, err, ErrValidation)
				assert.Contains(t, err.Error(), `"`+tt.missing+`"`)
			}
		})
	}
}

func TestDecoder_CanonicalJSONRoundTrip(t *testing.T) {
	doc := []byte(`{
		"open_holes":[{"name":"oh","top":0,"bottom":1000,"diameter":12}],
		"casings":[{"name":"c","top":0,"bottom":500,"diameter":9,"install_date":"2019-03-02",
			"cement":[{"name":"cem","top":0,"bottom":500,"oh":12,"hatch":"none"}],
			"perforations":[{"name":"perf","top":100,"bottom":120,"oh":12,"scale":5,"hatch":"none"}]}],
		"completion":[
			{"type":"tubing","name":"tb","top":0,"bottom":400,"diameter":4.5,"hatch":"x"},
			{"type":"packer","name":"pk","top":400,"bottom":410,"diameter":8,"inner_diameter":4.5,"hatch":"none"},
			{"type":"bridge_plug","name":"bp","top":450,"bottom":460,"diameter":8,"hatch":"none"},
			{"type":"sleeve","name":"sl","top":300,"bottom":310,"diameter":4.5,"hatch":"none"},
			{"type":"plug","name":"pl","top":460,"bottom":480,"diameter":8,"hatch":"none"}
		]
	}`)

	w, err := NewDecoder(Strict).DecodeJSON(doc)
	require.NoError(t, err)
	assert.Equal(t, HatchNone, w.Casings[0].Cement[0].Hatch)
	assert.Equal(t, HatchNone, w.Casings[0].Perforations[0].Hatch)
	assert.Equal(t, HatchCross, w.Completion[0].Tubing.Hatch)
	for _, item := range w.Completion[1:] {
		_, hatch := item.Style()
		assert.Equal(t, HatchNone, hatch, item.Kind)
	}

	body, err := json.Marshal(w)
	require.NoError(t, err)

	back, err := NewDecoder(Strict).DecodeJSON(body)
	require.NoError(t, err)
	assert.Equal(t, w, back)

	// Defaults survive the trip as well.
	sample, err := NewSampleWell()
	require.NoError(t, err)
	body, err = json.Marshal(sample)
	require.NoError(t, err)
	back, err = NewDecoder(Strict).DecodeJSON(body)
	require.NoError(t, err)
	assert.Equal(t, sample, back)
}

func TestDecoder_YAMLMatchesJSON(t *testing.T) {
	w, err := NewSampleWell()
	require.NoError(t, err)

	assert.Len(t, w.OpenHoles, 2)
	assert.Len(t, w.Casings, 2)
	assert.Len(t, w.Completion, 5)
	assert.Equal(t, HatchDot, w.OpenHoles[1].Hatch)
	require.NotNil(t, w.Casings[0].InstallDate)
	assert.Equal(t, civil.Date{Year: 2019, Month: time.March, Day: 2}, *w.Casings[0].InstallDate)

	body, err := json.Marshal(w)
	require.NoError(t, err)
	again, err := NewDecoder(Strict).DecodeJSON(body)
	require.NoError(t, err)
	assert.Equal(t, w, again)
}

func TestDecoder_YAMLStrictness(t *testing.T) {
	doc := []byte("open_holes:\n  - name: oh\n    top: 0\n    bottom: 100\n    diameter: 8\n    rugosity: 3\n")

	_, err := NewDecoder(Strict).DecodeYAML(doc)
	assert.ErrorIs(t, err, ErrUnknownField)

	w, err := NewDecoder(Lenient).DecodeYAML(doc)
	require.NoError(t, err)
	assert.Equal(t, 8.0, w.OpenHoles[0].Diameter)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("lenient")
	require.NoError(t, err)
	assert.Equal(t, Lenient, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Strict, m)

	_, err = ParseMode("sometimes")
	assert.Error(t, err)
}

func TestColorHex(t *testing.T) {
	tests := map[Color]string{
		"#cfd4d3": "#cfd4d3",
		"#ABC":    "#aabbcc",
		"Black":   "#000000",
		"crimson": "#dc143c",
	}
	for in, want := range tests {
		got, err := in.Hex()
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := Color("#12345").Hex()
	assert.Error(t, err)
	_, err = Color("").Hex()
	assert.Error(t, err)
}

func TestParseHatch(t *testing.T) {
	tests := map[string]Hatch{
		"":           HatchNone,
		"none":       HatchNone,
		".":          HatchDot,
		"*":          HatchAsterisk,
		"..":         HatchDoubleDot,
		"double-dot": HatchDoubleDot,
		"double_dot": HatchDoubleDot,
		"xx":         HatchCross,
		"|":          HatchBar,
		"asterisk":   HatchAsterisk,
	}
	for in, want := range tests {
		got, err := ParseHatch(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseHatch("//")
	assert.Error(t, err)
	assert.Equal(t, "xx", HatchCross.Symbol())
	assert.Equal(t, "..", HatchDoubleDot.Symbol())
}

func TestCompletionAccessors(t *testing.T) {
	tb, err := NewTubing("tb", 0, 900, 4.5)
	require.NoError(t, err)
	item := TubingItem(tb)

	assert.Equal(t, 4.5, item.Diameter())
	assert.Equal(t, 900.0, item.Section().Bottom)
	color, hatch := item.Style()
	assert.Equal(t, Color("#828783"), color)
	assert.Equal(t, HatchNone, hatch)

	body, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"type":"tubing"`)

	var back Completion
	require.NoError(t, json.Unmarshal(body, &back))
	assert.Equal(t, item, back)
}
