package schema

import _ "embed"

//go:embed sample.yaml
var sampleWellYAML []byte

// SampleWellYAML returns the built-in sample well document.
func SampleWellYAML() []byte {
	out := make([]byte, len(sampleWellYAML))
	copy(out, sampleWellYAML)
	return out
}

// NewSampleWell decodes the built-in sample well.
func NewSampleWell() (*WellSchema, error) {
	return NewDecoder(Strict).DecodeYAML(sampleWellYAML)
}
