package collab

import (
	"fmt"
	"strings"

	"github.com/wellschematic/wellschematic/internal/engine"
)

// ViewUpdatePayload changes the options a single client renders with.
type ViewUpdatePayload struct {
	Which  []string       `json:"which,omitempty"`
	AsOf   string         `json:"asOf,omitempty"`
	Limits *engine.Limits `json:"limits,omitempty"`
}

// Options validates the request and converts it to render options.
func (p ViewUpdatePayload) Options() (engine.Options, error) {
	opts, err := engine.ParseOptions(strings.Join(p.Which, ","), p.AsOf, "", "")
	if err != nil {
		return engine.Options{}, err
	}
	if p.Limits != nil {
		if p.Limits.Top > p.Limits.Bottom {
			return engine.Options{}, fmt.Errorf("%w: top %v below bottom %v", engine.ErrInvalidLimits, p.Limits.Top, p.Limits.Bottom)
		}
		limits := *p.Limits
		opts.Limits = &limits
	}
	return opts, nil
}
