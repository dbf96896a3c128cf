package engine

import (
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
)

// ParseOptions builds Options from their textual forms as they arrive in
// query strings, CLI flags and websocket messages. Empty strings leave the
// corresponding option unset. top and bottom must be given together.
func ParseOptions(which, asOf, top, bottom string) (Options, error) {
	var opts Options

	cats, err := ParseCategories(which)
	if err != nil {
		return Options{}, err
	}
	opts.Which = cats

	if asOf = strings.TrimSpace(asOf); asOf != "" {
		d, err := civil.ParseDate(asOf)
		if err != nil {
			return Options{}, fmt.Errorf("as-of date %q: %w", asOf, err)
		}
		opts.AsOf = &d
	}

	top, bottom = strings.TrimSpace(top), strings.TrimSpace(bottom)
	switch {
	case top == "" && bottom == "":
	case top == "" || bottom == "":
		return Options{}, fmt.Errorf("%w: top and bottom must be set together", ErrInvalidLimits)
	default:
		t, err := strconv.ParseFloat(top, 64)
		if err != nil {
			return Options{}, fmt.Errorf("%w: top %q", ErrInvalidLimits, top)
		}
		b, err := strconv.ParseFloat(bottom, 64)
		if err != nil {
			return Options{}, fmt.Errorf("%w: bottom %q", ErrInvalidLimits, bottom)
		}
		if t > b {
			return Options{}, fmt.Errorf("%w: top %v below bottom %v", ErrInvalidLimits, t, b)
		}
		opts.Limits = &Limits{Top: t, Bottom: b}
	}

	return opts, nil
}
