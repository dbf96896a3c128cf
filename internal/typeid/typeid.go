package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixWell     = "well"
	PrefixRevision = "rev"
	PrefixClient   = "client"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewWellID() string     { return New(PrefixWell) }
func NewRevisionID() string { return New(PrefixRevision) }
func NewClientID() string   { return New(PrefixClient) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
