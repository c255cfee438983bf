// Package appearance defines the selectable cover finishes of the chair.
package appearance

import (
	"errors"
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownOption is returned when an option id is not in the catalog.
var ErrUnknownOption = errors.New("unknown appearance option")

// Option is one selectable combination of base color and surface finish.
// Options are values; nothing mutates them after construction.
type Option struct {
	ID        string
	Name      string
	Color     colorful.Color
	Roughness float64
	Metalness float64
}

// New validates and builds an option from a hex color.
func New(id, name, hex string, roughness, metalness float64) (Option, error) {
	if id == "" {
		return Option{}, errors.New("appearance option needs an id")
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Option{}, fmt.Errorf("option %s: color %q: %w", id, hex, err)
	}
	if roughness < 0 || roughness > 1 {
		return Option{}, fmt.Errorf("option %s: roughness %.3f outside [0,1]", id, roughness)
	}
	if metalness < 0 || metalness > 1 {
		return Option{}, fmt.Errorf("option %s: metalness %.3f outside [0,1]", id, metalness)
	}
	return Option{ID: id, Name: name, Color: c, Roughness: roughness, Metalness: metalness}, nil
}

func mustNew(id, name, hex string, roughness, metalness float64) Option {
	o, err := New(id, name, hex, roughness, metalness)
	if err != nil {
		panic(err)
	}
	return o
}

// Hex returns the base color as "#rrggbb".
func (o Option) Hex() string {
	return o.Color.Hex()
}

// String implements fmt.Stringer.
func (o Option) String() string {
	return fmt.Sprintf("%s (%s)", o.Name, o.Hex())
}

var catalog = []Option{
	mustNew("brown", "Cognac Brown", "#8B4513", 0.8, 0.1),
	mustNew("black", "Midnight Black", "#1a1a1a", 0.6, 0.3),
	mustNew("grey", "Stone Grey", "#7a7a7a", 0.9, 0.05),
}

// Options returns a copy of the catalog in display order.
func Options() []Option {
	out := make([]Option, len(catalog))
	copy(out, catalog)
	return out
}

// Default returns the first catalog option.
func Default() Option {
	return catalog[0]
}

// Lookup finds an option by id.
func Lookup(id string) (Option, error) {
	for _, o := range catalog {
		if o.ID == id {
			return o, nil
		}
	}
	return Option{}, fmt.Errorf("%w: %q", ErrUnknownOption, id)
}

// Next returns the option after id, wrapping around. Unknown ids yield Default.
func Next(id string) Option {
	return step(id, 1)
}

// Prev returns the option before id, wrapping around. Unknown ids yield Default.
func Prev(id string) Option {
	return step(id, -1)
}

func step(id string, delta int) Option {
	for i, o := range catalog {
		if o.ID == id {
			n := len(catalog)
			return catalog[((i+delta)%n+n)%n]
		}
	}
	return Default()
}
