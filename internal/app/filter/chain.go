package filter

import (
	"image"
	"strings"
)

// Chain applies filters in sequence, e.g. a color recipe followed by a
// border.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

func (c *Chain) Name() string {
	names := make([]string, len(c.filters))
	for i, f := range c.filters {
		names[i] = f.Name()
	}
	return strings.Join(names, "+")
}

func (c *Chain) Description() string {
	descs := make([]string, len(c.filters))
	for i, f := range c.filters {
		descs[i] = f.Description()
	}
	return strings.Join(descs, ", then ")
}

// Configure is a no-op, chained filters are configured individually.
func (c *Chain) Configure(map[string]any) error { return nil }

// Steps concatenates the steps of all filters.
func (c *Chain) Steps(size image.Point) []Step {
	var steps []Step
	for _, f := range c.filters {
		steps = append(steps, f.Steps(size)...)
	}
	return steps
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}

// Parse builds the filter for a name such as "gotham+border". Each part
// is configured with settings[part].
func Parse(name string, settings map[string]any) (Filter, error) {
	parts := strings.Split(name, "+")
	if len(parts) == 1 {
		return New(name, section(settings, name))
	}
	chain := NewChain()
	for _, part := range parts {
		f, err := New(part, section(settings, part))
		if err != nil {
			return nil, err
		}
		chain.Add(f)
	}
	return chain, nil
}

func section(settings map[string]any, name string) map[string]any {
	if settings == nil {
		return nil
	}
	if m, ok := settings[name].(map[string]any); ok {
		return m
	}
	return nil
}
