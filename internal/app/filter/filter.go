// Package filter provides the named photo filters. A filter is a recipe of
// ImageMagick convert invocations.
package filter

import (
	"fmt"
	"image"
	"sort"

	"github.com/cockroachdb/errors"
)

// Placeholders replaced with file paths when a step runs.
const (
	In  = "{in}"
	Out = "{out}"
)

// Step is the argument list of one convert invocation.
type Step []string

// Filter is the interface for named photo filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// Configure applies the filter's settings block.
	Configure(settings map[string]any) error
	// Steps returns the convert invocations for an image of size.
	Steps(size image.Point) []Step
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}

// Names returns the registered filter names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the filter registered as name and configures it.
func New(name string, settings map[string]any) (Filter, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, errors.Newf("unknown filter: %s", name)
	}
	f := factory()
	if err := f.Configure(settings); err != nil {
		return nil, errors.Wrapf(err, "invalid settings for filter %s", name)
	}
	return f, nil
}

// recipe is a filter without settings.
type recipe struct {
	name        string
	description string
	steps       func(size image.Point) []Step
}

func (r *recipe) Name() string                  { return r.name }
func (r *recipe) Description() string           { return r.description }
func (r *recipe) Configure(map[string]any) error { return nil }
func (r *recipe) Steps(size image.Point) []Step { return r.steps(size) }

// geometry formats a size as WxH.
func geometry(size image.Point) string {
	return fmt.Sprintf("%dx%d", size.X, size.Y)
}

// colortone tints the image with c. negate tints the highlights instead
// of the shadows.
func colortone(c string, level int, negate bool) Step {
	mask := []string{"(", "-clone", "0", "-colorspace", "gray"}
	if negate {
		mask = append(mask, "-negate")
	}
	mask = append(mask, ")")

	s := Step{In, "(", "-clone", "0", "-fill", c, "-colorize", "100%", ")"}
	s = append(s, mask...)
	s = append(s,
		"-compose", "blend",
		"-define", fmt.Sprintf("compose:args=%d,%d", level, 100-level),
		"-composite", Out,
	)
	return s
}
