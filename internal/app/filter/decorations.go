package filter

import (
	"fmt"
	"image"

	"github.com/osa030/19booth/internal/infra/settings"
)

// BorderConfig represents the settings of the border decoration.
type BorderConfig struct {
	Width int    `mapstructure:"width" default:"20" validate:"gte=1,lte=500"`
	Color string `mapstructure:"color" default:"black" validate:"required"`
}

// BorderFilter frames the photo with a solid border.
type BorderFilter struct {
	config BorderConfig
}

func (f *BorderFilter) Name() string { return "border" }

func (f *BorderFilter) Description() string { return "Solid frame around the photo" }

func (f *BorderFilter) Configure(in map[string]any) error {
	return settings.Decode(in, &f.config)
}

func (f *BorderFilter) Steps(image.Point) []Step {
	w := fmt.Sprintf("%dx%d", f.config.Width, f.config.Width)
	return []Step{{In, "-bordercolor", f.config.Color, "-border", w, Out}}
}

// VignetteConfig represents the settings of the vignette decoration.
type VignetteConfig struct {
	Inner string `mapstructure:"inner" default:"none" validate:"required"`
	Outer string `mapstructure:"outer" default:"black" validate:"required"`
}

// VignetteFilter darkens the corners with a radial gradient.
type VignetteFilter struct {
	config VignetteConfig
}

func (f *VignetteFilter) Name() string { return "vignette" }

func (f *VignetteFilter) Description() string { return "Radial darkening towards the corners" }

func (f *VignetteFilter) Configure(in map[string]any) error {
	return settings.Decode(in, &f.config)
}

func (f *VignetteFilter) Steps(size image.Point) []Step {
	return []Step{vignetteStep(size, f.config.Inner, f.config.Outer)}
}

func vignetteStep(size image.Point, inner, outer string) Step {
	g := geometry(size)
	return Step{
		"(", In, ")",
		"(", "-size", g, "radial-gradient:" + inner + "-" + outer,
		"-gravity", "center", "-crop", g + "+0+0", "+repage", ")",
		"-compose", "multiply", "-flatten",
		Out,
	}
}

func init() {
	Register("border", func() Filter { return &BorderFilter{} })
	Register("vignette", func() Filter { return &VignetteFilter{} })
}
