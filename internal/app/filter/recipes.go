package filter

import (
	"fmt"
	"image"
)

func init() {
	Register("gotham", func() Filter {
		return &recipe{
			name:        "gotham",
			description: "Cold desaturated blue cast with hard contrast",
			steps: func(image.Point) []Step {
				return []Step{{In,
					"-modulate", "120,10,100",
					"-fill", "#222b6d", "-colorize", "20",
					"-gamma", "0.5",
					"-contrast", "-contrast",
					Out}}
			},
		}
	})

	Register("toaster", func() Filter {
		return &recipe{
			name:        "toaster",
			description: "Warm burnt center with bright faded highlights",
			steps: func(size image.Point) []Step {
				return []Step{
					colortone("#330000", 100, false),
					{In, "-modulate", "150,80,100", "-gamma", "1.2", "-contrast", "-contrast", Out},
					colortone("#fefefe", 100, true),
					vignetteStep(size, "none", "LavenderBlush3"),
				}
			},
		}
	})

	Register("nashville", func() Filter {
		return &recipe{
			name:        "nashville",
			description: "Pink and cream tinted retro look",
			steps: func(image.Point) []Step {
				return []Step{
					colortone("#222b6d", 100, false),
					colortone("#f7daae", 100, true),
					{In, "-contrast", "-modulate", "100,150,100", "-auto-gamma", Out},
				}
			},
		}
	})

	Register("lomo", func() Filter {
		return &recipe{
			name:        "lomo",
			description: "Saturated red and green channels with a dark vignette",
			steps: func(size image.Point) []Step {
				return []Step{
					{In, "-channel", "R", "-level", "33%", "-channel", "G", "-level", "33%", "+channel", Out},
					vignetteStep(size, "none", "black"),
				}
			},
		}
	})

	Register("kelvin", func() Filter {
		return &recipe{
			name:        "kelvin",
			description: "Strong orange warmth",
			steps: func(size image.Point) []Step {
				return []Step{{
					"(", In, "-auto-gamma", "-modulate", "120,50,100", ")",
					"(", "-size", geometry(size), "-fill", "rgba(255,153,0,0.5)",
					"-draw", fmt.Sprintf("rectangle 0,0 %d,%d", size.X, size.Y), ")",
					"-compose", "multiply", "-composite",
					Out,
				}}
			},
		}
	})

	Register("blackwhite", func() Filter {
		return &recipe{
			name:        "blackwhite",
			description: "High contrast black and white",
			steps: func(image.Point) []Step {
				return []Step{{In, "-colorspace", "gray", "-sigmoidal-contrast", "3,50%", Out}}
			},
		}
	})
}
