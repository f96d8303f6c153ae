// Package imagemagick applies photo filters by running ImageMagick's
// convert tool.
package imagemagick

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/app/filter"
	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/domain/photo"
	"github.com/osa030/19booth/internal/infra/command"
	"github.com/osa030/19booth/internal/infra/settings"
)

// Config represents the engine settings block.
type Config struct {
	Binary  string         `mapstructure:"binary" default:"convert" validate:"required"`
	Timeout time.Duration  `mapstructure:"timeout" default:"60s" validate:"gt=0"`
	Recipes map[string]any `mapstructure:"recipes"`
}

// Engine implements device.FilterEngine.
type Engine struct {
	config Config
	runner command.Runner

	mu    sync.Mutex
	cache map[string]filter.Filter
}

// New creates an engine from its settings block.
func New(in map[string]any, runner command.Runner) (*Engine, error) {
	var cfg Config
	if err := settings.Decode(in, &cfg); err != nil {
		return nil, errors.Wrap(err, "invalid imagemagick settings")
	}
	if runner == nil {
		runner = command.Exec{Timeout: cfg.Timeout}
	}
	return &Engine{
		config: cfg,
		runner: runner,
		cache:  make(map[string]filter.Filter),
	}, nil
}

// Check resolves every filter id, returning the first that is unknown or
// misconfigured.
func (e *Engine) Check(ids []string) error {
	for _, id := range ids {
		if _, err := e.lookup(id); err != nil {
			return err
		}
	}
	return nil
}

// ApplyNamedFilter implements device.FilterEngine.
func (e *Engine) ApplyNamedFilter(ctx context.Context, input, filterID, output string, size image.Point) error {
	start := time.Now()
	if err := e.apply(ctx, input, filterID, output, size); err != nil {
		return errors.Mark(errors.Wrapf(err, "filter %s", filterID), device.ErrFilterFailed)
	}
	zlog.Debug().Msgf("imagemagick: applied %s to %s took=%v", filterID, filepath.Base(input), time.Since(start))
	return nil
}

func (e *Engine) apply(ctx context.Context, input, filterID, output string, size image.Point) error {
	f, err := e.lookup(filterID)
	if err != nil {
		return err
	}

	dims, err := imageSize(input)
	if err != nil {
		return err
	}

	work, err := os.MkdirTemp(filepath.Dir(output), ".filter-*")
	if err != nil {
		return errors.Wrap(err, "failed to create work directory")
	}
	defer os.RemoveAll(work)

	src := input
	if size != (image.Point{}) {
		dims = photo.FitRect(dims, size).Size()
		resized := filepath.Join(work, "resized.jpg")
		geom := fmt.Sprintf("%dx%d!", dims.X, dims.Y)
		if _, err := e.runner.Run(ctx, e.config.Binary, input, "-resize", geom, resized); err != nil {
			return errors.Wrap(err, "failed to resize input")
		}
		src = resized
	}

	for i, step := range f.Steps(dims) {
		out := filepath.Join(work, fmt.Sprintf("step_%d.jpg", i))
		if _, err := e.runner.Run(ctx, e.config.Binary, expand(step, src, out)...); err != nil {
			return errors.Wrapf(err, "step %d failed", i)
		}
		src = out
	}

	if src == input {
		return errors.Newf("filter %s has no steps", filterID)
	}
	if err := os.Rename(src, output); err != nil {
		return errors.Wrap(err, "failed to move result")
	}
	return nil
}

func (e *Engine) lookup(id string) (filter.Filter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if f, ok := e.cache[id]; ok {
		return f, nil
	}
	f, err := filter.Parse(id, e.config.Recipes)
	if err != nil {
		return nil, err
	}
	e.cache[id] = f
	return f, nil
}

// expand substitutes the placeholders of a step.
func expand(step filter.Step, in, out string) []string {
	args := make([]string, len(step))
	for i, a := range step {
		switch a {
		case filter.In:
			args[i] = in
		case filter.Out:
			args[i] = out
		default:
			args[i] = a
		}
	}
	return args
}

func imageSize(path string) (image.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Point{}, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, errors.Wrapf(err, "failed to read image header of %s", path)
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}
