package camera

import (
	"context"
	"image"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/domain/photo"
	"github.com/osa030/19booth/internal/infra/command"
	"github.com/osa030/19booth/internal/infra/settings"
)

func init() {
	Register("rpicam", func(in map[string]any) (device.Camera, error) {
		var cfg RPiCamConfig
		if err := settings.Decode(in, &cfg); err != nil {
			return nil, err
		}
		return NewRPiCam(cfg, command.Exec{}), nil
	})
}

// RPiCamConfig represents the settings of the rpicam backend.
type RPiCamConfig struct {
	Binary         string        `mapstructure:"binary" default:"rpicam-still" validate:"required"`
	PreviewWidth   int           `mapstructure:"preview_width" default:"640" validate:"gte=64"`
	PreviewHeight  int           `mapstructure:"preview_height" default:"480" validate:"gte=48"`
	Width          int           `mapstructure:"width" validate:"gte=0"`  // 0 keeps the sensor size
	Height         int           `mapstructure:"height" validate:"gte=0"` // 0 keeps the sensor size
	Rotation       int           `mapstructure:"rotation" validate:"oneof=0 180"`
	Quality        int           `mapstructure:"quality" default:"93" validate:"gte=1,lte=100"`
	PreviewTimeout time.Duration `mapstructure:"preview_timeout" default:"5s" validate:"gt=0"`
	CaptureTimeout time.Duration `mapstructure:"capture_timeout" default:"20s" validate:"gt=0"`
}

// RPiCam captures with the Raspberry Pi camera module through rpicam-still.
type RPiCam struct {
	cfg       RPiCamConfig
	runner    command.Runner
	autofocus bool
	now       func() time.Time
}

// NewRPiCam creates an rpicam camera.
func NewRPiCam(cfg RPiCamConfig, runner command.Runner) *RPiCam {
	return &RPiCam{cfg: cfg, runner: runner, now: time.Now}
}

func (c *RPiCam) baseArgs() []string {
	args := []string{"-n", "--immediate", "--encoding", "jpg"}
	if c.cfg.Rotation != 0 {
		args = append(args, "--rotation", strconv.Itoa(c.cfg.Rotation))
	}
	return args
}

func (c *RPiCam) run(timeout time.Duration, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.runner.Run(ctx, c.cfg.Binary, args...)
}

// SetMemoryCaptureMode is a no-op, captures are written by rpicam-still.
func (c *RPiCam) SetMemoryCaptureMode() error { return nil }

// SetIdle is a no-op, the sensor only runs during a capture.
func (c *RPiCam) SetIdle() error { return nil }

func (c *RPiCam) EnableLiveAutofocus() error {
	c.autofocus = true
	return nil
}

func (c *RPiCam) DisableLiveAutofocus() error {
	c.autofocus = false
	return nil
}

func (c *RPiCam) Preview() (image.Image, error) {
	args := append(c.baseArgs(),
		"--width", strconv.Itoa(c.cfg.PreviewWidth),
		"--height", strconv.Itoa(c.cfg.PreviewHeight),
		"--quality", "70",
		"-o", "-",
	)
	data, err := c.run(c.cfg.PreviewTimeout, args...)
	if err != nil {
		return nil, errors.Mark(err, device.ErrPreviewUnavailable)
	}
	img, err := decodeFrame(data)
	if err != nil {
		return nil, errors.Mark(err, device.ErrPreviewUnavailable)
	}
	return img, nil
}

func (c *RPiCam) TakePhoto(dir string) (photo.Artifact, error) {
	path := photo.NewPath(dir, c.now())
	args := append(c.baseArgs(), "--quality", strconv.Itoa(c.cfg.Quality))
	if c.cfg.Width > 0 && c.cfg.Height > 0 {
		args = append(args, "--width", strconv.Itoa(c.cfg.Width), "--height", strconv.Itoa(c.cfg.Height))
	}
	if c.autofocus {
		args = append(args, "--autofocus-on-capture")
	}
	args = append(args, "-o", path)

	if _, err := c.run(c.cfg.CaptureTimeout, args...); err != nil {
		return photo.Artifact{}, errors.Mark(err, device.ErrCaptureFailed)
	}
	a, err := photo.Load(path)
	if err != nil {
		return photo.Artifact{}, errors.Mark(err, device.ErrCaptureFailed)
	}
	return a, nil
}

func (c *RPiCam) Close() error { return nil }
