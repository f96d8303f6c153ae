package camera

import (
	"context"
	"image"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/domain/photo"
	"github.com/osa030/19booth/internal/infra/command"
	"github.com/osa030/19booth/internal/infra/settings"
)

func init() {
	Register("gphoto2", func(in map[string]any) (device.Camera, error) {
		var cfg GPhoto2Config
		if err := settings.Decode(in, &cfg); err != nil {
			return nil, err
		}
		return NewGPhoto2(cfg, command.Exec{}), nil
	})
}

// GPhoto2Config represents the settings of the gphoto2 backend.
type GPhoto2Config struct {
	Binary         string        `mapstructure:"binary" default:"gphoto2" validate:"required"`
	Port           string        `mapstructure:"port"` // e.g. usb:001,004, empty autodetects
	PreviewTimeout time.Duration `mapstructure:"preview_timeout" default:"5s" validate:"gt=0"`
	CaptureTimeout time.Duration `mapstructure:"capture_timeout" default:"30s" validate:"gt=0"`
}

// GPhoto2 drives a tethered DSLR through the gphoto2 command line tool.
type GPhoto2 struct {
	cfg    GPhoto2Config
	runner command.Runner
	now    func() time.Time
}

// NewGPhoto2 creates a gphoto2 camera.
func NewGPhoto2(cfg GPhoto2Config, runner command.Runner) *GPhoto2 {
	return &GPhoto2{cfg: cfg, runner: runner, now: time.Now}
}

func (g *GPhoto2) run(timeout time.Duration, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if g.cfg.Port != "" {
		args = append([]string{"--port", g.cfg.Port}, args...)
	}
	return g.runner.Run(ctx, g.cfg.Binary, args...)
}

func (g *GPhoto2) setConfig(entry string) error {
	_, err := g.run(g.cfg.PreviewTimeout, "--set-config", entry)
	return err
}

// SetMemoryCaptureMode stores captures on the memory card.
func (g *GPhoto2) SetMemoryCaptureMode() error {
	return g.setConfig("capturetarget=1")
}

// SetIdle turns the viewfinder off and lowers the mirror.
func (g *GPhoto2) SetIdle() error {
	return g.setConfig("viewfinder=0")
}

func (g *GPhoto2) EnableLiveAutofocus() error {
	return g.setConfig("autofocusdrive=1")
}

func (g *GPhoto2) DisableLiveAutofocus() error {
	return g.setConfig("autofocusdrive=0")
}

func (g *GPhoto2) Preview() (image.Image, error) {
	data, err := g.run(g.cfg.PreviewTimeout, "--capture-preview", "--stdout")
	if err != nil {
		return nil, errors.Mark(err, device.ErrPreviewUnavailable)
	}
	img, err := decodeFrame(data)
	if err != nil {
		return nil, errors.Mark(err, device.ErrPreviewUnavailable)
	}
	return img, nil
}

func (g *GPhoto2) TakePhoto(dir string) (photo.Artifact, error) {
	path := photo.NewPath(dir, g.now())
	start := time.Now()
	if _, err := g.run(g.cfg.CaptureTimeout, "--capture-image-and-download", "--force-overwrite", "--filename", path); err != nil {
		return photo.Artifact{}, errors.Mark(err, device.ErrCaptureFailed)
	}
	a, err := photo.Load(path)
	if err != nil {
		return photo.Artifact{}, errors.Mark(err, device.ErrCaptureFailed)
	}
	zlog.Debug().Msgf("camera: gphoto2 capture took=%v path=%s", time.Since(start), path)
	return a, nil
}

// Close releases nothing: every call is a separate gphoto2 process.
func (g *GPhoto2) Close() error { return nil }
