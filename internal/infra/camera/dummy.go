package camera

import (
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/domain/photo"
	"github.com/osa030/19booth/internal/infra/settings"
)

func init() {
	Register("dummy", func(in map[string]any) (device.Camera, error) {
		var cfg DummyConfig
		if err := settings.Decode(in, &cfg); err != nil {
			return nil, err
		}
		return NewDummy(cfg), nil
	})
}

// DummyConfig represents the settings of the dummy backend.
type DummyConfig struct {
	Width            int `mapstructure:"width" default:"1600" validate:"gte=16"`
	Height           int `mapstructure:"height" default:"1200" validate:"gte=16"`
	PreviewWidth     int `mapstructure:"preview_width" default:"640" validate:"gte=16"`
	PreviewHeight    int `mapstructure:"preview_height" default:"480" validate:"gte=16"`
	FailPreviewEvery int `mapstructure:"fail_preview_every" validate:"gte=0"` // 0 never fails
	Quality          int `mapstructure:"quality" default:"90" validate:"gte=1,lte=100"`
}

// Dummy generates moving gradient frames. It needs no hardware.
type Dummy struct {
	cfg DummyConfig
	now func() time.Time

	mu        sync.Mutex
	frames    int
	idle      bool
	autofocus bool
	closed    bool
}

// NewDummy creates a dummy camera.
func NewDummy(cfg DummyConfig) *Dummy {
	return &Dummy{cfg: cfg, now: time.Now}
}

func (d *Dummy) SetMemoryCaptureMode() error { return nil }

func (d *Dummy) SetIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.idle = true
	return nil
}

func (d *Dummy) EnableLiveAutofocus() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.autofocus = true
	return nil
}

func (d *Dummy) DisableLiveAutofocus() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.autofocus = false
	return nil
}

func (d *Dummy) Preview() (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.Mark(errors.New("camera closed"), device.ErrPreviewUnavailable)
	}
	d.frames++
	d.idle = false
	if n := d.cfg.FailPreviewEvery; n > 0 && d.frames%n == 0 {
		return nil, errors.Mark(errors.Newf("simulated preview failure at frame %d", d.frames), device.ErrPreviewUnavailable)
	}
	return gradient(d.cfg.PreviewWidth, d.cfg.PreviewHeight, d.frames), nil
}

func (d *Dummy) TakePhoto(dir string) (photo.Artifact, error) {
	d.mu.Lock()
	frame := d.frames
	d.mu.Unlock()

	img := gradient(d.cfg.Width, d.cfg.Height, frame)
	path := photo.NewPath(dir, d.now())
	if err := photo.SaveJPEG(img, path, d.cfg.Quality); err != nil {
		return photo.Artifact{}, errors.Mark(err, device.ErrCaptureFailed)
	}
	return photo.Artifact{Image: img, Path: path}, nil
}

func (d *Dummy) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// gradient draws a diagonal color ramp shifted by frame.
func gradient(w, h, frame int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	shift := frame * 8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x*255/w + shift) % 256),
				G: uint8((y*255/h + shift/2) % 256),
				B: uint8(((x + y) * 255 / (w + h)) % 256),
				A: 255,
			})
		}
	}
	return img
}
