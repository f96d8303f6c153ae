package display

import (
	"image"
	"image/png"
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19booth/internal/infra/settings"
)

// HeadlessConfig represents the settings of the headless backend.
type HeadlessConfig struct {
	SnapshotPath string `mapstructure:"snapshot_path"`
	Every        int    `mapstructure:"every" default:"30" validate:"gte=1"`
}

// Headless keeps frames in memory and optionally saves every n-th frame
// as a PNG.
type Headless struct {
	config HeadlessConfig

	mu     sync.Mutex
	last   *image.RGBA
	frames int
}

// NewHeadless creates a headless sink.
func NewHeadless(in map[string]any) (*Headless, error) {
	var cfg HeadlessConfig
	if err := settings.Decode(in, &cfg); err != nil {
		return nil, errors.Wrap(err, "invalid headless settings")
	}
	return &Headless{config: cfg}, nil
}

func (h *Headless) Write(frame *image.RGBA) error {
	h.mu.Lock()
	h.last = frame
	h.frames++
	n := h.frames
	h.mu.Unlock()

	if h.config.SnapshotPath == "" || (n-1)%h.config.Every != 0 {
		return nil
	}
	return writePNG(h.config.SnapshotPath, frame)
}

func (h *Headless) Close() error { return nil }

// Frames returns the number of frames written.
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

// Last returns the most recent frame, or nil.
func (h *Headless) Last() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

func writePNG(path string, img image.Image) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", tmp)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "failed to encode snapshot")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "failed to close %s", tmp)
	}
	return errors.Wrap(os.Rename(tmp, path), "failed to move snapshot")
}

func init() {
	Register("headless", func(_ image.Point, settings map[string]any) (Sink, error) {
		return NewHeadless(settings)
	})
}
