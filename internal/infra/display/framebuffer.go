package display

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19booth/internal/infra/settings"
)

// FramebufferConfig represents the settings of the framebuffer backend.
type FramebufferConfig struct {
	Device       string `mapstructure:"device" default:"/dev/fb0" validate:"required"`
	BitsPerPixel int    `mapstructure:"bits_per_pixel" default:"32" validate:"oneof=16 32"`
}

// Framebuffer writes frames to a Linux framebuffer device.
type Framebuffer struct {
	config FramebufferConfig
	file   *os.File
	buf    []byte
}

// OpenFramebuffer opens the framebuffer device for a screen of size.
func OpenFramebuffer(size image.Point, in map[string]any) (*Framebuffer, error) {
	var cfg FramebufferConfig
	if err := settings.Decode(in, &cfg); err != nil {
		return nil, errors.Wrap(err, "invalid framebuffer settings")
	}
	f, err := os.OpenFile(cfg.Device, os.O_WRONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", cfg.Device)
	}
	return &Framebuffer{
		config: cfg,
		file:   f,
		buf:    make([]byte, size.X*size.Y*cfg.BitsPerPixel/8),
	}, nil
}

func (fb *Framebuffer) Write(frame *image.RGBA) error {
	encode(fb.buf, frame, fb.config.BitsPerPixel)
	if _, err := fb.file.WriteAt(fb.buf, 0); err != nil {
		return errors.Wrapf(err, "failed to write %s", fb.config.Device)
	}
	return nil
}

func (fb *Framebuffer) Close() error {
	return fb.file.Close()
}

// encode converts frame into BGRA (32 bpp) or RGB565 (16 bpp) pixels.
func encode(dst []byte, frame *image.RGBA, bpp int) {
	b := frame.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := frame.Pix[frame.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			r, g, bl := row[x*4], row[x*4+1], row[x*4+2]
			switch bpp {
			case 16:
				if i+2 > len(dst) {
					return
				}
				v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(bl>>3)
				dst[i], dst[i+1] = byte(v), byte(v>>8)
				i += 2
			default:
				if i+4 > len(dst) {
					return
				}
				dst[i], dst[i+1], dst[i+2], dst[i+3] = bl, g, r, 0xff
				i += 4
			}
		}
	}
}

func init() {
	Register("framebuffer", func(size image.Point, settings map[string]any) (Sink, error) {
		return OpenFramebuffer(size, settings)
	})
}

// ScreenSize reads the resolution of a framebuffer device from sysfs.
func ScreenSize(device string) (image.Point, error) {
	return screenSize("/sys/class/graphics", device)
}

func screenSize(sysfs, device string) (image.Point, error) {
	path := filepath.Join(sysfs, filepath.Base(device), "virtual_size")
	data, err := os.ReadFile(path)
	if err != nil {
		return image.Point{}, errors.Wrapf(err, "failed to read %s", path)
	}
	var w, h int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(data)), "%d,%d", &w, &h); err != nil {
		return image.Point{}, errors.Wrapf(err, "malformed %s", path)
	}
	if w <= 0 || h <= 0 {
		return image.Point{}, errors.Newf("invalid screen size %dx%d", w, h)
	}
	return image.Pt(w, h), nil
}
