package workflow

import (
	"image"
	"math/rand/v2"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/domain/photo"
)

// PhotoStore lists and rotates photo directories.
type PhotoStore interface {
	List(dir string) ([]string, error)
	Rotate(dir string) (string, error)
}

// Slideshow cycles through the stored photos while the booth is idle.
type Slideshow struct {
	*Base
	store   PhotoStore
	logo    image.Image
	files   []string
	pending []int
	current image.Image
}

// NewSlideshow creates the slideshow state. The countdown in link is the
// time each photo stays on screen. logo may be nil.
func NewSlideshow(link Link, store PhotoStore, logo image.Image) *Slideshow {
	s := &Slideshow{store: store, logo: logo}
	s.Base = NewBase(link, s.advance)
	return s
}

func (s *Slideshow) OnEnter() error {
	c := s.c
	if c.camera != nil {
		if err := c.camera.SetIdle(); err != nil {
			zlog.Warn().Msgf("slideshow: camera idle: %v", err)
		}
	}

	files, err := s.store.List(c.session.PhotoDirectory())
	if err != nil {
		zlog.Warn().Msgf("slideshow: listing photos: %v", err)
	}
	s.files = files
	s.pending = nil
	s.current = nil
	s.show()
	return nil
}

func (s *Slideshow) advance() error {
	s.show()
	s.timer.Arm(s.c.Now())
	return nil
}

// show loads the next photo. Every photo is shown once before any repeats.
func (s *Slideshow) show() {
	for len(s.files) > 0 {
		if len(s.pending) == 0 {
			s.pending = rand.Perm(len(s.files))
		}
		idx := s.pending[0]
		s.pending = s.pending[1:]

		img, err := photo.Decode(s.files[idx])
		if err != nil {
			zlog.Warn().Msgf("slideshow: skipping %s: %v", s.files[idx], err)
			s.files = append(s.files[:idx:idx], s.files[idx+1:]...)
			s.pending = nil
			continue
		}
		s.current = photo.Fit(img, s.c.session.Screen())
		return
	}
	s.current = nil
}

func (s *Slideshow) OnTick() error {
	c := s.c
	if c.io.AnyButtonPressed(true) {
		return s.SwitchNext()
	}

	c.drawFull(s.current)
	if s.current == nil {
		c.drawCenter(c.T("slideshow_empty", nil), device.TextInfo, colorText)
	}
	if s.logo != nil {
		b := c.display.Bounds()
		size := s.logo.Bounds().Size()
		c.display.Blit(s.logo, image.Rect(b.Max.X-size.X-20, b.Min.Y+20, b.Max.X-20, b.Min.Y+20+size.Y))
	}
	c.drawFooter(c.T("slideshow_hint", nil), colorText)
	return nil
}

// Files returns the photos the slideshow cycles through.
func (s *Slideshow) Files() []string { return s.files }
