package workflow

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/domain/photo"
)

// MaxFilters is the number of filters shown next to the original.
const MaxFilters = 3

const thumbQuality = 85

type filterOption struct {
	id    string // empty for the original
	thumb image.Image
}

// FilterSelect lets the user pick a filter for the last photo from a
// 2x2 grid of previews.
type FilterSelect struct {
	*Base
	engine   device.FilterEngine
	filters  []string
	options  []filterOption
	selected int
	errText  string
}

// NewFilterSelect creates the filter selection state. Only the first
// MaxFilters filters are offered.
func NewFilterSelect(link Link, engine device.FilterEngine, filters []string) *FilterSelect {
	if len(filters) > MaxFilters {
		zlog.Warn().Msgf("filter: only the first %d of %d filters are offered", MaxFilters, len(filters))
		filters = filters[:MaxFilters]
	}
	link.Counter = Disabled
	s := &FilterSelect{engine: engine, filters: filters}
	s.Base = NewBase(link, nil)
	return s
}

func (s *FilterSelect) OnEnter() error {
	c := s.c
	s.selected = 0
	s.errText = ""
	s.options = nil

	last := c.session.LastPhoto()
	if last.IsZero() {
		return errors.New("no photo to filter")
	}

	err := c.RunBusy(c.T("creating_previews", nil), func() error {
		return s.buildPreviews(last)
	})
	if err != nil {
		zlog.Warn().Msgf("filter: preview generation: %v", err)
		s.errText = c.T("filter_failed", map[string]any{"Error": err.Error()})
	}
	if len(s.options) == 0 {
		return err
	}
	return nil
}

// buildPreviews renders every filter on a shrunk copy of the photo so the
// full resolution image is decoded only once.
func (s *FilterSelect) buildPreviews(last photo.Artifact) error {
	c := s.c
	screen := c.session.Screen()
	cell := image.Pt(screen.X/2, screen.Y/2)
	small := photo.Fit(last.Image, cell)
	s.options = []filterOption{{thumb: small}}

	dir := c.session.TempDirectory()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create temp directory")
	}
	src := filepath.Join(dir, "preview.jpg")
	if err := photo.SaveJPEG(small, src, thumbQuality); err != nil {
		return err
	}

	var errs error
	for i, id := range s.filters {
		out := filepath.Join(dir, fmt.Sprintf("preview_%d_%s.jpg", i, id))
		if err := s.engine.ApplyNamedFilter(context.Background(), src, id, out, cell); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "preview %s", id))
			continue
		}
		img, err := photo.Decode(out)
		if err != nil {
			errs = errors.CombineErrors(errs, err)
			continue
		}
		s.options = append(s.options, filterOption{id: id, thumb: img})
	}
	return errs
}

func (s *FilterSelect) OnTick() error {
	c := s.c
	n := len(s.options)
	if n == 0 {
		return s.SwitchFailure()
	}
	switch {
	case c.io.CancelPressed():
		return s.SwitchFailure()
	case c.io.AcceptPressed():
		return s.apply()
	case c.io.NextPressed():
		s.selected = (s.selected + 1) % n
	case c.io.PrevPressed():
		s.selected = (s.selected - 1 + n) % n
	}
	s.draw()
	return nil
}

// apply runs the selected filter on the full resolution photo.
func (s *FilterSelect) apply() error {
	c := s.c
	opt := s.options[s.selected]
	if opt.id == "" {
		return s.SwitchNext()
	}

	last := c.session.LastPhoto()
	out := photo.DerivedPath(last.Path, opt.id)
	var filtered photo.Artifact
	err := c.RunBusy(c.T("applying_filter", nil), func() error {
		if err := s.engine.ApplyNamedFilter(context.Background(), last.Path, opt.id, out, image.Point{}); err != nil {
			return err
		}
		a, err := photo.Load(out)
		filtered = a
		return err
	})
	if err != nil {
		zlog.Error().Msgf("filter: %s failed: %v", opt.id, err)
		s.errText = c.T("filter_failed", map[string]any{"Error": err.Error()})
		s.timer.Arm(c.Now())
		return nil
	}

	zlog.Info().Msgf("filter: applied %s: %s", opt.id, out)
	c.SetLastPhoto(filtered)
	c.publish(Event{Type: EventPhotoFiltered, State: s.id, Path: out, Detail: opt.id})
	return s.SwitchNext()
}

func (s *FilterSelect) draw() {
	c := s.c
	d := c.display
	d.Clear(colorBackground)
	b := d.Bounds()
	w, h := b.Dx()/2, b.Dy()/2
	for i, opt := range s.options {
		cell := image.Rect(0, 0, w, h).Add(b.Min).Add(image.Pt((i%2)*w, (i/2)*h))
		if i == s.selected {
			d.Fill(cell, colorHighlight)
		}
		inner := cell.Inset(8)
		d.Blit(opt.thumb, fitInto(opt.thumb.Bounds().Size(), inner))

		label := opt.id
		if label == "" {
			label = c.T("filter_original", nil)
		}
		at := image.Pt((cell.Min.X+cell.Max.X)/2, cell.Max.Y-24)
		d.Text(label, at, device.TextStyle{Size: device.TextSmall, Color: colorText, Centered: true})
	}
	if s.errText != "" {
		c.drawCenter(s.errText, device.TextInfo, colorError)
	}
}

// Selected returns the index of the highlighted option. 0 is the original.
func (s *FilterSelect) Selected() int { return s.selected }

// ErrorText returns the last filter error shown to the user.
func (s *FilterSelect) ErrorText() string { return s.errText }
