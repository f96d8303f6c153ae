package workflow

import (
	"image"
	"strconv"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
)

// CountdownCapture counts down over the live preview and takes the photo
// when the countdown expires.
type CountdownCapture struct {
	*Base
	threshold int
	failures  int
	frozen    bool
	preview   image.Image
}

// NewCountdownCapture creates the countdown state. The countdown in link is
// the number of seconds before the shot.
func NewCountdownCapture(link Link, threshold int) *CountdownCapture {
	if threshold < 1 {
		threshold = 1
	}
	s := &CountdownCapture{threshold: threshold}
	s.Base = NewBase(link, s.takePhoto)
	return s
}

func (s *CountdownCapture) OnEnter() error {
	s.failures = 0
	s.frozen = false
	s.preview = nil

	cam, err := s.c.Camera()
	if err != nil {
		return err
	}
	if err := cam.EnableLiveAutofocus(); err != nil {
		zlog.Warn().Msgf("countdown: enabling autofocus failed: %v", err)
	}
	return nil
}

func (s *CountdownCapture) OnTick() error {
	c := s.c
	cam, err := c.Camera()
	if err != nil {
		return err
	}

	if c.io.CancelPressed() {
		if !s.frozen {
			_ = cam.DisableLiveAutofocus()
		}
		return s.SwitchLast()
	}

	if !s.frozen {
		img, err := cam.Preview()
		if err != nil {
			s.failures++
			if s.failures >= s.threshold {
				return errors.Mark(errors.Wrapf(err, "%d consecutive preview failures", s.failures), ErrCameraFault)
			}
		} else {
			s.failures = 0
			s.preview = img
		}
		// Last second: stop refocusing and hold the frame for a sharp shot.
		if s.timer.Value() <= 1 {
			if err := cam.DisableLiveAutofocus(); err != nil {
				zlog.Warn().Msgf("countdown: disabling autofocus failed: %v", err)
			}
			s.frozen = true
		}
	}

	c.drawFull(s.preview)
	c.drawCenter(strconv.Itoa(s.timer.Value()), device.TextHuge, colorText)
	c.io.ShowLedCountdown(s.timer.Value())
	return nil
}

func (s *CountdownCapture) takePhoto() error {
	c := s.c
	cam, err := c.Camera()
	if err != nil {
		return err
	}

	c.io.ShowLedCountdown(0)
	_ = c.io.Flush()
	c.drawFull(s.preview)
	_ = c.display.Present()

	a, err := cam.TakePhoto(c.session.PhotoDirectory())
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to take photo"), device.ErrCaptureFailed)
	}
	zlog.Info().Msgf("countdown: photo taken: %s", a.Path)
	c.SetLastPhoto(a)
	c.publish(Event{Type: EventPhotoTaken, State: s.id, Path: a.Path})

	c.io.SetAllLeds(device.LedOn)
	return s.SwitchNext()
}

// Frozen reports whether the preview is held for the final shot.
func (s *CountdownCapture) Frozen() bool { return s.frozen }
