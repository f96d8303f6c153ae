package workflow

import (
	"image"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
)

// TriggerWait shows the live preview until a button starts the countdown.
type TriggerWait struct {
	*Base
	timeout   StateID
	admin     StateID
	threshold int
	failures  int
	preview   image.Image
}

// NewTriggerWait creates the waiting-for-trigger state. The countdown in
// link is the idle timeout after which timeout becomes active. threshold
// consecutive preview failures are reported as a camera fault.
func NewTriggerWait(link Link, timeout, admin StateID, threshold int) *TriggerWait {
	if threshold < 1 {
		threshold = 1
	}
	s := &TriggerWait{timeout: timeout, admin: admin, threshold: threshold}
	s.Base = NewBase(link, s.onTimeout)
	return s
}

func (s *TriggerWait) onTimeout() error {
	if s.timeout == StateNone {
		s.timer.Arm(s.c.Now())
		return nil
	}
	return s.SwitchTo(s.timeout)
}

func (s *TriggerWait) OnEnter() error {
	s.failures = 0
	s.c.io.SetAllLeds(device.LedOn)
	return nil
}

func (s *TriggerWait) OnTick() error {
	c := s.c
	if s.admin != StateNone && c.io.AdminComboPressed() {
		return s.SwitchTo(s.admin)
	}
	if c.io.AnyButtonPressed(true) {
		return s.SwitchNext()
	}

	cam, err := c.Camera()
	if err != nil {
		return err
	}
	img, err := cam.Preview()
	if err != nil {
		s.failures++
		if s.failures >= s.threshold {
			return errors.Mark(errors.Wrapf(err, "%d consecutive preview failures", s.failures), ErrCameraFault)
		}
		zlog.Debug().Msgf("trigger: preview failed (%d/%d): %v", s.failures, s.threshold, err)
	} else {
		s.failures = 0
		s.preview = img
	}

	c.drawFull(s.preview)
	c.drawFooter(c.T("press_to_start", nil), colorText)
	return nil
}

// Failures returns the number of consecutive preview failures.
func (s *TriggerWait) Failures() int { return s.failures }
