package workflow

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	zlog "github.com/rs/zerolog/log"
)

// RetryConfig bounds the camera reconnect backoff.
type RetryConfig struct {
	Initial time.Duration
	Max     time.Duration
}

// CameraWait retries camera initialization until it succeeds.
type CameraWait struct {
	*Base
	admin StateID
	retry *backoff.ExponentialBackOff
}

// NewCameraWait creates the waiting-for-camera state. The admin combo
// diverts to admin when it is not StateNone.
func NewCameraWait(link Link, admin StateID, retry RetryConfig) *CameraWait {
	b := backoff.NewExponentialBackOff()
	if retry.Initial > 0 {
		b.InitialInterval = retry.Initial
	}
	if retry.Max > 0 {
		b.MaxInterval = retry.Max
	}
	b.MaxElapsedTime = 0

	link.Counter = Disabled
	s := &CameraWait{admin: admin, retry: b}
	s.Base = NewBase(link, nil)
	return s
}

func (s *CameraWait) OnEnter() error {
	s.retry.Reset()
	return nil
}

func (s *CameraWait) OnTick() error {
	c := s.c
	if s.admin != StateNone && c.io.AdminComboPressed() {
		return s.SwitchTo(s.admin)
	}

	if err := c.InitCamera(); err != nil {
		wait := s.retry.NextBackOff()
		zlog.Warn().Msgf("camera: not ready, retrying in %v: %v", wait, err)
		c.showError(c.T("camera_not_connected", map[string]any{"Error": err.Error()}))
		if perr := c.display.Present(); perr != nil {
			zlog.Debug().Msgf("camera: present failed: %v", perr)
		}
		c.Sleep(wait)
		return nil
	}
	return s.SwitchNext()
}
