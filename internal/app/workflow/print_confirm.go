package workflow

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
)

// PrintConfirm asks whether the last photo should be printed.
type PrintConfirm struct {
	*Base
	transport device.PrintTransport
	errText   string
}

// NewPrintConfirm creates the print state. The countdown in link is the
// time the question stays on screen.
func NewPrintConfirm(link Link, transport device.PrintTransport) *PrintConfirm {
	s := &PrintConfirm{transport: transport}
	s.Base = NewBase(link, func() error { return s.SwitchNext() })
	return s
}

func (s *PrintConfirm) OnEnter() error {
	s.errText = ""
	return nil
}

func (s *PrintConfirm) OnTick() error {
	c := s.c
	switch {
	case c.io.CancelPressed():
		return s.SwitchNext()
	case c.io.AcceptPressed():
		return s.print()
	}

	c.drawFull(c.session.LastPhotoResized())
	c.drawInfo(c.T("print_question", nil))
	c.drawFooter(c.T("print_hint", nil), colorAccept)
	if s.errText != "" {
		c.drawCenter(s.errText, device.TextInfo, colorError)
	}
	return nil
}

func (s *PrintConfirm) print() error {
	c := s.c
	last := c.session.LastPhoto()
	err := c.RunBusy(c.T("printing", nil), func() error {
		if last.Path == "" {
			return errors.New("no photo to print")
		}
		return s.transport.PrintPhoto(context.Background(), last.Path)
	})
	if err != nil {
		zlog.Error().Msgf("print: %v", err)
		s.errText = c.T("print_failed", map[string]any{"Error": err.Error()})
		c.publish(Event{Type: EventPrintFailed, State: s.id, Path: last.Path, Detail: err.Error()})
		s.timer.Arm(c.Now())
		return nil
	}

	zlog.Info().Msgf("print: sent %s", last.Path)
	c.publish(Event{Type: EventPhotoPrinted, State: s.id, Path: last.Path})
	return s.SwitchNext()
}

// ErrorText returns the last print error shown to the user.
func (s *PrintConfirm) ErrorText() string { return s.errText }
