package gpio

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPiDriver drives the Raspberry Pi header through go-rpio.
type RPiDriver struct {
	pins    map[int]rpio.Pin
	watched map[int]bool
}

// NewRPiDriver memory-maps the GPIO registers.
// Requires /dev/gpiomem access or root.
func NewRPiDriver() (*RPiDriver, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "failed to open GPIO (are you running on a Raspberry Pi?)")
	}
	zlog.Info().Msg("gpio: registers mapped")
	return &RPiDriver{
		pins:    make(map[int]rpio.Pin),
		watched: make(map[int]bool),
	}, nil
}

func (r *RPiDriver) SetupPin(pin int, mode PinMode) error {
	p := rpio.Pin(pin)
	switch mode {
	case Input:
		p.Input()
	case InputPullUp:
		p.Input()
		p.PullUp()
	case Output:
		p.Output()
	default:
		return errors.Newf("unknown pin mode: %d", mode)
	}
	r.pins[pin] = p
	return nil
}

func (r *RPiDriver) pin(pin int, mode PinMode) (rpio.Pin, error) {
	if p, ok := r.pins[pin]; ok {
		return p, nil
	}
	if err := r.SetupPin(pin, mode); err != nil {
		return 0, err
	}
	return r.pins[pin], nil
}

func (r *RPiDriver) WritePin(pin int, level Level) error {
	p, err := r.pin(pin, Output)
	if err != nil {
		return err
	}
	if level == High {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

func (r *RPiDriver) ReadPin(pin int) (Level, error) {
	p, err := r.pin(pin, Input)
	if err != nil {
		return Low, err
	}
	return p.Read() == rpio.High, nil
}

func (r *RPiDriver) WatchFalling(pin int) error {
	p, err := r.pin(pin, InputPullUp)
	if err != nil {
		return err
	}
	p.Detect(rpio.FallEdge)
	r.watched[pin] = true
	return nil
}

func (r *RPiDriver) FallingEdge(pin int) (bool, error) {
	if !r.watched[pin] {
		return false, errors.Newf("pin %d is not watched", pin)
	}
	return r.pins[pin].EdgeDetected(), nil
}

// Close disables edge detection, returns all pins to input and unmaps the
// registers.
func (r *RPiDriver) Close() error {
	for pin, p := range r.pins {
		if r.watched[pin] {
			p.Detect(rpio.NoEdge)
		}
		p.Input()
	}
	return errors.Wrap(rpio.Close(), "failed to close GPIO")
}
