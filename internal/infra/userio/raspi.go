package userio

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/infra/gpio"
	"github.com/osa030/19booth/internal/infra/settings"
)

func init() {
	Register("raspi", newRaspiFromSettings)
}

// PinPair is the BCM button and LED pin of one rail position.
type PinPair struct {
	Button int `mapstructure:"button" validate:"gte=0,lte=27"`
	LED    int `mapstructure:"led" validate:"gte=0,lte=27"`
}

// RaspiConfig represents the settings of the raspi backend.
type RaspiConfig struct {
	Mock   bool    `mapstructure:"mock"`
	Green  PinPair `mapstructure:"green" default:"{\"button\":23,\"led\":18}"`
	Blue   PinPair `mapstructure:"blue" default:"{\"button\":25,\"led\":24}"`
	Yellow PinPair `mapstructure:"yellow" default:"{\"button\":16,\"led\":12}"`
	Red    PinPair `mapstructure:"red" default:"{\"button\":21,\"led\":20}"`
}

// pins returns the pin pairs indexed by rail position.
func (c RaspiConfig) pins() [device.LedCount]PinPair {
	var p [device.LedCount]PinPair
	p[ButtonRed] = c.Red
	p[ButtonBlue] = c.Blue
	p[ButtonYellow] = c.Yellow
	p[ButtonGreen] = c.Green
	return p
}

// Raspi reads push buttons with falling edge detection and drives LEDs on
// the GPIO header.
type Raspi struct {
	driver gpio.Driver
	pins   [device.LedCount]PinPair
}

func newRaspiFromSettings(in map[string]any) (Source, error) {
	var cfg RaspiConfig
	if err := settings.Decode(in, &cfg); err != nil {
		return nil, err
	}
	driver, err := gpio.NewDriver(cfg.Mock)
	if err != nil {
		return nil, err
	}
	r, err := NewRaspi(driver, cfg)
	if err != nil {
		_ = driver.Close()
		return nil, err
	}
	return r, nil
}

// NewRaspi configures the pins of cfg on driver.
func NewRaspi(driver gpio.Driver, cfg RaspiConfig) (*Raspi, error) {
	r := &Raspi{driver: driver, pins: cfg.pins()}
	for i, p := range r.pins {
		if err := driver.SetupPin(p.Button, gpio.InputPullUp); err != nil {
			return nil, errors.Wrapf(err, "button %s", device.LedType(i))
		}
		if err := driver.WatchFalling(p.Button); err != nil {
			return nil, errors.Wrapf(err, "button %s", device.LedType(i))
		}
		if err := driver.SetupPin(p.LED, gpio.Output); err != nil {
			return nil, errors.Wrapf(err, "led %s", device.LedType(i))
		}
	}
	return r, nil
}

func (r *Raspi) Poll() (Presses, error) {
	var p Presses
	for i, pin := range r.pins {
		edge, err := r.driver.FallingEdge(pin.Button)
		if err != nil {
			return p, err
		}
		p[i] = edge
	}
	return p, nil
}

func (r *Raspi) WriteLeds(leds Leds) error {
	var errs error
	for i, state := range leds {
		level := gpio.Low
		if state == device.LedOn {
			level = gpio.High
		}
		errs = errors.CombineErrors(errs, r.driver.WritePin(r.pins[i].LED, level))
	}
	return errs
}

func (r *Raspi) Close() error {
	for _, p := range r.pins {
		_ = r.driver.WritePin(p.LED, gpio.Low)
	}
	return r.driver.Close()
}
