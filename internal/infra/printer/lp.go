package printer

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19booth/internal/domain/device"
	"github.com/osa030/19booth/internal/infra/command"
	"github.com/osa030/19booth/internal/infra/settings"
)

// LPConfig represents the settings of the lp transport.
type LPConfig struct {
	Printer string   `mapstructure:"printer" validate:"required"`
	Options []string `mapstructure:"options"`
}

// LPTransport submits photos to a local CUPS queue.
type LPTransport struct {
	config LPConfig
	runner command.Runner
}

// NewLPTransport creates an lp transport from its settings block.
func NewLPTransport(in map[string]any, runner command.Runner) (*LPTransport, error) {
	var cfg LPConfig
	if err := settings.Decode(in, &cfg); err != nil {
		return nil, errors.Wrap(err, "invalid lp settings")
	}
	if runner == nil {
		runner = command.Exec{}
	}
	return &LPTransport{config: cfg, runner: runner}, nil
}

func (t *LPTransport) PrintPhoto(ctx context.Context, path string) error {
	args := []string{"-d", t.config.Printer}
	for _, o := range t.config.Options {
		args = append(args, "-o", o)
	}
	args = append(args, path)
	if _, err := t.runner.Run(ctx, "lp", args...); err != nil {
		return errors.Mark(err, device.ErrTransport)
	}
	return nil
}

// IsPrinterAvailable reports whether CUPS knows the queue.
func (t *LPTransport) IsPrinterAvailable(ctx context.Context) bool {
	_, err := t.runner.Run(ctx, "lpstat", "-p", t.config.Printer)
	return err == nil
}

func init() {
	Register("lp", func(settings map[string]any) (device.PrintTransport, error) {
		return NewLPTransport(settings, nil)
	})
}
