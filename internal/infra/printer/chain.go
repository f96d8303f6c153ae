package printer

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/domain/device"
)

// TransportWithMetadata wraps a transport with its display name.
type TransportWithMetadata struct {
	Transport   device.PrintTransport
	DisplayName string
}

// Chain tries transports in order until one delivers the photo.
type Chain struct {
	transports []TransportWithMetadata
}

// NewChain creates a new transport chain.
func NewChain(transports []TransportWithMetadata) *Chain {
	return &Chain{transports: transports}
}

// PrintPhoto implements device.PrintTransport. Unavailable transports are
// skipped. The error is marked ErrPrintUnavailable when no transport was
// available and ErrTransport when every available one failed.
func (c *Chain) PrintPhoto(ctx context.Context, path string) error {
	var errs error
	tried := 0
	for i, tm := range c.transports {
		if !tm.Transport.IsPrinterAvailable(ctx) {
			zlog.Debug().Msgf("printer: transport unavailable, trying next: index=%d name=%s", i+1, tm.DisplayName)
			continue
		}
		tried++
		if err := tm.Transport.PrintPhoto(ctx, path); err != nil {
			zlog.Warn().Msgf("printer: transport failed, trying next: name=%s error=%v", tm.DisplayName, err)
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "%s", tm.DisplayName))
			continue
		}
		zlog.Info().Msgf("printer: photo sent: name=%s path=%s", tm.DisplayName, path)
		return nil
	}

	if tried == 0 {
		return errors.Mark(errors.New("no print transport available"), device.ErrPrintUnavailable)
	}
	return errors.Mark(errors.Wrap(errs, "all print transports failed"), device.ErrTransport)
}

// IsPrinterAvailable reports whether any transport is available.
func (c *Chain) IsPrinterAvailable(ctx context.Context) bool {
	for _, tm := range c.transports {
		if tm.Transport.IsPrinterAvailable(ctx) {
			return true
		}
	}
	return false
}

// Len returns the number of transports in the chain.
func (c *Chain) Len() int {
	return len(c.transports)
}
