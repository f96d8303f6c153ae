package printer

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/infra/config"
)

// NewChainFromConfig creates a transport chain from configuration.
func NewChainFromConfig(cfg config.PrintConfig) (*Chain, error) {
	var transports []TransportWithMetadata

	for i, tcfg := range cfg.Transports {
		zlog.Debug().Msgf("printer: creating transport: index=%d type=%s", i+1, tcfg.Type)
		t, err := New(tcfg.Type, tcfg.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create transport (index %d, type %s)", i, tcfg.Type)
		}

		name := tcfg.DisplayName
		if name == "" {
			name = tcfg.Type
		}
		transports = append(transports, TransportWithMetadata{
			Transport:   t,
			DisplayName: name,
		})
		zlog.Info().Msgf("printer: registered transport: index=%d type=%s display_name=%s", i+1, tcfg.Type, name)
	}

	return NewChain(transports), nil
}
