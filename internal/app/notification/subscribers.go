package notification

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19booth/internal/app/workflow"
	"github.com/osa030/19booth/internal/infra/metrics"
)

// MetricsStream records workflow events as Prometheus counters.
type MetricsStream struct{}

func (MetricsStream) Send(n *Notification) error {
	e := n.Event
	switch e.Type {
	case workflow.EventStateChanged:
		metrics.Transition(e.Prev.String(), e.State.String())
	case workflow.EventStateFault:
		metrics.Fault(e.State.String())
	case workflow.EventPhotoTaken:
		metrics.PhotoTaken()
	case workflow.EventPhotoFiltered:
		metrics.PhotoFiltered(e.Detail)
	case workflow.EventPhotoPrinted:
		metrics.PrintResult(true)
	case workflow.EventPrintFailed:
		metrics.PrintResult(false)
	}
	return nil
}

// LogStream writes workflow events to the debug log.
type LogStream struct{}

func (LogStream) Send(n *Notification) error {
	e := n.Event
	zlog.Debug().Msgf("event: seq=%d type=%s state=%s prev=%s path=%s detail=%s",
		n.SequenceNo, e.Type, e.State, e.Prev, e.Path, e.Detail)
	return nil
}
