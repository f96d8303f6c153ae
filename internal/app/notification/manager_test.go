package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19booth/internal/app/workflow"
)

type recordingStream struct {
	mu    sync.Mutex
	got   []*Notification
	err   error
	delay time.Duration
}

func (r *recordingStream) Send(n *Notification) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func (r *recordingStream) notifications() []*Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Notification(nil), r.got...)
}

func TestManager_Publish(t *testing.T) {
	m := NewManager()
	a := &recordingStream{}
	b := &recordingStream{err: errors.New("closed")}
	m.Subscribe(a)
	m.Subscribe(b)
	assert.Equal(t, 2, m.SubscriberCount())

	m.Publish(workflow.Event{Type: workflow.EventPhotoTaken, Path: "/p/1.jpg"})
	m.Publish(workflow.Event{Type: workflow.EventPhotoPrinted, Path: "/p/1.jpg"})

	got := a.notifications()
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].SequenceNo)
	assert.Equal(t, uint64(2), got[1].SequenceNo)
	assert.Equal(t, workflow.EventPhotoPrinted, got[1].Event.Type)
	assert.Len(t, b.notifications(), 2, "a failing subscriber keeps receiving")
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	a := &recordingStream{}
	id := m.Subscribe(a)
	m.Unsubscribe(id)

	m.Publish(workflow.Event{Type: workflow.EventPhotoTaken})
	assert.Empty(t, a.notifications())
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_SlowSubscriberTimesOut(t *testing.T) {
	m := NewManager()
	m.timeout = 20 * time.Millisecond
	m.Subscribe(&recordingStream{delay: time.Second})

	start := time.Now()
	m.Publish(workflow.Event{Type: workflow.EventPhotoTaken})
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestManager_Close(t *testing.T) {
	m := NewManager()
	m.Subscribe(&recordingStream{})
	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestMetricsStream(t *testing.T) {
	m := NewManager()
	m.Subscribe(MetricsStream{})
	m.Subscribe(LogStream{})

	before := printsFailed(t)
	m.Publish(workflow.Event{Type: workflow.EventPrintFailed, State: workflow.StatePrint, Detail: "offline"})
	assert.Equal(t, before+1, printsFailed(t))
}

// printsFailed reads booth_prints_total{result="failed"} from the default
// registry.
func printsFailed(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "booth_prints_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == "failed" {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
