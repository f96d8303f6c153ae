package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	taken := testutil.ToFloat64(photosTakenTotal)
	PhotoTaken()
	assert.Equal(t, taken+1, testutil.ToFloat64(photosTakenTotal))

	gotham := testutil.ToFloat64(photosFilteredTotal.WithLabelValues("gotham"))
	PhotoFiltered("gotham")
	assert.Equal(t, gotham+1, testutil.ToFloat64(photosFilteredTotal.WithLabelValues("gotham")))

	failed := testutil.ToFloat64(printsTotal.WithLabelValues("failed"))
	ok := testutil.ToFloat64(printsTotal.WithLabelValues("ok"))
	PrintResult(false)
	PrintResult(true)
	PrintResult(true)
	assert.Equal(t, failed+1, testutil.ToFloat64(printsTotal.WithLabelValues("failed")))
	assert.Equal(t, ok+2, testutil.ToFloat64(printsTotal.WithLabelValues("ok")))

	Fault("waiting_for_trigger")
	assert.GreaterOrEqual(t, testutil.ToFloat64(faultsTotal.WithLabelValues("waiting_for_trigger")), 1.0)
}

func TestTransition_ActiveGauge(t *testing.T) {
	Transition("waiting_for_camera", "waiting_for_trigger")
	assert.Equal(t, 0.0, testutil.ToFloat64(activeState.WithLabelValues("waiting_for_camera")))
	assert.Equal(t, 1.0, testutil.ToFloat64(activeState.WithLabelValues("waiting_for_trigger")))

	Transition("waiting_for_trigger", "countdown")
	assert.Equal(t, 0.0, testutil.ToFloat64(activeState.WithLabelValues("waiting_for_trigger")))
	assert.Equal(t, 1.0, testutil.ToFloat64(activeState.WithLabelValues("countdown")))
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
