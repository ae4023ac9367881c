package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrementPerLabel(t *testing.T) {
	before := testutil.ToFloat64(FramesGenerated.WithLabelValues("gps"))
	FramesGenerated.WithLabelValues("gps").Inc()
	FramesGenerated.WithLabelValues("ais").Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(FramesGenerated.WithLabelValues("gps")))
}

func TestActiveStreamsGauge(t *testing.T) {
	g := ActiveStreams.WithLabelValues("sse")
	start := testutil.ToFloat64(g)
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, start+1, testutil.ToFloat64(g))
}
