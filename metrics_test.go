package jwkclient

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	metrics := &NoopMetrics{}

	metrics.IncCounter("test_counter", map[string]string{"tag": "value"})
	metrics.ObserveHistogram("test_histogram", 1.5, map[string]string{"tag": "value"})
	metrics.SetGauge("test_gauge", 2.5, map[string]string{"tag": "value"})
}

func TestPrometheusMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	t.Run("IncCounter", func(t *testing.T) {
		tags := map[string]string{"trigger": "reactive", "outcome": "success"}

		metrics.IncCounter(MetricFetchTotal, tags)
		metrics.IncCounter(MetricFetchTotal, tags)

		counter, ok := metrics.counters[MetricFetchTotal]
		require.True(t, ok, "Counter should be registered")
		assert.Equal(t, float64(2), testutil.ToFloat64(counter.With(tags)))
	})

	t.Run("ObserveHistogram", func(t *testing.T) {
		tags := map[string]string{"trigger": "proactive"}

		metrics.ObserveHistogram(MetricFetchDuration, 0.25, tags)

		hist, ok := metrics.histograms[MetricFetchDuration]
		require.True(t, ok, "Histogram should be registered")

		metric := &dto.Metric{}
		require.NoError(t, hist.With(tags).(prometheus.Metric).Write(metric))
		assert.Equal(t, uint64(1), metric.GetHistogram().GetSampleCount())
		assert.Equal(t, 0.25, metric.GetHistogram().GetSampleSum())
	})

	t.Run("SetGauge", func(t *testing.T) {
		metrics.SetGauge(MetricKeys, 3, nil)
		metrics.SetGauge(MetricKeys, 2, nil)

		gauge, ok := metrics.gauges[MetricKeys]
		require.True(t, ok, "Gauge should be registered")
		assert.Equal(t, float64(2), testutil.ToFloat64(gauge.With(nil)))
	})

	t.Run("it registers with the given registry", func(t *testing.T) {
		count, err := testutil.GatherAndCount(registry, MetricFetchTotal, MetricFetchDuration, MetricKeys)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("two instances share a registry", func(t *testing.T) {
		other := NewPrometheusMetrics(registry)
		tags := map[string]string{"trigger": "reactive", "outcome": "success"}

		assert.NotPanics(t, func() { other.IncCounter(MetricFetchTotal, tags) })
		assert.Equal(t, float64(3), testutil.ToFloat64(metrics.counters[MetricFetchTotal].With(tags)))
	})

	t.Run("it is safe for concurrent use", func(t *testing.T) {
		fresh := NewPrometheusMetrics(prometheus.NewRegistry())

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fresh.IncCounter(MetricRetryDeniedTotal, nil)
			}()
		}
		wg.Wait()

		assert.Equal(t, float64(50), testutil.ToFloat64(fresh.counters[MetricRetryDeniedTotal].With(nil)))
	})
}
