package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	next:
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] != pair.GetValue() {
					continue next
				}
			}
			switch {
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func TestTrackerCountsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("backup:autosave").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("backup:autosave").End(boom), boom)
	m.SetLowStock(3)

	require.Equal(t, 1.0, metricValue(t, reg, "boutique_jobs_total", map[string]string{"job": "backup:autosave", "status": "success"}))
	require.Equal(t, 1.0, metricValue(t, reg, "boutique_jobs_total", map[string]string{"job": "backup:autosave", "status": "failure"}))
	require.Equal(t, 1.0, metricValue(t, reg, "boutique_jobs_failures_total", map[string]string{"job": "backup:autosave"}))
	require.Equal(t, 3.0, metricValue(t, reg, "boutique_low_stock_products", nil))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.NoError(t, m.Track("x").End(nil))
	m.SetLowStock(1)
}
