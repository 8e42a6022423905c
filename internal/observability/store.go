package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/odyssey-erp/boutique/internal/storage"
)

// StoreMetrics instruments store dispatches and persistence.
type StoreMetrics struct {
	actions   *prometheus.CounterVec
	persists  *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewStoreMetrics registers the store collectors against registerer.
func NewStoreMetrics(registerer prometheus.Registerer) *StoreMetrics {
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boutique_store_actions_total",
		Help: "Dispatched store actions by type and result.",
	}, []string{"action", "result"})
	persists := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boutique_store_persist_total",
		Help: "Storage writes by key and result.",
	}, []string{"key", "result"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boutique_store_revision_conflicts_total",
		Help: "Writes rejected because another writer moved the revision.",
	})
	registerer.MustRegister(actions, persists, conflicts)
	return &StoreMetrics{actions: actions, persists: persists, conflicts: conflicts}
}

// ObserveDispatch implements store.Metrics.
func (m *StoreMetrics) ObserveDispatch(action string, err error) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, result(err)).Inc()
}

// ObservePersist implements store.Metrics.
func (m *StoreMetrics) ObservePersist(key string, err error) {
	if m == nil {
		return
	}
	m.persists.WithLabelValues(key, result(err)).Inc()
	if errors.Is(err, storage.ErrRevisionConflict) {
		m.conflicts.Inc()
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
