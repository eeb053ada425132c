package api

import (
	"net/http"

	"github.com/heysubinoy/keybase/internal/store"
)

// MetricsHandler returns current store metrics as JSON.
func MetricsHandler(instrumentedStore *store.InstrumentedStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		metrics := instrumentedStore.GetMetrics()

		writeJSON(w, map[string]interface{}{
			"operations": map[string]uint64{
				"get":    metrics.GetCount,
				"set":    metrics.SetCount,
				"remove": metrics.RemoveCount,
				"save":   metrics.SaveCount,
			},
			"errors": metrics.ErrorCount,
			"avg_latency": map[string]string{
				"get":    metrics.GetAvgLatency.String(),
				"set":    metrics.SetAvgLatency.String(),
				"remove": metrics.RemoveAvgLatency.String(),
				"save":   metrics.SaveAvgLatency.String(),
			},
		})
	}
}
