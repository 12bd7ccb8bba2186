package handlers

import (
	"net/http"

	"pulse/app/internal/auth"
	"pulse/app/internal/httperr"
	"pulse/app/internal/models"
	"pulse/app/internal/rollup"
)

// HandleUptimeSummary returns per-agent uptime percentages over a window.
func HandleUptimeSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		caller := auth.CallerFrom(r.Context())
		q := r.URL.Query()

		window := rollup.ParseWindow(q.Get("window"))
		data, err := rollup.Summary(caller.ClientID, window, rollup.SummaryFilter{
			AgentID: q.Get("agent_id"),
			OrgID:   q.Get("organization_id"),
		})
		if err != nil {
			httperr.Write(w, err)
			return
		}
		writeJSON(w, models.DataEnvelope{Data: data})
	}
}

// HandleUptimeTimeseries returns ordered per-bucket uptime percentages
// for a single agent.
func HandleUptimeTimeseries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		caller := auth.CallerFrom(r.Context())
		q := r.URL.Query()

		agentID := q.Get("agent_id")
		if agentID == "" {
			httperr.Write(w, httperr.MissingParameter("agent_id"))
			return
		}

		window := rollup.ParseWindow(q.Get("window"))
		data, err := rollup.Timeseries(caller.ClientID, agentID, window, q.Get("bucket"))
		if err != nil {
			httperr.Write(w, err)
			return
		}
		writeJSON(w, models.DataEnvelope{Data: data})
	}
}
