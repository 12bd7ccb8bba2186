package handlers

import (
	"encoding/json"
	"net/http"

	"pulse/app/internal/auth"
	"pulse/app/internal/heartbeat"
	"pulse/app/internal/httperr"
)

// HandleHeartbeat accepts a liveness report from an agent instance.
func HandleHeartbeat(ing *heartbeat.Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		caller := auth.CallerFrom(r.Context())

		var req heartbeat.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httperr.Write(w, httperr.Validation("invalid JSON body"))
			return
		}

		ack, err := ing.Ingest(caller.ClientID, r.Header.Get("X-Client-ID"), &req)
		if err != nil {
			httperr.Write(w, err)
			return
		}
		writeJSON(w, ack)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
