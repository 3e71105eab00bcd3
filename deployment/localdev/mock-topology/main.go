package main

import (
	"encoding/json"
	"log"
	"net/http"
)

type serviceGraphEdge struct {
	Source    string  `json:"source"`
	Target    string  `json:"target"`
	CallRate  float64 `json:"call_rate"`
	ErrorRate float64 `json:"error_rate"`
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/topology/service-graph", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, map[string]any{
			"edges": []serviceGraphEdge{
				{Source: "web", Target: "api", CallRate: 120, ErrorRate: 0.8},
				{Source: "api", Target: "database", CallRate: 95, ErrorRate: 2.1},
				{Source: "api", Target: "cache", CallRate: 310, ErrorRate: 0.1},
				{Source: "worker", Target: "database", CallRate: 14, ErrorRate: 0.4},
			},
		})
	})

	addr := ":9800"
	log.Printf("mock topology API listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
