package httpx

import "net/http"

var healthBody = []byte(`{"status":"ok"}` + "\n")

// healthHandler answers liveness checks. HEAD gets headers only.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(healthBody)
}
