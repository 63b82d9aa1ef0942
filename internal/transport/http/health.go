package http

import "net/http"

// HealthHandler answers load-balancer liveness checks. It deliberately does
// not touch the database; readiness is the pool ping at startup.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
