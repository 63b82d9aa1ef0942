package http

import "net/http"

// NotFoundHandler catches routes outside the reservation API surface and
// answers with the same JSON error envelope the handlers use, so web and
// app clients never have to parse the mux's plain-text default.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}
