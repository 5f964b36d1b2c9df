package transport

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// NewDataRouter mounts h on every path and method. Paths are not cleaned, so
// no request is answered with a redirect.
func NewDataRouter(h http.Handler, metrics *Metrics) *mux.Router {
	router := mux.NewRouter().SkipClean(true)
	router.Use(RequestIDMiddleware)
	if metrics != nil {
		router.Use(metrics.Middleware)
	}
	router.PathPrefix("/").Handler(h)
	return router
}

// NewAdminRouter serves the health check and, when metrics is set, the
// Prometheus scrape endpoint.
func NewAdminRouter(metrics *Metrics) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/admin/health", handleHealth).Methods(http.MethodGet)
	if metrics != nil {
		router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}
	return router
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
