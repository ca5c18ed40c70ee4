package webserver

import (
	"net/http"
	"time"

	"HibernateBot/logger"
	"HibernateBot/metrics"

	"github.com/gorilla/mux"
)

// Start brings up the liveness server used by external uptime monitors and
// returns it so the caller can shut it down. It never blocks.
func Start(port string, m *metrics.Metrics) *http.Server {
	r := mux.NewRouter()
	r.HandleFunc("/", homeHandler)
	r.HandleFunc("/healthz", healthHandler)
	r.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 20 * time.Second,
	}

	go func() {
		logger.Log.Infof("Health server listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Error("Health server stopped unexpectedly")
		}
	}()

	return server
}

func homeHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("HibernateBot is running"))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
