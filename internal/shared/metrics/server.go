package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc verifica uma dependência (postgres, redis, kafka...)
type HealthFunc func(ctx context.Context) error

// Handler monta o mux de /metrics e /healthz; cada check roda com timeout curto.
func Handler(checks map[string]HealthFunc) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		for name, fn := range checks {
			if err := fn(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(fmt.Sprintf("%s unhealthy: %v", name, err)))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

// StartMetricsServer sobe um servidor HTTP leve só pra /metrics e /healthz.
// O chamador faz Shutdown no encerramento.
func StartMetricsServer(port string, checks map[string]HealthFunc, onErr func(error)) *http.Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           Handler(checks),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed && onErr != nil {
			onErr(err)
		}
	}()

	return srv
}
