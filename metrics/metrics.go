// Package metrics exposes Prometheus counters for frame generation.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lkas_frames_built_total",
		Help: "Frames successfully built, by message.",
	}, []string{"message"})
	BuildErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lkas_build_errors_total",
		Help: "Frame builds that failed, by message.",
	}, []string{"message"})
	TxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lkas_tx_frames_total",
		Help: "Frames handed to the CAN writer.",
	})
	TxErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lkas_tx_errors_total",
		Help: "Frames the CAN writer rejected.",
	})
)

func IncBuilt(message string)      { FramesBuilt.WithLabelValues(message).Inc() }
func IncBuildError(message string) { BuildErrors.WithLabelValues(message).Inc() }
func IncTx()                       { TxFrames.Inc() }
func IncTxError()                  { TxErrors.Inc() }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// StartHTTP serves /metrics on addr in the background. errf receives a
// listen failure other than a normal shutdown.
func StartHTTP(addr string, errf func(error)) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && errf != nil {
			errf(err)
		}
	}()
	return srv
}
