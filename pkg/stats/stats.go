package stats

import (
	"bufio"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
)

var (
	// SavesTotal counts payload saves by outcome (accepted, rejected, error).
	SavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payloadd",
			Name:      "saves_total",
			Help:      "Number of payload saves by outcome",
		},
		[]string{"outcome"},
	)
	// LoadsTotal counts wallet loads by source and outcome.
	LoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payloadd",
			Name:      "loads_total",
			Help:      "Number of wallet loads by source and outcome",
		},
		[]string{"source", "outcome"},
	)
	// RemoteRequestsTotal counts requests sent to remote services.
	RemoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payloadd",
			Name:      "remote_requests_total",
			Help:      "Number of requests sent to remote services",
		},
		[]string{"service", "method", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(SavesTotal, LoadsTotal, RemoteRequestsTotal)
}

// toGigabytes returns given memory in bytes to gigabytes.
func toGigabytes(bytes uint64) float64 {
	return float64(bytes) / GIGABYTE
}

// PrintMemoryStatistics prints memory statistics using go runtime library.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Debugf(
		"heap allocated: %.3fGB, goroutines: %d",
		toGigabytes(memStats.HeapAlloc), runtime.NumGoroutine(),
	)
}

// DumpPrometheusDefaults appends the gathered Prometheus metrics to the
// given file.
func DumpPrometheusDefaults(path string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := bufio.NewWriter(file)

	metricFamily, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, v := range metricFamily {
		if _, err := writer.WriteString(v.String() + "\n"); err != nil {
			return err
		}
	}

	return writer.Flush()
}
