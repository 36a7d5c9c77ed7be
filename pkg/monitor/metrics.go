package monitor

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tarun-kavipurapu/netcom-transfer/pkg/logger"
)

// Transfer legs.
const (
	LegUpload   = "upload"
	LegReceive  = "receive"
	LegReply    = "reply"
	LegDownload = "download"
)

// Metrics holds performance metrics for the process.
type Metrics struct {
	// Total bytes transferred
	TransferBytes int64
	// Number of payloads transferred
	TransferCount int64
	// Process start time
	ServerStart time.Time
}

// Global metrics instance
var Global = &Metrics{
	ServerStart: time.Now(),
}

// Registry holds the prometheus collectors of this package only, so a
// textfile export carries no Go runtime noise.
var Registry = prometheus.NewRegistry()

var (
	transferBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcom_transfer_bytes_total",
			Help: "Payload bytes moved, per leg and transport",
		},
		[]string{"leg", "transport"},
	)
	transfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcom_transfers_total",
			Help: "Transfer legs attempted, per leg, transport and status",
		},
		[]string{"leg", "transport", "status"},
	)
	transferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netcom_transfer_duration_seconds",
			Help:    "Duration of transfer legs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"leg", "transport"},
	)
)

func init() {
	Registry.MustRegister(transferBytes)
	Registry.MustRegister(transfersTotal)
	Registry.MustRegister(transferDuration)
}

// Transfer times one leg of a transfer.
type Transfer struct {
	leg       string
	transport string
	start     time.Time
}

// StartTransfer records the start of a leg.
func StartTransfer(leg, transport string) *Transfer {
	return &Transfer{leg: leg, transport: transport, start: time.Now()}
}

// Done records the outcome of the leg. bytes is ignored when err is set.
func (t *Transfer) Done(bytes int, err error) {
	duration := time.Since(t.start)
	transferDuration.WithLabelValues(t.leg, t.transport).Observe(duration.Seconds())

	if err != nil {
		transfersTotal.WithLabelValues(t.leg, t.transport, "error").Inc()
		return
	}
	transfersTotal.WithLabelValues(t.leg, t.transport, "success").Inc()
	RecordTransfer(t.leg, t.transport, int64(bytes), duration)
}

// RecordTransfer records a completed leg.
func RecordTransfer(leg, transport string, bytes int64, duration time.Duration) {
	atomic.AddInt64(&Global.TransferBytes, bytes)
	atomic.AddInt64(&Global.TransferCount, 1)
	transferBytes.WithLabelValues(leg, transport).Add(float64(bytes))

	var speed float64
	if seconds := duration.Seconds(); seconds > 0 {
		speed = float64(bytes) / seconds / 1024 / 1024
	}

	logger.Sugar.Infof("[Transfer] Leg=%s | Transport=%s | Size=%dB | Duration=%.3fs | Speed=%.2fMB/s",
		leg, transport, bytes, duration.Seconds(), speed)
}

// LogPeriodic logs runtime metrics at the specified interval until ctx ends.
func LogPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		elapsed := time.Since(Global.ServerStart).Seconds()
		var throughput float64
		if elapsed > 0 {
			throughput = float64(atomic.LoadInt64(&Global.TransferBytes)) / elapsed / 1024 / 1024
		}

		count := atomic.LoadInt64(&Global.TransferCount)

		logger.Sugar.Infof("[Metrics] Goroutines=%d | HeapAlloc=%dMB | HeapSys=%dMB | Throughput=%.2fMB/s | Transfers=%d",
			runtime.NumGoroutine(),
			m.HeapAlloc/1024/1024,
			m.HeapSys/1024/1024,
			throughput,
			count,
		)
	}
}

// WriteTextfile exports Registry in the text format read by node_exporter's
// textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
