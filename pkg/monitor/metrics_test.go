package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTransferDone(t *testing.T) {
	beforeBytes := testutil.ToFloat64(transferBytes.WithLabelValues(LegUpload, "test"))
	beforeCount := atomic.LoadInt64(&Global.TransferCount)

	StartTransfer(LegUpload, "test").Done(10, nil)
	StartTransfer(LegUpload, "test").Done(99, errors.New("refused"))

	if got := testutil.ToFloat64(transferBytes.WithLabelValues(LegUpload, "test")) - beforeBytes; got != 10 {
		t.Errorf("bytes counter grew by %v, want 10", got)
	}
	if got := testutil.ToFloat64(transfersTotal.WithLabelValues(LegUpload, "test", "error")); got < 1 {
		t.Errorf("error counter = %v, want >= 1", got)
	}
	if got := atomic.LoadInt64(&Global.TransferCount) - beforeCount; got != 1 {
		t.Errorf("TransferCount grew by %d, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	StartTransfer(LegReply, "nng").Done(4, nil)

	path := filepath.Join(t.TempDir(), "netcom.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, name := range []string{"netcom_transfer_bytes_total", "netcom_transfers_total", "netcom_transfer_duration_seconds"} {
		if !strings.Contains(string(data), name) {
			t.Errorf("textfile lacks %s", name)
		}
	}
}

func TestLogPeriodicStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		LogPeriodic(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("LogPeriodic kept running after cancel")
	}
}
