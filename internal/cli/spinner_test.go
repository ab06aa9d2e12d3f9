package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	s := newSpinner("rendering tree...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if s.Cancelled() {
		// Stop cancels the internal context, so Cancelled is true afterwards.
		return
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "aggregating...")
	s.Start()
	cancel()

	time.Sleep(100 * time.Millisecond)
	if !s.Cancelled() {
		t.Error("spinner should report cancelled after context cancellation")
	}
}

func TestSpinnerContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "exporting...")
	s.Start()

	time.Sleep(100 * time.Millisecond)
	if !s.Cancelled() {
		t.Error("spinner should report cancelled after context timeout")
	}
}

func TestSpinnerStopIdempotent(t *testing.T) {
	s := newSpinner("computing layout...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerSetMessage(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("aggregating rows...")
	s.out = &buf

	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.SetMessage("rendering svg...")
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "aggregating rows...") {
		t.Errorf("output missing initial message: %q", out)
	}
	if !strings.Contains(out, "rendering svg...") {
		t.Errorf("output missing updated message: %q", out)
	}
}

func TestSpinnerStopHelpers(t *testing.T) {
	s := newSpinner("writing files...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("done")

	s = newSpinner("writing files...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithError("failed")
}
