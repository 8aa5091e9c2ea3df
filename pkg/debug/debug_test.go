package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() {
		slog.SetDefault(prev)
		Enabled, Frames = false, false
	})
	return &buf
}

func TestFrameLog_Gated(t *testing.T) {
	buf := capture(t)

	FrameLog("frame", "id", 1)
	if buf.Len() != 0 {
		t.Fatalf("logged with Frames off: %s", buf.String())
	}

	Frames = true
	FrameLog("frame", "id", 2)
	if !strings.Contains(buf.String(), "id=2") {
		t.Errorf("missing frame log: %s", buf.String())
	}
}

func TestLog_Gated(t *testing.T) {
	buf := capture(t)

	Log("hidden")
	Enabled = true
	Log("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}
