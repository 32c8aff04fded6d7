package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLog_DisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(false)

	Log("hello %d", 1)
	LogTiming("op", time.Millisecond)
	Section("x")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLog_EnabledWritesPrefixed(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(true)
	defer SetEnabled(false)

	Log("dial %s", "ws://x")
	LogIf(false, "skipped")
	LogEnterExit("render")()
	Dump("viewport", struct{ W, H int }{800, 600})

	out := buf.String()
	if !strings.Contains(out, "[TSPVIEW_DEBUG]") || !strings.Contains(out, "dial ws://x") {
		t.Errorf("missing message: %q", out)
	}
	if strings.Contains(out, "skipped") {
		t.Error("LogIf(false) should not write")
	}
	if !strings.Contains(out, "viewport: struct { W int; H int } = {W:800 H:600}") {
		t.Errorf("dump not logged: %q", out)
	}
	if !strings.Contains(out, "-> render") || !strings.Contains(out, "<- render") {
		t.Errorf("enter/exit not logged: %q", out)
	}
}
