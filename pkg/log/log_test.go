package log

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// helper resets output and returns buffer and logger
func newTestLogger(t *testing.T, name string) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	return ForService(name), buf
}

func TestPrefixInfo(t *testing.T) {
	SetGlobalDebug(false)

	const name = "prefix_service_test"
	l, buf := newTestLogger(t, name)

	l.Infof("hello %s", "world")
	out := buf.String()

	if !strings.Contains(out, name) {
		t.Fatalf("expected service name %s in output, got: %q", name, out)
	}
	if !strings.Contains(out, "hello world") {
		t.Fatalf("expected message in output, got: %q", out)
	}
	if !strings.Contains(out, LevelInfo) {
		t.Fatalf("expected level %s in output, got: %q", LevelInfo, out)
	}
}

func TestDebugPerService(t *testing.T) {
	SetGlobalDebug(false)

	const name = "debug_service_specific"
	DisableDebugFor(name)
	l, buf := newTestLogger(t, name)

	l.Debugf("should not appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Fatalf("debug message appeared while debug disabled (per service & global)")
	}

	EnableDebugFor(name)
	defer DisableDebugFor(name)
	l.Debugf("visible now")
	if !strings.Contains(buf.String(), "visible now") {
		t.Fatalf("expected debug message after enabling per-service debug; got: %q", buf.String())
	}

	other := ForService("debug_service_other")
	other.Debugf("other hidden")
	if strings.Contains(buf.String(), "other hidden") {
		t.Fatalf("per-service debug leaked to another service")
	}
}

func TestDebugGlobal(t *testing.T) {
	SetGlobalDebug(false)

	const name = "debug_service_global"
	DisableDebugFor(name)
	l, buf := newTestLogger(t, name)

	l.Debugf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug message appeared while global debug disabled")
	}

	SetGlobalDebug(true)
	defer SetGlobalDebug(false)

	l.Debugf("global visible")
	if !strings.Contains(buf.String(), "global visible") {
		t.Fatalf("expected debug message after enabling global debug; got: %q", buf.String())
	}
}

func TestWarnfLevelAndPrefix(t *testing.T) {
	const name = "warn_service_test"
	l, buf := newTestLogger(t, name)

	l.Warnf("first")
	l.Warnf("second")
	out := buf.String()

	if n := strings.Count(out, LevelWarn); n != 2 {
		t.Fatalf("expected two %s lines, got %d in %q", LevelWarn, n, out)
	}
	if !strings.Contains(out, name) || !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Fatalf("expected prefixed warnings in output, got: %q", out)
	}
}

func TestForServiceMemoized(t *testing.T) {
	a := ForService("memo")
	b := ForService("memo")
	if a != b {
		t.Fatalf("expected the same logger instance")
	}
	if ForService("").Name() != "unknown" {
		t.Fatalf("expected empty name to map to unknown")
	}
}

func TestConcurrentLogging(t *testing.T) {
	l, buf := newTestLogger(t, "concurrent")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Infof("line %d", i)
		}(i)
	}
	wg.Wait()
	if got := strings.Count(buf.String(), "line "); got != 8 {
		t.Fatalf("expected 8 lines, got %d", got)
	}
}
