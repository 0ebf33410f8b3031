package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrisuehlinger/glcontext/internal/config"
	applog "github.com/chrisuehlinger/glcontext/internal/log"
)

func testRunner() config.Runner {
	return config.Runner{
		MaxTurns:     100,
		RestoreAfter: true,
		FetchTimeout: time.Second,
		UserAgent:    "glcontext-test",
	}
}

func writePage(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write page: %v", err)
	}
	return path
}

func TestReportFailureLogsError(t *testing.T) {
	var buf bytes.Buffer
	applog.Configure(applog.Config{Output: &buf})
	t.Cleanup(func() { applog.Configure(applog.Config{}) })

	reportFailure(errors.New("boom"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["level"] != "error" || entry["error"] != "boom" || entry["message"] != "run failed" {
		t.Errorf("Unexpected log entry %v", entry)
	}
}

func TestRunCleanPage(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir, `<!DOCTYPE html>
<html><body>
<canvas id="gl"></canvas>
<script>
	var canvas = document.getElementById('gl');
	canvas.getContext('webgl');
	canvas.addEventListener('webglcontextlost', function(e) { e.preventDefault(); });
</script>
</body></html>`)

	cfg := testRunner()
	cfg.LoseContext = true
	cfg.MetricsFile = filepath.Join(dir, "glcontext.prom")

	if err := run(cfg, []string{path}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	data, err := os.ReadFile(cfg.MetricsFile)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), "webglcontextlost") {
		t.Errorf("Expected context events in metrics, got:\n%s", data)
	}
}

func TestRunReportsScriptErrors(t *testing.T) {
	path := writePage(t, t.TempDir(), `<!DOCTYPE html>
<html><body>
<script>throw new Error('first failure');</script>
<script>setTimeout(function() { throw new Error('timer failure'); }, 0);</script>
</body></html>`)

	err := run(testRunner(), []string{path})
	if err == nil {
		t.Fatal("Expected run to fail")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "2 script error(s)") {
		t.Errorf("Expected each error once, got %q", msg)
	}
	if !strings.Contains(msg, "first failure") || !strings.Contains(msg, "timer failure") {
		t.Errorf("Unexpected error %q", msg)
	}
}

func TestRunMissingPage(t *testing.T) {
	err := run(testRunner(), []string{filepath.Join(t.TempDir(), "missing.html")})
	if err == nil || !strings.Contains(err.Error(), "open page") {
		t.Errorf("Expected an open error, got %v", err)
	}
}
