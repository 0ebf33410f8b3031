package js

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	applog "github.com/chrisuehlinger/glcontext/internal/log"
)

func TestRuntimeBasic(t *testing.T) {
	r := NewRuntime()

	result, err := r.Execute("1 + 2")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ToInteger() != 3 {
		t.Errorf("Expected 3, got %v", result.ToInteger())
	}
}

func TestRuntimeRealmIDsAreUnique(t *testing.T) {
	a, b := NewRuntime(), NewRuntime()
	if a.RealmID() == "" || a.RealmID() == b.RealmID() {
		t.Errorf("Expected distinct realm ids, got %q and %q", a.RealmID(), b.RealmID())
	}
}

func TestRuntimeConsole(t *testing.T) {
	var buf bytes.Buffer
	applog.Configure(applog.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { applog.Configure(applog.Config{}) })

	r := NewRuntime()
	_, err := r.Execute(`
		console.log("hello", 42, null, undefined);
		console.warn("careful");
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"message":"hello 42 null undefined"`) {
		t.Errorf("console.log output missing: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"component":"console"`) {
		t.Errorf("console.warn output missing: %s", out)
	}
	if !strings.Contains(out, r.RealmID()) {
		t.Errorf("Expected realm id in console output: %s", out)
	}
}

func TestRuntimeConsoleLevels(t *testing.T) {
	var buf bytes.Buffer
	applog.Configure(applog.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { applog.Configure(applog.Config{}) })

	r := NewRuntime()
	_, err := r.Execute(`
		console.log("log");
		console.info("info");
		console.warn("warn");
		console.error("error");
		console.debug("debug");
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := map[string]string{"log": "info", "info": "info", "warn": "warn", "error": "error", "debug": "debug"}
	got := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		if entry["component"] != "console" {
			continue
		}
		got[entry["message"].(string)] = entry["level"].(string)
	}
	for method, level := range want {
		if got[method] != level {
			t.Errorf("console.%s logged at %q, want %q", method, got[method], level)
		}
	}
}

func TestRuntimeSetTimeout(t *testing.T) {
	r := NewRuntime()

	_, err := r.Execute(`
		var called = false;
		setTimeout(function() {
			called = true;
		}, 10);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Process timers
	time.Sleep(20 * time.Millisecond)
	r.ProcessTimers()

	result, err := r.Execute("called")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.ToBoolean() {
		t.Error("setTimeout callback was not called")
	}
}

func TestRuntimeClearTimeout(t *testing.T) {
	r := NewRuntime()

	_, err := r.Execute(`
		var called = false;
		var id = setTimeout(function() {
			called = true;
		}, 10);
		clearTimeout(id);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	r.ProcessTimers()

	result, err := r.Execute("called")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ToBoolean() {
		t.Error("setTimeout callback was called after clearTimeout")
	}
}

func TestRuntimeSetInterval(t *testing.T) {
	r := NewRuntime()

	_, err := r.Execute(`
		var count = 0;
		var id = setInterval(function() {
			count++;
		}, 10);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		time.Sleep(15 * time.Millisecond)
		r.ProcessTimers()
	}

	_, _ = r.Execute("clearInterval(id)")

	result, err := r.Execute("count")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ToInteger() < 3 {
		t.Errorf("Expected count >= 3, got %v", result.ToInteger())
	}
}

func TestRuntimeRunUntilIdle(t *testing.T) {
	r := NewRuntime()

	_, err := r.Execute(`
		var order = [];
		setTimeout(function() { order.push('timer'); }, 5);
		queueMicrotask(function() { order.push('micro'); });
		order.push('sync');
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	turns := r.RunUntilIdle(100)
	if turns == 0 || turns >= 100 {
		t.Errorf("Expected the loop to go idle, took %d turns", turns)
	}
	if r.HasPendingWork() {
		t.Error("Expected no pending work")
	}

	result, err := r.Execute("order.join(',')")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.String() != "sync,micro,timer" {
		t.Errorf("Expected 'sync,micro,timer', got %v", result.String())
	}
}

func TestRuntimeRunUntilIdleTurnLimit(t *testing.T) {
	r := NewRuntime()

	_, err := r.Execute(`setInterval(function() {}, 4);`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if turns := r.RunUntilIdle(3); turns != 3 {
		t.Errorf("Expected the turn limit to stop the loop, got %d turns", turns)
	}
}

func TestRuntimeQueueTask(t *testing.T) {
	r := NewRuntime()

	ran := 0
	r.QueueTask(func() { ran++ })
	r.QueueTask(func() { ran++ })

	r.RunEventLoop()
	if ran != 1 {
		t.Errorf("Expected one macrotask per turn, got %d", ran)
	}
	r.RunEventLoop()
	if ran != 2 {
		t.Errorf("Expected both macrotasks to run, got %d", ran)
	}
}

func TestRuntimeErrorHandling(t *testing.T) {
	r := NewRuntime()

	_, err := r.Execute("this is not valid javascript")
	if err == nil {
		t.Error("Expected error for invalid JavaScript")
	}

	errors := r.Errors()
	if len(errors) == 0 {
		t.Error("Expected error to be recorded")
	}

	r.ClearErrors()
	errors = r.Errors()
	if len(errors) != 0 {
		t.Errorf("Expected errors to be cleared, got %d", len(errors))
	}
}

func TestRuntimeGlobalThis(t *testing.T) {
	r := NewRuntime()

	result, err := r.Execute("globalThis === window && self === window")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.ToBoolean() {
		t.Error("Expected globalThis and self to be window")
	}
}

func TestRuntimeQueueMicrotask(t *testing.T) {
	r := NewRuntime()

	_, err := r.Execute(`
		var order = [];
		queueMicrotask(function() {
			order.push(1);
		});
		order.push(0);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	r.RunEventLoop()

	result, err := r.Execute("order.join(',')")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.String() != "0,1" {
		t.Errorf("Expected '0,1', got %v", result.String())
	}
}

func TestRuntimeTeardownDropsPendingWork(t *testing.T) {
	r := NewRuntime()

	_, err := r.Execute(`
		var fired = false;
		setTimeout(function() { fired = true; }, 0);
		queueMicrotask(function() { fired = true; });
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	r.Teardown()
	if r.HasPendingWork() {
		t.Error("Expected teardown to drop pending work")
	}
}

func TestRuntimePanicRecovery(t *testing.T) {
	r := NewRuntime()

	// Unicode escapes like \u{10ffff} can cause goja to panic
	code := `var x = "\u{10ffff}";`
	if err := r.ExecuteScript(code, "test.js"); err != nil {
		t.Logf("Got error (expected for unicode escape): %v", err)
	}

	// Verify the runtime is still usable after the error
	result, err := r.Execute("1 + 1")
	if err != nil {
		t.Errorf("Runtime should still work after panic recovery: %v", err)
	}
	if result.ToInteger() != 2 {
		t.Errorf("Expected 2, got %v", result.ToInteger())
	}
}
