package network

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoaderLoadDataURL(t *testing.T) {
	loader := NewLoader(nil)

	src, err := loader.LoadScript(context.Background(), "data:text/javascript,var%20x%20%3D%201%3B")
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if src != "var x = 1;" {
		t.Errorf("LoadScript() = %q, want %q", src, "var x = 1;")
	}
}

func TestLoaderLoadHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/js/app.js" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/javascript")
		w.Write([]byte("var loaded = true;"))
	}))
	defer server.Close()

	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	loader := NewLoader(client, WithBaseURL(server.URL+"/js/index.html"))

	src, err := loader.LoadScript(context.Background(), "app.js")
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if src != "var loaded = true;" {
		t.Errorf("LoadScript() = %q", src)
	}

	if _, err := loader.LoadScript(context.Background(), "missing.js"); err == nil {
		t.Error("expected error for 404 response")
	} else if !strings.Contains(err.Error(), "status 404") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoaderLoadHTTPGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("var zipped = 1;"))
		gz.Close()
	}))
	defer server.Close()

	client, err := NewClient(WithUserAgent("test-agent"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	src, err := NewLoader(client).LoadScript(context.Background(), server.URL+"/z.js")
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if src != "var zipped = 1;" {
		t.Errorf("LoadScript() = %q", src)
	}
}

func TestLoaderHTTPWithoutClient(t *testing.T) {
	if _, err := NewLoader(nil).LoadScript(context.Background(), "http://example.com/a.js"); err == nil {
		t.Error("expected error without a client")
	}
}

func TestLoaderLoadLocal(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "js"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "js", "gl.js"), []byte("var local = 1;"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(nil, WithLocalPath(dir))

	src, err := loader.LoadScript(context.Background(), "js/gl.js")
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if src != "var local = 1;" {
		t.Errorf("LoadScript() = %q", src)
	}

	abs := "file://" + filepath.Join(dir, "js", "gl.js")
	if _, err := loader.LoadScript(context.Background(), abs); err != nil {
		t.Errorf("LoadScript(%q) error = %v", abs, err)
	}

	if _, err := loader.LoadScript(context.Background(), "nope.js"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestClientRedirectLimit(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	client, err := NewClient(WithMaxRedirects(2))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := client.Get(context.Background(), server.URL+"/r"); err == nil {
		t.Error("expected redirect limit error")
	}
}
