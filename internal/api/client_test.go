package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestClient_GetPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /health":
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		case "POST /echo":
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			io.Copy(w, r.Body)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	var health map[string]string
	if err := c.Get(t.Context(), "/health", &health); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("status = %q", health["status"])
	}

	var echoed map[string]int
	if err := c.Post(t.Context(), "/echo", map[string]int{"age": 5}, &echoed); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if echoed["age"] != 5 {
		t.Errorf("echoed = %v", echoed)
	}
}

func TestClient_ErrorResponse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "story not found"})
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Get(t.Context(), "/api/stories/x", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsStatus(err, http.StatusNotFound) {
		t.Errorf("IsStatus(404) = false for %v", err)
	}
	if got := err.Error(); got != "server error (404): story not found" {
		t.Errorf("Error() = %q", got)
	}
	if calls.Load() != 1 {
		t.Errorf("4xx retried: %d calls", calls.Load())
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out map[string]bool
	if err := NewClient(srv.URL).Get(t.Context(), "/status", &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !out["ok"] || calls.Load() != 3 {
		t.Errorf("out = %v after %d calls", out, calls.Load())
	}
}

func TestClient_PostNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Post(t.Context(), "/api/stories/generate", nil, nil)
	if !IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("POST sent %d times", calls.Load())
	}
}

func TestClient_DownloadUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte("Once upon a time"))
			return
		}
		body, _ := io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]any{"bytes": len(body), "type": r.Header.Get("Content-Type")})
	}))
	defer srv.Close()
	c := NewClient(srv.URL)

	data, ct, err := c.Download(t.Context(), "/x")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Once upon a time" || ct != "text/plain; charset=utf-8" {
		t.Errorf("Download() = %q, %q", data, ct)
	}

	var out struct {
		Bytes int    `json:"bytes"`
		Type  string `json:"type"`
	}
	if err := c.Upload(t.Context(), "/y", "application/json", []byte("[]"), &out); err != nil {
		t.Fatal(err)
	}
	if out.Bytes != 2 || out.Type != "application/json" {
		t.Errorf("Upload() = %+v", out)
	}
}
