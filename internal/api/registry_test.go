package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
)

type fakeEndpoint struct {
	method, path string
	init         bool
	group        string
	use          string
}

func (f fakeEndpoint) Route() (string, string, http.HandlerFunc) {
	return f.method, f.path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f fakeEndpoint) RequiresInit() bool { return f.init }

func (f fakeEndpoint) Command(func() string) *cobra.Command {
	if f.use == "" {
		return nil
	}
	return &cobra.Command{Use: f.use}
}

type groupedEndpoint struct{ fakeEndpoint }

func (g groupedEndpoint) Group() (string, string) { return g.group, "Story commands" }

func TestRegistry_RegisterRoutes(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeEndpoint{method: "GET", path: "/health", use: "health"})
	r.Register(fakeEndpoint{method: "GET", path: "/api/stories", init: true})

	mux := http.NewServeMux()
	r.RegisterRoutes(mux, func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusNoContent},
		{"/api/stories", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestRegistry_BuildCommands(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeEndpoint{use: "health"})
	r.Register(fakeEndpoint{})
	r.Register(groupedEndpoint{fakeEndpoint{use: "list", group: "stories"}})
	r.Register(groupedEndpoint{fakeEndpoint{use: "get", group: "stories"}})

	cmd := r.BuildCommands(func() string { return "" })
	if got := len(cmd.Commands()); got != 2 {
		t.Fatalf("api has %d subcommands, want 2", got)
	}
	stories, _, err := cmd.Find([]string{"stories", "get"})
	if err != nil || stories.Name() != "get" {
		t.Errorf("Find(stories get) = %v, %v", stories, err)
	}
	if len(r.Endpoints()) != 4 {
		t.Errorf("Endpoints() = %d", len(r.Endpoints()))
	}
}
