package endpoints

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/api"
	"github.com/jackzampolin/bedtime/web"
)

// StaticEndpoint serves the embedded single page app. Unknown paths get
// index.html so client-side routes survive a reload.
type StaticEndpoint struct{}

var _ api.Endpoint = (*StaticEndpoint)(nil)

func (e *StaticEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/{path...}", e.handler
}

func (e *StaticEndpoint) RequiresInit() bool { return false }

func (e *StaticEndpoint) Command(_ func() string) *cobra.Command { return nil }

func (e *StaticEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	distFS, err := web.DistFS()
	if err != nil {
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/")
	if strings.HasPrefix(name, "api/") {
		writeError(w, http.StatusNotFound, "no such endpoint")
		return
	}
	if name == "" {
		name = "index.html"
	}

	if f, err := distFS.Open(name); err == nil {
		f.Close()
		http.FileServer(http.FS(distFS)).ServeHTTP(w, r)
		return
	}

	index, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(index)
}
