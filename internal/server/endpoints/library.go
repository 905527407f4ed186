package endpoints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/api"
	"github.com/jackzampolin/bedtime/internal/config"
	"github.com/jackzampolin/bedtime/internal/export"
	"github.com/jackzampolin/bedtime/internal/library"
	"github.com/jackzampolin/bedtime/internal/svcctx"
)

// maxImportBytes bounds library import bodies.
const maxImportBytes = 32 << 20

type libraryGroup struct{}

func (libraryGroup) Group() (string, string) { return "library", "Library backup and collections" }

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

// LibraryExportEndpoint handles GET /api/library/export.
type LibraryExportEndpoint struct{ libraryGroup }

func (e *LibraryExportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/library/export", e.handler
}

func (e *LibraryExportEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Export the library as JSON
//	@Description	The document can be imported again with POST /api/library/import
//	@Tags			library
//	@Produce		json
//	@Param			favorites	query	bool	false	"Only favorites"
//	@Param			language	query	string	false	"Language code"
//	@Param			q			query	string	false	"Search text"
//	@Success		200
//	@Router			/api/library/export [get]
func (e *LibraryExportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := svcctx.LibraryFrom(r.Context()).Export(&buf, filterFromQuery(r.URL.Query())); err != nil {
		writeErr(w, err)
		return
	}
	attachment(w, "application/json", "bedtime-library-"+time.Now().Format("2006-01-02")+".json")
	w.Write(buf.Bytes())
}

func (e *LibraryExportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var f filterFlags
	var outFile string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the library as a JSON backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, _, err := client.Download(cmd.Context(), "/api/library/export"+f.query())
			if err != nil {
				return err
			}
			if outFile == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(outFile, data, 0o644)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&outFile, "file", "f", "", "Output file (default: stdout)")
	return cmd
}

// ImportResponse reports how many stories were new.
type ImportResponse struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

// LibraryImportEndpoint handles POST /api/library/import.
type LibraryImportEndpoint struct{ libraryGroup }

func (e *LibraryImportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/library/import", e.handler
}

func (e *LibraryImportEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Import a library backup
//	@Description	Merges a JSON array of stories. Stories already present keep their text.
//	@Tags			library
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	ImportResponse
//	@Failure		400	{object}	ErrorResponse
//	@Router			/api/library/import [post]
func (e *LibraryImportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lib := svcctx.LibraryFrom(ctx)
	added, err := lib.Import(ctx, io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeErr(w, err)
		return
	}
	svcctx.MetricsFrom(ctx).LibrarySize(lib.Len())
	writeJSON(w, http.StatusOK, ImportResponse{Added: added, Total: lib.Len()})
}

func (e *LibraryImportEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import stories from a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			client := api.NewClient(getServerURL())
			var resp ImportResponse
			if err := client.Upload(cmd.Context(), "/api/library/import", "application/json", data, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// CollectionEndpoint handles GET /api/library/epub.
type CollectionEndpoint struct{ libraryGroup }

func (e *CollectionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/library/epub", e.handler
}

func (e *CollectionEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Download saved stories as one ebook
//	@Description	One chapter per story, newest first. Defaults to favorites only.
//	@Tags			library
//	@Produce		octet-stream
//	@Param			favorites	query	bool	false	"Only favorites (default true)"
//	@Param			language	query	string	false	"Language code"
//	@Param			title		query	string	false	"Book title"
//	@Success		200
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/library/epub [get]
func (e *CollectionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	if !q.Has("favorites") {
		q.Set("favorites", "true")
	}
	filter := filterFromQuery(q)
	stories := svcctx.LibraryFrom(ctx).List(filter)
	if len(stories) == 0 {
		writeError(w, http.StatusNotFound, "no stories match")
		return
	}

	title := strings.TrimSpace(q.Get("title"))
	if title == "" {
		title = "Bedtime Stories"
	}
	lang := filter.Language
	if lang == "" {
		lang = config.GetString(ctx, svcctx.ConfigStoreFrom(ctx), config.KeyUILanguage, stories[0].Language)
	}

	var buf bytes.Buffer
	err := export.WriteCollection(&buf, title, lang, stories)
	svcctx.MetricsFrom(ctx).Exported("epub", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	attachment(w, "application/epub+zip", export.Sanitize(title)+".epub")
	w.Write(buf.Bytes())
}

func (e *CollectionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var all bool
	var language, title, outFile string
	cmd := &cobra.Command{
		Use:   "epub",
		Short: "Download favorite stories as one ebook",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("favorites", strconv.FormatBool(!all))
			if language != "" {
				q.Set("language", language)
			}
			if title != "" {
				q.Set("title", title)
			}
			client := api.NewClient(getServerURL())
			data, _, err := client.Download(cmd.Context(), "/api/library/epub?"+q.Encode())
			if err != nil {
				return err
			}
			if outFile == "" {
				outFile = "bedtime-stories.epub"
			}
			if err := os.WriteFile(outFile, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d bytes)\n", outFile, len(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include every story, not only favorites")
	cmd.Flags().StringVar(&language, "language", "", "Only stories in this language")
	cmd.Flags().StringVar(&title, "title", "", "Book title")
	cmd.Flags().StringVarP(&outFile, "file", "f", "", "Output file")
	return cmd
}

// RecoveryEndpoint handles GET /api/recovery.
type RecoveryEndpoint struct{ libraryGroup }

func (e *RecoveryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/recovery", e.handler
}

func (e *RecoveryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Last generated story that was not saved
//	@Tags		library
//	@Produce	json
//	@Success	200	{object}	StoryResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/recovery [get]
func (e *RecoveryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	h := svcctx.HomeFrom(r.Context())
	if h == nil {
		writeError(w, http.StatusNotFound, "no recovery story")
		return
	}
	st, err := library.ReadRecovery(h.RecoveryPath())
	if err != nil {
		writeErr(w, err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "no recovery story")
		return
	}
	_, getErr := svcctx.LibraryFrom(r.Context()).Get(st.ID)
	writeJSON(w, http.StatusOK, StoryResponse{Story: st, Saved: getErr == nil})
}

func (e *RecoveryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "recovery",
		Short: "Show the last generated story that was not saved",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StoryResponse
			if err := client.Get(cmd.Context(), "/api/recovery", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DiscardRecoveryEndpoint handles DELETE /api/recovery.
type DiscardRecoveryEndpoint struct{}

func (e *DiscardRecoveryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/recovery", e.handler
}

func (e *DiscardRecoveryEndpoint) RequiresInit() bool { return true }

func (e *DiscardRecoveryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if h := svcctx.HomeFrom(r.Context()); h != nil {
		if err := library.ClearRecovery(h.RecoveryPath()); err != nil {
			writeErr(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DiscardRecoveryEndpoint) Command(_ func() string) *cobra.Command {
	return nil
}
