package endpoints

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/api"
	"github.com/jackzampolin/bedtime/internal/config"
	"github.com/jackzampolin/bedtime/internal/export"
	"github.com/jackzampolin/bedtime/internal/library"
	"github.com/jackzampolin/bedtime/internal/story"
	"github.com/jackzampolin/bedtime/internal/svcctx"
)

// FormatAll exports every registered format into one folder.
const FormatAll = "all"

// ExportRequest optionally narrows a combined export.
type ExportRequest struct {
	Formats []string `json:"formats,omitempty"`
}

// ExportResponse lists written files by format.
type ExportResponse struct {
	Dir    string            `json:"dir"`
	Files  map[string]string `json:"files"`
	Errors map[string]string `json:"errors,omitempty"`
}

// findStory looks in the library first, then at the unsaved story in the
// recovery snapshot.
func findStory(ctx context.Context, id string) (*story.Story, error) {
	st, err := svcctx.LibraryFrom(ctx).Get(id)
	if err == nil || !errors.Is(err, library.ErrNotFound) {
		return st, err
	}
	if h := svcctx.HomeFrom(ctx); h != nil {
		if rec, rerr := library.ReadRecovery(h.RecoveryPath()); rerr == nil && rec != nil && rec.ID == id {
			return rec, nil
		}
	}
	return nil, err
}

// exportTarget resolves the output directory and file name pattern from
// settings.
func exportTarget(ctx context.Context) (dir, pattern string) {
	store := svcctx.ConfigStoreFrom(ctx)
	dir = config.GetString(ctx, store, config.KeyExportPath, "")
	if dir == "" {
		if h := svcctx.HomeFrom(ctx); h != nil {
			dir = h.ExportsDir()
		} else {
			dir = os.TempDir()
		}
	}
	pattern = config.GetString(ctx, store, config.KeyFilenamePattern, export.DefaultPattern)
	return dir, pattern
}

// ExportStoryEndpoint handles POST /api/stories/{id}/export/{format}.
type ExportStoryEndpoint struct{ storiesGroup }

func (e *ExportStoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/stories/{id}/export/{format}", e.handler
}

func (e *ExportStoryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Export a story to the export folder
//	@Description	Writes one file, or with format "all" one folder holding every format
//	@Tags			export
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Story ID"
//	@Param			format	path		string			true	"txt, html, pdf, rtf, epub or all"
//	@Param			body	body		ExportRequest	false	"Formats for a combined export"
//	@Success		200		{object}	ExportResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/stories/{id}/export/{format} [post]
func (e *ExportStoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := findStory(ctx, r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}

	reg := svcctx.ExportersFrom(ctx)
	rec := svcctx.MetricsFrom(ctx)
	dir, pattern := exportTarget(ctx)
	format := strings.ToLower(r.PathValue("format"))

	if format != FormatAll {
		path, err := reg.WriteFile(dir, pattern, st, format)
		rec.Exported(format, err)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ExportResponse{Dir: dir, Files: map[string]string{format: path}})
		return
	}

	var req ExportRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	combined, err := reg.WriteAll(dir, pattern, st, req.Formats)
	if combined != nil {
		for f := range combined.Files {
			rec.Exported(f, nil)
		}
		for f := range combined.Errors {
			rec.Exported(f, errors.New(combined.Errors[f]))
		}
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExportResponse{Dir: combined.Dir, Files: combined.Files, Errors: combined.Errors})
}

func (e *ExportStoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var formats []string
	cmd := &cobra.Command{
		Use:   "export <id> <format|all>",
		Short: "Write a story into the server's export folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := fmt.Sprintf("/api/stories/%s/export/%s", url.PathEscape(args[0]), url.PathEscape(args[1]))
			var body any
			if len(formats) > 0 {
				body = ExportRequest{Formats: formats}
			}
			var resp ExportResponse
			if err := client.Post(cmd.Context(), path, body, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringSliceVar(&formats, "formats", nil, "Formats for a combined export (default: all)")
	return cmd
}

// DownloadStoryEndpoint handles GET /api/stories/{id}/download/{format}.
type DownloadStoryEndpoint struct{ storiesGroup }

func (e *DownloadStoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/stories/{id}/download/{format}", e.handler
}

func (e *DownloadStoryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Download a story in one format
//	@Tags		export
//	@Produce	octet-stream
//	@Param		id		path	string	true	"Story ID"
//	@Param		format	path	string	true	"txt, html, pdf, rtf or epub"
//	@Success	200
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/stories/{id}/download/{format} [get]
func (e *DownloadStoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := findStory(ctx, r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	exp, err := svcctx.ExportersFrom(ctx).Get(r.PathValue("format"))
	if err != nil {
		writeErr(w, err)
		return
	}

	// Render fully before writing headers so a failure can still be a 500.
	var buf bytes.Buffer
	err = exp.Export(&buf, st)
	svcctx.MetricsFrom(ctx).Exported(exp.Format(), err)
	if err != nil {
		writeErr(w, err)
		return
	}

	_, pattern := exportTarget(ctx)
	name := export.Filename(pattern, st) + "." + exp.Extension()
	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Write(buf.Bytes())
}

func (e *DownloadStoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "download <id> <format>",
		Short: "Download a story as a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := fmt.Sprintf("/api/stories/%s/download/%s", url.PathEscape(args[0]), url.PathEscape(args[1]))
			data, _, err := client.Download(cmd.Context(), path)
			if err != nil {
				return err
			}
			if outFile == "" {
				outFile = args[0] + "." + strings.ToLower(args[1])
			}
			if err := os.WriteFile(outFile, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", outFile, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "file", "f", "", "Output file (default: <id>.<format>)")
	return cmd
}
