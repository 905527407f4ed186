package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/api"
	"github.com/jackzampolin/bedtime/internal/library"
	"github.com/jackzampolin/bedtime/internal/story"
	"github.com/jackzampolin/bedtime/internal/svcctx"
)

// storiesGroup places story commands under "bedtime api stories".
type storiesGroup struct{}

func (storiesGroup) Group() (string, string) { return "stories", "Saved story commands" }

// ListStoriesResponse is a page of saved stories.
type ListStoriesResponse struct {
	Stories []*story.Story `json:"stories"`
	Total   int            `json:"total"`
}

// Text renders one line per story, favorites starred.
func (l ListStoriesResponse) Text() string {
	var b strings.Builder
	for _, st := range l.Stories {
		star := " "
		if st.Favorite {
			star = "*"
		}
		fmt.Fprintf(&b, "%s %s  %s  %-3s %s\n", star, st.ID, st.CreatedAt.Format("2006-01-02"), st.Language, st.Title)
	}
	fmt.Fprintf(&b, "%d of %d stories", len(l.Stories), l.Total)
	return b.String()
}

// filterFromQuery reads favorites, language and q.
func filterFromQuery(q url.Values) library.Filter {
	fav, _ := strconv.ParseBool(q.Get("favorites"))
	return library.Filter{
		FavoritesOnly: fav,
		Language:      q.Get("language"),
		Query:         q.Get("q"),
	}
}

type filterFlags struct {
	favorites bool
	language  string
	search    string
}

func (f filterFlags) query() string {
	v := url.Values{}
	if f.favorites {
		v.Set("favorites", "true")
	}
	if f.language != "" {
		v.Set("language", f.language)
	}
	if f.search != "" {
		v.Set("q", f.search)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.favorites, "favorites", false, "Only favorite stories")
	cmd.Flags().StringVar(&f.language, "language", "", "Only stories in this language")
	cmd.Flags().StringVarP(&f.search, "query", "q", "", "Search title, text, topic and name")
}

// ListStoriesEndpoint handles GET /api/stories.
type ListStoriesEndpoint struct{ storiesGroup }

func (e *ListStoriesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/stories", e.handler
}

func (e *ListStoriesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	List saved stories
//	@Tags		stories
//	@Produce	json
//	@Param		favorites	query		bool	false	"Only favorites"
//	@Param		language	query		string	false	"Language code"
//	@Param		q			query		string	false	"Search text"
//	@Success	200			{object}	ListStoriesResponse
//	@Router		/api/stories [get]
func (e *ListStoriesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	lib := svcctx.LibraryFrom(r.Context())
	list := lib.List(filterFromQuery(r.URL.Query()))
	if list == nil {
		list = []*story.Story{}
	}
	writeJSON(w, http.StatusOK, ListStoriesResponse{Stories: list, Total: lib.Len()})
}

func (e *ListStoriesEndpoint) Command(getServerURL func() string) *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved stories, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListStoriesResponse
			if err := client.Get(cmd.Context(), "/api/stories"+f.query(), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	f.bind(cmd)
	return cmd
}

// GetStoryEndpoint handles GET /api/stories/{id}.
type GetStoryEndpoint struct{ storiesGroup }

func (e *GetStoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/stories/{id}", e.handler
}

func (e *GetStoryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Get a saved story
//	@Tags		stories
//	@Produce	json
//	@Param		id	path		string	true	"Story ID"
//	@Success	200	{object}	StoryResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/stories/{id} [get]
func (e *GetStoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, err := svcctx.LibraryFrom(r.Context()).Get(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StoryResponse{Story: st, Saved: true})
}

func (e *GetStoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a saved story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StoryResponse
			if err := client.Get(cmd.Context(), "/api/stories/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// SaveStoryEndpoint handles POST /api/stories.
type SaveStoryEndpoint struct{ storiesGroup }

func (e *SaveStoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/stories", e.handler
}

func (e *SaveStoryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Save a story
//	@Description	Save a generated story. A new story must match what its request and salt generate. Saving an id that is already in the library only updates its favorite flag.
//	@Tags			stories
//	@Accept			json
//	@Produce		json
//	@Param			body	body		story.Story	true	"Story"
//	@Success		200		{object}	StoryResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/stories [post]
func (e *SaveStoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var st story.Story
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if st.ID == "" {
		writeError(w, http.StatusBadRequest, "story id is required")
		return
	}

	lib := svcctx.LibraryFrom(ctx)
	if _, err := lib.Get(st.ID); errors.Is(err, library.ErrNotFound) {
		// New stories must be exactly what the generator wrote.
		verified, err := svcctx.GeneratorFrom(ctx).Verify(&st)
		if err != nil {
			writeErr(w, err)
			return
		}
		st = *verified
	}
	if err := lib.Save(ctx, &st); err != nil {
		writeErr(w, err)
		return
	}
	svcctx.MetricsFrom(ctx).LibrarySize(lib.Len())
	clearRecoveryIf(r, st.ID)

	saved, err := lib.Get(st.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StoryResponse{Story: saved, Saved: true})
}

// clearRecoveryIf drops the recovery snapshot once the story it holds is saved.
func clearRecoveryIf(r *http.Request, id string) {
	h := svcctx.HomeFrom(r.Context())
	if h == nil {
		return
	}
	rec, err := library.ReadRecovery(h.RecoveryPath())
	if err != nil || rec == nil || rec.ID != id {
		return
	}
	if err := library.ClearRecovery(h.RecoveryPath()); err != nil {
		svcctx.LoggerFrom(r.Context()).Warn("failed to clear recovery story", "error", err)
	}
}

func (e *SaveStoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the last generated story from the recovery snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var recovered StoryResponse
			if err := client.Get(ctx, "/api/recovery", &recovered); err != nil {
				return err
			}
			var resp StoryResponse
			if err := client.Post(ctx, "/api/stories", recovered.Story, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteStoryEndpoint handles DELETE /api/stories/{id}.
type DeleteStoryEndpoint struct{ storiesGroup }

func (e *DeleteStoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/stories/{id}", e.handler
}

func (e *DeleteStoryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a saved story
//	@Description	The most recent deletion can be undone with POST /api/stories/undo-delete
//	@Tags			stories
//	@Param			id	path	string	true	"Story ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/stories/{id} [delete]
func (e *DeleteStoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lib := svcctx.LibraryFrom(ctx)
	if err := lib.Delete(ctx, r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	svcctx.MetricsFrom(ctx).LibrarySize(lib.Len())
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteStoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/stories/"+url.PathEscape(args[0])); err != nil {
				return err
			}
			fmt.Printf("Deleted %s (undo with: bedtime api stories undo-delete)\n", args[0])
			return nil
		},
	}
}

// UndoDeleteEndpoint handles POST /api/stories/undo-delete.
type UndoDeleteEndpoint struct{ storiesGroup }

func (e *UndoDeleteEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/stories/undo-delete", e.handler
}

func (e *UndoDeleteEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Restore the most recently deleted story
//	@Tags		stories
//	@Produce	json
//	@Success	200	{object}	StoryResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/stories/undo-delete [post]
func (e *UndoDeleteEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lib := svcctx.LibraryFrom(ctx)
	st, err := lib.UndoDelete(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	svcctx.MetricsFrom(ctx).LibrarySize(lib.Len())
	writeJSON(w, http.StatusOK, StoryResponse{Story: st, Saved: true})
}

func (e *UndoDeleteEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "undo-delete",
		Short: "Restore the most recently deleted story",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StoryResponse
			if err := client.Post(cmd.Context(), "/api/stories/undo-delete", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// FavoriteRequest sets the favorite flag. A missing value toggles it.
type FavoriteRequest struct {
	Favorite *bool `json:"favorite,omitempty"`
}

// FavoriteEndpoint handles POST /api/stories/{id}/favorite.
type FavoriteEndpoint struct{ storiesGroup }

func (e *FavoriteEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/stories/{id}/favorite", e.handler
}

func (e *FavoriteEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Mark or unmark a story as favorite
//	@Tags		stories
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Story ID"
//	@Param		body	body		FavoriteRequest	false	"Omit favorite to toggle"
//	@Success	200		{object}	StoryResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/api/stories/{id}/favorite [post]
func (e *FavoriteEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req FavoriteRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	lib := svcctx.LibraryFrom(ctx)
	id := r.PathValue("id")
	var st *story.Story
	var err error
	if req.Favorite != nil {
		st, err = lib.SetFavorite(ctx, id, *req.Favorite)
	} else {
		st, err = lib.ToggleFavorite(ctx, id)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StoryResponse{Story: st, Saved: true})
}

func (e *FavoriteEndpoint) Command(getServerURL func() string) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Mark a story as favorite (--off to unmark)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			fav := !off
			var resp StoryResponse
			path := "/api/stories/" + url.PathEscape(args[0]) + "/favorite"
			if err := client.Post(cmd.Context(), path, FavoriteRequest{Favorite: &fav}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "Remove the favorite mark")
	return cmd
}
