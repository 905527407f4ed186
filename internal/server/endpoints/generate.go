package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/api"
	"github.com/jackzampolin/bedtime/internal/config"
	"github.com/jackzampolin/bedtime/internal/library"
	"github.com/jackzampolin/bedtime/internal/story"
	"github.com/jackzampolin/bedtime/internal/svcctx"
)

// GenerateRequest is the body of POST /api/stories/generate. Empty tone,
// language and length, and a missing calm_closure, take the configured
// defaults. Salt reproduces an earlier story exactly.
type GenerateRequest struct {
	Topic             string  `json:"topic"`
	ChildName         string  `json:"child_name,omitempty"`
	Age               *int    `json:"age,omitempty"`
	Tone              string  `json:"tone,omitempty"`
	Theme             string  `json:"theme,omitempty"`
	Language          string  `json:"language,omitempty"`
	Length            string  `json:"length,omitempty"`
	BreathingExercise bool    `json:"breathing_exercise"`
	MoralLesson       bool    `json:"moral_lesson"`
	CalmClosure       *bool   `json:"calm_closure,omitempty"`
	Salt              *uint64 `json:"salt,string,omitempty"`
	Save              bool    `json:"save"`
}

// Resolve fills defaults from the settings store and returns the story
// request. store may be nil.
func (g GenerateRequest) Resolve(ctx context.Context, store config.Store) (story.Request, error) {
	req := story.Request{
		Topic:             strings.TrimSpace(g.Topic),
		ChildName:         strings.TrimSpace(g.ChildName),
		Age:               g.Age,
		Tone:              story.Tone(g.Tone),
		Theme:             strings.TrimSpace(g.Theme),
		Language:          strings.TrimSpace(g.Language),
		Length:            story.Length(g.Length),
		BreathingExercise: g.BreathingExercise,
		MoralLesson:       g.MoralLesson,
	}
	if req.Language == "" {
		req.Language = config.GetString(ctx, store, config.KeyDefaultLanguage, "en")
	}
	if req.Tone == "" {
		req.Tone = story.Tone(config.GetString(ctx, store, config.KeyDefaultTone, string(story.ToneGentle)))
	}
	if req.Length == "" {
		req.Length = story.Length(config.GetString(ctx, store, config.KeyDefaultLength, string(story.LengthMedium)))
	}
	if g.CalmClosure != nil {
		req.CalmClosure = *g.CalmClosure
	} else {
		req.CalmClosure = config.GetBool(ctx, store, config.KeyCalmClosure, true)
	}
	if err := req.Validate(); err != nil {
		return story.Request{}, err
	}
	return req, nil
}

// StoryResponse wraps a single story.
type StoryResponse struct {
	Story *story.Story `json:"story"`
	Saved bool         `json:"saved"`
}

// Text renders the story for reading aloud.
func (s StoryResponse) Text() string {
	if s.Story == nil {
		return ""
	}
	return s.Story.Title + "\n\n" + s.Story.Body
}

// GenerateEndpoint handles POST /api/stories/generate.
type GenerateEndpoint struct{}

func (e *GenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/stories/generate", e.handler
}

func (e *GenerateEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Generate a story
//	@Description	Generate a new bedtime story; optionally save it to the library
//	@Tags			stories
//	@Accept			json
//	@Produce		json
//	@Param			body	body		GenerateRequest	true	"Story request"
//	@Success		200		{object}	StoryResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/stories/generate [post]
func (e *GenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := svcctx.LoggerFrom(ctx)
	rec := svcctx.MetricsFrom(ctx)

	var body GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req, err := body.Resolve(ctx, svcctx.ConfigStoreFrom(ctx))
	if err != nil {
		writeErr(w, err)
		return
	}

	gen := svcctx.GeneratorFrom(ctx)
	var st *story.Story
	if body.Salt != nil {
		st, err = gen.Reproduce(req, *body.Salt)
	} else {
		st, err = gen.Generate(req)
	}
	if err != nil {
		rec.GenerationFailed()
		logger.Error("story generation failed", "language", req.Language, "error", err)
		writeErr(w, err)
		return
	}
	rec.StoryGenerated(st.Language, st.Theme, st.Uniqueness)

	if h := svcctx.HomeFrom(ctx); h != nil {
		if err := library.WriteRecovery(h.RecoveryPath(), st); err != nil {
			logger.Warn("failed to write recovery story", "error", err)
		}
	}

	resp := StoryResponse{Story: st}
	if body.Save {
		lib := svcctx.LibraryFrom(ctx)
		if err := lib.Save(ctx, st); err != nil {
			writeErr(w, err)
			return
		}
		rec.LibrarySize(lib.Len())
		resp.Saved = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *GenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var flags RequestFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a story on the server",
		Example: `  bedtime api generate --topic dragons --name Léa --language fr --breathing
  bedtime api generate --topic space --tone calm --length long --save -o text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StoryResponse
			if err := client.Post(cmd.Context(), "/api/stories/generate", flags.Request(cmd), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	flags.Bind(cmd)
	return cmd
}

// RequestFlags binds generation flags to a command. The offline generate
// command shares it with the API command.
type RequestFlags struct {
	Topic     string
	Name      string
	Age       int
	Tone      string
	Theme     string
	Language  string
	Length    string
	Breathing bool
	Moral     bool
	Calm      bool
	Salt      uint64
	Save      bool
}

// Bind registers the flags on cmd.
func (f *RequestFlags) Bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.Topic, "topic", "", "What the story is about")
	fl.StringVar(&f.Name, "name", "", "Child's name")
	fl.IntVar(&f.Age, "age", 0, "Child's age")
	fl.StringVar(&f.Tone, "tone", "", "gentle, funny, adventurous or calm (default from settings)")
	fl.StringVar(&f.Theme, "theme", "", "Theme slug; unknown themes fall back to the language default")
	fl.StringVar(&f.Language, "language", "", "Language code, e.g. en or fr (default from settings)")
	fl.StringVar(&f.Length, "length", "", "short, medium or long (default from settings)")
	fl.BoolVar(&f.Breathing, "breathing", false, "End with a breathing exercise")
	fl.BoolVar(&f.Moral, "moral", false, "Include a moral lesson")
	fl.BoolVar(&f.Calm, "calm-closure", true, "End with a soothing closing line (default from settings)")
	fl.Uint64Var(&f.Salt, "salt", 0, "Reproduce the story generated with this salt")
	fl.BoolVar(&f.Save, "save", false, "Save the story to the library")
}

// Request builds a GenerateRequest, leaving unset optional flags to the
// server-side defaults.
func (f *RequestFlags) Request(cmd *cobra.Command) GenerateRequest {
	req := GenerateRequest{
		Topic:             f.Topic,
		ChildName:         f.Name,
		Tone:              f.Tone,
		Theme:             f.Theme,
		Language:          f.Language,
		Length:            f.Length,
		BreathingExercise: f.Breathing,
		MoralLesson:       f.Moral,
		Save:              f.Save,
	}
	fl := cmd.Flags()
	if fl.Changed("age") {
		age := f.Age
		req.Age = &age
	}
	if fl.Changed("calm-closure") {
		calm := f.Calm
		req.CalmClosure = &calm
	}
	if fl.Changed("salt") {
		salt := f.Salt
		req.Salt = &salt
	}
	return req
}
