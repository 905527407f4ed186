package endpoints

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/api"
	"github.com/jackzampolin/bedtime/internal/catalog"
	"github.com/jackzampolin/bedtime/internal/story"
	"github.com/jackzampolin/bedtime/internal/svcctx"
)

// CatalogResponse lists what the generator can write.
type CatalogResponse struct {
	Source    string                 `json:"source"`
	Version   int                    `json:"version"`
	Languages []catalog.LanguageInfo `json:"languages"`
	Tones     []story.Tone           `json:"tones"`
	Lengths   []story.Length         `json:"lengths"`
}

// Text renders one line per language.
func (c CatalogResponse) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "catalog %s (v%d)\n", c.Source, c.Version)
	for _, l := range c.Languages {
		slugs := make([]string, len(l.Themes))
		for i, t := range l.Themes {
			slugs[i] = t.Slug
		}
		fmt.Fprintf(&b, "  %-4s %s: %s\n", l.Code, l.Name, strings.Join(slugs, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// CatalogEndpoint handles GET /api/catalog.
type CatalogEndpoint struct{}

func (e *CatalogEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/catalog", e.handler
}

func (e *CatalogEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Describe the story catalog
//	@Description	Languages, themes, tones and lengths the generator supports
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	CatalogResponse
//	@Router			/api/catalog [get]
func (e *CatalogEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cat := svcctx.CatalogFrom(r.Context())
	writeJSON(w, http.StatusOK, CatalogResponse{
		Source:    cat.Source(),
		Version:   cat.Version(),
		Languages: cat.Describe(),
		Tones:     story.Tones,
		Lengths:   story.Lengths,
	})
}

func (e *CatalogEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List languages and themes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp CatalogResponse
			if err := client.Get(cmd.Context(), "/api/catalog", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
