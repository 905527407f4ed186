package export

import (
	"html/template"
	"io"

	"github.com/jackzampolin/bedtime/internal/story"
)

var htmlTemplate = template.Must(template.New("story").Parse(`<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 40em; margin: 3em auto; padding: 0 1em; line-height: 1.7; background: #f8f5f9; color: #2a2a35; }
h1 { text-align: center; color: #7a5af8; }
.meta { text-align: center; color: #6b6f82; font-style: italic; }
.breathing { background: #ffffff; border-left: 4px solid #2ec4b6; padding: 0.5em 1em; }
.moral { font-style: italic; }
</style>
</head>
<body>
<article id="{{.ID}}">
<h1>{{.Title}}</h1>
<p class="meta">{{.Theme}} &middot; {{.CreatedAt.Format "2006-01-02"}}</p>
{{range .Sections}}<p class="{{.Kind}}">{{.Text}}</p>
{{end}}</article>
</body>
</html>
`))

// HTML writes a standalone, styled page.
type HTML struct{}

func (HTML) Format() string      { return "html" }
func (HTML) Extension() string   { return "html" }
func (HTML) ContentType() string { return "text/html; charset=utf-8" }

func (HTML) Export(w io.Writer, st *story.Story) error {
	view := *st
	if len(view.Sections) == 0 {
		for _, p := range st.Paragraphs() {
			view.Sections = append(view.Sections, story.Section{Kind: story.SectionMiddle, Text: p})
		}
	}
	return htmlTemplate.Execute(w, view)
}
