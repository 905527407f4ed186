package export

import (
	"fmt"
	"io"

	"github.com/jackzampolin/bedtime/internal/epub"
	"github.com/jackzampolin/bedtime/internal/story"
)

// EPUB writes a one-story ebook.
type EPUB struct{}

func (EPUB) Format() string      { return "epub" }
func (EPUB) Extension() string   { return "epub" }
func (EPUB) ContentType() string { return "application/epub+zip" }

func (EPUB) Export(w io.Writer, st *story.Story) error {
	book := epub.Book{
		ID:        st.ID,
		Title:     st.Title,
		Author:    "Bedtime",
		Language:  st.Language,
		CreatedAt: st.CreatedAt,
	}
	return epub.NewBuilder(book, []epub.Chapter{chapter(1, st)}).WriteTo(w)
}

// WriteCollection writes several stories as one ebook, one chapter each,
// in the order given.
func WriteCollection(w io.Writer, title, language string, stories []*story.Story) error {
	if len(stories) == 0 {
		return fmt.Errorf("collection has no stories")
	}
	chapters := make([]epub.Chapter, len(stories))
	for i, st := range stories {
		chapters[i] = chapter(i+1, st)
	}
	book := epub.Book{Title: title, Author: "Bedtime", Language: language}
	return epub.NewBuilder(book, chapters).WriteTo(w)
}

func chapter(n int, st *story.Story) epub.Chapter {
	subtitle := st.Theme
	if !st.CreatedAt.IsZero() {
		subtitle = fmt.Sprintf("%s, %s", st.Theme, st.CreatedAt.Format("2006-01-02"))
	}
	return epub.Chapter{
		ID:         fmt.Sprintf("story_%03d", n),
		Title:      st.Title,
		Subtitle:   subtitle,
		Paragraphs: st.Paragraphs(),
	}
}
