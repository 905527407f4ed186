package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jackzampolin/bedtime/internal/story"
)

// TXT writes the title, an underline and the paragraphs as plain text.
type TXT struct{}

func (TXT) Format() string      { return "txt" }
func (TXT) Extension() string   { return "txt" }
func (TXT) ContentType() string { return "text/plain; charset=utf-8" }

func (TXT) Export(w io.Writer, st *story.Story) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, st.Title)
	fmt.Fprintln(bw, strings.Repeat("=", len([]rune(st.Title))))
	for _, p := range st.Paragraphs() {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, p)
	}
	return bw.Flush()
}
