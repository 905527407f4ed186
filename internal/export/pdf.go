package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jackzampolin/bedtime/internal/story"
)

// A4 portrait layout in points, origin lower left.
const (
	pdfMarginLeft = 64
	pdfTop        = 770
	pdfBottom     = 72
	pdfTitleSize  = 20
	pdfBodySize   = 12
	pdfLineHeight = 17
	// Helvetica averages about half an em per character; 12pt over a 467pt
	// column leaves room for roughly 78 characters.
	pdfLineChars = 74
)

// PDF lays the story out with pdfcpu's JSON page description.
type PDF struct{}

func (PDF) Format() string      { return "pdf" }
func (PDF) Extension() string   { return "pdf" }
func (PDF) ContentType() string { return "application/pdf" }

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type pdfText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  pdfFont    `json:"font"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfDocument struct {
	Paper  string              `json:"paper"`
	Origin string              `json:"origin"`
	Pages  map[string]*pdfPage `json:"pages"`
}

func (PDF) Export(w io.Writer, st *story.Story) error {
	doc, err := json.Marshal(layoutPDF(st))
	if err != nil {
		return fmt.Errorf("failed to encode pdf layout: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.Create(nil, bytes.NewReader(doc), w, conf); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// layoutPDF wraps the title and paragraphs into lines and distributes
// them over as many pages as needed.
func layoutPDF(st *story.Story) *pdfDocument {
	doc := &pdfDocument{Paper: "A4P", Origin: "LowerLeft", Pages: map[string]*pdfPage{}}

	pageNum := 1
	page := &pdfPage{}
	doc.Pages[strconv.Itoa(pageNum)] = page
	y := float64(pdfTop)

	emit := func(line string, size int, font string, advance float64) {
		if y < pdfBottom {
			pageNum++
			page = &pdfPage{}
			doc.Pages[strconv.Itoa(pageNum)] = page
			y = pdfTop
		}
		if line != "" {
			page.Content.Text = append(page.Content.Text, pdfText{
				Value: line,
				Pos:   [2]float64{pdfMarginLeft, y},
				Font:  pdfFont{Name: font, Size: size},
			})
		}
		y -= advance
	}

	for _, line := range wrap(st.Title, pdfLineChars*pdfBodySize/pdfTitleSize) {
		emit(line, pdfTitleSize, "Helvetica-Bold", pdfTitleSize+6)
	}
	y -= pdfLineHeight

	for i, p := range st.Paragraphs() {
		if i > 0 {
			y -= pdfLineHeight / 2
		}
		for _, line := range wrap(p, pdfLineChars) {
			emit(line, pdfBodySize, "Helvetica", pdfLineHeight)
		}
	}

	return doc
}

// wrap breaks text into lines of at most width runes, splitting on spaces.
// A single word longer than width gets a line of its own.
func wrap(text string, width int) []string {
	var lines []string
	var cur strings.Builder
	curLen := 0
	for _, word := range strings.Fields(text) {
		n := len([]rune(word))
		if curLen > 0 && curLen+1+n > width {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	if curLen > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
