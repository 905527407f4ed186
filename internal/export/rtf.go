package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jackzampolin/bedtime/internal/story"
)

// RTF writes a minimal Rich Text document readable by word processors.
type RTF struct{}

func (RTF) Format() string      { return "rtf" }
func (RTF) Extension() string   { return "rtf" }
func (RTF) ContentType() string { return "application/rtf" }

func (RTF) Export(w io.Writer, st *story.Story) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(`{\rtf1\ansi\ansicpg1252\deff0{\fonttbl{\f0\froman Georgia;}}` + "\n")
	bw.WriteString(`\f0\fs28\qc{\b\fs36 ` + rtfEscape(st.Title) + `}\par\ql` + "\n")
	for _, p := range st.Paragraphs() {
		bw.WriteString(`\par ` + rtfEscape(p) + `\par` + "\n")
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

// rtfEscape escapes control characters and writes non-ASCII runes as
// \uN? sequences.
func rtfEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\line `)
		case r < 0x80:
			b.WriteRune(r)
		case r <= 0xFFFF:
			// RTF \u takes a signed 16-bit value.
			fmt.Fprintf(&b, `\u%d?`, int16(uint16(r)))
		default:
			// Outside the BMP: write the UTF-16 surrogate pair.
			r -= 0x10000
			hi := 0xD800 + (r>>10)&0x3FF
			lo := 0xDC00 + r&0x3FF
			fmt.Fprintf(&b, `\u%d?\u%d?`, int16(uint16(hi)), int16(uint16(lo)))
		}
	}
	return b.String()
}
