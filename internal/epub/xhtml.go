package epub

import "strings"

// generateChapterXHTML renders one story as an XHTML document.
func (b *Builder) generateChapterXHTML(ch Chapter) string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>`)
	sb.WriteString(escapeXML(ch.Title))
	sb.WriteString(`</title>
  <link rel="stylesheet" type="text/css" href="../styles/style.css"/>
</head>
<body>
`)

	sb.WriteString("<h1>")
	sb.WriteString(escapeXML(ch.Title))
	sb.WriteString("</h1>\n")
	if ch.Subtitle != "" {
		sb.WriteString(`<p class="subtitle">`)
		sb.WriteString(escapeXML(ch.Subtitle))
		sb.WriteString("</p>\n")
	}

	for _, p := range ch.Paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(escapeXML(p))
		sb.WriteString("</p>\n")
	}

	sb.WriteString("</body>\n</html>\n")

	return sb.String()
}
