package api

import (
	"bytes"
	"strings"
	"testing"
)

type titled struct {
	Title string `json:"title" yaml:"title"`
}

func (t titled) Text() string { return "* " + t.Title }

func TestOutputTo(t *testing.T) {
	v := titled{Title: "The Sleepy Dragon"}
	tests := []struct {
		format OutputFormat
		data   any
		want   string
	}{
		{OutputFormatJSON, v, "{\n  \"title\": \"The Sleepy Dragon\"\n}\n"},
		{OutputFormatYAML, v, "title: The Sleepy Dragon\n"},
		{OutputFormatText, v, "* The Sleepy Dragon\n"},
		{OutputFormatText, map[string]int{"count": 2}, "count: 2\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := OutputTo(&buf, tt.format, tt.data); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}

	if err := OutputTo(&bytes.Buffer{}, "xml", v); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("unknown format error = %v", err)
	}
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("yaml")
	for in, want := range map[string]OutputFormat{
		"json": OutputFormatJSON,
		"JSON": OutputFormatJSON,
		"text": OutputFormatText,
		"yaml": OutputFormatYAML,
		"csv":  OutputFormatYAML,
	} {
		SetOutputFormat(in)
		if got := GetOutputFormat(); got != want {
			t.Errorf("SetOutputFormat(%q) -> %q, want %q", in, got, want)
		}
	}
}
