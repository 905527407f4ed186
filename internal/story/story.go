// Package story assembles bedtime stories from catalog fragments.
package story

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tone flavors the connective words used between story beats.
type Tone string

const (
	ToneGentle      Tone = "Gentle"
	ToneFunny       Tone = "Funny"
	ToneAdventurous Tone = "Adventurous"
	ToneCalm        Tone = "Calm"
)

// Tones lists every tone in display order.
var Tones = []Tone{ToneGentle, ToneFunny, ToneAdventurous, ToneCalm}

// ParseTone matches a tone name case-insensitively.
func ParseTone(s string) (Tone, bool) {
	for _, t := range Tones {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// key is the catalog connective pool name for the tone.
func (t Tone) key() string {
	if parsed, ok := ParseTone(string(t)); ok {
		return strings.ToLower(string(parsed))
	}
	return strings.ToLower(string(ToneGentle))
}

// Length controls how many middle fragments a story gets.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Lengths lists every length from shortest to longest.
var Lengths = []Length{LengthShort, LengthMedium, LengthLong}

// ParseLength matches a length name case-insensitively.
func ParseLength(s string) (Length, bool) {
	for _, l := range Lengths {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, true
		}
	}
	return "", false
}

// ErrInvalidRequest is returned by Request.Validate.
var ErrInvalidRequest = errors.New("invalid story request")

// Request describes the story to generate.
type Request struct {
	Topic             string `json:"topic"`
	ChildName         string `json:"child_name,omitempty"`
	Age               *int   `json:"age,omitempty"`
	Tone              Tone   `json:"tone,omitempty"`
	Theme             string `json:"theme,omitempty"`
	Language          string `json:"language"`
	Length            Length `json:"length,omitempty"`
	BreathingExercise bool   `json:"breathing_exercise"`
	MoralLesson       bool   `json:"moral_lesson"`
	CalmClosure       bool   `json:"calm_closure"`
}

// Validate rejects requests that cannot come from a well-behaved client.
// The generator itself tolerates all of these by falling back.
func (r Request) Validate() error {
	if r.Age != nil && *r.Age < 0 {
		return fmt.Errorf("%w: age must not be negative, got %d", ErrInvalidRequest, *r.Age)
	}
	if r.Tone != "" {
		if _, ok := ParseTone(string(r.Tone)); !ok {
			return fmt.Errorf("%w: unknown tone %q", ErrInvalidRequest, r.Tone)
		}
	}
	if r.Length != "" {
		if _, ok := ParseLength(string(r.Length)); !ok {
			return fmt.Errorf("%w: unknown length %q", ErrInvalidRequest, r.Length)
		}
	}
	if strings.TrimSpace(r.Language) == "" {
		return fmt.Errorf("%w: language is required", ErrInvalidRequest)
	}
	return nil
}

// SectionKind names the beat a paragraph came from.
type SectionKind string

const (
	SectionIntro     SectionKind = "intro"
	SectionMiddle    SectionKind = "middle"
	SectionClimax    SectionKind = "climax"
	SectionMoral     SectionKind = "moral"
	SectionBreathing SectionKind = "breathing"
)

// Section is one rendered paragraph of a story.
type Section struct {
	Kind SectionKind `json:"kind"`
	Text string      `json:"text"`
}

// Story is a generated story. Body never changes after generation; the
// library only flips Favorite.
type Story struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Request    Request   `json:"request"`
	Language   string    `json:"language"`
	Theme      string    `json:"theme"`
	Tone       Tone      `json:"tone"`
	Length     Length    `json:"length"`
	Sections   []Section `json:"sections,omitempty"`
	WordCount  int       `json:"word_count"`
	Uniqueness float64   `json:"uniqueness"`
	// Salt regenerates the same title and body through Reproduce.
	Salt       uint64    `json:"salt,string"`
	CreatedAt  time.Time `json:"created_at"`
	Favorite   bool      `json:"favorite"`
}

// Topic returns the request topic, used for searching and file names.
func (s *Story) Topic() string {
	return s.Request.Topic
}

// ChildName returns the request's child name.
func (s *Story) ChildName() string {
	return s.Request.ChildName
}

// Paragraphs splits the body into its paragraphs.
func (s *Story) Paragraphs() []string {
	var out []string
	for _, p := range strings.Split(s.Body, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
