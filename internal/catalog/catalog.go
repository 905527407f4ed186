// Package catalog holds the fragment pools stories are assembled from.
//
// A Catalog is built once, either from the embedded default content or from
// an override file, and is never modified afterwards. It is safe to share
// between goroutines without locking.
package catalog

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/jackzampolin/bedtime/internal/schema"
)

// Word bank keys referenced by fragment placeholders.
const (
	WordAdjective     = "adjective"
	WordCreature      = "creature"
	WordObject        = "object"
	WordCharacterType = "character_type"
)

// WordBanks lists the word bank placeholders in the order they are drawn.
var WordBanks = []string{WordAdjective, WordCreature, WordObject, WordCharacterType}

// Theme is one thematic set of fragment pools.
type Theme struct {
	Name      string   `json:"name"`
	Intro     []string `json:"intro"`
	Middle    []string `json:"middle"`
	Climax    []string `json:"climax"`
	Moral     []string `json:"moral"`
	Breathing []string `json:"breathing,omitempty"`
}

// Language holds everything needed to write a story in one language.
type Language struct {
	Name         string              `json:"name"`
	DefaultTheme string              `json:"default_theme"`
	DefaultName  string              `json:"default_name"`
	DefaultTopic string              `json:"default_topic,omitempty"`
	AgeClause    string              `json:"age_clause,omitempty"`
	AgeFallback  string              `json:"age_fallback,omitempty"`
	Title        string              `json:"title"`
	Words        map[string][]string `json:"words"`
	Connectives  map[string][]string `json:"connectives"`
	Breathing    []string            `json:"breathing"`
	Closings     []string            `json:"closings,omitempty"`
	CalmWords    []string            `json:"calm_words,omitempty"`
	Themes       map[string]*Theme   `json:"themes"`

	slugs []string
}

// ThemeSlugs returns the language's theme slugs in sorted order.
func (l *Language) ThemeSlugs() []string {
	out := make([]string, len(l.slugs))
	copy(out, l.slugs)
	return out
}

// Theme resolves a theme slug. An unknown slug falls back to the language's
// default theme and then to the first theme by slug. The returned slug is
// the one that was actually used. ok is false only when the language has no
// themes at all.
func (l *Language) Theme(slug string) (resolved string, theme *Theme, ok bool) {
	if t, found := l.Themes[slug]; found {
		return slug, t, true
	}
	if t, found := l.Themes[l.DefaultTheme]; found {
		return l.DefaultTheme, t, true
	}
	if len(l.slugs) == 0 {
		return "", nil, false
	}
	first := l.slugs[0]
	return first, l.Themes[first], true
}

// ThemeInfo is the listing form of a theme.
type ThemeInfo struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// LanguageInfo is the listing form of a language.
type LanguageInfo struct {
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	DefaultTheme string      `json:"default_theme"`
	Themes       []ThemeInfo `json:"themes"`
}

// Catalog is an immutable set of languages.
type Catalog struct {
	version   int
	languages map[string]*Language
	codes     []string
	source    string
}

type document struct {
	Version   int                  `json:"version"`
	Languages map[string]*Language `json:"languages"`
}

// Parse validates and decodes a catalog document. source names where the
// document came from and is reported by Source.
func Parse(data []byte, source string) (*Catalog, error) {
	if err := schema.Validate(schema.Catalog, data); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", source, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", source, err)
	}

	c := &Catalog{
		version:   doc.Version,
		languages: make(map[string]*Language, len(doc.Languages)),
		source:    source,
	}
	for code, lang := range doc.Languages {
		if err := checkPlaceholders(code, lang); err != nil {
			return nil, fmt.Errorf("invalid catalog %s: %w", source, err)
		}
		key := strings.ToLower(code)
		lang.slugs = make([]string, 0, len(lang.Themes))
		for slug := range lang.Themes {
			lang.slugs = append(lang.slugs, slug)
		}
		sort.Strings(lang.slugs)
		c.languages[key] = lang
		c.codes = append(c.codes, key)
	}
	sort.Strings(c.codes)

	return c, nil
}

// Version returns the catalog document version.
func (c *Catalog) Version() int {
	return c.version
}

// Source returns where the catalog was loaded from.
func (c *Catalog) Source() string {
	return c.source
}

// Languages returns the language codes in sorted order.
func (c *Catalog) Languages() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Language resolves a language tag. An exact match wins; otherwise the base
// language of the tag is tried, so "en-GB" resolves to "en". The returned
// code is the catalog key that matched.
func (c *Catalog) Language(tag string) (code string, lang *Language, ok bool) {
	key := strings.ToLower(strings.TrimSpace(tag))
	if l, found := c.languages[key]; found {
		return key, l, true
	}

	parsed, err := language.Parse(key)
	if err != nil {
		return "", nil, false
	}
	base, _ := parsed.Base()
	if l, found := c.languages[base.String()]; found {
		return base.String(), l, true
	}
	return "", nil, false
}

// Themes lists a language's themes. It returns nil for unknown languages.
func (c *Catalog) Themes(tag string) []ThemeInfo {
	_, lang, ok := c.Language(tag)
	if !ok {
		return nil
	}
	out := make([]ThemeInfo, 0, len(lang.slugs))
	for _, slug := range lang.slugs {
		out = append(out, ThemeInfo{Slug: slug, Name: lang.Themes[slug].Name})
	}
	return out
}

// Describe lists every language with its themes.
func (c *Catalog) Describe() []LanguageInfo {
	out := make([]LanguageInfo, 0, len(c.codes))
	for _, code := range c.codes {
		lang := c.languages[code]
		out = append(out, LanguageInfo{
			Code:         code,
			Name:         lang.Name,
			DefaultTheme: lang.DefaultTheme,
			Themes:       c.Themes(code),
		})
	}
	return out
}

var placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)

var fragmentPlaceholders = map[string]bool{
	"name":            true,
	"topic":           true,
	"age":             true,
	"age_clause":      true,
	"connective":      true,
	WordAdjective:     true,
	WordCreature:      true,
	WordObject:        true,
	WordCharacterType: true,
}

var titlePlaceholders = map[string]bool{
	"topic": true,
	"theme": true,
	"name":  true,
}

var agePlaceholders = map[string]bool{
	"age": true,
}

// checkPlaceholders rejects tokens the generator cannot fill and word bank
// placeholders whose bank is missing.
func checkPlaceholders(code string, lang *Language) error {
	check := func(where, text string, allowed map[string]bool) error {
		for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
			token := m[1]
			if !allowed[token] {
				return fmt.Errorf("%s %s: unknown placeholder {%s}", code, where, token)
			}
			if _, isWord := lang.Words[token]; !isWord && isWordBank(token) {
				return fmt.Errorf("%s %s: placeholder {%s} has no word bank", code, where, token)
			}
		}
		return nil
	}

	if err := check("title", lang.Title, titlePlaceholders); err != nil {
		return err
	}
	if err := check("age_clause", lang.AgeClause, agePlaceholders); err != nil {
		return err
	}

	pools := map[string][]string{
		"breathing": lang.Breathing,
		"closings":  lang.Closings,
	}
	for slug, theme := range lang.Themes {
		pools[slug+".intro"] = theme.Intro
		pools[slug+".middle"] = theme.Middle
		pools[slug+".climax"] = theme.Climax
		pools[slug+".moral"] = theme.Moral
		pools[slug+".breathing"] = theme.Breathing
	}
	for where, pool := range pools {
		for _, text := range pool {
			if err := check(where, text, fragmentPlaceholders); err != nil {
				return err
			}
		}
	}
	return nil
}

func isWordBank(token string) bool {
	for _, w := range WordBanks {
		if w == token {
			return true
		}
	}
	return false
}
