package story

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jackzampolin/bedtime/internal/catalog"
)

// Generator assembles stories from a catalog. Its only mutable state is the
// injected Source and the recent-body fingerprints, both safe for
// concurrent use, so one Generator can serve concurrent callers.
type Generator struct {
	catalog     *catalog.Catalog
	source      Source
	now         func() time.Time
	guardN      int
	guardWindow int
	recentSize  int
	recent      *recentBodies
	logger      *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithSource sets the salt source. Tests pass NewSeededSource.
func WithSource(src Source) Option {
	return func(g *Generator) { g.source = src }
}

// WithClock sets the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithGuard sets the n-gram size and window used for the uniqueness ratio.
func WithGuard(n, window int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.guardN = n
		}
		if window > 0 {
			g.guardWindow = window
		}
	}
}

// WithRecentBodies sets how many recent bodies Generate refuses to repeat.
// Zero turns the check off.
func WithRecentBodies(n int) Option {
	return func(g *Generator) { g.recentSize = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// New creates a Generator over an immutable catalog.
func New(cat *catalog.Catalog, opts ...Option) *Generator {
	g := &Generator{
		catalog:     cat,
		now:         time.Now,
		guardN:      DefaultGuardN,
		guardWindow: DefaultGuardWindow,
		recentSize:  DefaultRecentBodies,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.recent = newRecentBodies(g.recentSize)
	if g.source == nil {
		g.source = NewSource()
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Catalog returns the catalog the generator draws from.
func (g *Generator) Catalog() *catalog.Catalog {
	return g.catalog
}

// Generate writes a new story. Every call draws a fresh salt, so identical
// requests produce different stories. A body identical to one of the
// recently generated bodies is redrawn with another salt. The only error is
// a *ConfigurationError when the catalog cannot serve the language.
func (g *Generator) Generate(req Request) (*Story, error) {
	var st *Story
	for attempt := 1; attempt <= maxRedraws; attempt++ {
		var err error
		st, err = g.Reproduce(req, g.source.Uint64())
		if err != nil {
			return nil, err
		}
		if g.recent.add(st.Body) {
			return st, nil
		}
		g.logger.Debug("story repeated a recent body, redrawing", "attempt", attempt, "salt", st.Salt)
	}
	return st, nil
}

// Reproduce writes the story a given salt selects. The same request and
// salt always yield the same title and body.
func (g *Generator) Reproduce(req Request, salt uint64) (*Story, error) {
	code, lang, ok := g.catalog.Language(req.Language)
	if !ok {
		return nil, &ConfigurationError{Language: req.Language, Reason: "language not in catalog"}
	}
	slug, theme, ok := lang.Theme(req.Theme)
	if !ok {
		return nil, &ConfigurationError{Language: req.Language, Reason: "language has no themes"}
	}

	rng := newRand(salt)
	length := resolveLength(req.Length)
	tone := resolveTone(req.Tone)

	w := newWriter(lang, req, rng, tone)

	sections := []Section{{Kind: SectionIntro, Text: w.render(pick(rng, theme.Intro))}}
	for _, frag := range pickSequence(rng, theme.Middle, middleCount(length, rng)) {
		sections = append(sections, Section{Kind: SectionMiddle, Text: w.render(frag)})
	}
	sections = append(sections, Section{Kind: SectionClimax, Text: w.render(pick(rng, theme.Climax))})

	if req.MoralLesson && len(theme.Moral) > 0 {
		sections = append(sections, Section{Kind: SectionMoral, Text: w.render(pick(rng, theme.Moral))})
	}
	if req.BreathingExercise {
		pool := theme.Breathing
		if len(pool) == 0 {
			pool = lang.Breathing
		}
		if len(pool) > 0 {
			sections = append(sections, Section{Kind: SectionBreathing, Text: w.render(pick(rng, pool))})
		}
	}

	if req.CalmClosure && len(lang.Closings) > 0 {
		last := &sections[len(sections)-1]
		if !hasCalmEnding(last.Text, lang.CalmWords) {
			last.Text = last.Text + " " + w.render(pick(rng, lang.Closings))
		}
	}

	paragraphs := make([]string, len(sections))
	for i, s := range sections {
		paragraphs[i] = s.Text
	}
	body := strings.Join(paragraphs, "\n\n")

	st := &Story{
		ID:         uuid.NewString(),
		Title:      w.title(theme.Name),
		Body:       body,
		Request:    req,
		Language:   code,
		Theme:      slug,
		Tone:       tone,
		Length:     length,
		Sections:   sections,
		WordCount:  len(strings.Fields(body)),
		Uniqueness: UniqueRatio(Tokens(body), g.guardN, g.guardWindow),
		Salt:       salt,
		CreatedAt:  g.now().UTC(),
	}

	g.logger.Debug("story generated",
		"id", st.ID,
		"language", st.Language,
		"theme", st.Theme,
		"sections", len(sections),
		"words", st.WordCount,
		"uniqueness", st.Uniqueness,
	)

	return st, nil
}

// Verify regenerates st from its request and salt. It returns the
// regenerated story carrying st's id, creation time and favorite flag, or
// ErrNotReproducible when the text differs.
func (g *Generator) Verify(st *Story) (*Story, error) {
	rebuilt, err := g.Reproduce(st.Request, st.Salt)
	if err != nil {
		return nil, err
	}
	if rebuilt.Title != st.Title || rebuilt.Body != st.Body {
		return nil, fmt.Errorf("%w: %s", ErrNotReproducible, st.ID)
	}
	rebuilt.ID = st.ID
	if !st.CreatedAt.IsZero() {
		rebuilt.CreatedAt = st.CreatedAt
	}
	rebuilt.Favorite = st.Favorite
	return rebuilt, nil
}

// writer renders fragments for one story. Word bank values are drawn once
// so the same creature and object appear throughout.
type writer struct {
	lang        *catalog.Language
	tag         language.Tag
	rng         *rand.Rand
	connectives []string
	name        string
	topic       string
	pairs       []string
}

func newWriter(lang *catalog.Language, req Request, rng *rand.Rand, tone Tone) *writer {
	w := &writer{lang: lang, rng: rng}

	w.tag = language.Und
	if t, err := language.Parse(req.Language); err == nil {
		w.tag = t
	}

	w.connectives = lang.Connectives[tone.key()]
	if len(w.connectives) == 0 {
		w.connectives = lang.Connectives[ToneGentle.key()]
	}

	w.name = strings.TrimSpace(req.ChildName)
	if w.name == "" {
		w.name = lang.DefaultName
	}
	w.topic = strings.TrimSpace(req.Topic)
	if w.topic == "" {
		w.topic = lang.DefaultTopic
	}

	age := lang.AgeFallback
	ageClause := ""
	if req.Age != nil && *req.Age >= 0 {
		age = strconv.Itoa(*req.Age)
		ageClause = strings.ReplaceAll(lang.AgeClause, "{age}", age)
	}

	w.pairs = []string{
		"{name}", w.name,
		"{topic}", w.topic,
		"{age_clause}", ageClause,
		"{age}", age,
	}
	for _, key := range catalog.WordBanks {
		if pool := lang.Words[key]; len(pool) > 0 {
			w.pairs = append(w.pairs, "{"+key+"}", pick(rng, pool))
		}
	}
	return w
}

// render fills one fragment. Each fragment draws its own connective.
func (w *writer) render(fragment string) string {
	pairs := w.pairs
	if strings.Contains(fragment, "{connective}") && len(w.connectives) > 0 {
		pairs = append(pairs[:len(pairs):len(pairs)], "{connective}", pick(w.rng, w.connectives))
	}
	return capitalize(normalize(strings.NewReplacer(pairs...).Replace(fragment)))
}

func (w *writer) title(themeName string) string {
	topic := cases.Title(w.tag).String(w.topic)
	r := strings.NewReplacer("{topic}", topic, "{theme}", themeName, "{name}", w.name)
	return capitalize(normalize(r.Replace(w.lang.Title)))
}

func resolveTone(t Tone) Tone {
	if parsed, ok := ParseTone(string(t)); ok {
		return parsed
	}
	return ToneGentle
}

func resolveLength(l Length) Length {
	if parsed, ok := ParseLength(string(l)); ok {
		return parsed
	}
	return LengthMedium
}

// middleCount maps length to a middle fragment count: short 1, medium 2-3,
// long 3-5.
func middleCount(l Length, rng *rand.Rand) int {
	switch l {
	case LengthShort:
		return 1
	case LengthLong:
		return 3 + rng.IntN(3)
	default:
		return 2 + rng.IntN(2)
	}
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.IntN(len(pool))]
}

// pickSequence draws n fragments with no fragment following itself when the
// pool has more than one entry.
func pickSequence(rng *rand.Rand, pool []string, n int) []string {
	out := make([]string, 0, n)
	prev := -1
	for range n {
		idx := rng.IntN(len(pool))
		if idx == prev && len(pool) > 1 {
			idx = (idx + 1 + rng.IntN(len(pool)-1)) % len(pool)
		}
		out = append(out, pool[idx])
		prev = idx
	}
	return out
}

func hasCalmEnding(text string, calmWords []string) bool {
	lower := strings.ToLower(text)
	for _, w := range calmWords {
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// normalize collapses whitespace and removes spaces left before
// punctuation by empty placeholders.
func normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, " ,", ",")
	s = strings.ReplaceAll(s, " .", ".")
	return s
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
