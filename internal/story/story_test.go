package story

import (
	"errors"
	"math"
	"testing"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"minimal", Request{Language: "en"}, false},
		{"full", Request{Topic: "owls", ChildName: "Mia", Age: intPtr(4), Tone: "calm", Theme: "ocean", Language: "fr", Length: "LONG"}, false},
		{"zero age", Request{Language: "en", Age: intPtr(0)}, false},
		{"negative age", Request{Language: "en", Age: intPtr(-1)}, true},
		{"unknown tone", Request{Language: "en", Tone: "Grumpy"}, true},
		{"unknown length", Request{Language: "en", Length: "epic"}, true},
		{"missing language", Request{Topic: "owls"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v does not wrap ErrInvalidRequest", err)
			}
		})
	}
}

func TestParseTone(t *testing.T) {
	if tone, ok := ParseTone(" adventurous "); !ok || tone != ToneAdventurous {
		t.Errorf("ParseTone(adventurous) = %q, %v", tone, ok)
	}
	if _, ok := ParseTone("loud"); ok {
		t.Error("ParseTone(loud) should fail")
	}
	if got := Tone("FUNNY").key(); got != "funny" {
		t.Errorf("key() = %q, want funny", got)
	}
	if got := Tone("").key(); got != "gentle" {
		t.Errorf("empty tone key() = %q, want gentle", got)
	}
}

func TestUniqueRatio(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		n      int
		window int
		want   float64
	}{
		{"empty", "", 3, 50, 1},
		{"too short", "one two", 3, 50, 1},
		{"all distinct", "a b c d e", 3, 0, 1},
		{"repeated", "la la la la la", 2, 0, 0.25},
		{"windowed", "a b a b x y x y", 2, 4, 4.0 / 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UniqueRatio(Tokens(tt.text), tt.n, tt.window)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("UniqueRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	got := Tokens(`"Hello," said the Owl. «Bonne nuit!»`)
	want := []string{"hello", "said", "the", "owl", "bonne", "nuit"}
	if len(got) != len(want) {
		t.Fatalf("Tokens() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokens()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
