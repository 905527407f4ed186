package main

import (
	"slices"
	"testing"

	"github.com/jackzampolin/bedtime/internal/catalog"
	"github.com/jackzampolin/bedtime/internal/story"
)

func TestParseBatch(t *testing.T) {
	salt := uint64(77)
	tests := []struct {
		name      string
		count     int
		salts     []string
		single    *uint64
		wantSize  int
		wantSalts []uint64
		wantErr   bool
	}{
		{name: "default", wantSize: 1},
		{name: "count", count: 4, wantSize: 4},
		{name: "single salt", single: &salt, wantSize: 1, wantSalts: []uint64{77}},
		{name: "salt list", salts: []string{"1", " 2", "3"}, wantSize: 3, wantSalts: []uint64{1, 2, 3}},
		{name: "count cuts salts", count: 2, salts: []string{"1", "2", "3"}, wantSize: 2, wantSalts: []uint64{1, 2}},
		{name: "count above salts", count: 5, salts: []string{"9"}, wantSize: 1, wantSalts: []uint64{9}},
		{name: "empty entries skipped", salts: []string{"4", ""}, wantSize: 1, wantSalts: []uint64{4}},
		{name: "negative count", count: -1, wantErr: true},
		{name: "count too large", count: maxBatch + 1, wantErr: true},
		{name: "bad salt", salts: []string{"x"}, wantErr: true},
		{name: "negative salt", salts: []string{"-3"}, wantErr: true},
		{name: "salt and salts", single: &salt, salts: []string{"1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := parseBatch(tt.count, tt.salts, tt.single)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseBatch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if b.size() != tt.wantSize {
				t.Errorf("size() = %d, want %d", b.size(), tt.wantSize)
			}
			if !slices.Equal(b.salts, tt.wantSalts) {
				t.Errorf("salts = %v, want %v", b.salts, tt.wantSalts)
			}
		})
	}
}

func TestBatchRun(t *testing.T) {
	cat, err := catalog.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	gen := story.New(cat)
	req := story.Request{Topic: "owls", ChildName: "Mia", Language: "en", Length: story.LengthShort}

	t.Run("fresh stories differ", func(t *testing.T) {
		stories, err := batch{count: 5}.run(gen, req)
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if len(stories) != 5 {
			t.Fatalf("got %d stories, want 5", len(stories))
		}
		bodies := map[string]bool{}
		for _, st := range stories {
			bodies[st.Body] = true
		}
		if len(bodies) != 5 {
			t.Errorf("got %d distinct bodies, want 5", len(bodies))
		}
	})

	t.Run("salts replay", func(t *testing.T) {
		first, err := batch{count: 1, salts: []uint64{10, 20}}.run(gen, req)
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
		again, err := batch{count: 1, salts: []uint64{10, 20}}.run(gen, req)
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
		for i := range first {
			if first[i].Body != again[i].Body || first[i].Salt != again[i].Salt {
				t.Errorf("story %d did not replay", i)
			}
		}
		if first[0].Salt != 10 || first[1].Salt != 20 {
			t.Errorf("salts = %d, %d", first[0].Salt, first[1].Salt)
		}
	})

	t.Run("missing language", func(t *testing.T) {
		if _, err := (batch{count: 2}).run(gen, story.Request{Language: "de"}); err == nil {
			t.Error("expected configuration error")
		}
	})
}
