package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackzampolin/bedtime/internal/story"
)

const maxBatch = 100

// batch is what one generate run writes: either fresh stories, or the
// stories a list of salts selects.
type batch struct {
	count int
	salts []uint64
}

// parseBatch combines --count, --salts and --salt. A count of zero means one
// fresh story, or every listed salt. A salt list is cut to count when count
// is smaller, so "--salts 1,2,3 --count 2" replays 1 and 2.
func parseBatch(count int, salts []string, single *uint64) (batch, error) {
	if count < 0 || count > maxBatch {
		return batch{}, fmt.Errorf("count must be between 1 and %d, got %d", maxBatch, count)
	}
	if single != nil && len(salts) > 0 {
		return batch{}, fmt.Errorf("--salt and --salts cannot be combined")
	}
	if single != nil {
		salts = []string{strconv.FormatUint(*single, 10)}
	}

	b := batch{count: count}
	for _, s := range salts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return batch{}, fmt.Errorf("invalid salt %q: %w", s, err)
		}
		b.salts = append(b.salts, v)
	}
	if len(b.salts) > maxBatch {
		return batch{}, fmt.Errorf("at most %d salts, got %d", maxBatch, len(b.salts))
	}
	if count > 0 && count < len(b.salts) {
		b.salts = b.salts[:count]
	}
	if b.count == 0 {
		b.count = 1
	}
	return b, nil
}

// size is the number of stories the batch writes.
func (b batch) size() int {
	if len(b.salts) > 0 {
		return len(b.salts)
	}
	return b.count
}

func (b batch) run(gen *story.Generator, req story.Request) ([]*story.Story, error) {
	out := make([]*story.Story, 0, b.size())
	if len(b.salts) > 0 {
		for _, salt := range b.salts {
			st, err := gen.Reproduce(req, salt)
			if err != nil {
				return nil, err
			}
			out = append(out, st)
		}
		return out, nil
	}
	for range b.count {
		st, err := gen.Generate(req)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
