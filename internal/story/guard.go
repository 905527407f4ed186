package story

import (
	"hash/fnv"
	"strings"
	"sync"
)

// Defaults for the n-gram uniqueness ratio: trigrams counted per window of
// 50 tokens.
const (
	DefaultGuardN      = 3
	DefaultGuardWindow = 50
)

const (
	// DefaultRecentBodies is how many recent bodies Generate compares a new
	// story against.
	DefaultRecentBodies = 256
	maxRedraws          = 8
)

// recentBodies remembers fingerprints of the last few generated bodies.
type recentBodies struct {
	mu   sync.Mutex
	size int
	ring []uint64
	next int
	seen map[uint64]int
}

func newRecentBodies(size int) *recentBodies {
	if size <= 0 {
		return nil
	}
	return &recentBodies{size: size, seen: make(map[uint64]int, size)}
}

func fingerprint(body string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(body))
	return h.Sum64()
}

// add records body and reports whether it was new. A repeated body is not
// recorded again.
func (r *recentBodies) add(body string) bool {
	if r == nil {
		return true
	}
	fp := fingerprint(body)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seen[fp] > 0 {
		return false
	}
	if len(r.ring) < r.size {
		r.ring = append(r.ring, fp)
	} else {
		old := r.ring[r.next]
		if r.seen[old]--; r.seen[old] <= 0 {
			delete(r.seen, old)
		}
		r.ring[r.next] = fp
		r.next = (r.next + 1) % r.size
	}
	r.seen[fp]++
	return true
}

// Tokens lowercases text and strips surrounding punctuation from each word.
func Tokens(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.Trim(f, ".,;:!?\"'()«»"))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// UniqueRatio is the share of distinct n-grams among all n-grams, counted
// per window of tokens. Text too short to form an n-gram scores 1.
func UniqueRatio(tokens []string, n, window int) float64 {
	if len(tokens) == 0 || n <= 0 {
		return 1
	}
	if window <= 0 {
		window = len(tokens)
	}

	unique, total := 0, 0
	for start := 0; start < len(tokens); start += window {
		end := min(start+window, len(tokens))
		chunk := tokens[start:end]
		if len(chunk) < n {
			continue
		}
		seen := make(map[string]struct{}, len(chunk))
		for i := 0; i+n <= len(chunk); i++ {
			seen[strings.Join(chunk[i:i+n], "\x00")] = struct{}{}
			total++
		}
		unique += len(seen)
	}

	if total == 0 {
		return 1
	}
	return float64(unique) / float64(total)
}
