package story

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Source supplies the per-call salt. Implementations must be safe for
// concurrent use.
type Source interface {
	Uint64() uint64
}

type lockedSource struct {
	mu  sync.Mutex
	src *rand.ChaCha8
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

// NewSource returns a Source seeded from the operating system.
func NewSource() Source {
	var seed [32]byte
	_, _ = crand.Read(seed[:]) // never returns an error since Go 1.24
	return &lockedSource{src: rand.NewChaCha8(seed)}
}

// NewSeededSource returns a deterministic Source for tests and reproducible
// runs.
func NewSeededSource(seed uint64) Source {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:8], seed)
	return &lockedSource{src: rand.NewChaCha8(s)}
}

// newRand builds the private generator for one call.
func newRand(salt uint64) *rand.Rand {
	return rand.New(rand.NewPCG(salt, salt^0x9e3779b97f4a7c15))
}
