// Package random provides the bounded random primitives used by every generator.
package random

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

const hexDigits = "0123456789abcdef"

// Source is a pseudo-random source that is safe for concurrent use.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Source with a fixed seed. Two sources built from the same seed
// produce the same sequence as long as they are called in the same order.
func New(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// NewDefault creates a Source seeded from the wall clock.
func NewDefault() *Source {
	return New(time.Now().UnixNano())
}

// Float64 returns a value in [0,1).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Float64Range returns a value in [min,max).
func (s *Source) Float64Range(min, max float64) float64 {
	return min + s.Float64()*(max-min)
}

// Intn returns a value in [0,bound). It panics if bound <= 0.
func (s *Source) Intn(bound int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(bound)
}

// IntRange returns a value in [min,max].
func (s *Source) IntRange(min, max int) int {
	return min + s.Intn(max-min+1)
}

// Bool returns true or false with equal probability.
func (s *Source) Bool() bool {
	return s.Intn(2) == 1
}

// Bytes returns n random bytes.
func (s *Source) Bytes(n int) []byte {
	b := make([]byte, n)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range b {
		b[i] = byte(s.rng.Intn(256))
	}
	return b
}

// HexString returns length hex digits, each drawn independently.
func (s *Source) HexString(length int, upper bool) string {
	var sb strings.Builder
	sb.Grow(length)
	s.mu.Lock()
	for i := 0; i < length; i++ {
		sb.WriteByte(hexDigits[s.rng.Intn(16)])
	}
	s.mu.Unlock()
	if upper {
		return strings.ToUpper(sb.String())
	}
	return sb.String()
}

// Pick returns a uniformly chosen element of options. options must not be empty.
func Pick[T any](s *Source, options []T) T {
	return options[s.Intn(len(options))]
}

// Latitude returns a latitude in [-90,90).
func (s *Source) Latitude() float64 {
	return s.Float64Range(-90, 90)
}

// Longitude returns a longitude in [-180,180).
func (s *Source) Longitude() float64 {
	return s.Float64Range(-180, 180)
}
