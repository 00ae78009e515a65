package roomid

import (
	"crypto/rand"
	"fmt"
)

// Base32 alphabet (Crockford's base32, lowercase).
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of generated ids. 8 characters of base32 give 40 bits of entropy,
// plenty for a process-local set of short-lived rooms.
const Length = 8

// RandSource interface for dependency injection of randomness.
type RandSource interface {
	Intn(n int) int
}

// Generator produces room ids with configurable randomness.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil RandSource means crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// New creates a room id using crypto/rand.
func New() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a room id using the generator's RandSource.
func (g *Generator) Generate() string {
	buf := make([]byte, Length)
	if g.randSource != nil {
		for i := range buf {
			buf[i] = alphabet[g.randSource.Intn(len(alphabet))]
		}
		return string(buf)
	}
	raw := make([]byte, Length)
	if _, err := rand.Read(raw); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	for i, b := range raw {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}

// Validate checks that an id has the expected length and alphabet.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("room id must be exactly %d characters, got %d", Length, len(id))
	}
	for i := 0; i < len(id); i++ {
		valid := false
		for j := 0; j < len(alphabet); j++ {
			if id[i] == alphabet[j] {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
