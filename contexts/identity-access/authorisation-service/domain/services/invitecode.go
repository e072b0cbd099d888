package services

import (
	"hash/fnv"
	"strings"
)

// codeAlphabet excludes 0/1/I/O to keep codes human-enterable.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	codeBits   = 40
	codeLength = 8 // 40 bits over a 32-char alphabet
	codeMask   = (uint64(1) << codeBits) - 1
	// Odd multiplier: multiplication mod 2^40 is a bijection, so distinct
	// sequence numbers always encode to distinct codes.
	codeMultiplier = 0x5DEECE66D
)

// CodeEncoder turns a monotonically increasing sequence number into a short
// invitation code. The encoding is injective, so uniqueness of the sequence
// guarantees uniqueness of the code, and the salt-keyed mixing keeps
// adjacent codes unguessable without the salt.
type CodeEncoder struct {
	xor      uint64
	alphabet string
}

// NewCodeEncoder derives the mixing key and a shuffled alphabet from salt.
func NewCodeEncoder(salt string) CodeEncoder {
	seed := fnv.New64a()
	_, _ = seed.Write([]byte(salt))
	key := seed.Sum64()

	letters := []byte(codeAlphabet)
	state := key
	for i := len(letters) - 1; i > 0; i-- {
		state = state*6364136223846793005 + 1442695040888963407
		j := int(state % uint64(i+1))
		letters[i], letters[j] = letters[j], letters[i]
	}

	return CodeEncoder{
		xor:      key & codeMask,
		alphabet: string(letters),
	}
}

// Encode maps a sequence number to a fixed-length alphanumeric code.
func (e CodeEncoder) Encode(sequence uint64) string {
	mixed := ((sequence & codeMask) * codeMultiplier) & codeMask
	mixed ^= e.xor

	var out strings.Builder
	out.Grow(codeLength)
	for i := codeLength - 1; i >= 0; i-- {
		index := (mixed >> (uint(i) * 5)) & 0x1F
		out.WriteByte(e.alphabet[index])
	}
	return out.String()
}
