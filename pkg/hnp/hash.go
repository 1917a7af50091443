package hnp

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

var hashes = map[string]func() hash.Hash{
	"sha1":        sha1.New,
	"sha224":      sha256.New224,
	"sha256":      sha256.New,
	"sha384":      sha512.New384,
	"sha512":      sha512.New,
	"sha512_224":  sha512.New512_224,
	"sha512_256":  sha512.New512_256,
	"sha3_224":    sha3.New224,
	"sha3_256":    sha3.New256,
	"sha3_384":    sha3.New384,
	"sha3_512":    sha3.New512,
	"blake2b_256": keyless(blake2b.New256),
	"blake2b_384": keyless(blake2b.New384),
	"blake2b_512": keyless(blake2b.New512),
	"blake2s_256": keyless(blake2s.New256),
	"ripemd160":   ripemd160.New,
	"blake3":      func() hash.Hash { return blake3.New() },
}

// keyless adapts the keyed BLAKE2 constructors, which cannot fail without
// a key.
func keyless(newKeyed func([]byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, err := newKeyed(nil)
		if err != nil {
			panic(err)
		}
		return h
	}
}

// NewHash returns the constructor for the named hash. Names follow the
// hashlib convention (sha256, sha3_256, blake2b_512); dashes are accepted
// in place of underscores.
func NewHash(name string) (func() hash.Hash, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	h, ok := hashes[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownHash)
	}
	return h, nil
}

// HashNames lists the supported hash names.
func HashNames() []string {
	names := make([]string, 0, len(hashes))
	for name := range hashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
