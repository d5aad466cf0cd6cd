// Package hash provides a hash function with extendable output, used to
// derive challenges and binding values from protocol transcripts.
package hash

import (
	"encoding"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// DigestLengthBytes is the length of a full output of Sum.
const DigestLengthBytes = 64

// Hash is the hash function we use for deriving scalars, and consuming
// protocol transcripts.
//
// Internally, this is a wrapper around blake3, but any hash function with
// an easily extendable output would work as well.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct, and writes any initial data to it.
func New(initialData ...interface{}) *Hash {
	hash := &Hash{h: blake3.New()}
	_ = hash.WriteAny(initialData...)
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - WriterToWithDomain
//   - encoding.BinaryMarshaler
//
// This function applies its own domain separation for the first and last types.
// The middle type suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			if err := writeWithDomain(hash.h, BytesWithDomain{
				TheDomain: "[]byte",
				Bytes:     t,
			}); err != nil {
				return fmt.Errorf("hash.Hash: write []byte: %w", err)
			}
		case WriterToWithDomain:
			if err := writeWithDomain(hash.h, t); err != nil {
				return fmt.Errorf("hash.Hash: write %s: %w", t.Domain(), err)
			}
		case encoding.BinaryMarshaler:
			bytes, err := t.MarshalBinary()
			if err != nil {
				return fmt.Errorf("hash.Hash: marshal: %w", err)
			}
			if err := writeWithDomain(hash.h, BytesWithDomain{
				TheDomain: fmt.Sprintf("%T", t),
				Bytes:     bytes,
			}); err != nil {
				return fmt.Errorf("hash.Hash: write %T: %w", t, err)
			}
		default:
			panic(fmt.Sprintf("hash.Hash: unsupported type: %T", d))
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}
