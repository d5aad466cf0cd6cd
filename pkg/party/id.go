package party

import (
	"encoding/binary"
	"io"
	"strconv"

	"github.com/cronokirby/saferith"
	"github.com/quorumsig/frost/pkg/math/curve"
)

// ByteSize is the number of bytes required to encode an ID.
const ByteSize = 2

// ID is the identifier of a participant, an index in 1..n.
//
// The zero value is not a valid identifier; it corresponds to evaluating the
// sharing polynomial at 0, which would reveal the secret.
type ID uint16

// Scalar returns the corresponding curve.Scalar for this identifier.
func (id ID) Scalar(group curve.Curve) curve.Scalar {
	return group.NewScalar().SetNat(new(saferith.Nat).SetUint64(uint64(id)))
}

// Bytes returns a []byte slice of length party.ByteSize.
func (id ID) Bytes() []byte {
	bytes := make([]byte, ByteSize)
	binary.BigEndian.PutUint16(bytes, uint16(id))
	return bytes
}

// String returns a base 10 representation of ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// FromString reads a base 10 string and attempts to generate an ID from it.
func FromString(str string) (ID, error) {
	id, err := strconv.ParseUint(str, 10, 16)
	if err != nil {
		return 0, err
	}
	return ID(id), nil
}

// WriteTo implements io.WriterTo, for use within the hash.Hash function.
func (id ID) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(id.Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (ID) Domain() string {
	return "ID"
}
