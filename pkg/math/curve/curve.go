package curve

import (
	"encoding"

	"github.com/cronokirby/saferith"
)

// Curve represents the starting point for working with an Elliptic Curve group.
//
// The expectation is that this interface will be implemented by an empty struct,
// like Secp256k1, and that all of the actual data for points and scalars lives
// inside of the values this interface produces.
type Curve interface {
	// NewPoint creates an identity point.
	NewPoint() Point
	// NewBasePoint creates the generator of this group.
	NewBasePoint() Point
	// NewScalar creates a scalar with the value of 0.
	NewScalar() Scalar
	// Name returns the name of this curve.
	//
	// This should be unique between curves.
	Name() string
	// SafeScalarBytes returns the number of random bytes needed to sample
	// a scalar through modular reduction.
	SafeScalarBytes() int
	// Order returns a modulus holding the order of this group.
	Order() *saferith.Modulus
}

// Scalar represents a number modulo the order of some elliptic curve group.
//
// Scalars act on points in the group, and form a field amongst themselves.
//
// The methods on Scalar are all mutable, in the sense that they change the
// receiver, returning it as the result.
type Scalar interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	// Curve returns the Curve associated with this kind of Scalar.
	Curve() Curve
	// Add mutates this Scalar, by adding in another.
	Add(Scalar) Scalar
	// Sub mutates this Scalar, by subtracting another.
	Sub(Scalar) Scalar
	// Negate mutates this Scalar, replacing it with its negation.
	Negate() Scalar
	// Mul mutates this Scalar, multiplying it with another.
	Mul(Scalar) Scalar
	// Invert mutates this Scalar, replacing it with its multiplicative inverse.
	//
	// The inverse of 0 is left as 0.
	Invert() Scalar
	// Equal checks if this Scalar is equal to another.
	Equal(Scalar) bool
	// IsZero checks if this Scalar is equal to 0.
	IsZero() bool
	// Set mutates this Scalar, replacing its value with that of another.
	Set(Scalar) Scalar
	// SetNat mutates this Scalar, replacing its value with that of a number.
	//
	// This number is interpreted modulo the order of the group.
	SetNat(*saferith.Nat) Scalar
	// Act acts on a Point with this Scalar, returning a new Point.
	Act(Point) Point
	// ActOnBase acts on the generator of the group, returning a new Point.
	ActOnBase() Point
}

// Point represents an element of our Elliptic Curve group.
type Point interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	// Curve returns the Curve associated with this kind of Point.
	Curve() Curve
	// Add returns the sum of this Point with another, without modifying either.
	Add(Point) Point
	// Sub returns the difference of this Point with another, without modifying either.
	Sub(Point) Point
	// Negate returns the negation of this Point, without modifying it.
	Negate() Point
	// Equal checks if this Point is equal to another.
	Equal(Point) bool
	// IsIdentity checks if this is the identity element of this group.
	IsIdentity() bool
}

// FromHash converts a hash value to a Scalar.
//
// There is some disagreement about how this should be done.
// [NSA] suggests that this is done in the obvious
// manner, but [SECG] truncates the hash to the bit-length of the curve order
// first. We follow [SECG] because that's what OpenSSL does. Additionally,
// OpenSSL right shifts excess bits from the number if the hash is too large
// and we mirror that too.
//
// Taken from crypto/ecdsa.
func FromHash(group Curve, h []byte) Scalar {
	order := group.Order()
	orderBits := order.BitLen()
	orderBytes := (orderBits + 7) / 8
	if len(h) > orderBytes {
		h = h[:orderBytes]
	}
	s := new(saferith.Nat).SetBytes(h)
	excess := len(h)*8 - orderBits
	if excess > 0 {
		s.Rsh(s, uint(excess), -1)
	}
	return group.NewScalar().SetNat(s)
}
