package curve

import (
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var secp256k1Order *saferith.Modulus

func init() {
	// The group order for secp256k1, in big-endian bytes.
	orderBytes := []byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFE,
		0xBA, 0xAE, 0xDC, 0xE6, 0xAF, 0x48, 0xA0, 0x3B,
		0xBF, 0xD2, 0x5E, 0x8C, 0xD0, 0x36, 0x41, 0x41,
	}
	secp256k1Order = saferith.ModulusFromBytes(orderBytes)
}

// Secp256k1 is an implementation of Curve for the secp256k1 group, as used in Bitcoin.
type Secp256k1 struct{}

func (Secp256k1) NewPoint() Point {
	return new(Secp256k1Point)
}

func (Secp256k1) NewBasePoint() Point {
	out := new(Secp256k1Point)
	one := new(secp256k1.ModNScalar).SetInt(1)
	secp256k1.ScalarBaseMultNonConst(one, &out.value)
	return out
}

func (Secp256k1) NewScalar() Scalar {
	return new(Secp256k1Scalar)
}

func (Secp256k1) Name() string {
	return "secp256k1"
}

func (Secp256k1) SafeScalarBytes() int {
	return 32
}

func (Secp256k1) Order() *saferith.Modulus {
	return secp256k1Order
}

// LiftX returns the Point with a given x coordinate, and an even y coordinate.
//
// This will return an error if no point with that x coordinate exists.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki#specification
func (Secp256k1) LiftX(data []byte) (*Secp256k1Point, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("curve.LiftX: invalid length for x coordinate: %d", len(data))
	}
	out := new(Secp256k1Point)
	if out.value.X.SetByteSlice(data) {
		return nil, errors.New("curve.LiftX: x coordinate out of range")
	}
	if !secp256k1.DecompressY(&out.value.X, false, &out.value.Y) {
		return nil, errors.New("curve.LiftX: x coordinate is not on the curve")
	}
	out.value.Z.SetInt(1)
	return out, nil
}

// Secp256k1Scalar is a number modulo the order of the secp256k1 group.
type Secp256k1Scalar struct {
	value secp256k1.ModNScalar
}

func secp256k1CastScalar(generic Scalar) *Secp256k1Scalar {
	out, ok := generic.(*Secp256k1Scalar)
	if !ok {
		panic(fmt.Sprintf("failed to convert to Secp256k1Scalar: %v", generic))
	}
	return out
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *Secp256k1Scalar) MarshalBinary() ([]byte, error) {
	data := s.value.Bytes()
	return data[:], nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Secp256k1Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return fmt.Errorf("invalid length for secp256k1 scalar: %d", len(data))
	}
	var exactData [32]byte
	copy(exactData[:], data)
	if s.value.SetBytes(&exactData) != 0 {
		return errors.New("invalid bytes for secp256k1 scalar")
	}
	return nil
}

func (*Secp256k1Scalar) Curve() Curve {
	return Secp256k1{}
}

func (s *Secp256k1Scalar) Add(that Scalar) Scalar {
	other := secp256k1CastScalar(that)

	s.value.Add(&other.value)
	return s
}

func (s *Secp256k1Scalar) Sub(that Scalar) Scalar {
	other := secp256k1CastScalar(that)

	negated := new(secp256k1.ModNScalar).Set(&other.value)
	negated.Negate()
	s.value.Add(negated)
	return s
}

func (s *Secp256k1Scalar) Negate() Scalar {
	s.value.Negate()
	return s
}

func (s *Secp256k1Scalar) Mul(that Scalar) Scalar {
	other := secp256k1CastScalar(that)

	s.value.Mul(&other.value)
	return s
}

func (s *Secp256k1Scalar) Invert() Scalar {
	s.value.InverseNonConst()
	return s
}

func (s *Secp256k1Scalar) Equal(that Scalar) bool {
	other := secp256k1CastScalar(that)

	return s.value.Equals(&other.value)
}

func (s *Secp256k1Scalar) IsZero() bool {
	return s.value.IsZero()
}

func (s *Secp256k1Scalar) Set(that Scalar) Scalar {
	other := secp256k1CastScalar(that)

	s.value.Set(&other.value)
	return s
}

func (s *Secp256k1Scalar) SetNat(x *saferith.Nat) Scalar {
	reduced := new(saferith.Nat).Mod(x, secp256k1Order)
	if s.value.SetByteSlice(reduced.Bytes()) {
		panic("curve.Secp256k1Scalar.SetNat: reduction modulo the order overflowed")
	}
	return s
}

func (s *Secp256k1Scalar) Act(that Point) Point {
	other := secp256k1CastPoint(that)
	out := new(Secp256k1Point)
	secp256k1.ScalarMultNonConst(&s.value, &other.value, &out.value)
	return out
}

func (s *Secp256k1Scalar) ActOnBase() Point {
	out := new(Secp256k1Point)
	secp256k1.ScalarBaseMultNonConst(&s.value, &out.value)
	return out
}

// Secp256k1Point is a point on the secp256k1 curve, or the identity element.
type Secp256k1Point struct {
	value secp256k1.JacobianPoint
}

func secp256k1CastPoint(generic Point) *Secp256k1Point {
	out, ok := generic.(*Secp256k1Point)
	if !ok {
		panic(fmt.Sprintf("failed to convert to Secp256k1Point: %v", generic))
	}
	return out
}

// clone returns an exact copy of this point, which can then be modified freely.
func (p *Secp256k1Point) clone() *Secp256k1Point {
	out := new(Secp256k1Point)
	out.value.Set(&p.value)
	return out
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
// Points use the 33 byte compressed encoding; the identity element is a
// string of 33 zero bytes, which cannot be confused with any other point.
func (p *Secp256k1Point) MarshalBinary() ([]byte, error) {
	out := make([]byte, 33)
	if p.IsIdentity() {
		return out, nil
	}
	affine := p.clone()
	affine.value.ToAffine()
	// Doing it this way is compatible with Bitcoin.
	out[0] = byte(affine.value.Y.IsOddBit()) + 2
	data := affine.value.X.Bytes()
	copy(out[1:], data[:])
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Secp256k1Point) UnmarshalBinary(data []byte) error {
	if len(data) != 33 {
		return fmt.Errorf("invalid length for Secp256k1Point: %d", len(data))
	}
	if data[0] == 0 {
		for _, b := range data[1:] {
			if b != 0 {
				return errors.New("Secp256k1Point.UnmarshalBinary: invalid format byte")
			}
		}
		*p = Secp256k1Point{}
		return nil
	}
	if data[0] != 2 && data[0] != 3 {
		return errors.New("Secp256k1Point.UnmarshalBinary: invalid format byte")
	}
	p.value.Z.SetInt(1)
	if p.value.X.SetByteSlice(data[1:]) {
		return errors.New("Secp256k1Point.UnmarshalBinary: x coordinate out of range")
	}
	if !secp256k1.DecompressY(&p.value.X, data[0] == 3, &p.value.Y) {
		return errors.New("Secp256k1Point.UnmarshalBinary: x coordinate not on curve")
	}
	return nil
}

func (*Secp256k1Point) Curve() Curve {
	return Secp256k1{}
}

func (p *Secp256k1Point) Add(that Point) Point {
	other := secp256k1CastPoint(that)

	out := new(Secp256k1Point)
	secp256k1.AddNonConst(&p.value, &other.value, &out.value)
	return out
}

func (p *Secp256k1Point) Sub(that Point) Point {
	return p.Add(that.Negate())
}

func (p *Secp256k1Point) Negate() Point {
	if p.IsIdentity() {
		return new(Secp256k1Point)
	}
	out := p.clone()
	out.value.Y.Normalize()
	out.value.Y.Negate(1)
	out.value.Y.Normalize()
	return out
}

func (p *Secp256k1Point) Equal(that Point) bool {
	other := secp256k1CastPoint(that)

	if p.IsIdentity() || other.IsIdentity() {
		return p.IsIdentity() && other.IsIdentity()
	}
	pAffine, otherAffine := p.clone(), other.clone()
	pAffine.value.ToAffine()
	otherAffine.value.ToAffine()
	return pAffine.value.X.Equals(&otherAffine.value.X) && pAffine.value.Y.Equals(&otherAffine.value.Y)
}

func (p *Secp256k1Point) IsIdentity() bool {
	// The point at infinity is the only point with Z = 0.
	z := new(secp256k1.FieldVal).Set(&p.value.Z)
	return z.Normalize().IsZero()
}

// HasEvenY checks whether this point has an even y coordinate.
//
// The identity point does not count.
func (p *Secp256k1Point) HasEvenY() bool {
	if p.IsIdentity() {
		return false
	}
	affine := p.clone()
	affine.value.ToAffine()
	return !affine.value.Y.IsOdd()
}

// XBytes returns the bytes of the x coordinate of this point.
func (p *Secp256k1Point) XBytes() []byte {
	affine := p.clone()
	affine.value.ToAffine()
	data := affine.value.X.Bytes()
	return data[:]
}
