package polynomial

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/quorumsig/frost/pkg/math/curve"
)

// Exponent represents a polynomial whose coefficients are points on an
// elliptic curve: F(X) = [a₀]•G + [a₁⋅X]•G + … + [aₜ⋅Xᵗ]•G.
//
// Committing to the coefficients of a sharing polynomial this way yields a
// Feldman VSS commitment: anybody can evaluate F at their own index and
// compare the result against their share times the generator.
type Exponent struct {
	group        curve.Curve
	coefficients []curve.Point
}

// NewPolynomialExponent commits to polynomial, by taking all of its
// coefficients to the generator of the group.
func NewPolynomialExponent(polynomial *Polynomial) *Exponent {
	p := &Exponent{
		group:        polynomial.group,
		coefficients: make([]curve.Point, len(polynomial.coefficients)),
	}
	for i, c := range polynomial.coefficients {
		p.coefficients[i] = c.ActOnBase()
	}
	return p
}

// EmptyExponent returns an Exponent of degree 0, suitable for unmarshalling into.
func EmptyExponent(group curve.Curve) *Exponent {
	return &Exponent{group: group}
}

// Evaluate evaluates the polynomial at the point index, in the exponent.
//
// We use Horner's method, with scalar multiplication standing in for
// coefficient multiplication.
func (p *Exponent) Evaluate(index curve.Scalar) curve.Point {
	result := p.group.NewPoint()
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		// Bₙ₋₁ = [x]Bₙ + Aₙ₋₁
		result = index.Act(result).Add(p.coefficients[i])
	}
	return result
}

// Degree is the highest power of the Exponent.
func (p *Exponent) Degree() int {
	return len(p.coefficients) - 1
}

// Constant returns the constant coefficient of the polynomial "in the exponent".
//
// For a sharing polynomial, this is the public key of the shared secret.
func (p *Exponent) Constant() curve.Point {
	return p.coefficients[0]
}

// Copy returns a deep copy of this Exponent.
func (p *Exponent) Copy() *Exponent {
	q := &Exponent{
		group:        p.group,
		coefficients: make([]curve.Point, len(p.coefficients)),
	}
	copy(q.coefficients, p.coefficients)
	return q
}

func (p *Exponent) add(q *Exponent) error {
	if len(p.coefficients) != len(q.coefficients) {
		return errors.New("polynomial.Exponent: cannot add polynomials of different lengths")
	}
	for i := range p.coefficients {
		p.coefficients[i] = p.coefficients[i].Add(q.coefficients[i])
	}
	return nil
}

// Sum creates a new Exponent by summing a slice of existing ones.
//
// Summing each participant's commitment this way is what a dealer-less
// variant of key generation would use in place of the single dealer's
// commitment.
func Sum(polynomials []*Exponent) (*Exponent, error) {
	summed := polynomials[0].Copy()
	for j := 1; j < len(polynomials); j++ {
		if err := summed.add(polynomials[j]); err != nil {
			return nil, err
		}
	}
	return summed, nil
}

// Equal checks whether two Exponents commit to the same polynomial.
func (p *Exponent) Equal(other *Exponent) bool {
	if len(p.coefficients) != len(other.coefficients) {
		return false
	}
	for i := range p.coefficients {
		if !p.coefficients[i].Equal(other.coefficients[i]) {
			return false
		}
	}
	return true
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *Exponent) MarshalBinary() ([]byte, error) {
	out := make([]byte, 4, 4+33*len(p.coefficients))
	binary.BigEndian.PutUint32(out, uint32(len(p.coefficients)))
	for _, c := range p.coefficients {
		data, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// The receiver must have been created with EmptyExponent, so that the group
// is known.
func (p *Exponent) UnmarshalBinary(data []byte) error {
	if p.group == nil {
		return errors.New("polynomial.Exponent: unmarshalling requires a group")
	}
	if len(data) < 4 {
		return errors.New("polynomial.Exponent: data too short")
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]
	if len(data) != 33*int(count) {
		return errors.New("polynomial.Exponent: invalid length")
	}
	coefficients := make([]curve.Point, count)
	for i := range coefficients {
		coefficients[i] = p.group.NewPoint()
		if err := coefficients[i].UnmarshalBinary(data[33*i : 33*(i+1)]); err != nil {
			return err
		}
	}
	p.coefficients = coefficients
	return nil
}

// WriteTo implements io.WriterTo, for use within the hash.Hash function.
func (p *Exponent) WriteTo(w io.Writer) (int64, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (*Exponent) Domain() string {
	return "Exponent"
}
