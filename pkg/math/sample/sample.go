package sample

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/quorumsig/frost/pkg/math/curve"
)

const maxIterations = 255

var errMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(errMaxIterations)
}

// Scalar returns a new Scalar, sampled from the uniform distribution,
// using entropy from rand.
func Scalar(rand io.Reader, group curve.Curve) curve.Scalar {
	buffer := make([]byte, group.SafeScalarBytes())
	mustReadBits(rand, buffer)
	n := new(saferith.Nat).SetBytes(buffer)
	n.Mod(n, group.Order())
	return group.NewScalar().SetNat(n)
}

// ScalarUnit returns a new Scalar, sampled from the uniform distribution over
// the non-zero elements, using entropy from rand.
func ScalarUnit(rand io.Reader, group curve.Curve) curve.Scalar {
	for i := 0; i < maxIterations; i++ {
		s := Scalar(rand, group)
		if !s.IsZero() {
			return s
		}
	}
	panic(errMaxIterations)
}
