package sample_test

import (
	"crypto/rand"
	"testing"

	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/math/sample"
	"github.com/stretchr/testify/assert"
)

var group = curve.Secp256k1{}

func TestScalarUnitIsNonZero(t *testing.T) {
	for i := 0; i < 32; i++ {
		assert.False(t, sample.ScalarUnit(rand.Reader, group).IsZero())
	}
}

func TestScalarsDiffer(t *testing.T) {
	a := sample.Scalar(rand.Reader, group)
	b := sample.Scalar(rand.Reader, group)
	assert.False(t, a.Equal(b))
}
