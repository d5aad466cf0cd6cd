package hash_test

import (
	"testing"

	"github.com/quorumsig/frost/pkg/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	data := []byte("some data")
	first := hash.New()
	require.NoError(t, first.WriteAny(data))
	second := hash.New()
	require.NoError(t, second.WriteAny(data))
	assert.Equal(t, first.Sum(), second.Sum())
}

func TestHashOrderMatters(t *testing.T) {
	a, b := []byte("a"), []byte("b")

	first := hash.New()
	require.NoError(t, first.WriteAny(a, b))
	second := hash.New()
	require.NoError(t, second.WriteAny(b, a))
	assert.NotEqual(t, first.Sum(), second.Sum())
}

func TestHashClone(t *testing.T) {
	prefix := hash.New()
	require.NoError(t, prefix.WriteAny([]byte("common prefix")))

	left := prefix.Clone()
	right := prefix.Clone()
	require.NoError(t, left.WriteAny([]byte("left")))
	require.NoError(t, right.WriteAny([]byte("right")))
	assert.NotEqual(t, left.Sum(), right.Sum())

	// A clone with the same suffix matches an unforked hash.
	direct := hash.New()
	require.NoError(t, direct.WriteAny([]byte("common prefix"), []byte("left")))
	assert.Equal(t, direct.Sum(), left.Sum())
}

func TestDomainSeparation(t *testing.T) {
	data := []byte("payload")

	first := hash.New()
	require.NoError(t, first.WriteAny(hash.BytesWithDomain{TheDomain: "DomainA", Bytes: data}))
	second := hash.New()
	require.NoError(t, second.WriteAny(hash.BytesWithDomain{TheDomain: "DomainB", Bytes: data}))
	assert.NotEqual(t, first.Sum(), second.Sum())
}

func TestSumLength(t *testing.T) {
	assert.Len(t, hash.New().Sum(), hash.DigestLengthBytes)
}
