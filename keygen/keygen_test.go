package keygen_test

import (
	"crypto/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/quorumsig/frost/keygen"
	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/party"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var group = curve.Secp256k1{}

func TestDealerRejectsBadParameters(t *testing.T) {
	_, err := keygen.Dealer(group, 0, 5, rand.Reader)
	assert.ErrorIs(t, err, keygen.ErrThresholdZero)

	_, err = keygen.Dealer(group, 6, 5, rand.Reader)
	assert.ErrorIs(t, err, keygen.ErrThresholdTooLarge)

	_, err = keygen.DealerTaproot(0, 5, rand.Reader)
	assert.ErrorIs(t, err, keygen.ErrThresholdZero)
}

func TestDealer(t *testing.T) {
	threshold, n := 3, 5
	output, err := keygen.Dealer(group, threshold, n, rand.Reader)
	require.NoError(t, err)

	assert.Equal(t, threshold, output.Threshold)
	assert.Len(t, output.Results, n)
	assert.False(t, output.PublicKey.IsIdentity())
	assert.True(t, output.PublicKey.Equal(output.Commitment.Constant()))
	assert.Equal(t, threshold-1, output.Commitment.Degree())

	for _, id := range party.RangeIDs(n) {
		result := output.Results[id]
		require.NotNil(t, result)
		assert.Equal(t, id, result.ID)
		assert.Equal(t, threshold, result.Threshold)
		assert.True(t, result.PublicKey.Equal(output.PublicKey))

		assert.True(t, keygen.VerifyShare(id, result.PrivateShare, output.Commitment))
		assert.True(t, result.PrivateShare.ActOnBase().Equal(output.VerificationShares[id]))
	}
}

func TestVerifyShareRejectsWrongShare(t *testing.T) {
	output, err := keygen.Dealer(group, 2, 3, rand.Reader)
	require.NoError(t, err)

	// Share of participant 1, checked against the index of participant 2.
	share := output.Results[1].PrivateShare
	assert.False(t, keygen.VerifyShare(2, share, output.Commitment))
}

func TestDealerTaproot(t *testing.T) {
	output, err := keygen.DealerTaproot(2, 3, rand.Reader)
	require.NoError(t, err)

	publicKey, ok := output.PublicKey.(*curve.Secp256k1Point)
	require.True(t, ok)
	assert.True(t, publicKey.HasEvenY())

	for _, result := range output.Results {
		taprootKey, err := result.TaprootPublicKey()
		require.NoError(t, err)
		assert.Len(t, []byte(taprootKey), 32)

		assert.True(t, keygen.VerifyShare(result.ID, result.PrivateShare, output.Commitment))
	}
}

func TestResultMarshalRoundTrip(t *testing.T) {
	output, err := keygen.Dealer(group, 2, 3, rand.Reader)
	require.NoError(t, err)
	result := output.Results[2]

	data, err := result.MarshalBinary()
	require.NoError(t, err)

	recovered := keygen.EmptyResult(group)
	require.NoError(t, recovered.UnmarshalBinary(data))

	assert.Equal(t, result.ID, recovered.ID)
	assert.Equal(t, result.Threshold, recovered.Threshold)
	assert.True(t, result.PrivateShare.Equal(recovered.PrivateShare))
	assert.True(t, result.PublicKey.Equal(recovered.PublicKey))
	require.Len(t, recovered.VerificationShares, len(result.VerificationShares))
	for id, share := range result.VerificationShares {
		assert.True(t, share.Equal(recovered.VerificationShares[id]))
	}
}

func TestResultUnmarshalRejectsGarbage(t *testing.T) {
	recovered := keygen.EmptyResult(group)
	assert.Error(t, recovered.UnmarshalBinary([]byte("not cbor at all")))
}

// A verification share at index 0 would make the share map inconsistent
// with the 1..n identifier space, so the decoder must refuse it just like
// a zero participant ID.
func TestResultUnmarshalRejectsZeroShareIndex(t *testing.T) {
	output, err := keygen.Dealer(group, 2, 3, rand.Reader)
	require.NoError(t, err)
	data, err := output.Results[1].MarshalBinary()
	require.NoError(t, err)

	var wire struct {
		ID                 uint16
		Threshold          uint32
		PrivateShare       []byte
		PublicKey          []byte
		VerificationShares map[uint16][]byte
	}
	require.NoError(t, cbor.Unmarshal(data, &wire))
	wire.VerificationShares[0] = wire.VerificationShares[2]
	delete(wire.VerificationShares, 2)
	crafted, err := cbor.Marshal(wire)
	require.NoError(t, err)

	recovered := keygen.EmptyResult(group)
	assert.Error(t, recovered.UnmarshalBinary(crafted))
}

func TestPublicView(t *testing.T) {
	output, err := keygen.Dealer(group, 3, 5, rand.Reader)
	require.NoError(t, err)

	public := output.Public()
	assert.Equal(t, output.Threshold, public.Threshold)
	assert.True(t, output.PublicKey.Equal(public.PublicKey))
	assert.Equal(t, party.RangeIDs(5), public.Participants())

	fromResult := output.Results[4].Public()
	assert.Equal(t, public.Threshold, fromResult.Threshold)
	assert.True(t, public.PublicKey.Equal(fromResult.PublicKey))
}

// The commitment evaluated at a participant's index must match its
// verification share, which is what lets third parties check blame claims.
func TestCommitmentMatchesVerificationShares(t *testing.T) {
	output, err := keygen.Dealer(group, 3, 5, rand.Reader)
	require.NoError(t, err)

	for id, share := range output.VerificationShares {
		assert.True(t, share.Equal(output.Commitment.Evaluate(id.Scalar(group))))
	}
}
