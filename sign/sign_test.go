package sign_test

import (
	"crypto/rand"
	"testing"

	"github.com/quorumsig/frost/keygen"
	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/math/sample"
	"github.com/quorumsig/frost/pkg/party"
	"github.com/quorumsig/frost/pkg/taproot"
	"github.com/quorumsig/frost/sign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var (
	group   = curve.Secp256k1{}
	message = []byte("hi, this is a test")
)

func setup(t *testing.T, threshold, n int) *keygen.Output {
	t.Helper()
	output, err := keygen.Dealer(group, threshold, n, rand.Reader)
	require.NoError(t, err)
	return output
}

// runSession drives a full two-round session for the given quorum, failing
// the test on any protocol error.
func runSession(t *testing.T, output *keygen.Output, quorum []party.ID, m []byte) sign.Signature {
	t.Helper()

	session, err := sign.NewSession(output.Public(), quorum, m)
	require.NoError(t, err)

	signers := make([]*sign.Signer, 0, len(quorum))
	for _, id := range quorum {
		signers = append(signers, sign.NewSigner(output.Results[id]))
	}
	for _, signer := range signers {
		require.NoError(t, session.AddCommitment(signer.ID(), signer.Commit(rand.Reader)))
	}

	pkg, err := session.SigningPackage()
	require.NoError(t, err)
	for _, signer := range signers {
		response, err := signer.Sign(pkg)
		require.NoError(t, err)
		require.NoError(t, session.AddPartialSignature(response))
	}

	sig, err := session.Aggregate()
	require.NoError(t, err)
	require.Equal(t, sign.Aggregated, session.State())
	return sig
}

func TestSign(t *testing.T) {
	output := setup(t, 3, 5)

	first := runSession(t, output, []party.ID{1, 3, 5}, message)
	assert.True(t, first.Verify(output.PublicKey, message))

	// A different quorum signs the same message under the same key.
	second := runSession(t, output, []party.ID{2, 4, 5}, message)
	assert.True(t, second.Verify(output.PublicKey, message))

	// Fresh nonces mean a fresh group commitment every session.
	assert.False(t, first.R.Equal(second.R))

	assert.False(t, first.Verify(output.PublicKey, []byte("a different message")))
}

func TestVerifyRejectsWrongPublicKey(t *testing.T) {
	output := setup(t, 2, 3)
	sig := runSession(t, output, []party.ID{1, 2}, message)
	require.True(t, sig.Verify(output.PublicKey, message))

	// Flipping the low bit of the format byte of the compressed encoding
	// decodes to the negation of the key.
	data, err := output.PublicKey.MarshalBinary()
	require.NoError(t, err)
	data[0] ^= 1
	flipped := group.NewPoint()
	require.NoError(t, flipped.UnmarshalBinary(data))
	require.False(t, flipped.Equal(output.PublicKey))
	assert.False(t, sig.Verify(flipped, message))

	// A key from an unrelated ceremony fails too.
	other := setup(t, 2, 3)
	assert.False(t, sig.Verify(other.PublicKey, message))
}

func TestSignFullQuorum(t *testing.T) {
	output := setup(t, 5, 5)
	sig := runSession(t, output, []party.ID{1, 2, 3, 4, 5}, message)
	assert.True(t, sig.Verify(output.PublicKey, message))
}

func TestSignSingleParty(t *testing.T) {
	output := setup(t, 1, 1)
	sig := runSession(t, output, []party.ID{1}, message)
	assert.True(t, sig.Verify(output.PublicKey, message))
}

func TestSignConcurrent(t *testing.T) {
	output := setup(t, 4, 6)
	quorum := []party.ID{1, 2, 4, 6}

	session, err := sign.NewSession(output.Public(), quorum, message)
	require.NoError(t, err)

	signers := make([]*sign.Signer, 0, len(quorum))
	for _, id := range quorum {
		signers = append(signers, sign.NewSigner(output.Results[id]))
	}

	var round1 errgroup.Group
	for _, signer := range signers {
		signer := signer
		round1.Go(func() error {
			return session.AddCommitment(signer.ID(), signer.Commit(rand.Reader))
		})
	}
	require.NoError(t, round1.Wait())

	pkg, err := session.SigningPackage()
	require.NoError(t, err)

	var round2 errgroup.Group
	for _, signer := range signers {
		signer := signer
		round2.Go(func() error {
			response, err := signer.Sign(pkg)
			if err != nil {
				return err
			}
			return session.AddPartialSignature(response)
		})
	}
	require.NoError(t, round2.Wait())

	sig, err := session.Aggregate()
	require.NoError(t, err)
	assert.True(t, sig.Verify(output.PublicKey, message))
}

func TestNonceReuse(t *testing.T) {
	output := setup(t, 2, 3)
	quorum := []party.ID{1, 2}

	session, err := sign.NewSession(output.Public(), quorum, message)
	require.NoError(t, err)

	signer1 := sign.NewSigner(output.Results[1])
	signer2 := sign.NewSigner(output.Results[2])
	require.NoError(t, session.AddCommitment(1, signer1.Commit(rand.Reader)))
	require.NoError(t, session.AddCommitment(2, signer2.Commit(rand.Reader)))

	pkg, err := session.SigningPackage()
	require.NoError(t, err)

	_, err = signer1.Sign(pkg)
	require.NoError(t, err)

	// Signing the same package twice would reveal the secret share.
	_, err = signer1.Sign(pkg)
	assert.ErrorIs(t, err, sign.ErrNonceReused)
}

func TestSignWithoutCommit(t *testing.T) {
	output := setup(t, 2, 3)
	session, err := sign.NewSession(output.Public(), []party.ID{1, 2}, message)
	require.NoError(t, err)

	signer1 := sign.NewSigner(output.Results[1])
	signer2 := sign.NewSigner(output.Results[2])
	require.NoError(t, session.AddCommitment(1, signer1.Commit(rand.Reader)))
	require.NoError(t, session.AddCommitment(2, signer2.Commit(rand.Reader)))
	pkg, err := session.SigningPackage()
	require.NoError(t, err)

	_, err = sign.NewSigner(output.Results[1]).Sign(pkg)
	assert.ErrorIs(t, err, sign.ErrNoNonce)
}

func TestCommitmentMismatch(t *testing.T) {
	output := setup(t, 2, 3)
	session, err := sign.NewSession(output.Public(), []party.ID{1, 2}, message)
	require.NoError(t, err)

	signer1 := sign.NewSigner(output.Results[1])
	signer2 := sign.NewSigner(output.Results[2])
	require.NoError(t, session.AddCommitment(1, signer1.Commit(rand.Reader)))
	require.NoError(t, session.AddCommitment(2, signer2.Commit(rand.Reader)))
	pkg, err := session.SigningPackage()
	require.NoError(t, err)

	// Re-committing starts a new nonce pair, orphaning the one the
	// coordinator saw.
	signer1.Commit(rand.Reader)
	_, err = signer1.Sign(pkg)
	assert.ErrorIs(t, err, sign.ErrCommitmentMismatch)
}

func TestSessionRejectsWrongQuorumSize(t *testing.T) {
	output := setup(t, 3, 5)

	_, err := sign.NewSession(output.Public(), []party.ID{1, 2}, message)
	assert.ErrorIs(t, err, sign.ErrWrongParticipantCount)

	_, err = sign.NewSession(output.Public(), []party.ID{1, 2, 3, 4}, message)
	assert.ErrorIs(t, err, sign.ErrWrongParticipantCount)
}

func TestSessionRejectsUnknownSigner(t *testing.T) {
	output := setup(t, 3, 5)
	_, err := sign.NewSession(output.Public(), []party.ID{1, 2, 9}, message)
	assert.ErrorIs(t, err, sign.ErrUnknownParticipant)
}

func TestSessionRejectsDuplicateSigner(t *testing.T) {
	output := setup(t, 3, 5)
	_, err := sign.NewSession(output.Public(), []party.ID{1, 2, 2}, message)
	assert.Error(t, err)
}

func TestDuplicateCommitmentAborts(t *testing.T) {
	output := setup(t, 2, 3)
	session, err := sign.NewSession(output.Public(), []party.ID{1, 2}, message)
	require.NoError(t, err)

	signer1 := sign.NewSigner(output.Results[1])
	com := signer1.Commit(rand.Reader)
	require.NoError(t, session.AddCommitment(1, com))

	err = session.AddCommitment(1, com)
	assert.ErrorIs(t, err, sign.ErrDuplicateCommitment)
	assert.Equal(t, sign.Aborted, session.State())

	// The session is dead: nothing else is accepted.
	signer2 := sign.NewSigner(output.Results[2])
	err = session.AddCommitment(2, signer2.Commit(rand.Reader))
	assert.ErrorIs(t, err, sign.ErrSessionAborted)
	_, err = session.Aggregate()
	assert.ErrorIs(t, err, sign.ErrSessionAborted)
}

func TestCommitmentFromOutsiderAborts(t *testing.T) {
	output := setup(t, 2, 3)
	session, err := sign.NewSession(output.Public(), []party.ID{1, 2}, message)
	require.NoError(t, err)

	signer3 := sign.NewSigner(output.Results[3])
	err = session.AddCommitment(3, signer3.Commit(rand.Reader))
	assert.ErrorIs(t, err, sign.ErrUnknownParticipant)
	assert.Equal(t, sign.Aborted, session.State())
}

func TestIdentityCommitmentAborts(t *testing.T) {
	output := setup(t, 2, 3)
	session, err := sign.NewSession(output.Public(), []party.ID{1, 2}, message)
	require.NoError(t, err)

	err = session.AddCommitment(1, sign.Commitment{
		D: group.NewPoint(),
		E: group.NewPoint(),
	})
	assert.Error(t, err)
	assert.Equal(t, sign.Aborted, session.State())
}

func TestSigningPackageBeforeCommitments(t *testing.T) {
	output := setup(t, 2, 3)
	session, err := sign.NewSession(output.Public(), []party.ID{1, 2}, message)
	require.NoError(t, err)

	_, err = session.SigningPackage()
	assert.ErrorIs(t, err, sign.ErrMissingCommitments)
	assert.Equal(t, sign.CollectingCommitments, session.State())
}

func TestInvalidPartialSignature(t *testing.T) {
	output := setup(t, 2, 3)
	quorum := []party.ID{1, 3}

	session, err := sign.NewSession(output.Public(), quorum, message)
	require.NoError(t, err)

	signer1 := sign.NewSigner(output.Results[1])
	signer3 := sign.NewSigner(output.Results[3])
	require.NoError(t, session.AddCommitment(1, signer1.Commit(rand.Reader)))
	require.NoError(t, session.AddCommitment(3, signer3.Commit(rand.Reader)))

	pkg, err := session.SigningPackage()
	require.NoError(t, err)

	response, err := signer3.Sign(pkg)
	require.NoError(t, err)
	response.Z = sample.Scalar(rand.Reader, group)

	err = session.AddPartialSignature(response)
	var sigErr *sign.PartialSignatureError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, party.ID(3), sigErr.ID)
	assert.Equal(t, sign.Aborted, session.State())
}

func TestAggregateBeforeAllResponses(t *testing.T) {
	output := setup(t, 2, 3)
	quorum := []party.ID{1, 2}

	session, err := sign.NewSession(output.Public(), quorum, message)
	require.NoError(t, err)

	signer1 := sign.NewSigner(output.Results[1])
	signer2 := sign.NewSigner(output.Results[2])
	require.NoError(t, session.AddCommitment(1, signer1.Commit(rand.Reader)))
	require.NoError(t, session.AddCommitment(2, signer2.Commit(rand.Reader)))

	pkg, err := session.SigningPackage()
	require.NoError(t, err)

	response1, err := signer1.Sign(pkg)
	require.NoError(t, err)
	require.NoError(t, session.AddPartialSignature(response1))

	// Waiting on signer 2 is not an abort condition.
	_, err = session.Aggregate()
	assert.ErrorIs(t, err, sign.ErrMissingPartialSignatures)
	assert.Equal(t, sign.CollectingPartialSignatures, session.State())

	response2, err := signer2.Sign(pkg)
	require.NoError(t, err)
	require.NoError(t, session.AddPartialSignature(response2))

	sig, err := session.Aggregate()
	require.NoError(t, err)
	assert.True(t, sig.Verify(output.PublicKey, message))
}

func TestSignatureMarshalRoundTrip(t *testing.T) {
	output := setup(t, 2, 3)
	sig := runSession(t, output, []party.ID{2, 3}, message)

	data, err := sig.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, sign.SignatureBytes)

	recovered := sign.EmptySignature(group)
	require.NoError(t, recovered.UnmarshalBinary(data))
	assert.True(t, recovered.Verify(output.PublicKey, message))

	// Any bit flip in the scalar invalidates the signature.
	data[len(data)-1] ^= 1
	tampered := sign.EmptySignature(group)
	require.NoError(t, tampered.UnmarshalBinary(data))
	assert.False(t, tampered.Verify(output.PublicKey, message))
}

func TestTaprootSign(t *testing.T) {
	output, err := keygen.DealerTaproot(3, 5, rand.Reader)
	require.NoError(t, err)

	taprootKey, err := output.Public().TaprootPublicKey()
	require.NoError(t, err)

	// BIP-340 signs a 32 byte message hash.
	m := taproot.TaggedHash("test/message", message)
	quorum := []party.ID{1, 2, 4}

	session, err := sign.NewTaprootSession(output.Public(), quorum, m)
	require.NoError(t, err)

	signers := make([]*sign.Signer, 0, len(quorum))
	for _, id := range quorum {
		signer, err := sign.NewTaprootSigner(output.Results[id])
		require.NoError(t, err)
		signers = append(signers, signer)
	}
	for _, signer := range signers {
		require.NoError(t, session.AddCommitment(signer.ID(), signer.Commit(rand.Reader)))
	}
	pkg, err := session.SigningPackage()
	require.NoError(t, err)
	for _, signer := range signers {
		response, err := signer.Sign(pkg)
		require.NoError(t, err)
		require.NoError(t, session.AddPartialSignature(response))
	}

	sig, err := session.AggregateTaproot()
	require.NoError(t, err)
	require.Len(t, []byte(sig), taproot.SignatureLen)
	assert.True(t, taprootKey.Verify(sig, m))

	tampered := taproot.Signature(append([]byte{}, sig...))
	tampered[10] ^= 1
	assert.False(t, taprootKey.Verify(tampered, m))

	assert.False(t, taprootKey.Verify(sig, taproot.TaggedHash("test/message", []byte("other"))))
}

func TestAggregateModeMismatch(t *testing.T) {
	output := setup(t, 2, 3)
	session, err := sign.NewSession(output.Public(), []party.ID{1, 2}, message)
	require.NoError(t, err)

	_, err = session.AggregateTaproot()
	assert.ErrorIs(t, err, sign.ErrNotTaproot)
}

func TestTaprootSessionRequiresTaprootKey(t *testing.T) {
	// A key from the plain dealer has a fifty-fifty chance of an odd y
	// coordinate; retry until we get one to pin the failure down.
	for i := 0; i < 64; i++ {
		output := setup(t, 2, 3)
		if output.PublicKey.(*curve.Secp256k1Point).HasEvenY() {
			continue
		}
		_, err := sign.NewTaprootSession(output.Public(), []party.ID{1, 2}, message)
		assert.Error(t, err)
		_, err = sign.NewTaprootSigner(output.Results[1])
		assert.Error(t, err)
		return
	}
	t.Fatal("never sampled a key with an odd y coordinate")
}

func TestResponseFromOutsiderAborts(t *testing.T) {
	output := setup(t, 2, 3)
	session, err := sign.NewSession(output.Public(), []party.ID{1, 2}, message)
	require.NoError(t, err)

	signer1 := sign.NewSigner(output.Results[1])
	signer2 := sign.NewSigner(output.Results[2])
	require.NoError(t, session.AddCommitment(1, signer1.Commit(rand.Reader)))
	require.NoError(t, session.AddCommitment(2, signer2.Commit(rand.Reader)))

	err = session.AddPartialSignature(sign.PartialSignature{
		ID: 3,
		Z:  sample.Scalar(rand.Reader, group),
	})
	assert.ErrorIs(t, err, sign.ErrUnknownParticipant)
	assert.Equal(t, sign.Aborted, session.State())
}
