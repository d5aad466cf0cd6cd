package sign

import (
	"errors"
	"fmt"
	"io"

	"github.com/quorumsig/frost/pkg/hash"
	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/math/polynomial"
	"github.com/quorumsig/frost/pkg/math/sample"
	"github.com/quorumsig/frost/pkg/party"
)

// SigningPackage bundles the message with the nonce commitments of exactly
// the participants signing in one session.
//
// It is assembled by the coordinator once all round 1 commitments have been
// collected, and handed to every signer to start round 2. Both sides derive
// the binding factors and the challenge from it independently.
type SigningPackage struct {
	group       curve.Curve
	message     []byte
	signers     party.IDSlice
	commitments map[party.ID]Commitment
}

// NewSigningPackage creates a SigningPackage from a full set of commitments.
//
// The commitments are checked for identity points, and the signers are the
// sorted keys of the map.
func NewSigningPackage(group curve.Curve, message []byte, commitments map[party.ID]Commitment) (*SigningPackage, error) {
	ids := make([]party.ID, 0, len(commitments))
	for id, com := range commitments {
		if err := com.validate(); err != nil {
			return nil, fmt.Errorf("participant %s: %w", id, err)
		}
		ids = append(ids, id)
	}
	signers, err := party.NewIDSlice(ids)
	if err != nil {
		return nil, err
	}
	if len(signers) == 0 {
		return nil, errors.New("sign: a signing package needs at least one commitment")
	}
	copied := make(map[party.ID]Commitment, len(commitments))
	for id, com := range commitments {
		copied[id] = com
	}
	return &SigningPackage{
		group:       group,
		message:     message,
		signers:     signers,
		commitments: copied,
	}, nil
}

// Message returns the message being signed in this session.
func (pkg *SigningPackage) Message() []byte {
	return pkg.message
}

// Signers returns the sorted identifiers of the participants in this session.
func (pkg *SigningPackage) Signers() party.IDSlice {
	return pkg.signers
}

// Commitment returns the nonce commitment of one signer.
func (pkg *SigningPackage) Commitment(id party.ID) (Commitment, bool) {
	com, ok := pkg.commitments[id]
	return com, ok
}

// WriteTo implements io.WriterTo, for use within the hash.Hash function.
//
// The encoding covers the message and every commitment, in signer order, so
// that any change to the session contents changes every binding factor.
func (pkg *SigningPackage) WriteTo(w io.Writer) (int64, error) {
	var total int64
	write := func(data []byte) error {
		n, err := w.Write(data)
		total += int64(n)
		return err
	}
	if err := write(pkg.message); err != nil {
		return total, err
	}
	for _, id := range pkg.signers {
		com := pkg.commitments[id]
		if err := write(id.Bytes()); err != nil {
			return total, err
		}
		D, err := com.D.MarshalBinary()
		if err != nil {
			return total, err
		}
		if err := write(D); err != nil {
			return total, err
		}
		E, err := com.E.MarshalBinary()
		if err != nil {
			return total, err
		}
		if err := write(E); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (*SigningPackage) Domain() string {
	return "SigningPackage"
}

// bindingFactors computes the per-participant binding values ρₗ for a session.
//
// This corresponds to step 4 of Figure 3 in the Frost paper:
//
//	https://eprint.iacr.org/2020/852.pdf
//
// "Each Pᵢ then computes the set of binding values ρₗ = H₁(l, m, B)."
//
// Mixing each participant's own identifier into its factor is what defeats
// the Drijvers forgery against naive two-round Schnorr threshold signing.
//
// We calculate H(m, B, l) instead, so that the hash state after (m, B) can
// be cloned for each l, instead of rehashing everything each time.
func bindingFactors(pkg *SigningPackage) map[party.ID]curve.Scalar {
	rho := make(map[party.ID]curve.Scalar, len(pkg.signers))
	preHash := hash.New()
	_ = preHash.WriteAny(pkg)
	for _, l := range pkg.signers {
		lHash := preHash.Clone()
		_ = lHash.WriteAny(l)
		rho[l] = sample.Scalar(lHash.Digest(), pkg.group)
	}
	return rho
}

// groupCommitment derives the group commitment R = ∑ₗ (Dₗ + ρₗ•Eₗ), along
// with each party's term of the sum.
func groupCommitment(pkg *SigningPackage, rho map[party.ID]curve.Scalar) (curve.Point, map[party.ID]curve.Point) {
	R := pkg.group.NewPoint()
	RShares := make(map[party.ID]curve.Point, len(pkg.signers))
	for _, l := range pkg.signers {
		com := pkg.commitments[l]
		share := com.D.Add(rho[l].Act(com.E))
		RShares[l] = share
		R = R.Add(share)
	}
	return R, RShares
}

// challenge computes c = H(R, Y, m) for the public key Y.
func challenge(group curve.Curve, R, publicKey curve.Point, message []byte) curve.Scalar {
	cHash := hash.New()
	_ = cHash.WriteAny(R, publicKey, message)
	return curve.FromHash(group, cHash.Sum())
}

// lagrangeFor returns the Lagrange coefficient λ of one signer, over the
// session's interpolation domain.
func lagrangeFor(group curve.Curve, signers party.IDSlice, id party.ID) curve.Scalar {
	return polynomial.Lagrange(group, signers)[id]
}
