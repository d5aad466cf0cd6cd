package sign

import (
	"errors"
	"io"
	"sync/atomic"

	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/math/sample"
)

// ErrNonceReused is returned when a nonce pair is asked to sign a second time.
//
// Using the same nonce pair in two sessions lets anybody holding both
// signatures recover the participant's secret share, so consumption is
// enforced here rather than left to the caller.
var ErrNonceReused = errors.New("sign: nonce pair already consumed")

// Commitment is the public part of a participant's nonce pair for one session.
type Commitment struct {
	// D is the commitment d•G to the first nonce.
	D curve.Point
	// E is the commitment e•G to the second nonce.
	E curve.Point
}

// Nonce holds the one-time secret randomness (d, e) a participant uses for a
// single signing session.
//
// The secret scalars can be read exactly once, through consume. After that,
// only the public Commitment remains; a second read fails with ErrNonceReused.
type Nonce struct {
	consumed   atomic.Bool
	d, e       curve.Scalar
	commitment Commitment
}

// NewNonce samples a fresh nonce pair (d, e) and computes its commitment.
//
// A pair must be sampled immediately before round 1 of a session, and is
// destroyed by the partial signature computation in round 2.
func NewNonce(rand io.Reader, group curve.Curve) *Nonce {
	d := sample.ScalarUnit(rand, group)
	e := sample.ScalarUnit(rand, group)
	return &Nonce{
		d: d,
		e: e,
		commitment: Commitment{
			D: d.ActOnBase(),
			E: e.ActOnBase(),
		},
	}
}

// Commitment returns the public commitment (D, E) for this nonce pair.
func (n *Nonce) Commitment() Commitment {
	return n.commitment
}

// consume returns the secret scalars, at most once, ever.
//
// The internal references are cleared so that the secrets become garbage as
// soon as the caller drops them.
func (n *Nonce) consume() (d, e curve.Scalar, err error) {
	if !n.consumed.CompareAndSwap(false, true) {
		return nil, nil, ErrNonceReused
	}
	d, e = n.d, n.e
	n.d, n.e = nil, nil
	return d, e, nil
}

// validate checks that neither commitment point is the identity.
func (c Commitment) validate() error {
	if c.D == nil || c.E == nil || c.D.IsIdentity() || c.E.IsIdentity() {
		return errors.New("sign: nonce commitment is the identity point")
	}
	return nil
}
