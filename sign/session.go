package sign

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/quorumsig/frost/keygen"
	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/math/polynomial"
	"github.com/quorumsig/frost/pkg/party"
	"github.com/quorumsig/frost/pkg/taproot"
)

// State describes how far a signing session has progressed.
type State uint8

const (
	// CollectingCommitments is the initial state, during which the
	// coordinator gathers round 1 nonce commitments.
	CollectingCommitments State = 1 + iota
	// ComputingChallenge is a transient state: the last commitment has
	// arrived and the binding factors, group commitment and challenge are
	// being derived.
	ComputingChallenge
	// CollectingPartialSignatures is the state during which the coordinator
	// gathers and verifies round 2 responses.
	CollectingPartialSignatures
	// Aggregated means a full signature has been produced.
	Aggregated
	// Aborted means a protocol violation was detected; the session is dead
	// and a new one must be started.
	Aborted
)

func (s State) String() string {
	switch s {
	case CollectingCommitments:
		return "collecting commitments"
	case ComputingChallenge:
		return "computing challenge"
	case CollectingPartialSignatures:
		return "collecting partial signatures"
	case Aggregated:
		return "aggregated"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("unknown state %d", uint8(s))
	}
}

var (
	// ErrWrongParticipantCount is returned when a session is started with a
	// signer set whose size differs from the threshold.
	ErrWrongParticipantCount = errors.New("sign: a session needs exactly threshold many signers")
	// ErrUnknownParticipant is returned when data arrives from a party that
	// is not part of this session.
	ErrUnknownParticipant = errors.New("sign: participant is not part of this session")
	// ErrDuplicateCommitment is returned when a participant sends a second
	// nonce commitment for the same session.
	ErrDuplicateCommitment = errors.New("sign: participant already committed in this session")
	// ErrDuplicatePartialSignature is returned when a participant sends a
	// second response for the same session.
	ErrDuplicatePartialSignature = errors.New("sign: participant already responded in this session")
	// ErrMissingCommitments is returned when the signing package is requested
	// before every signer has committed.
	ErrMissingCommitments = errors.New("sign: not all commitments have been collected")
	// ErrMissingPartialSignatures is returned when aggregation is requested
	// before every signer has responded.
	ErrMissingPartialSignatures = errors.New("sign: not all partial signatures have been collected")
	// ErrSessionAborted is returned by every operation once a session has
	// been aborted.
	ErrSessionAborted = errors.New("sign: session aborted")
	// ErrNotTaproot is returned when AggregateTaproot is called on a plain
	// session, or Aggregate on a taproot one.
	ErrNotTaproot = errors.New("sign: session mode does not match requested signature format")
)

// PartialSignatureError identifies the participant whose response failed
// verification, so that the culprit can be excluded from a retry.
type PartialSignatureError struct {
	ID party.ID
}

func (e *PartialSignatureError) Error() string {
	return fmt.Sprintf("sign: invalid partial signature from participant %s", e.ID)
}

// Session is the coordinator's view of one signing session.
//
// A Session is created for a fixed message and a fixed set of exactly
// threshold many signers. It collects the round 1 commitments, hands out the
// resulting SigningPackage, collects and verifies the round 2 responses, and
// finally aggregates them into a signature.
//
// The coordinator only ever handles public data, so the Session is built on
// keygen.Public rather than a full key share. All methods are safe for
// concurrent use.
//
// Any protocol violation (a duplicate, an unknown sender, a response that
// doesn't verify) aborts the whole session: nonce commitments cannot be
// reused, so there is nothing to salvage.
type Session struct {
	sid        uuid.UUID
	public     *keygen.Public
	group      curve.Curve
	taproot    bool
	taprootKey taproot.PublicKey
	message    []byte
	signers    party.IDSlice

	mu          sync.Mutex
	state       State
	commitments map[party.ID]Commitment
	pkg         *SigningPackage
	lambda      map[party.ID]curve.Scalar
	// R is the group commitment; in taproot mode it is normalized to have an
	// even y coordinate.
	R curve.Point
	// RShares are the per-participant terms Dᵢ + ρᵢ•Eᵢ of R, negated along
	// with R in taproot mode so that responses verify against them directly.
	RShares map[party.ID]curve.Point
	c       curve.Scalar
	z       map[party.ID]curve.Scalar
}

// NewSession starts a signing session for message, with the given signers.
//
// The signer set must contain exactly public.Threshold distinct participants,
// all of which hold a share of the key.
func NewSession(public *keygen.Public, signers []party.ID, message []byte) (*Session, error) {
	return newSession(public, signers, message, false)
}

// NewTaprootSession is like NewSession, but the session produces a BIP-340
// signature. The key must have been generated with keygen.DealerTaproot, and
// message should be a 32 byte hash.
func NewTaprootSession(public *keygen.Public, signers []party.ID, message []byte) (*Session, error) {
	return newSession(public, signers, message, true)
}

func newSession(public *keygen.Public, signers []party.ID, message []byte, taprootMode bool) (*Session, error) {
	sorted, err := party.NewIDSlice(signers)
	if err != nil {
		return nil, err
	}
	if len(sorted) != public.Threshold {
		return nil, fmt.Errorf("%w: got %d, threshold is %d", ErrWrongParticipantCount, len(sorted), public.Threshold)
	}
	for _, id := range sorted {
		if _, ok := public.VerificationShares[id]; !ok {
			return nil, fmt.Errorf("%w: %s holds no share of this key", ErrUnknownParticipant, id)
		}
	}

	s := &Session{
		sid:         uuid.New(),
		public:      public,
		group:       public.Curve(),
		taproot:     taprootMode,
		message:     message,
		signers:     sorted,
		state:       CollectingCommitments,
		commitments: make(map[party.ID]Commitment, len(sorted)),
	}
	if taprootMode {
		s.taprootKey, err = public.TaprootPublicKey()
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SID returns the unique identifier of this session.
func (s *Session) SID() uuid.UUID {
	return s.sid
}

// State returns the current state of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Signers returns the sorted identifiers of the session's signers.
func (s *Session) Signers() party.IDSlice {
	return s.signers
}

// Message returns the message being signed.
func (s *Session) Message() []byte {
	return s.message
}

// abort kills the session and returns err, so that callers can write
// `return s.abort(err)`.
func (s *Session) abort(err error) error {
	s.state = Aborted
	return err
}

// AddCommitment records one participant's round 1 nonce commitment.
//
// Once the last signer's commitment arrives, the session derives the binding
// factors, group commitment, challenge and Lagrange coefficients, and moves
// on to collecting partial signatures.
func (s *Session) AddCommitment(from party.ID, com Commitment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Aborted {
		return ErrSessionAborted
	}
	if s.state != CollectingCommitments {
		return fmt.Errorf("sign: cannot accept commitments while %s", s.state)
	}
	if !s.signers.Contains(from) {
		return s.abort(fmt.Errorf("%w: %s", ErrUnknownParticipant, from))
	}
	if _, ok := s.commitments[from]; ok {
		return s.abort(fmt.Errorf("%w: %s", ErrDuplicateCommitment, from))
	}
	if err := com.validate(); err != nil {
		return s.abort(fmt.Errorf("participant %s: %w", from, err))
	}

	s.commitments[from] = com
	if len(s.commitments) == len(s.signers) {
		if err := s.computeChallenge(); err != nil {
			return s.abort(err)
		}
	}
	return nil
}

// computeChallenge runs the coordinator's share of round 2 setup, with the
// lock held: it fixes the signing package and derives everything both sides
// of the verification equation need.
func (s *Session) computeChallenge() error {
	s.state = ComputingChallenge

	pkg, err := NewSigningPackage(s.group, s.message, s.commitments)
	if err != nil {
		return err
	}
	rho := bindingFactors(pkg)
	R, RShares := groupCommitment(pkg, rho)
	if R.IsIdentity() {
		return errors.New("sign: group commitment is the identity point")
	}

	if s.taproot {
		// Mirror the participants' even-y adjustment: if R gets negated,
		// every share of it is negated too, and the responses will verify
		// against the negated shares.
		if !R.(*curve.Secp256k1Point).HasEvenY() {
			R = R.Negate()
			for id, share := range RShares {
				RShares[id] = share.Negate()
			}
		}
		s.c = taprootChallenge(R, s.taprootKey, s.message)
	} else {
		s.c = challenge(s.group, R, s.public.PublicKey, s.message)
	}

	s.pkg = pkg
	s.R = R
	s.RShares = RShares
	s.lambda = polynomial.Lagrange(s.group, s.signers)
	s.z = make(map[party.ID]curve.Scalar, len(s.signers))
	s.state = CollectingPartialSignatures
	return nil
}

// SigningPackage returns the package to distribute to every signer for
// round 2. It is only available once all commitments have been collected.
func (s *Session) SigningPackage() (*SigningPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Aborted:
		return nil, ErrSessionAborted
	case CollectingCommitments:
		return nil, ErrMissingCommitments
	}
	return s.pkg, nil
}

// AddPartialSignature records and verifies one participant's round 2 response.
//
// Each response is checked against the sender's share of the group commitment
// and its verification share:
//
//	zᵢ•G = (Dᵢ + ρᵢ•Eᵢ) + (λᵢ⋅c)•Yᵢ
//
// A response that fails this check identifies a misbehaving participant, and
// the returned error names it.
func (s *Session) AddPartialSignature(p PartialSignature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Aborted {
		return ErrSessionAborted
	}
	if s.state != CollectingPartialSignatures {
		return fmt.Errorf("sign: cannot accept partial signatures while %s", s.state)
	}
	if !s.signers.Contains(p.ID) {
		return s.abort(fmt.Errorf("%w: %s", ErrUnknownParticipant, p.ID))
	}
	if _, ok := s.z[p.ID]; ok {
		return s.abort(fmt.Errorf("%w: %s", ErrDuplicatePartialSignature, p.ID))
	}
	if p.Z == nil || p.Z.IsZero() {
		return s.abort(&PartialSignatureError{ID: p.ID})
	}

	// This is step 7.b of Figure 3 in the Frost paper.
	lc := s.group.NewScalar().Set(s.lambda[p.ID]).Mul(s.c)
	expected := s.RShares[p.ID].Add(lc.Act(s.public.VerificationShares[p.ID]))
	if !p.Z.ActOnBase().Equal(expected) {
		return s.abort(&PartialSignatureError{ID: p.ID})
	}

	s.z[p.ID] = p.Z
	return nil
}

// aggregate sums the responses, with the lock held.
func (s *Session) aggregate() (curve.Point, curve.Scalar, error) {
	if s.state == Aborted {
		return nil, nil, ErrSessionAborted
	}
	if s.state != CollectingPartialSignatures {
		return nil, nil, fmt.Errorf("sign: cannot aggregate while %s", s.state)
	}
	if len(s.z) != len(s.signers) {
		return nil, nil, ErrMissingPartialSignatures
	}

	z := s.group.NewScalar()
	for _, id := range s.signers {
		z.Add(s.z[id])
	}
	s.state = Aggregated
	return s.R, z, nil
}

// Aggregate combines the verified responses into the final signature.
//
// It fails with ErrMissingPartialSignatures while responses are outstanding;
// the session stays usable in that case.
func (s *Session) Aggregate() (Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.taproot {
		return Signature{}, ErrNotTaproot
	}
	R, z, err := s.aggregate()
	if err != nil {
		return Signature{}, err
	}
	return Signature{R: R, Z: z}, nil
}

// AggregateTaproot combines the verified responses into a BIP-340 signature.
func (s *Session) AggregateTaproot() (taproot.Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.taproot {
		return nil, ErrNotTaproot
	}
	R, z, err := s.aggregate()
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 0, taproot.SignatureLen)
	sig = append(sig, R.(*curve.Secp256k1Point).XBytes()...)
	zBytes, err := z.MarshalBinary()
	if err != nil {
		return nil, err
	}
	sig = append(sig, zBytes...)
	return taproot.Signature(sig), nil
}
