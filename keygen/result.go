package keygen

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/party"
	"github.com/quorumsig/frost/pkg/taproot"
)

// Result contains all the information produced by key generation, from the
// perspective of a single participant.
type Result struct {
	// ID is the identifier for this participant.
	ID party.ID
	// Threshold is the number of participants needed to produce a signature.
	Threshold int
	// PrivateShare is the fraction of the secret key owned by this participant.
	//
	// This must not leave the participant, except through MarshalBinary.
	PrivateShare curve.Scalar
	// PublicKey is the shared public key for this consortium of signers.
	//
	// This key can be used to verify signatures produced by the consortium.
	PublicKey curve.Point
	// VerificationShares maps each participant to a commitment to its
	// private share.
	//
	// These are used to pin blame on a misbehaving participant during signing.
	VerificationShares map[party.ID]curve.Point
}

// Curve returns the elliptic curve group associated with this result.
func (r *Result) Curve() curve.Curve {
	return r.PublicKey.Curve()
}

// Participants returns the sorted identifiers of everybody holding a share
// of this key.
func (r *Result) Participants() party.IDSlice {
	ids := make([]party.ID, 0, len(r.VerificationShares))
	for id := range r.VerificationShares {
		ids = append(ids, id)
	}
	sorted, _ := party.NewIDSlice(ids)
	return sorted
}

// TaprootPublicKey returns the BIP-340 public key corresponding to this result.
//
// This is only meaningful for keys generated with DealerTaproot, whose
// public point has an even y coordinate.
func (r *Result) TaprootPublicKey() (taproot.PublicKey, error) {
	p, ok := r.PublicKey.(*curve.Secp256k1Point)
	if !ok {
		return nil, errors.New("keygen: taproot keys require the secp256k1 group")
	}
	if !p.HasEvenY() {
		return nil, errors.New("keygen: public key does not have an even y coordinate")
	}
	return taproot.PublicKey(p.XBytes()), nil
}

// resultWire is the serialized form of a Result.
type resultWire struct {
	ID                 uint16
	Threshold          uint32
	PrivateShare       []byte
	PublicKey          []byte
	VerificationShares map[uint16][]byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
// This is the single sanctioned way a private share leaves memory; callers
// own the protection of the resulting bytes.
func (r *Result) MarshalBinary() ([]byte, error) {
	privateShare, err := r.PrivateShare.MarshalBinary()
	if err != nil {
		return nil, err
	}
	publicKey, err := r.PublicKey.MarshalBinary()
	if err != nil {
		return nil, err
	}
	verificationShares := make(map[uint16][]byte, len(r.VerificationShares))
	for id, share := range r.VerificationShares {
		data, err := share.MarshalBinary()
		if err != nil {
			return nil, err
		}
		verificationShares[uint16(id)] = data
	}
	return cbor.Marshal(resultWire{
		ID:                 uint16(r.ID),
		Threshold:          uint32(r.Threshold),
		PrivateShare:       privateShare,
		PublicKey:          publicKey,
		VerificationShares: verificationShares,
	})
}

// EmptyResult creates a Result ready to be unmarshalled into.
//
// Because the group is not included in the serialized form, it has to be
// provided here.
func EmptyResult(group curve.Curve) *Result {
	return &Result{
		PrivateShare: group.NewScalar(),
		PublicKey:    group.NewPoint(),
	}
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// The receiver must have been created with EmptyResult.
func (r *Result) UnmarshalBinary(data []byte) error {
	if r.PublicKey == nil || r.PrivateShare == nil {
		return errors.New("keygen.Result: unmarshalling requires a group, use EmptyResult")
	}
	group := r.PublicKey.Curve()
	var wire resultWire
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("keygen.Result: %w", err)
	}
	if wire.ID == 0 {
		return errors.New("keygen.Result: invalid participant ID 0")
	}
	if err := r.PrivateShare.UnmarshalBinary(wire.PrivateShare); err != nil {
		return fmt.Errorf("keygen.Result: private share: %w", err)
	}
	if err := r.PublicKey.UnmarshalBinary(wire.PublicKey); err != nil {
		return fmt.Errorf("keygen.Result: public key: %w", err)
	}
	verificationShares := make(map[party.ID]curve.Point, len(wire.VerificationShares))
	for id, shareData := range wire.VerificationShares {
		if id == 0 {
			return errors.New("keygen.Result: invalid participant ID 0")
		}
		share := group.NewPoint()
		if err := share.UnmarshalBinary(shareData); err != nil {
			return fmt.Errorf("keygen.Result: verification share %d: %w", id, err)
		}
		verificationShares[party.ID(id)] = share
	}
	r.ID = party.ID(wire.ID)
	r.Threshold = int(wire.Threshold)
	r.VerificationShares = verificationShares
	return nil
}
