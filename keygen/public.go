package keygen

import (
	"errors"

	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/party"
	"github.com/quorumsig/frost/pkg/taproot"
)

// Public is the portion of a key generation outcome safe to hand to anybody,
// including an untrusted signing coordinator.
//
// The signing protocol only ever requires the coordinator to hold public
// commitments and partial signatures, so a coordinator built on this struct
// can be placed inside or outside the signer set.
type Public struct {
	// Threshold is the number of participants needed to produce a signature.
	Threshold int
	// PublicKey is the group's public key.
	PublicKey curve.Point
	// VerificationShares maps each participant to its public share.
	VerificationShares map[party.ID]curve.Point
}

// Public returns the public view of the ceremony.
func (o *Output) Public() *Public {
	return &Public{
		Threshold:          o.Threshold,
		PublicKey:          o.PublicKey,
		VerificationShares: o.VerificationShares,
	}
}

// Public strips this participant's result down to its public view.
func (r *Result) Public() *Public {
	return &Public{
		Threshold:          r.Threshold,
		PublicKey:          r.PublicKey,
		VerificationShares: r.VerificationShares,
	}
}

// Curve returns the elliptic curve group associated with this key.
func (p *Public) Curve() curve.Curve {
	return p.PublicKey.Curve()
}

// Participants returns the sorted identifiers of everybody holding a share
// of this key.
func (p *Public) Participants() party.IDSlice {
	ids := make([]party.ID, 0, len(p.VerificationShares))
	for id := range p.VerificationShares {
		ids = append(ids, id)
	}
	sorted, _ := party.NewIDSlice(ids)
	return sorted
}

// TaprootPublicKey returns the BIP-340 public key for this key.
//
// This is only meaningful for keys generated with DealerTaproot.
func (p *Public) TaprootPublicKey() (taproot.PublicKey, error) {
	point, ok := p.PublicKey.(*curve.Secp256k1Point)
	if !ok {
		return nil, errors.New("keygen: taproot keys require the secp256k1 group")
	}
	if !point.HasEvenY() {
		return nil, errors.New("keygen: public key does not have an even y coordinate")
	}
	return taproot.PublicKey(point.XBytes()), nil
}
