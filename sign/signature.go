package sign

import (
	"errors"
	"fmt"

	"github.com/quorumsig/frost/pkg/math/curve"
	"github.com/quorumsig/frost/pkg/party"
)

// PartialSignature is one participant's response scalar for one session.
type PartialSignature struct {
	// ID identifies the participant that produced this response.
	ID party.ID
	// Z is the response scalar zᵢ = dᵢ + ρᵢ⋅eᵢ + λᵢ⋅sᵢ⋅c.
	Z curve.Scalar
}

// Signature is a Schnorr signature.
//
// This signature claims to satisfy:
//
//	z•G = R + H(R, Y, m)•Y
//
// for a public key Y.
type Signature struct {
	// R is the group commitment point.
	R curve.Point
	// Z is the aggregated response scalar.
	Z curve.Scalar
}

// Verify checks that the signature equation actually holds for a message m
// and public key Y.
//
// This is a pure computation: a false result is an ordinary outcome, and
// nothing about the inputs is modified.
func (sig Signature) Verify(publicKey curve.Point, m []byte) bool {
	if sig.R == nil || sig.Z == nil || sig.R.IsIdentity() || sig.Z.IsZero() {
		return false
	}
	group := publicKey.Curve()
	c := challenge(group, sig.R, publicKey, m)

	actual := sig.Z.ActOnBase()
	expected := sig.R.Add(c.Act(publicKey))
	return actual.Equal(expected)
}

// SignatureBytes is the length of the binary encoding of a Signature:
// a 33 byte compressed R, followed by a 32 byte scalar z.
const SignatureBytes = 33 + 32

// MarshalBinary implements encoding.BinaryMarshaler.
func (sig Signature) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, SignatureBytes)
	RBytes, err := sig.R.MarshalBinary()
	if err != nil {
		return nil, err
	}
	zBytes, err := sig.Z.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out = append(out, RBytes...)
	out = append(out, zBytes...)
	return out, nil
}

// EmptySignature creates a Signature ready to be unmarshalled into.
func EmptySignature(group curve.Curve) Signature {
	return Signature{
		R: group.NewPoint(),
		Z: group.NewScalar(),
	}
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// The receiver must have been created with EmptySignature.
func (sig *Signature) UnmarshalBinary(data []byte) error {
	if sig.R == nil || sig.Z == nil {
		return errors.New("sign.Signature: unmarshalling requires a group, use EmptySignature")
	}
	if len(data) != SignatureBytes {
		return fmt.Errorf("sign.Signature: invalid length %d", len(data))
	}
	if err := sig.R.UnmarshalBinary(data[:33]); err != nil {
		return fmt.Errorf("sign.Signature: R: %w", err)
	}
	if err := sig.Z.UnmarshalBinary(data[33:]); err != nil {
		return fmt.Errorf("sign.Signature: z: %w", err)
	}
	return nil
}
