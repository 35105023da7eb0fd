package ntat

import (
	"io"
)

// SchnorrProof is a proof of knowledge of the client secret behind X = x·g1.
// The issuer asks for one before registering X, so a client cannot register a
// key it does not control.
type SchnorrProof struct {
	Challenge Scalar
	Response  Scalar
}

// ProveOwnership proves knowledge of the client secret, bound to context
// (typically the issuer's identity or a registration nonce).
func (k *ClientKeyPair) ProveOwnership(pp *PublicParams, context []byte, rng io.Reader) (*SchnorrProof, error) {
	// Generate random nonce
	nonce, err := pp.scalars().ScalarRandom(rng)
	if err != nil {
		return nil, err
	}
	defer nonce.Zeroize()

	// Compute commitment: R = g1^r
	commitment := pp.G1.Mul(nonce)

	challenge, err := ownershipChallenge(pp, k.Public, commitment, context)
	if err != nil {
		return nil, err
	}

	// Compute response: s = r + c*x
	response := nonce.Add(challenge.Mul(k.Secret))

	return &SchnorrProof{
		Challenge: challenge,
		Response:  response,
	}, nil
}

// VerifyClientKeyOwnership checks a proof produced by ProveOwnership.
func VerifyClientKeyOwnership(pp *PublicParams, public Point, context []byte, proof *SchnorrProof) bool {
	if proof == nil || proof.Challenge == nil || proof.Response == nil || public == nil || public.IsIdentity() {
		return false
	}

	// Recompute commitment: R' = g1^s - c*X
	commitment := pp.G1.Mul(proof.Response).Sub(public.Mul(proof.Challenge))

	expected, err := ownershipChallenge(pp, public, commitment, context)
	if err != nil {
		return false
	}
	return proof.Challenge.Equal(expected)
}

func ownershipChallenge(pp *PublicParams, public, commitment Point, context []byte) (Scalar, error) {
	t := pp.transcript("key-ownership")
	t.AppendPoint("X", public)
	t.AppendPoint("R", commitment)
	t.Append("context", context)
	return t.ChallengeScalar(pp.scalars())
}
