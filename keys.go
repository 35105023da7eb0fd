package ntat

import (
	"io"

	"github.com/canopy-network/canopy/lib/crypto" // Canopy's BLS implementation
)

// ClientKeyPair is a client's long-term identity: X = x·g1
type ClientKeyPair struct {
	Secret Scalar
	Public Point
}

// ServerKeyPair is an issuer's long-term key: Y = y·g2
type ServerKeyPair struct {
	Secret Scalar
	Public Point
	// Anchor is the compressed BLS public key the secret was derived from, if any
	Anchor []byte
}

// GenerateClientKey samples a fresh client key
func GenerateClientKey(pp *PublicParams, rng io.Reader) (*ClientKeyPair, error) {
	x, err := pp.scalars().ScalarRandom(rng)
	if err != nil {
		return nil, err
	}
	return &ClientKeyPair{Secret: x, Public: pp.G1.Mul(x)}, nil
}

// GenerateServerKey samples a fresh issuer key
func GenerateServerKey(pp *PublicParams, rng io.Reader) (*ServerKeyPair, error) {
	y, err := pp.scalars().ScalarRandom(rng)
	if err != nil {
		return nil, err
	}
	return &ServerKeyPair{Secret: y, Public: pp.G2.Mul(y)}, nil
}

// Validate checks that the public half matches the secret
func (k *ClientKeyPair) Validate(pp *PublicParams) error {
	if k == nil || k.Secret == nil || k.Public == nil {
		return ErrInvalidKey.WithDetails("client key incomplete")
	}
	if k.Secret.IsZero() || !pp.G1.Mul(k.Secret).Equal(k.Public) {
		return ErrInvalidKey.WithDetails("client public key does not match secret")
	}
	return nil
}

// Validate checks that the public half matches the secret
func (k *ServerKeyPair) Validate(pp *PublicParams) error {
	if k == nil || k.Secret == nil || k.Public == nil {
		return ErrInvalidKey.WithDetails("server key incomplete")
	}
	if k.Secret.IsZero() || !pp.G2.Mul(k.Secret).Equal(k.Public) {
		return ErrInvalidKey.WithDetails("server public key does not match secret")
	}
	return nil
}

// Zeroize clears the secret scalar
func (k *ClientKeyPair) Zeroize() {
	if k.Secret != nil {
		k.Secret.Zeroize()
	}
}

// Zeroize clears the secret scalar
func (k *ServerKeyPair) Zeroize() {
	if k.Secret != nil {
		k.Secret.Zeroize()
	}
}

// DeriveServerKeyFromBLS anchors an issuer key to a Canopy validator BLS key.
// The same BLS key, suite, algorithm and context always give the same issuer
// key; different contexts give independent keys.
func DeriveServerKeyFromBLS(
	pp *PublicParams,
	blsKey *crypto.BLS12381PrivateKey,
	alg HashAlgorithm,
	context []byte,
) (*ServerKeyPair, error) {
	if blsKey == nil {
		return nil, ErrInvalidKey.WithDetails("BLS key cannot be nil")
	}

	blsKeyBytes := blsKey.Bytes()
	ikm := make([]byte, 0, len(blsKeyBytes)+len(context))
	ikm = append(ikm, blsKeyBytes...)
	ikm = append(ikm, context...)
	defer ZeroizeBytes(ikm)

	domain := "CANOPY_BLS_TO_NTAT_ISSUER_v1:" + pp.Suite.Name()
	scalarBytes, err := alg.Expand(domain, ikm)
	if err != nil {
		return nil, err
	}
	defer ZeroizeBytes(scalarBytes)

	y, err := pp.scalars().ScalarFromUniformBytes(scalarBytes)
	if err != nil {
		return nil, ErrCryptographicOperation.WithCause(err)
	}
	if y.IsZero() {
		return nil, ErrInvalidKey.WithDetails("derived issuer secret is zero")
	}

	return &ServerKeyPair{
		Secret: y,
		Public: pp.G2.Mul(y),
		Anchor: blsKey.PublicKey().Bytes(),
	}, nil
}
