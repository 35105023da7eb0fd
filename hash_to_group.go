package ntat

import (
	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/bwesterb/go-ristretto"
	"golang.org/x/crypto/sha3"
)

// maxHashToPointAttempts bounds try-and-increment; each attempt succeeds with
// probability about one half.
const maxHashToPointAttempts = 256

// hashCandidate derives the counter-th 32-byte candidate for msg under dst.
func hashCandidate(msg, dst []byte, counter byte) []byte {
	h := sha3.NewShake256()
	h.Write([]byte{byte(len(dst))})
	h.Write(dst)
	h.Write(msg)
	h.Write([]byte{counter})
	out := make([]byte, 32)
	h.Read(out)
	return out
}

// HashToPoint uses try-and-increment on compressed x-coordinates.
func (c *Secp256k1Curve) HashToPoint(msg, dst []byte) (Point, error) {
	for i := 0; i < maxHashToPointAttempts; i++ {
		encoded := append([]byte{0x02}, hashCandidate(msg, dst, byte(i))...)
		pubKey, err := btcec.ParsePubKey(encoded)
		if err != nil {
			continue
		}
		p := &Secp256k1Point{}
		pubKey.AsJacobian(&p.inner)
		return p, nil
	}
	return nil, ErrHashComputation.WithDetails("no secp256k1 point after %d attempts", maxHashToPointAttempts)
}

// HashToPoint decodes candidates as Edwards points and clears the cofactor.
func (c *Ed25519Curve) HashToPoint(msg, dst []byte) (Point, error) {
	for i := 0; i < maxHashToPointAttempts; i++ {
		point, err := new(edwards25519.Point).SetBytes(hashCandidate(msg, dst, byte(i)))
		if err != nil {
			continue
		}
		point.MultByCofactor(point)
		if point.Equal(edwards25519.NewIdentityPoint()) == 1 {
			continue
		}
		return NewEd25519Point(point), nil
	}
	return nil, ErrHashComputation.WithDetails("no ed25519 point after %d attempts", maxHashToPointAttempts)
}

// HashToPoint uses the Elligator-based derivation of go-ristretto.
func (g *RistrettoGroup) HashToPoint(msg, dst []byte) (Point, error) {
	buf := make([]byte, 0, 1+len(dst)+len(msg))
	buf = append(buf, byte(len(dst)))
	buf = append(buf, dst...)
	buf = append(buf, msg...)
	return &RistrettoPoint{inner: new(ristretto.Point).Derive(buf)}, nil
}
