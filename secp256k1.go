package ntat

import (
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"runtime"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Secp256k1Curve implements the Group interface for secp256k1
type Secp256k1Curve struct{}

// NewSecp256k1Curve creates a new secp256k1 curve instance
func NewSecp256k1Curve() *Secp256k1Curve {
	return &Secp256k1Curve{}
}

func (c *Secp256k1Curve) Name() string    { return "secp256k1" }
func (c *Secp256k1Curve) ScalarSize() int { return 32 }
func (c *Secp256k1Curve) PointSize() int  { return 33 } // Compressed

func (c *Secp256k1Curve) ScalarFromBytes(data []byte) (Scalar, error) {
	if len(data) != 32 {
		return nil, ErrInvalidScalarLength
	}

	scalar := new(btcec.ModNScalar)
	if overflow := scalar.SetBytes((*[32]byte)(data)); overflow != 0 {
		return nil, ErrInvalidScalar
	}

	return &Secp256k1Scalar{inner: scalar}, nil
}

func (c *Secp256k1Curve) ScalarFromUniformBytes(data []byte) (Scalar, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("need at least 32 bytes for uniform scalar generation, got %d", len(data))
	}

	// Wide reduction keeps the bias below 2^-128 for 64-byte input
	wide := new(big.Int).SetBytes(data)
	wide.Mod(wide, btcec.S256().N)

	var buf [32]byte
	wide.FillBytes(buf[:])

	scalar := new(btcec.ModNScalar)
	scalar.SetBytes(&buf)
	ZeroizeBytes(buf[:])
	return &Secp256k1Scalar{inner: scalar}, nil
}

func (c *Secp256k1Curve) ScalarRandom(rng io.Reader) (Scalar, error) {
	for {
		bytes, err := readUniform(rng)
		if err != nil {
			return nil, err
		}

		scalar, err := c.ScalarFromUniformBytes(bytes)
		ZeroizeBytes(bytes)
		if err != nil {
			return nil, err
		}
		if !scalar.IsZero() {
			return scalar, nil
		}
	}
}

func (c *Secp256k1Curve) ScalarZero() Scalar {
	return &Secp256k1Scalar{inner: new(btcec.ModNScalar)}
}

func (c *Secp256k1Curve) ScalarOne() Scalar {
	scalar := new(btcec.ModNScalar)
	scalar.SetInt(1)
	return &Secp256k1Scalar{inner: scalar}
}

// PointFromBytes accepts the 33-byte compressed encoding, or 33 zero bytes for
// the point at infinity. The curve has cofactor one so every valid point is in
// the prime-order group.
func (c *Secp256k1Curve) PointFromBytes(data []byte) (Point, error) {
	if len(data) != 33 {
		return nil, ErrInvalidPointLength
	}

	if isAllZero(data) {
		return c.PointIdentity(), nil
	}

	pubKey, err := btcec.ParsePubKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}

	p := &Secp256k1Point{}
	pubKey.AsJacobian(&p.inner)
	return p, nil
}

func (c *Secp256k1Curve) BasePoint() Point {
	p := &Secp256k1Point{}
	one := new(btcec.ModNScalar).SetInt(1)
	btcec.ScalarBaseMultNonConst(one, &p.inner)
	p.normalize()
	return p
}

func (c *Secp256k1Curve) PointIdentity() Point {
	// Jacobian point with Z = 0
	return &Secp256k1Point{}
}

func (c *Secp256k1Curve) ValidateScalar(data []byte) error {
	_, err := c.ScalarFromBytes(data)
	return err
}

func (c *Secp256k1Curve) ValidatePoint(data []byte) error {
	_, err := c.PointFromBytes(data)
	return err
}

// Secp256k1Scalar implements the Scalar interface
type Secp256k1Scalar struct {
	inner *btcec.ModNScalar
}

func (s *Secp256k1Scalar) Bytes() []byte {
	var bytes [32]byte
	s.inner.PutBytes(&bytes)
	return bytes[:]
}

func (s *Secp256k1Scalar) String() string {
	return hex.EncodeToString(s.Bytes())
}

func (s *Secp256k1Scalar) Add(other Scalar) Scalar {
	result := new(btcec.ModNScalar)
	result.Add2(s.inner, other.(*Secp256k1Scalar).inner)
	return &Secp256k1Scalar{inner: result}
}

func (s *Secp256k1Scalar) Sub(other Scalar) Scalar {
	// NegateVal leaves the operand untouched
	neg := new(btcec.ModNScalar).NegateVal(other.(*Secp256k1Scalar).inner)
	result := new(btcec.ModNScalar)
	result.Add2(s.inner, neg)
	return &Secp256k1Scalar{inner: result}
}

func (s *Secp256k1Scalar) Mul(other Scalar) Scalar {
	result := new(btcec.ModNScalar)
	result.Mul2(s.inner, other.(*Secp256k1Scalar).inner)
	return &Secp256k1Scalar{inner: result}
}

func (s *Secp256k1Scalar) Negate() Scalar {
	result := new(btcec.ModNScalar)
	result.NegateVal(s.inner)
	return &Secp256k1Scalar{inner: result}
}

func (s *Secp256k1Scalar) Invert() (Scalar, error) {
	if s.IsZero() {
		return nil, ErrScalarZero
	}

	// btcec/v2 only offers a variable-time inverse
	result := new(btcec.ModNScalar)
	result.InverseValNonConst(s.inner)
	return &Secp256k1Scalar{inner: result}, nil
}

func (s *Secp256k1Scalar) Equal(other Scalar) bool {
	o, ok := other.(*Secp256k1Scalar)
	if !ok {
		return false
	}
	return s.inner.Equals(o.inner)
}

func (s *Secp256k1Scalar) IsZero() bool {
	return s.inner.IsZero()
}

func (s *Secp256k1Scalar) Zeroize() {
	s.inner.Zero()
	runtime.KeepAlive(s)
}

// Secp256k1Point implements the Point interface. The zero value is the point
// at infinity; every other value is kept in affine form (Z = 1).
type Secp256k1Point struct {
	inner btcec.JacobianPoint
}

func (p *Secp256k1Point) isInfinity() bool {
	return p.inner.Z.IsZero() || (p.inner.X.IsZero() && p.inner.Y.IsZero())
}

func (p *Secp256k1Point) normalize() {
	if p.isInfinity() {
		p.inner.X.Zero()
		p.inner.Y.Zero()
		p.inner.Z.Zero()
		return
	}
	p.inner.ToAffine()
}

func (p *Secp256k1Point) Bytes() []byte {
	return p.CompressedBytes()
}

func (p *Secp256k1Point) CompressedBytes() []byte {
	if p.isInfinity() {
		return make([]byte, 33)
	}
	x, y := p.inner.X, p.inner.Y
	return btcec.NewPublicKey(&x, &y).SerializeCompressed()
}

func (p *Secp256k1Point) String() string {
	return hex.EncodeToString(p.CompressedBytes())
}

func (p *Secp256k1Point) Add(other Point) Point {
	o := other.(*Secp256k1Point)
	if p.isInfinity() {
		return o.copy()
	}
	if o.isInfinity() {
		return p.copy()
	}

	a, b := p.inner, o.inner
	result := &Secp256k1Point{}
	btcec.AddNonConst(&a, &b, &result.inner)
	result.normalize()
	return result
}

func (p *Secp256k1Point) Sub(other Point) Point {
	return p.Add(other.Negate())
}

func (p *Secp256k1Point) Mul(scalar Scalar) Point {
	if p.isInfinity() {
		return &Secp256k1Point{}
	}

	k := scalar.(*Secp256k1Scalar).inner
	point := p.inner
	result := &Secp256k1Point{}
	btcec.ScalarMultNonConst(k, &point, &result.inner)
	result.normalize()
	return result
}

func (p *Secp256k1Point) Negate() Point {
	if p.isInfinity() {
		return &Secp256k1Point{}
	}

	result := p.copy()
	result.inner.Y.Negate(1).Normalize()
	return result
}

func (p *Secp256k1Point) copy() *Secp256k1Point {
	result := &Secp256k1Point{}
	result.inner.Set(&p.inner)
	return result
}

func (p *Secp256k1Point) Equal(other Point) bool {
	o, ok := other.(*Secp256k1Point)
	if !ok {
		return false
	}
	if p.isInfinity() || o.isInfinity() {
		return p.isInfinity() && o.isInfinity()
	}
	return p.inner.X.Equals(&o.inner.X) && p.inner.Y.Equals(&o.inner.Y)
}

func (p *Secp256k1Point) IsIdentity() bool {
	return p.isInfinity()
}

func (p *Secp256k1Point) IsOnCurve() bool {
	if p.isInfinity() {
		return true
	}
	x, y := p.inner.X, p.inner.Y
	return btcec.NewPublicKey(&x, &y).IsOnCurve()
}

func isAllZero(data []byte) bool {
	var acc byte
	for _, b := range data {
		acc |= b
	}
	return acc == 0
}
