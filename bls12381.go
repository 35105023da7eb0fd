package ntat

import (
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// BLS12381Suite places tokens in G1 and the server key in G2. Both groups share
// the scalar field fr, so scalars move freely between the two roles.
type BLS12381Suite struct {
	g1 *BLSG1Group
	g2 *BLSG2Group
}

// NewBLS12381Suite creates the pairing suite
func NewBLS12381Suite() *BLS12381Suite {
	return &BLS12381Suite{g1: &BLSG1Group{}, g2: &BLSG2Group{}}
}

func (s *BLS12381Suite) Name() string    { return string(BLS12381) }
func (s *BLS12381Suite) Issuance() Group { return s.g1 }
func (s *BLS12381Suite) Key() Group      { return s.g2 }

// PairingCheck reports whether prod e(g1s[i], g2s[i]) is the identity of GT.
func (s *BLS12381Suite) PairingCheck(g1s []Point, g2s []Point) (bool, error) {
	if len(g1s) != len(g2s) {
		return false, fmt.Errorf("pairing check: %d G1 points but %d G2 points", len(g1s), len(g2s))
	}
	ps := make([]bls12381.G1Affine, len(g1s))
	qs := make([]bls12381.G2Affine, len(g2s))
	for i := range g1s {
		p, ok := g1s[i].(*BLSG1Point)
		if !ok {
			return false, ErrSuiteMismatch.WithContext("index", i)
		}
		q, ok := g2s[i].(*BLSG2Point)
		if !ok {
			return false, ErrSuiteMismatch.WithContext("index", i)
		}
		ps[i], qs[i] = p.inner, q.inner
	}
	return bls12381.PairingCheck(ps, qs)
}

// blsScalars carries the scalar operations both BLS groups share
type blsScalars struct{}

func (blsScalars) ScalarSize() int { return fr.Bytes }

func (blsScalars) ScalarFromBytes(data []byte) (Scalar, error) {
	if len(data) != fr.Bytes {
		return nil, ErrInvalidScalarLength
	}
	var e fr.Element
	if err := e.SetBytesCanonical(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	return &BLSScalar{inner: e}, nil
}

func (blsScalars) ScalarFromUniformBytes(data []byte) (Scalar, error) {
	if len(data) < fr.Bytes {
		return nil, ErrInvalidScalarLength
	}
	// SetBytes reduces inputs wider than the field modulo r
	var e fr.Element
	e.SetBytes(data)
	return &BLSScalar{inner: e}, nil
}

func (b blsScalars) ScalarRandom(rng io.Reader) (Scalar, error) {
	for {
		buf, err := readUniform(rng)
		if err != nil {
			return nil, err
		}
		s, err := b.ScalarFromUniformBytes(buf)
		ZeroizeBytes(buf)
		if err != nil {
			return nil, err
		}
		if !s.IsZero() {
			return s, nil
		}
	}
}

func (blsScalars) ScalarZero() Scalar {
	return &BLSScalar{}
}

func (blsScalars) ScalarOne() Scalar {
	s := &BLSScalar{}
	s.inner.SetOne()
	return s
}

func (b blsScalars) ValidateScalar(data []byte) error {
	_, err := b.ScalarFromBytes(data)
	return err
}

// BLSG1Group implements Group for BLS12-381 G1
type BLSG1Group struct {
	blsScalars
}

func (g *BLSG1Group) Name() string   { return "bls12-381-g1" }
func (g *BLSG1Group) PointSize() int { return bls12381.SizeOfG1AffineCompressed }

func (g *BLSG1Group) PointFromBytes(data []byte) (Point, error) {
	if len(data) != bls12381.SizeOfG1AffineCompressed {
		return nil, ErrInvalidPointLength
	}
	p := &BLSG1Point{}
	// SetBytes checks the point is on the curve and in the r-torsion subgroup
	if _, err := p.inner.SetBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return p, nil
}

func (g *BLSG1Group) BasePoint() Point {
	_, _, g1, _ := bls12381.Generators()
	return &BLSG1Point{inner: g1}
}

func (g *BLSG1Group) PointIdentity() Point {
	return &BLSG1Point{}
}

func (g *BLSG1Group) ValidatePoint(data []byte) error {
	_, err := g.PointFromBytes(data)
	return err
}

// MultiScalarMult runs gnark's bucketed multi-exponentiation
func (g *BLSG1Group) MultiScalarMult(points []Point, scalars []Scalar) (Point, error) {
	ps := make([]bls12381.G1Affine, len(points))
	ss := make([]fr.Element, len(scalars))
	for i := range points {
		ps[i] = points[i].(*BLSG1Point).inner
		ss[i] = scalars[i].(*BLSScalar).inner
	}
	result := &BLSG1Point{}
	if _, err := result.inner.MultiExp(ps, ss, ecc.MultiExpConfig{}); err != nil {
		return nil, err
	}
	return result, nil
}

// HashToPoint maps msg onto G1 with the RFC 9380 suite
func (g *BLSG1Group) HashToPoint(msg, dst []byte) (Point, error) {
	p, err := bls12381.HashToG1(msg, dst)
	if err != nil {
		return nil, err
	}
	return &BLSG1Point{inner: p}, nil
}

// BLSG2Group implements Group for BLS12-381 G2
type BLSG2Group struct {
	blsScalars
}

func (g *BLSG2Group) Name() string   { return "bls12-381-g2" }
func (g *BLSG2Group) PointSize() int { return bls12381.SizeOfG2AffineCompressed }

func (g *BLSG2Group) PointFromBytes(data []byte) (Point, error) {
	if len(data) != bls12381.SizeOfG2AffineCompressed {
		return nil, ErrInvalidPointLength
	}
	p := &BLSG2Point{}
	if _, err := p.inner.SetBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return p, nil
}

func (g *BLSG2Group) BasePoint() Point {
	_, _, _, g2 := bls12381.Generators()
	return &BLSG2Point{inner: g2}
}

func (g *BLSG2Group) PointIdentity() Point {
	return &BLSG2Point{}
}

func (g *BLSG2Group) ValidatePoint(data []byte) error {
	_, err := g.PointFromBytes(data)
	return err
}

func (g *BLSG2Group) HashToPoint(msg, dst []byte) (Point, error) {
	p, err := bls12381.HashToG2(msg, dst)
	if err != nil {
		return nil, err
	}
	return &BLSG2Point{inner: p}, nil
}

// BLSScalar implements the Scalar interface over fr
type BLSScalar struct {
	inner fr.Element
}

func (s *BLSScalar) Bytes() []byte {
	b := s.inner.Bytes()
	return b[:]
}

func (s *BLSScalar) String() string {
	return hex.EncodeToString(s.Bytes())
}

func (s *BLSScalar) Add(other Scalar) Scalar {
	r := &BLSScalar{}
	r.inner.Add(&s.inner, &other.(*BLSScalar).inner)
	return r
}

func (s *BLSScalar) Sub(other Scalar) Scalar {
	r := &BLSScalar{}
	r.inner.Sub(&s.inner, &other.(*BLSScalar).inner)
	return r
}

func (s *BLSScalar) Mul(other Scalar) Scalar {
	r := &BLSScalar{}
	r.inner.Mul(&s.inner, &other.(*BLSScalar).inner)
	return r
}

func (s *BLSScalar) Negate() Scalar {
	r := &BLSScalar{}
	r.inner.Neg(&s.inner)
	return r
}

func (s *BLSScalar) Invert() (Scalar, error) {
	if s.IsZero() {
		return nil, ErrScalarZero
	}
	r := &BLSScalar{}
	r.inner.Inverse(&s.inner)
	return r, nil
}

func (s *BLSScalar) Equal(other Scalar) bool {
	o, ok := other.(*BLSScalar)
	if !ok {
		return false
	}
	return s.inner.Equal(&o.inner)
}

func (s *BLSScalar) IsZero() bool {
	return s.inner.IsZero()
}

func (s *BLSScalar) Zeroize() {
	s.inner.SetZero()
}

func (s *BLSScalar) bigInt() *big.Int {
	return s.inner.BigInt(new(big.Int))
}

// BLSG1Point implements the Point interface for G1
type BLSG1Point struct {
	inner bls12381.G1Affine
}

func (p *BLSG1Point) Bytes() []byte {
	b := p.inner.Bytes()
	return b[:]
}

func (p *BLSG1Point) CompressedBytes() []byte {
	return p.Bytes()
}

func (p *BLSG1Point) String() string {
	return hex.EncodeToString(p.Bytes())
}

func (p *BLSG1Point) Add(other Point) Point {
	var a, b bls12381.G1Jac
	a.FromAffine(&p.inner)
	b.FromAffine(&other.(*BLSG1Point).inner)
	a.AddAssign(&b)
	r := &BLSG1Point{}
	r.inner.FromJacobian(&a)
	return r
}

func (p *BLSG1Point) Sub(other Point) Point {
	var a, b bls12381.G1Jac
	a.FromAffine(&p.inner)
	b.FromAffine(&other.(*BLSG1Point).inner)
	a.SubAssign(&b)
	r := &BLSG1Point{}
	r.inner.FromJacobian(&a)
	return r
}

func (p *BLSG1Point) Mul(scalar Scalar) Point {
	r := &BLSG1Point{}
	r.inner.ScalarMultiplication(&p.inner, scalar.(*BLSScalar).bigInt())
	return r
}

func (p *BLSG1Point) Negate() Point {
	r := &BLSG1Point{}
	r.inner.Neg(&p.inner)
	return r
}

func (p *BLSG1Point) Equal(other Point) bool {
	o, ok := other.(*BLSG1Point)
	if !ok {
		return false
	}
	return p.inner.Equal(&o.inner)
}

func (p *BLSG1Point) IsIdentity() bool {
	return p.inner.IsInfinity()
}

func (p *BLSG1Point) IsOnCurve() bool {
	return p.inner.IsOnCurve() && p.inner.IsInSubGroup()
}

// BLSG2Point implements the Point interface for G2
type BLSG2Point struct {
	inner bls12381.G2Affine
}

func (p *BLSG2Point) Bytes() []byte {
	b := p.inner.Bytes()
	return b[:]
}

func (p *BLSG2Point) CompressedBytes() []byte {
	return p.Bytes()
}

func (p *BLSG2Point) String() string {
	return hex.EncodeToString(p.Bytes())
}

func (p *BLSG2Point) Add(other Point) Point {
	var a, b bls12381.G2Jac
	a.FromAffine(&p.inner)
	b.FromAffine(&other.(*BLSG2Point).inner)
	a.AddAssign(&b)
	r := &BLSG2Point{}
	r.inner.FromJacobian(&a)
	return r
}

func (p *BLSG2Point) Sub(other Point) Point {
	var a, b bls12381.G2Jac
	a.FromAffine(&p.inner)
	b.FromAffine(&other.(*BLSG2Point).inner)
	a.SubAssign(&b)
	r := &BLSG2Point{}
	r.inner.FromJacobian(&a)
	return r
}

func (p *BLSG2Point) Mul(scalar Scalar) Point {
	r := &BLSG2Point{}
	r.inner.ScalarMultiplication(&p.inner, scalar.(*BLSScalar).bigInt())
	return r
}

func (p *BLSG2Point) Negate() Point {
	r := &BLSG2Point{}
	r.inner.Neg(&p.inner)
	return r
}

func (p *BLSG2Point) Equal(other Point) bool {
	o, ok := other.(*BLSG2Point)
	if !ok {
		return false
	}
	return p.inner.Equal(&o.inner)
}

func (p *BLSG2Point) IsIdentity() bool {
	return p.inner.IsInfinity()
}

func (p *BLSG2Point) IsOnCurve() bool {
	return p.inner.IsOnCurve() && p.inner.IsInSubGroup()
}
