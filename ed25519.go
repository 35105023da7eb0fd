package ntat

import (
	"encoding/hex"
	"fmt"
	"io"
	"runtime"

	"filippo.io/edwards25519"
)

// Ed25519Curve implements the Group interface over the prime-order subgroup of edwards25519
type Ed25519Curve struct{}

// NewEd25519Curve creates a new Ed25519 curve instance
func NewEd25519Curve() *Ed25519Curve {
	return &Ed25519Curve{}
}

func (c *Ed25519Curve) Name() string    { return "ed25519" }
func (c *Ed25519Curve) ScalarSize() int { return 32 }
func (c *Ed25519Curve) PointSize() int  { return 32 }

func (c *Ed25519Curve) ScalarFromBytes(data []byte) (Scalar, error) {
	if len(data) != 32 {
		return nil, ErrInvalidScalarLength
	}

	scalar, err := new(edwards25519.Scalar).SetCanonicalBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}

	return &Ed25519Scalar{inner: scalar}, nil
}

func (c *Ed25519Curve) ScalarRandom(rng io.Reader) (Scalar, error) {
	for {
		bytes, err := readUniform(rng)
		if err != nil {
			return nil, err
		}

		scalar, _ := edwards25519.NewScalar().SetUniformBytes(bytes)
		ZeroizeBytes(bytes)
		s := NewEd25519Scalar(scalar)
		if !s.IsZero() {
			return s, nil
		}
	}
}

// NewEd25519Scalar creates a new Ed25519Scalar with automatic cleanup via finalizer
func NewEd25519Scalar(inner *edwards25519.Scalar) *Ed25519Scalar {
	s := &Ed25519Scalar{inner: inner}
	runtime.SetFinalizer(s, (*Ed25519Scalar).finalize)
	return s
}

// finalize is called by the garbage collector as backup cleanup
func (s *Ed25519Scalar) finalize() {
	if s.inner != nil {
		s.Zeroize()
	}
}

func (c *Ed25519Curve) ScalarFromUniformBytes(data []byte) (Scalar, error) {
	if len(data) < 32 {
		return nil, ErrInvalidScalarLength
	}

	// SetUniformBytes wants exactly 64 bytes; shorter input is zero padded
	uniformBytes := make([]byte, 64)
	copy(uniformBytes, data)

	scalar, _ := edwards25519.NewScalar().SetUniformBytes(uniformBytes)
	return &Ed25519Scalar{inner: scalar}, nil
}

func (c *Ed25519Curve) ScalarZero() Scalar {
	return &Ed25519Scalar{inner: edwards25519.NewScalar()}
}

func (c *Ed25519Curve) ScalarOne() Scalar {
	scalar := edwards25519.NewScalar()
	scalar.SetCanonicalBytes([]byte{
		1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	})
	return &Ed25519Scalar{inner: scalar}
}

func (c *Ed25519Curve) PointFromBytes(data []byte) (Point, error) {
	if len(data) != 32 {
		return nil, ErrInvalidPointLength
	}

	point, err := new(edwards25519.Point).SetBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}

	// Peers must not be able to smuggle in small-order components
	if !isTorsionFree(point) {
		return nil, ErrPointNotInSubgroup
	}

	return NewEd25519Point(point), nil
}

// NewEd25519Point wraps a point already known to be in the prime-order subgroup
func NewEd25519Point(inner *edwards25519.Point) *Ed25519Point {
	return &Ed25519Point{inner: inner}
}

func (c *Ed25519Curve) BasePoint() Point {
	return &Ed25519Point{inner: edwards25519.NewGeneratorPoint()}
}

func (c *Ed25519Curve) PointIdentity() Point {
	return &Ed25519Point{inner: edwards25519.NewIdentityPoint()}
}

func (c *Ed25519Curve) ValidateScalar(data []byte) error {
	if len(data) != 32 {
		return ErrInvalidScalarLength
	}

	_, err := new(edwards25519.Scalar).SetCanonicalBytes(data)
	if err != nil {
		return ErrInvalidScalar
	}

	return nil
}

func (c *Ed25519Curve) ValidatePoint(data []byte) error {
	_, err := c.PointFromBytes(data)
	return err
}

// MultiScalarMult uses the variable-time Straus implementation; all inputs are public
// at every call site (verification equations and commitments over public bases).
func (c *Ed25519Curve) MultiScalarMult(points []Point, scalars []Scalar) (Point, error) {
	ps := make([]*edwards25519.Point, len(points))
	ss := make([]*edwards25519.Scalar, len(scalars))
	for i := range points {
		ps[i] = points[i].(*Ed25519Point).inner
		ss[i] = scalars[i].(*Ed25519Scalar).inner
	}
	result := edwards25519.NewIdentityPoint().VarTimeMultiScalarMult(ss, ps)
	return &Ed25519Point{inner: result}, nil
}

// isTorsionFree reports whether [l]P is the identity, computed as [l-1]P + P since
// scalars are reduced modulo l.
func isTorsionFree(p *edwards25519.Point) bool {
	one := (&Ed25519Curve{}).ScalarOne().(*Ed25519Scalar).inner
	lMinusOne := edwards25519.NewScalar().Negate(one)
	q := edwards25519.NewIdentityPoint().ScalarMult(lMinusOne, p)
	q.Add(q, p)
	return q.Equal(edwards25519.NewIdentityPoint()) == 1
}

// Ed25519Scalar implements the Scalar interface
type Ed25519Scalar struct {
	inner *edwards25519.Scalar
}

func (s *Ed25519Scalar) Bytes() []byte {
	return s.inner.Bytes()
}

func (s *Ed25519Scalar) String() string {
	return hex.EncodeToString(s.Bytes())
}

func (s *Ed25519Scalar) Add(other Scalar) Scalar {
	result := edwards25519.NewScalar()
	result.Add(s.inner, other.(*Ed25519Scalar).inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Sub(other Scalar) Scalar {
	result := edwards25519.NewScalar()
	result.Subtract(s.inner, other.(*Ed25519Scalar).inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Mul(other Scalar) Scalar {
	result := edwards25519.NewScalar()
	result.Multiply(s.inner, other.(*Ed25519Scalar).inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Negate() Scalar {
	result := edwards25519.NewScalar()
	result.Negate(s.inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Invert() (Scalar, error) {
	if s.IsZero() {
		return nil, ErrScalarZero
	}

	result := edwards25519.NewScalar()
	result.Invert(s.inner)
	return &Ed25519Scalar{inner: result}, nil
}

func (s *Ed25519Scalar) Equal(other Scalar) bool {
	o, ok := other.(*Ed25519Scalar)
	if !ok {
		return false
	}
	return s.inner.Equal(o.inner) == 1
}

func (s *Ed25519Scalar) IsZero() bool {
	zero := edwards25519.NewScalar()
	return s.inner.Equal(zero) == 1
}

func (s *Ed25519Scalar) Zeroize() {
	s.inner = edwards25519.NewScalar()
	runtime.SetFinalizer(s, nil)
}

// Ed25519Point implements the Point interface
type Ed25519Point struct {
	inner *edwards25519.Point
}

func (p *Ed25519Point) Bytes() []byte {
	return p.inner.Bytes()
}

func (p *Ed25519Point) CompressedBytes() []byte {
	return p.Bytes() // Ed25519 points are already compressed
}

func (p *Ed25519Point) String() string {
	return hex.EncodeToString(p.Bytes())
}

func (p *Ed25519Point) Add(other Point) Point {
	result := edwards25519.NewIdentityPoint()
	result.Add(p.inner, other.(*Ed25519Point).inner)
	return &Ed25519Point{inner: result}
}

func (p *Ed25519Point) Sub(other Point) Point {
	result := edwards25519.NewIdentityPoint()
	result.Subtract(p.inner, other.(*Ed25519Point).inner)
	return &Ed25519Point{inner: result}
}

func (p *Ed25519Point) Mul(scalar Scalar) Point {
	result := edwards25519.NewIdentityPoint()
	result.ScalarMult(scalar.(*Ed25519Scalar).inner, p.inner)
	return &Ed25519Point{inner: result}
}

func (p *Ed25519Point) Negate() Point {
	result := edwards25519.NewIdentityPoint()
	result.Negate(p.inner)
	return &Ed25519Point{inner: result}
}

func (p *Ed25519Point) Equal(other Point) bool {
	o, ok := other.(*Ed25519Point)
	if !ok {
		return false
	}
	return p.inner.Equal(o.inner) == 1
}

func (p *Ed25519Point) IsIdentity() bool {
	identity := edwards25519.NewIdentityPoint()
	return p.inner.Equal(identity) == 1
}

func (p *Ed25519Point) IsOnCurve() bool {
	// The edwards25519 library rejects invalid encodings during SetBytes
	bytes := p.inner.Bytes()
	_, err := new(edwards25519.Point).SetBytes(bytes)
	return err == nil
}
