package ntat

import (
	"bytes"
	"encoding/hex"
	"io"
	"runtime"

	"github.com/bwesterb/go-ristretto"
)

// RistrettoGroup implements the Group interface for ristretto255
type RistrettoGroup struct{}

// NewRistrettoGroup creates a new ristretto255 group instance
func NewRistrettoGroup() *RistrettoGroup {
	return &RistrettoGroup{}
}

func (g *RistrettoGroup) Name() string    { return "ristretto255" }
func (g *RistrettoGroup) ScalarSize() int { return 32 }
func (g *RistrettoGroup) PointSize() int  { return 32 }

func (g *RistrettoGroup) ScalarFromBytes(data []byte) (Scalar, error) {
	if len(data) != 32 {
		return nil, ErrInvalidScalarLength
	}

	var buf [32]byte
	copy(buf[:], data)
	scalar := new(ristretto.Scalar).SetBytes(&buf)

	// SetBytes reduces silently; only the reduced form is canonical
	if !bytes.Equal(scalar.Bytes(), data) {
		return nil, ErrInvalidScalar
	}
	return &RistrettoScalar{inner: scalar}, nil
}

func (g *RistrettoGroup) ScalarFromUniformBytes(data []byte) (Scalar, error) {
	if len(data) < 32 {
		return nil, ErrInvalidScalarLength
	}

	var wide [64]byte
	copy(wide[:], data)
	scalar := new(ristretto.Scalar).SetReduced(&wide)
	ZeroizeBytes(wide[:])
	return &RistrettoScalar{inner: scalar}, nil
}

func (g *RistrettoGroup) ScalarRandom(rng io.Reader) (Scalar, error) {
	for {
		buf, err := readUniform(rng)
		if err != nil {
			return nil, err
		}

		scalar, err := g.ScalarFromUniformBytes(buf)
		ZeroizeBytes(buf)
		if err != nil {
			return nil, err
		}
		if !scalar.IsZero() {
			runtime.SetFinalizer(scalar.(*RistrettoScalar), (*RistrettoScalar).Zeroize)
			return scalar, nil
		}
	}
}

func (g *RistrettoGroup) ScalarZero() Scalar {
	return &RistrettoScalar{inner: new(ristretto.Scalar).SetZero()}
}

func (g *RistrettoGroup) ScalarOne() Scalar {
	return &RistrettoScalar{inner: new(ristretto.Scalar).SetOne()}
}

func (g *RistrettoGroup) PointFromBytes(data []byte) (Point, error) {
	if len(data) != 32 {
		return nil, ErrInvalidPointLength
	}

	var buf [32]byte
	copy(buf[:], data)
	point := new(ristretto.Point)
	if !point.SetBytes(&buf) {
		return nil, ErrInvalidPoint
	}
	return &RistrettoPoint{inner: point}, nil
}

func (g *RistrettoGroup) BasePoint() Point {
	return &RistrettoPoint{inner: new(ristretto.Point).SetBase()}
}

func (g *RistrettoGroup) PointIdentity() Point {
	return &RistrettoPoint{inner: new(ristretto.Point).SetZero()}
}

func (g *RistrettoGroup) ValidateScalar(data []byte) error {
	_, err := g.ScalarFromBytes(data)
	return err
}

func (g *RistrettoGroup) ValidatePoint(data []byte) error {
	_, err := g.PointFromBytes(data)
	return err
}

// RistrettoScalar implements the Scalar interface
type RistrettoScalar struct {
	inner *ristretto.Scalar
}

func (s *RistrettoScalar) Bytes() []byte {
	return s.inner.Bytes()
}

func (s *RistrettoScalar) String() string {
	return hex.EncodeToString(s.Bytes())
}

func (s *RistrettoScalar) Add(other Scalar) Scalar {
	return &RistrettoScalar{inner: new(ristretto.Scalar).Add(s.inner, other.(*RistrettoScalar).inner)}
}

func (s *RistrettoScalar) Sub(other Scalar) Scalar {
	return &RistrettoScalar{inner: new(ristretto.Scalar).Sub(s.inner, other.(*RistrettoScalar).inner)}
}

func (s *RistrettoScalar) Mul(other Scalar) Scalar {
	return &RistrettoScalar{inner: new(ristretto.Scalar).Mul(s.inner, other.(*RistrettoScalar).inner)}
}

func (s *RistrettoScalar) Negate() Scalar {
	return &RistrettoScalar{inner: new(ristretto.Scalar).Neg(s.inner)}
}

func (s *RistrettoScalar) Invert() (Scalar, error) {
	if s.IsZero() {
		return nil, ErrScalarZero
	}
	return &RistrettoScalar{inner: new(ristretto.Scalar).Inverse(s.inner)}, nil
}

func (s *RistrettoScalar) Equal(other Scalar) bool {
	o, ok := other.(*RistrettoScalar)
	if !ok {
		return false
	}
	return s.inner.Equals(o.inner)
}

func (s *RistrettoScalar) IsZero() bool {
	return s.inner.Equals(new(ristretto.Scalar).SetZero())
}

func (s *RistrettoScalar) Zeroize() {
	s.inner.SetZero()
	runtime.SetFinalizer(s, nil)
}

// RistrettoPoint implements the Point interface
type RistrettoPoint struct {
	inner *ristretto.Point
}

func (p *RistrettoPoint) Bytes() []byte {
	return p.inner.Bytes()
}

func (p *RistrettoPoint) CompressedBytes() []byte {
	return p.Bytes()
}

func (p *RistrettoPoint) String() string {
	return hex.EncodeToString(p.Bytes())
}

func (p *RistrettoPoint) Add(other Point) Point {
	return &RistrettoPoint{inner: new(ristretto.Point).Add(p.inner, other.(*RistrettoPoint).inner)}
}

func (p *RistrettoPoint) Sub(other Point) Point {
	return &RistrettoPoint{inner: new(ristretto.Point).Sub(p.inner, other.(*RistrettoPoint).inner)}
}

func (p *RistrettoPoint) Mul(scalar Scalar) Point {
	return &RistrettoPoint{inner: new(ristretto.Point).ScalarMult(p.inner, scalar.(*RistrettoScalar).inner)}
}

func (p *RistrettoPoint) Negate() Point {
	return &RistrettoPoint{inner: new(ristretto.Point).Neg(p.inner)}
}

func (p *RistrettoPoint) Equal(other Point) bool {
	o, ok := other.(*RistrettoPoint)
	if !ok {
		return false
	}
	return p.inner.Equals(o.inner)
}

func (p *RistrettoPoint) IsIdentity() bool {
	return p.inner.Equals(new(ristretto.Point).SetZero())
}

// IsOnCurve always holds: decoding is the only way in and it rejects anything
// outside the group.
func (p *RistrettoPoint) IsOnCurve() bool {
	return true
}
