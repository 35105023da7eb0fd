package ntat

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Group defines the interface for the prime-order group operations the protocol needs.
// A Suite carries two roles of Group: the issuance group where tokens live and the key
// group holding the server public key. Prime-order backends use one Group for both.
type Group interface {
	// Metadata
	Name() string
	ScalarSize() int
	PointSize() int

	// Scalar operations
	ScalarFromBytes([]byte) (Scalar, error)
	ScalarFromUniformBytes([]byte) (Scalar, error)
	ScalarRandom(io.Reader) (Scalar, error)
	ScalarZero() Scalar
	ScalarOne() Scalar

	// Point operations
	PointFromBytes([]byte) (Point, error)
	BasePoint() Point
	PointIdentity() Point

	// Validation
	ValidateScalar([]byte) error
	ValidatePoint([]byte) error
}

// Scalar represents a scalar value modulo the group order
type Scalar interface {
	// Serialization
	Bytes() []byte
	String() string

	// Arithmetic operations
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Mul(Scalar) Scalar
	Negate() Scalar
	Invert() (Scalar, error)

	// Comparison
	Equal(Scalar) bool
	IsZero() bool

	// Security
	Zeroize()
}

// Point represents a group element
type Point interface {
	// Serialization
	Bytes() []byte
	CompressedBytes() []byte
	String() string

	// Arithmetic operations
	Add(Point) Point
	Sub(Point) Point
	Mul(Scalar) Point
	Negate() Point

	// Comparison
	Equal(Point) bool
	IsIdentity() bool

	// Validation
	IsOnCurve() bool
}

// MultiScalarMultiplier is implemented by groups with a native multi-scalar
// multiplication. MultiScalarMult falls back to a sum of products otherwise.
type MultiScalarMultiplier interface {
	MultiScalarMult(points []Point, scalars []Scalar) (Point, error)
}

// Pairing is implemented by suites whose issuance and key groups admit a bilinear map.
type Pairing interface {
	// PairingCheck reports whether prod e(g1s[i], g2s[i]) == 1.
	PairingCheck(g1s []Point, g2s []Point) (bool, error)
}

// PointHasher is implemented by groups that can map arbitrary bytes to a group
// element with no known discrete log relative to any other generator.
type PointHasher interface {
	HashToPoint(msg, dst []byte) (Point, error)
}

// Suite bundles the groups one protocol instantiation runs over.
type Suite interface {
	Name() string
	// Issuance is the group holding g1, g3, g4, queries and tokens.
	Issuance() Group
	// Key is the group holding g2 and the server public key.
	Key() Group
}

// SuiteType represents supported backends
type SuiteType string

const (
	Secp256k1    SuiteType = "secp256k1"
	Ed25519      SuiteType = "ed25519"
	Ristretto255 SuiteType = "ristretto255"
	BLS12381     SuiteType = "bls12-381"
)

// SupportedSuites lists every backend NewSuite can build.
func SupportedSuites() []SuiteType {
	return []SuiteType{Secp256k1, Ed25519, Ristretto255, BLS12381}
}

// NewSuite creates a new suite instance
func NewSuite(suiteType SuiteType) (Suite, error) {
	switch suiteType {
	case Secp256k1:
		return newPrimeOrderSuite(NewSecp256k1Curve()), nil
	case Ed25519:
		return newPrimeOrderSuite(NewEd25519Curve()), nil
	case Ristretto255:
		return newPrimeOrderSuite(NewRistrettoGroup()), nil
	case BLS12381:
		return NewBLS12381Suite(), nil
	default:
		return nil, ErrUnsupportedSuite.WithContext("suite", string(suiteType))
	}
}

// primeOrderSuite uses a single group for both roles.
type primeOrderSuite struct {
	group Group
}

func newPrimeOrderSuite(g Group) *primeOrderSuite {
	return &primeOrderSuite{group: g}
}

func (s *primeOrderSuite) Name() string    { return s.group.Name() }
func (s *primeOrderSuite) Issuance() Group { return s.group }
func (s *primeOrderSuite) Key() Group      { return s.group }

// MultiScalarMult computes sum(scalars[i] * points[i]) in g.
func MultiScalarMult(g Group, points []Point, scalars []Scalar) (Point, error) {
	if len(points) != len(scalars) {
		return nil, fmt.Errorf("multi-scalar multiplication: %d points but %d scalars", len(points), len(scalars))
	}
	if msm, ok := g.(MultiScalarMultiplier); ok {
		return msm.MultiScalarMult(points, scalars)
	}
	acc := g.PointIdentity()
	for i := range points {
		acc = acc.Add(points[i].Mul(scalars[i]))
	}
	return acc, nil
}

// Common errors
var (
	ErrInvalidScalarLength = errors.New("invalid scalar length")
	ErrInvalidPointLength  = errors.New("invalid point length")
	ErrInvalidScalar       = errors.New("invalid scalar value")
	ErrInvalidPoint        = errors.New("invalid point")
	ErrPointNotOnCurve     = errors.New("point not on curve")
	ErrPointNotInSubgroup  = errors.New("point not in prime-order subgroup")
	ErrScalarZero          = errors.New("scalar is zero")
)

// readUniform reads 64 bytes from rng, the width every backend reduces from.
func readUniform(rng io.Reader) ([]byte, error) {
	if rng == nil {
		rng = rand.Reader
	}
	buf := make([]byte, 64)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, ErrRandomnessGeneration.WithCause(err)
	}
	return buf, nil
}
