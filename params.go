package ntat

import (
	"io"
)

// PublicParams holds the protocol generators. G1, G3 and G4 live in the
// issuance group, G2 in the key group. Hash selects the transcript hash both
// parties use. Params are immutable once built and safe for concurrent reads.
type PublicParams struct {
	Suite Suite
	Hash  HashAlgorithm
	G1    Point
	G2    Point
	G3    Point
	G4    Point
}

// Setup samples fresh uniformly random generators from rng.
func Setup(suite Suite, rng io.Reader) (*PublicParams, error) {
	if suite == nil {
		return nil, ErrNotInitialized.WithDetails("suite cannot be nil")
	}

	issuance, key := suite.Issuance(), suite.Key()
	randomGenerator := func(g Group) (Point, error) {
		k, err := g.ScalarRandom(rng)
		if err != nil {
			return nil, err
		}
		defer k.Zeroize()
		return g.BasePoint().Mul(k), nil
	}

	pp := &PublicParams{Suite: suite}
	var err error
	if pp.G1, err = randomGenerator(issuance); err != nil {
		return nil, err
	}
	if pp.G2, err = randomGenerator(key); err != nil {
		return nil, err
	}
	if pp.G3, err = randomGenerator(issuance); err != nil {
		return nil, err
	}
	if pp.G4, err = randomGenerator(issuance); err != nil {
		return nil, err
	}
	if err := pp.Validate(); err != nil {
		return nil, err
	}
	return pp, nil
}

// SetupFromSeed hashes a public seed to each generator, so nobody knows the
// discrete log of one generator with respect to another.
func SetupFromSeed(suite Suite, seed []byte) (*PublicParams, error) {
	if suite == nil {
		return nil, ErrNotInitialized.WithDetails("suite cannot be nil")
	}

	hashTo := func(g Group, label string) (Point, error) {
		hasher, ok := g.(PointHasher)
		if !ok {
			return nil, ErrUnsupportedSuite.WithDetails("group %s cannot hash to points", g.Name())
		}
		dst := []byte(ProtocolVersion + ":" + suite.Name() + ":" + label)
		return hasher.HashToPoint(seed, dst)
	}

	pp := &PublicParams{Suite: suite}
	var err error
	if pp.G1, err = hashTo(suite.Issuance(), "g1"); err != nil {
		return nil, err
	}
	if pp.G2, err = hashTo(suite.Key(), "g2"); err != nil {
		return nil, err
	}
	if pp.G3, err = hashTo(suite.Issuance(), "g3"); err != nil {
		return nil, err
	}
	if pp.G4, err = hashTo(suite.Issuance(), "g4"); err != nil {
		return nil, err
	}
	if err := pp.Validate(); err != nil {
		return nil, err
	}
	return pp, nil
}

// Validate checks that every generator is present, is not the identity and
// that the issuance generators are pairwise distinct.
func (pp *PublicParams) Validate() error {
	if pp == nil || pp.Suite == nil {
		return ErrInvalidParams.WithDetails("params or suite missing")
	}
	if _, ok := hashAlgorithmNames[pp.Hash]; !ok {
		return ErrUnsupportedHash.WithContext("hash", pp.Hash.String())
	}
	named := []struct {
		name string
		p    Point
	}{{"g1", pp.G1}, {"g2", pp.G2}, {"g3", pp.G3}, {"g4", pp.G4}}
	for _, gen := range named {
		if gen.p == nil {
			return ErrInvalidParams.WithContext("generator", gen.name).WithDetails("missing")
		}
		if gen.p.IsIdentity() {
			return ErrInvalidParams.WithContext("generator", gen.name).WithDetails("identity")
		}
		if !gen.p.IsOnCurve() {
			return ErrInvalidParams.WithContext("generator", gen.name).WithDetails("not on curve")
		}
	}
	if pp.G1.Equal(pp.G3) || pp.G1.Equal(pp.G4) || pp.G3.Equal(pp.G4) {
		return ErrInvalidParams.WithDetails("issuance generators are not distinct")
	}
	return nil
}

// WithHash returns a copy of the params using hash for every transcript
func (pp *PublicParams) WithHash(hash HashAlgorithm) *PublicParams {
	cp := *pp
	cp.Hash = hash
	return &cp
}

// Equal reports whether both params carry the same suite and generators
func (pp *PublicParams) Equal(other *PublicParams) bool {
	if pp == nil || other == nil {
		return pp == other
	}
	return pp.Suite.Name() == other.Suite.Name() && pp.Hash == other.Hash &&
		pp.G1.Equal(other.G1) && pp.G2.Equal(other.G2) &&
		pp.G3.Equal(other.G3) && pp.G4.Equal(other.G4)
}

// scalars returns the group every protocol scalar lives in. For the pairing
// suite both groups share one scalar field.
func (pp *PublicParams) scalars() Group {
	return pp.Suite.Issuance()
}

// transcript starts a transcript bound to these params
func (pp *PublicParams) transcript(domain string) *Transcript {
	t := NewTranscript(pp.Hash, pp.Suite.Name(), domain)
	t.AppendPoint("g1", pp.G1)
	t.AppendPoint("g2", pp.G2)
	t.AppendPoint("g3", pp.G3)
	t.AppendPoint("g4", pp.G4)
	return t
}

// serialPoint computes B = r·g3 + g4
func (pp *PublicParams) serialPoint(r Scalar) (Point, error) {
	one := pp.scalars().ScalarOne()
	return MultiScalarMult(pp.Suite.Issuance(), []Point{pp.G3, pp.G4}, []Scalar{r, one})
}
