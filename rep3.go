package ntat

import (
	"io"
	"reflect"
)

// ProveREP3 proves knowledge of x, r and λ such that X = x·g1 and
// T = λ·(x·g1 + r·g3 + g4), equivalently λ⁻¹·T - x·g1 - r·g3 = g4.
func ProveREP3(pp *PublicParams, rng io.Reader, X, T Point, x, lambda, r Scalar) (*REP3Proof, error) {
	sg := pp.scalars()
	lambdaInv, err := lambda.Invert()
	if err != nil {
		return nil, ErrCryptographicOperation.WithCause(err).WithDetails("blinding scalar is zero")
	}
	defer lambdaInv.Zeroize()

	nonces := make([]Scalar, 3)
	for i := range nonces {
		if nonces[i], err = sg.ScalarRandom(rng); err != nil {
			return nil, err
		}
	}
	defer ZeroizeScalarSlice(nonces)
	a, b, c := nonces[0], nonces[1], nonces[2]

	A1 := pp.G1.Mul(a)
	A2, err := MultiScalarMult(pp.Suite.Issuance(), []Point{pp.G1, pp.G3, T}, []Scalar{a, b, c})
	if err != nil {
		return nil, ErrCryptographicOperation.WithCause(err)
	}

	ch, err := rep3Challenge(pp, X, T, A1, A2)
	if err != nil {
		return nil, err
	}

	return &REP3Proof{
		Challenge: ch,
		Z1:        a.Sub(ch.Mul(x)),
		Z2:        b.Sub(ch.Mul(r)),
		Z3:        c.Add(ch.Mul(lambdaInv)),
	}, nil
}

// VerifyREP3 reports whether proof is valid for (X, T). It never panics on
// malformed input; anything it cannot evaluate is rejected.
func VerifyREP3(pp *PublicParams, X, T Point, proof *REP3Proof) bool {
	if !proof.complete() || X == nil || T == nil {
		return false
	}
	g := pp.Suite.Issuance()
	if !pointsIn(g, X, T) || !scalarsIn(pp.scalars(), proof.Challenge, proof.Z1, proof.Z2, proof.Z3) {
		return false
	}
	if T.IsIdentity() {
		return false
	}

	A1 := pp.G1.Mul(proof.Z1).Add(X.Mul(proof.Challenge))
	A2, err := MultiScalarMult(g,
		[]Point{pp.G1, pp.G3, T, pp.G4},
		[]Scalar{proof.Z1, proof.Z2, proof.Z3, proof.Challenge.Negate()})
	if err != nil {
		return false
	}

	ch, err := rep3Challenge(pp, X, T, A1, A2)
	if err != nil {
		return false
	}
	return ch.Equal(proof.Challenge)
}

func rep3Challenge(pp *PublicParams, X, T, A1, A2 Point) (Scalar, error) {
	t := pp.transcript("rep3")
	t.AppendPoint("X", X)
	t.AppendPoint("T", T)
	t.AppendPoint("A1", A1)
	t.AppendPoint("A2", A2)
	return t.ChallengeScalar(pp.scalars())
}

// pointsIn reports whether every point is a non-nil element of g
func pointsIn(g Group, points ...Point) bool {
	want := reflect.TypeOf(g.PointIdentity())
	for _, p := range points {
		if p == nil || reflect.TypeOf(p) != want {
			return false
		}
	}
	return true
}

// scalarsIn reports whether every scalar is a non-nil scalar of g
func scalarsIn(g Group, scalars ...Scalar) bool {
	want := reflect.TypeOf(g.ScalarZero())
	for _, s := range scalars {
		if s == nil || reflect.TypeOf(s) != want {
			return false
		}
	}
	return true
}
