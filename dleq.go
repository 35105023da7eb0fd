package ntat

import (
	"io"
)

// ProveDLEQ proves that Y = y·g2 and T - s·S = y·S for the same y.
func ProveDLEQ(pp *PublicParams, rng io.Reader, Y, S, T Point, s, y Scalar) (*DLEQProof, error) {
	a, err := pp.scalars().ScalarRandom(rng)
	if err != nil {
		return nil, err
	}
	defer a.Zeroize()

	B1 := pp.G2.Mul(a)
	B2 := S.Mul(a)
	I := T.Sub(S.Mul(s))

	ch, err := dleqChallenge(pp, Y, S, I, B1, B2)
	if err != nil {
		return nil, err
	}

	return &DLEQProof{
		Challenge: ch,
		Z:         a.Add(ch.Mul(y)),
	}, nil
}

// VerifyDLEQ reports whether proof is valid for (Y, S, T, s). It never panics
// on malformed input.
func VerifyDLEQ(pp *PublicParams, Y, S, T Point, s Scalar, proof *DLEQProof) bool {
	if !proof.complete() {
		return false
	}
	if !pointsIn(pp.Suite.Key(), Y) || !pointsIn(pp.Suite.Issuance(), S, T) {
		return false
	}
	if !scalarsIn(pp.scalars(), s, proof.Challenge, proof.Z) {
		return false
	}
	if Y.IsIdentity() || S.IsIdentity() {
		return false
	}

	I := T.Sub(S.Mul(s))
	B1 := pp.G2.Mul(proof.Z).Sub(Y.Mul(proof.Challenge))
	B2, err := MultiScalarMult(pp.Suite.Issuance(), []Point{S, I}, []Scalar{proof.Z, proof.Challenge.Negate()})
	if err != nil {
		return false
	}

	ch, err := dleqChallenge(pp, Y, S, I, B1, B2)
	if err != nil {
		return false
	}
	return ch.Equal(proof.Challenge)
}

func dleqChallenge(pp *PublicParams, Y, S, I, B1, B2 Point) (Scalar, error) {
	t := pp.transcript("dleq")
	t.AppendPoint("Y", Y)
	t.AppendPoint("S", S)
	t.AppendPoint("I", I)
	t.AppendPoint("B1", B1)
	t.AppendPoint("B2", B2)
	return t.ChallengeScalar(pp.scalars())
}
