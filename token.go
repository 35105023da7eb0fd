package ntat

// Query is the client's blinded issuance request: T = λ·(X + r·g3 + g4)
// together with a REP3 proof that T is well formed under the client key X.
type Query struct {
	T     Point
	Proof *REP3Proof
}

// Response is the issuer's reply: the fresh tweak s, S = (y+s)⁻¹·T and a
// DLEQ proof tying S to Y.
type Response struct {
	Tweak Scalar
	S     Point
	Proof *DLEQProof
}

// Token is an extracted credential satisfying (y+s)·Sigma = X + r·g3 + g4,
// with Serial = r and Tweak = s. The serial is disclosed at redemption and
// identifies the token for double-spend detection; Sigma and Tweak stay with
// the client.
type Token struct {
	Sigma  Point
	Serial Scalar
	Tweak  Scalar
}

// REP3Proof proves knowledge of x, r and λ⁻¹ behind (X, T)
type REP3Proof struct {
	Challenge Scalar
	Z1        Scalar
	Z2        Scalar
	Z3        Scalar
}

// DLEQProof proves log_g2(Y) == log_S(T - s·S)
type DLEQProof struct {
	Challenge Scalar
	Z         Scalar
}

// RedemptionProof1 opens a redemption: a re-randomised token SigmaPrime, the
// token serial, and a hiding commitment to the prover's first message.
type RedemptionProof1 struct {
	SigmaPrime Point
	Serial     Scalar
	Commitment Scalar
}

// RedemptionProof2 answers the issuer's challenge
type RedemptionProof2 struct {
	V0  Scalar
	V1  Scalar
	V2  Scalar
	Rho Scalar
}

// Zeroize clears the token secrets
func (t *Token) Zeroize() {
	if t == nil {
		return
	}
	if t.Serial != nil {
		t.Serial.Zeroize()
	}
	if t.Tweak != nil {
		t.Tweak.Zeroize()
	}
}

func (p *REP3Proof) complete() bool {
	return p != nil && p.Challenge != nil && p.Z1 != nil && p.Z2 != nil && p.Z3 != nil
}

func (p *DLEQProof) complete() bool {
	return p != nil && p.Challenge != nil && p.Z != nil
}

func (q *Query) complete() bool {
	return q != nil && q.T != nil && q.Proof.complete()
}

func (r *Response) complete() bool {
	return r != nil && r.Tweak != nil && r.S != nil && r.Proof.complete()
}

func (p *RedemptionProof1) complete() bool {
	return p != nil && p.SigmaPrime != nil && p.Serial != nil && p.Commitment != nil
}

func (p *RedemptionProof2) complete() bool {
	return p != nil && p.V0 != nil && p.V1 != nil && p.V2 != nil && p.Rho != nil
}
