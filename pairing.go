package ntat

// VerifyTokenPairing checks e(σ, Y + s·g2) == e(X + r·g3 + g4, g2), which
// holds exactly when (y+s)·σ = X + r·g3 + g4. It needs the client key X and
// the token secrets, so only the token holder can run it.
func VerifyTokenPairing(pp *PublicParams, serverKey, clientKey Point, token *Token) error {
	pairing, ok := pp.Suite.(Pairing)
	if !ok {
		return ErrPairingUnsupported.WithContext("suite", pp.Suite.Name())
	}
	if token == nil || token.Sigma == nil || token.Serial == nil || token.Tweak == nil {
		return ErrMalformedMessage.WithDetails("token incomplete")
	}
	if !pointsIn(pp.Suite.Issuance(), token.Sigma, clientKey) || !pointsIn(pp.Suite.Key(), serverKey) {
		return ErrSuiteMismatch
	}

	B, err := pp.serialPoint(token.Serial)
	if err != nil {
		return ErrCryptographicOperation.WithCause(err)
	}
	M := clientKey.Add(B)
	keyed := serverKey.Add(pp.G2.Mul(token.Tweak))

	ok, err = pairing.PairingCheck(
		[]Point{token.Sigma, M.Negate()},
		[]Point{keyed, pp.G2},
	)
	if err != nil {
		return ErrCryptographicOperation.WithCause(err)
	}
	if !ok {
		return ErrIssuanceRejected.WithDetails("pairing check failed")
	}
	return nil
}
