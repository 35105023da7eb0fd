package ntat

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ClientState is the stage of a client session
type ClientState int

const (
	ClientInitialized ClientState = iota
	ClientQuerySent
	ClientTokenHeld
	ClientRedeeming
)

func (s ClientState) String() string {
	switch s {
	case ClientInitialized:
		return "initialized"
	case ClientQuerySent:
		return "query_sent"
	case ClientTokenHeld:
		return "token_held"
	case ClientRedeeming:
		return "redeeming"
	default:
		return fmt.Sprintf("ClientState(%d)", int(s))
	}
}

// querySession holds the blinding material between Query and Final
type querySession struct {
	lambda Scalar
	serial Scalar
	query  *Query
}

// redemptionSession holds the prover state between the two redemption rounds
type redemptionSession struct {
	witnesses []Scalar
	nonces    []Scalar
	rho       Scalar
}

func (r *redemptionSession) zeroize() {
	ZeroizeScalarSlice(r.witnesses)
	ZeroizeScalarSlice(r.nonces)
	if r.rho != nil {
		r.rho.Zeroize()
	}
}

// Client drives Query, Final and the prover side of redemption. Steps must
// run in order; a step called from the wrong state fails with ErrInvalidState.
type Client struct {
	pp        *PublicParams
	key       *ClientKeyPair
	serverKey Point
	opts      options
	logger    *zap.Logger

	mu         sync.Mutex
	state      ClientState
	holdsToken bool
	query      *querySession
	redemption *redemptionSession
}

// NewClient creates a client holding key, talking to the issuer whose public key is serverKey
func NewClient(pp *PublicParams, key *ClientKeyPair, serverKey Point, opts ...Option) (*Client, error) {
	if err := pp.Validate(); err != nil {
		return nil, err
	}
	if err := key.Validate(pp); err != nil {
		return nil, err
	}
	if !pointsIn(pp.Suite.Key(), serverKey) || serverKey.IsIdentity() {
		return nil, ErrInvalidKey.WithDetails("server public key is not a valid key group element")
	}
	o := buildOptions(opts)
	return &Client{
		pp:        pp,
		key:       key,
		serverKey: serverKey,
		opts:      o,
		logger:    o.logger.With(zap.String("role", string(RoleClient)), zap.String("suite", pp.Suite.Name())),
		state:     ClientInitialized,
	}, nil
}

// State reports the current session stage
func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) restState() ClientState {
	if c.holdsToken {
		return ClientTokenHeld
	}
	return ClientInitialized
}

func (c *Client) invalidState(step string) error {
	err := ErrInvalidState.WithContext("step", step).WithContext("state", c.state.String())
	c.logger.Error("protocol step out of order", zap.String("step", step), zap.Stringer("state", c.state))
	c.opts.audit.OnError(NewAuditEventBuilder(AuditEventSequencingFailure, ReasonSequencing).
		WithSuite(c.pp.Suite.Name()).WithRole(RoleClient).WithError(err).Build())
	return err
}

// Query starts an issuance: it samples the serial r and blinding λ, and
// returns T = λ·(X + r·g3 + g4) with its REP3 proof.
func (c *Client) Query() (*Query, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ClientInitialized && c.state != ClientTokenHeld {
		return nil, c.invalidState("query")
	}
	start := time.Now()

	sg := c.pp.scalars()
	lambda, err := sg.ScalarRandom(c.opts.rng)
	if err != nil {
		return nil, err
	}
	serial, err := sg.ScalarRandom(c.opts.rng)
	if err != nil {
		return nil, err
	}

	B, err := c.pp.serialPoint(serial)
	if err != nil {
		return nil, ErrCryptographicOperation.WithCause(err)
	}
	T := c.key.Public.Add(B).Mul(lambda)

	proof, err := ProveREP3(c.pp, c.opts.rng, c.key.Public, T, c.key.Secret, lambda, serial)
	if err != nil {
		return nil, err
	}

	q := &Query{T: T, Proof: proof}
	c.query = &querySession{lambda: lambda, serial: serial, query: q}
	c.state = ClientQuerySent

	c.logger.Debug("query sent")
	c.opts.audit.OnIssuance(NewAuditEventBuilder(AuditEventQuerySent, ReasonProtocolStep).
		WithSuite(c.pp.Suite.Name()).WithRole(RoleClient).BuildIssuance(time.Since(start), 1))
	return q, nil
}

// Final checks the issuer's DLEQ proof and unblinds the token. A response
// whose proof fails is rejected with ErrIssuanceRejected and the query is
// spent either way.
func (c *Client) Final(resp *Response) (*Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ClientQuerySent {
		return nil, c.invalidState("final")
	}
	start := time.Now()

	session := c.query
	c.query = nil
	c.state = c.restState()
	defer session.lambda.Zeroize()

	reject := func(reason AuditEventReason) (*Token, error) {
		session.serial.Zeroize()
		c.logger.Warn("issuance rejected", zap.String("code", ErrIssuanceRejected.Code))
		c.opts.audit.OnIssuance(NewAuditEventBuilder(AuditEventIssuanceRejected, reason).
			WithSuite(c.pp.Suite.Name()).WithRole(RoleClient).WithError(ErrIssuanceRejected).
			BuildIssuance(time.Since(start), 1))
		return nil, ErrIssuanceRejected
	}

	if !resp.complete() {
		return reject(ReasonMalformed)
	}
	if !VerifyDLEQ(c.pp, c.serverKey, resp.S, session.query.T, resp.Tweak, resp.Proof) {
		return reject(ReasonProofFailure)
	}

	lambdaInv, err := session.lambda.Invert()
	if err != nil {
		return reject(ReasonProofFailure)
	}
	token := &Token{
		Sigma:  resp.S.Mul(lambdaInv),
		Serial: session.serial,
		Tweak:  resp.Tweak,
	}
	lambdaInv.Zeroize()
	if token.Sigma.IsIdentity() {
		return reject(ReasonProofFailure)
	}

	if _, ok := c.pp.Suite.(Pairing); ok {
		if err := VerifyTokenPairing(c.pp, c.serverKey, c.key.Public, token); err != nil {
			return reject(ReasonProofFailure)
		}
	}

	c.holdsToken = true
	c.state = ClientTokenHeld

	c.logger.Debug("token finalized")
	c.opts.audit.OnIssuance(NewAuditEventBuilder(AuditEventTokenFinalized, ReasonProtocolStep).
		WithSuite(c.pp.Suite.Name()).WithRole(RoleClient).BuildIssuance(time.Since(start), 1))
	return token, nil
}

// ProveRedemption1 opens the redemption of token. It re-randomises the token
// as σ' = α·σ, discloses the serial, and commits to the first message of a
// proof of knowledge of (x·α, α, -s) with y·σ' = x·α·g1 + α·(r·g3 + g4) - s·σ'.
func (c *Client) ProveRedemption1(token *Token) (*RedemptionProof1, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ClientTokenHeld {
		return nil, c.invalidState("prove_redemption1")
	}
	if token == nil || token.Sigma == nil || token.Serial == nil || token.Tweak == nil {
		return nil, ErrMalformedMessage.WithDetails("token incomplete")
	}
	start := time.Now()

	g := c.pp.Suite.Issuance()
	sg := c.pp.scalars()
	alpha, err := sg.ScalarRandom(c.opts.rng)
	if err != nil {
		return nil, err
	}
	sigmaPrime := token.Sigma.Mul(alpha)
	B, err := c.pp.serialPoint(token.Serial)
	if err != nil {
		return nil, ErrCryptographicOperation.WithCause(err)
	}

	witnesses := []Scalar{c.key.Secret.Mul(alpha), alpha, token.Tweak.Negate()}
	nonces := make([]Scalar, 3)
	for i := range nonces {
		if nonces[i], err = sg.ScalarRandom(c.opts.rng); err != nil {
			return nil, err
		}
	}
	A, err := MultiScalarMult(g, []Point{c.pp.G1, B, sigmaPrime}, nonces)
	if err != nil {
		return nil, ErrCryptographicOperation.WithCause(err)
	}
	rho, err := sg.ScalarRandom(c.opts.rng)
	if err != nil {
		return nil, err
	}

	commitment, err := redemptionCommitment(c.pp, c.serverKey, token.Serial, sigmaPrime, A, rho)
	if err != nil {
		return nil, err
	}

	c.redemption = &redemptionSession{
		witnesses: witnesses,
		nonces:    nonces,
		rho:       rho,
	}
	c.state = ClientRedeeming

	c.logger.Debug("redemption opened")
	c.opts.audit.OnRedemption(NewAuditEventBuilder(AuditEventRedemptionChallenged, ReasonProtocolStep).
		WithSuite(c.pp.Suite.Name()).WithRole(RoleClient).BuildRedemption(1, time.Since(start)))

	return &RedemptionProof1{
		SigmaPrime: sigmaPrime,
		Serial:     token.Serial,
		Commitment: commitment,
	}, nil
}

// ProveRedemption2 answers the issuer's challenge with v_i = k_i + c·w_i and
// opens the commitment blinding ρ. The redemption session ends here.
func (c *Client) ProveRedemption2(challenge Scalar) (*RedemptionProof2, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ClientRedeeming {
		return nil, c.invalidState("prove_redemption2")
	}
	session := c.redemption
	if !scalarsIn(c.pp.scalars(), challenge) {
		return nil, ErrMalformedMessage.WithDetails("challenge is not a scalar of suite %s", c.pp.Suite.Name())
	}
	start := time.Now()

	c.redemption = nil
	c.state = ClientTokenHeld
	defer session.zeroize()

	v := make([]Scalar, 3)
	for i := range v {
		v[i] = session.nonces[i].Add(challenge.Mul(session.witnesses[i]))
	}
	rho := c.pp.scalars().ScalarZero().Add(session.rho)

	c.logger.Debug("redemption response sent")
	c.opts.audit.OnRedemption(NewAuditEventBuilder(AuditEventRedemptionChallenged, ReasonProtocolStep).
		WithSuite(c.pp.Suite.Name()).WithRole(RoleClient).BuildRedemption(2, time.Since(start)))

	return &RedemptionProof2{V0: v[0], V1: v[1], V2: v[2], Rho: rho}, nil
}

// Abandon drops any in-flight query or redemption
func (c *Client) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.query != nil {
		c.query.lambda.Zeroize()
		c.query.serial.Zeroize()
		c.query = nil
	}
	if c.redemption != nil {
		c.redemption.zeroize()
		c.redemption = nil
	}
	c.state = c.restState()
}

// redemptionCommitment hashes the prover's first message A under blinding rho
func redemptionCommitment(pp *PublicParams, Y Point, serial Scalar, sigmaPrime, A Point, rho Scalar) (Scalar, error) {
	t := pp.transcript("redeem-commit")
	t.AppendPoint("Y", Y)
	t.AppendScalar("r", serial)
	t.AppendPoint("sigma'", sigmaPrime)
	t.AppendPoint("A", A)
	t.AppendScalar("rho", rho)
	return t.ChallengeScalar(pp.scalars())
}

// redemptionChallenge derives the issuer's challenge from the round-1 message and its nonce
func redemptionChallenge(pp *PublicParams, Y Point, p *RedemptionProof1, nonce Scalar) (Scalar, error) {
	t := pp.transcript("redeem-challenge")
	t.AppendPoint("Y", Y)
	t.AppendScalar("r", p.Serial)
	t.AppendPoint("sigma'", p.SigmaPrime)
	t.AppendScalar("comm", p.Commitment)
	t.AppendScalar("n", nonce)
	return t.ChallengeScalar(pp.scalars())
}
