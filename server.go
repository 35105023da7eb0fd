package ntat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ServerState is the stage of the server's redemption session
type ServerState int

const (
	ServerIdle ServerState = iota
	ServerChallengeIssued
)

func (s ServerState) String() string {
	switch s {
	case ServerIdle:
		return "idle"
	case ServerChallengeIssued:
		return "challenge_issued"
	default:
		return fmt.Sprintf("ServerState(%d)", int(s))
	}
}

// maxTweakAttempts bounds re-sampling of the issuance tweak when y + s == 0.
// With a working randomness source a single retry is already astronomically
// unlikely.
const maxTweakAttempts = 8

// pendingRedemption is what the server keeps between the two rounds
type pendingRedemption struct {
	proof1    *RedemptionProof1
	challenge Scalar
	key       []byte
	started   time.Time
}

// Server drives Issue and the verifier side of redemption. Issue is
// stateless and safe to call concurrently; redemption is a two-round session
// guarded by the server's state.
type Server struct {
	pp        *PublicParams
	key       *ServerKeyPair
	clientKey Point
	opts      options
	logger    *zap.Logger

	mu      sync.Mutex
	state   ServerState
	pending *pendingRedemption
}

// NewServer creates an issuer holding key that serves the registered client
// key clientKey. Callers normally admit clientKey only after
// VerifyClientKeyOwnership.
func NewServer(pp *PublicParams, key *ServerKeyPair, clientKey Point, opts ...Option) (*Server, error) {
	if err := pp.Validate(); err != nil {
		return nil, err
	}
	if err := key.Validate(pp); err != nil {
		return nil, err
	}
	if !pointsIn(pp.Suite.Issuance(), clientKey) || clientKey.IsIdentity() {
		return nil, ErrInvalidKey.WithDetails("client public key is not a valid issuance group element")
	}
	o := buildOptions(opts)
	return &Server{
		pp:        pp,
		key:       key,
		clientKey: clientKey,
		opts:      o,
		logger:    o.logger.With(zap.String("role", string(RoleServer)), zap.String("suite", pp.Suite.Name())),
		state:     ServerIdle,
	}, nil
}

// State reports the current redemption stage
func (s *Server) State() ServerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PublicKey returns Y
func (s *Server) PublicKey() Point {
	return s.key.Public
}

// Issue answers a query from the registered client. Queries whose REP3 proof
// does not verify against the registered key get ErrQueryRejected and no
// evaluation.
func (s *Server) Issue(q *Query) (*Response, error) {
	start := time.Now()
	resp, err := s.issue(q)
	if err != nil {
		reason := ReasonProofFailure
		if !IsErrorCategory(err, ErrorCategoryIssuance) {
			reason = ReasonValidationError
		}
		s.logger.Warn("query rejected", zap.String("code", errorCode(err)))
		s.opts.audit.OnIssuance(NewAuditEventBuilder(AuditEventQueryRejected, reason).
			WithSuite(s.pp.Suite.Name()).WithRole(RoleServer).WithError(err).BuildIssuance(time.Since(start), 1))
		return nil, err
	}
	s.logger.Debug("token issued")
	s.opts.audit.OnIssuance(NewAuditEventBuilder(AuditEventTokenIssued, ReasonProtocolStep).
		WithSuite(s.pp.Suite.Name()).WithRole(RoleServer).BuildIssuance(time.Since(start), 1))
	return resp, nil
}

func (s *Server) issue(q *Query) (*Response, error) {
	if !q.complete() || !VerifyREP3(s.pp, s.clientKey, q.T, q.Proof) {
		return nil, ErrQueryRejected
	}

	y := s.key.Secret
	for attempt := 0; attempt < maxTweakAttempts; attempt++ {
		tweak, err := s.pp.scalars().ScalarRandom(s.opts.rng)
		if err != nil {
			return nil, err
		}
		sum := y.Add(tweak)
		if sum.IsZero() {
			s.logger.Warn("degenerate issuance tweak, resampling", zap.Int("attempt", attempt))
			continue
		}
		inv, err := sum.Invert()
		if err != nil {
			return nil, ErrCryptographicOperation.WithCause(err)
		}
		S := q.T.Mul(inv)
		inv.Zeroize()
		sum.Zeroize()

		proof, err := ProveDLEQ(s.pp, s.opts.rng, s.key.Public, S, q.T, tweak, y)
		if err != nil {
			return nil, err
		}
		return &Response{Tweak: tweak, S: S, Proof: proof}, nil
	}
	return nil, ErrDegenerateSecret.WithContext("attempts", maxTweakAttempts)
}

// VerifyRedemption1 checks the opening of a redemption and returns the
// challenge the client must answer. A malformed proof and a token whose
// serial is already spent are both rejected with ErrRedemptionRejected.
func (s *Server) VerifyRedemption1(ctx context.Context, p *RedemptionProof1) (Scalar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != ServerIdle {
		return nil, s.invalidState("verify_redemption1")
	}
	start := time.Now()

	reject := func(reason AuditEventReason, cause error) (Scalar, error) {
		s.logger.Warn("redemption rejected", zap.Int("round", 1), zap.String("code", ErrRedemptionRejected.Code))
		s.opts.audit.OnRedemption(NewAuditEventBuilder(AuditEventRedemptionRejected, reason).
			WithSuite(s.pp.Suite.Name()).WithRole(RoleServer).WithError(cause).BuildRedemption(1, time.Since(start)))
		return nil, ErrRedemptionRejected
	}

	if !p.complete() || !pointsIn(s.pp.Suite.Issuance(), p.SigmaPrime) ||
		!scalarsIn(s.pp.scalars(), p.Serial, p.Commitment) {
		return reject(ReasonMalformed, ErrMalformedMessage)
	}
	if p.SigmaPrime.IsIdentity() || p.Serial.IsZero() {
		return reject(ReasonMalformed, ErrMalformedMessage)
	}

	key, err := doubleSpendKey(s.pp, p.Serial)
	if err != nil {
		return nil, err
	}
	spent, err := s.opts.spent.Contains(ctx, key)
	if err != nil {
		s.logger.Error("spent set lookup failed", zap.Error(err))
		return nil, ErrSpentSetFailure.WithCause(err)
	}
	if spent {
		return reject(ReasonDoubleSpend, ErrRedemptionRejected)
	}

	nonce, err := s.pp.scalars().ScalarRandom(s.opts.rng)
	if err != nil {
		return nil, err
	}
	challenge, err := redemptionChallenge(s.pp, s.key.Public, p, nonce)
	if err != nil {
		return nil, err
	}

	s.pending = &pendingRedemption{proof1: p, challenge: challenge, key: key, started: start}
	s.state = ServerChallengeIssued

	s.logger.Debug("redemption challenged")
	s.opts.audit.OnRedemption(NewAuditEventBuilder(AuditEventRedemptionChallenged, ReasonProtocolStep).
		WithSuite(s.pp.Suite.Name()).WithRole(RoleServer).BuildRedemption(1, time.Since(start)))
	return challenge, nil
}

// VerifyRedemption2 checks the client's response to the pending challenge
// and, if it verifies, marks the token spent. It reports true exactly once
// per token. The pending redemption is cleared whatever the outcome.
func (s *Server) VerifyRedemption2(ctx context.Context, p *RedemptionProof2) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != ServerChallengeIssued {
		return false, s.invalidState("verify_redemption2")
	}
	start := time.Now()

	pending := s.pending
	s.pending = nil
	s.state = ServerIdle

	reject := func(reason AuditEventReason, cause error) (bool, error) {
		s.logger.Warn("redemption rejected", zap.Int("round", 2), zap.String("code", ErrRedemptionRejected.Code))
		s.opts.audit.OnRedemption(NewAuditEventBuilder(AuditEventRedemptionRejected, reason).
			WithSuite(s.pp.Suite.Name()).WithRole(RoleServer).WithError(cause).BuildRedemption(2, time.Since(start)))
		return false, ErrRedemptionRejected
	}

	if !p.complete() || !scalarsIn(s.pp.scalars(), p.V0, p.V1, p.V2, p.Rho) {
		return reject(ReasonMalformed, ErrMalformedMessage)
	}

	p1 := pending.proof1
	c := pending.challenge
	B, err := s.pp.serialPoint(p1.Serial)
	if err != nil {
		return false, ErrCryptographicOperation.WithCause(err)
	}
	W := p1.SigmaPrime.Mul(s.key.Secret)
	A, err := MultiScalarMult(s.pp.Suite.Issuance(),
		[]Point{s.pp.G1, B, p1.SigmaPrime, W},
		[]Scalar{p.V0, p.V1, p.V2, c.Negate()})
	if err != nil {
		return false, ErrCryptographicOperation.WithCause(err)
	}

	expected, err := redemptionCommitment(s.pp, s.key.Public, p1.Serial, p1.SigmaPrime, A, p.Rho)
	if err != nil {
		return false, err
	}
	if !SecureCompare(expected.Bytes(), p1.Commitment.Bytes()) {
		return reject(ReasonProofFailure, ErrRedemptionRejected)
	}

	fresh, err := s.opts.spent.CheckAndMark(ctx, pending.key)
	if err != nil {
		s.logger.Error("spent set update failed", zap.Error(err))
		return false, ErrSpentSetFailure.WithCause(err)
	}
	if !fresh {
		return reject(ReasonDoubleSpend, ErrRedemptionRejected)
	}

	s.logger.Debug("redemption accepted")
	s.opts.audit.OnRedemption(NewAuditEventBuilder(AuditEventRedemptionAccepted, ReasonProtocolStep).
		WithSuite(s.pp.Suite.Name()).WithRole(RoleServer).BuildRedemption(2, time.Since(pending.started)))
	return true, nil
}

// AbortRedemption drops a pending redemption, e.g. when the client went away
func (s *Server) AbortRedemption() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.state = ServerIdle
}

func (s *Server) invalidState(step string) error {
	err := ErrInvalidState.WithContext("step", step).WithContext("state", s.state.String())
	s.logger.Error("protocol step out of order", zap.String("step", step), zap.Stringer("state", s.state))
	s.opts.audit.OnError(NewAuditEventBuilder(AuditEventSequencingFailure, ReasonSequencing).
		WithSuite(s.pp.Suite.Name()).WithRole(RoleServer).WithError(err).Build())
	return err
}

// errorCode returns the TokenError code of err, or "unknown"
func errorCode(err error) string {
	var te *TokenError
	if errors.As(err, &te) {
		return te.Code
	}
	return "unknown"
}
