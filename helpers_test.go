package ntat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingAuditHandler keeps every event for inspection
type recordingAuditHandler struct {
	mu                 sync.Mutex
	issuance           []*IssuanceEvent
	redemption         []*RedemptionEvent
	validationFailures []*ValidationFailureEvent
	configChanges      []*AuditEvent
	errors             []*AuditEvent
}

func (h *recordingAuditHandler) OnIssuance(event *IssuanceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.issuance = append(h.issuance, event)
}

func (h *recordingAuditHandler) OnRedemption(event *RedemptionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.redemption = append(h.redemption, event)
}

func (h *recordingAuditHandler) OnValidationFailure(event *ValidationFailureEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.validationFailures = append(h.validationFailures, event)
}

func (h *recordingAuditHandler) OnConfigurationChange(event *AuditEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.configChanges = append(h.configChanges, event)
}

func (h *recordingAuditHandler) OnError(event *AuditEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, event)
}

func (h *recordingAuditHandler) countType(t AuditEventType) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.issuance {
		if e.EventType == t {
			n++
		}
	}
	for _, e := range h.redemption {
		if e.EventType == t {
			n++
		}
	}
	for _, e := range h.errors {
		if e.EventType == t {
			n++
		}
	}
	return n
}

// testEnv is one client registered with one issuer
type testEnv struct {
	pp        *PublicParams
	rng       *DeterministicReader
	clientKey *ClientKeyPair
	serverKey *ServerKeyPair
	client    *Client
	server    *Server
	audit     *recordingAuditHandler
}

func newSuite(t testing.TB, st SuiteType) Suite {
	t.Helper()
	suite, err := NewSuite(st)
	require.NoError(t, err)
	return suite
}

func newTestEnv(t testing.TB, st SuiteType, label string, opts ...Option) *testEnv {
	t.Helper()
	rng := NewDeterministicReader([]byte(label), string(st))
	pp, err := Setup(newSuite(t, st), rng)
	require.NoError(t, err)
	return newTestEnvWithParams(t, pp, rng, opts...)
}

func newTestEnvWithParams(t testing.TB, pp *PublicParams, rng *DeterministicReader, opts ...Option) *testEnv {
	t.Helper()
	ck, err := GenerateClientKey(pp, rng)
	require.NoError(t, err)
	sk, err := GenerateServerKey(pp, rng)
	require.NoError(t, err)

	audit := &recordingAuditHandler{}
	opts = append([]Option{WithRand(rng), WithAuditHandler(audit)}, opts...)
	client, err := NewClient(pp, ck, sk.Public, opts...)
	require.NoError(t, err)
	server, err := NewServer(pp, sk, ck.Public, opts...)
	require.NoError(t, err)

	return &testEnv{pp: pp, rng: rng, clientKey: ck, serverKey: sk, client: client, server: server, audit: audit}
}

// issue runs Query, Issue and Final
func (e *testEnv) issue(t testing.TB) *Token {
	t.Helper()
	q, err := e.client.Query()
	require.NoError(t, err)
	resp, err := e.server.Issue(q)
	require.NoError(t, err)
	token, err := e.client.Final(resp)
	require.NoError(t, err)
	return token
}
