package adapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/canopy-network/canopy/lib/ntat"
	"github.com/canopy-network/canopy/lib/ntat/adapters"
)

func TestZapAuditHandlerFullFlow(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := adapters.NewZapAuditHandler(zap.New(core))

	suite, err := ntat.NewSuite(ntat.Ristretto255)
	require.NoError(t, err)
	rng := ntat.NewDeterministicReader([]byte("adapter test"), "flow")
	pp, err := ntat.Setup(suite, rng)
	require.NoError(t, err)
	ck, err := ntat.GenerateClientKey(pp, rng)
	require.NoError(t, err)
	sk, err := ntat.GenerateServerKey(pp, rng)
	require.NoError(t, err)

	client, err := ntat.NewClient(pp, ck, sk.Public, ntat.WithRand(rng), ntat.WithAuditHandler(handler))
	require.NoError(t, err)
	server, err := ntat.NewServer(pp, sk, ck.Public, ntat.WithRand(rng), ntat.WithAuditHandler(handler))
	require.NoError(t, err)

	q, err := client.Query()
	require.NoError(t, err)
	resp, err := server.Issue(q)
	require.NoError(t, err)
	token, err := client.Final(resp)
	require.NoError(t, err)

	ctx := context.Background()
	p1, err := client.ProveRedemption1(token)
	require.NoError(t, err)
	c, err := server.VerifyRedemption1(ctx, p1)
	require.NoError(t, err)
	p2, err := client.ProveRedemption2(c)
	require.NoError(t, err)
	ok, err := server.VerifyRedemption2(ctx, p2)
	require.NoError(t, err)
	require.True(t, ok)

	// a second redemption of the same token is refused at round one
	p1, err = client.ProveRedemption1(token)
	require.NoError(t, err)
	_, err = server.VerifyRedemption1(ctx, p1)
	require.ErrorIs(t, err, ntat.ErrRedemptionRejected)

	assert.Equal(t, 1, handler.Count(ntat.AuditEventQuerySent))
	assert.Equal(t, 1, handler.Count(ntat.AuditEventTokenIssued))
	assert.Equal(t, 1, handler.Count(ntat.AuditEventTokenFinalized))
	assert.Equal(t, 1, handler.Count(ntat.AuditEventRedemptionAccepted))
	assert.Equal(t, 1, handler.Count(ntat.AuditEventRedemptionRejected))

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, string(ntat.AuditEventRedemptionRejected), warnings[0].ContextMap()["type"])
	assert.Equal(t, string(ntat.ReasonDoubleSpend), warnings[0].ContextMap()["reason"])
}

func TestZapAuditHandlerValidationFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := adapters.NewZapAuditHandler(zap.New(core))

	result := ntat.NewDefaultConfigurationValidator().ValidateCompleteConfiguration("p256", "md5", nil)
	require.False(t, result.Valid)
	result.Report(handler, "p256", "configuration")

	assert.Equal(t, 1, handler.Count(ntat.AuditEventValidationFailure))
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "configuration", entries[0].ContextMap()["validation_type"])
	assert.Equal(t, "audit", entries[0].LoggerName)
}

func TestNilLogger(t *testing.T) {
	handler := adapters.NewZapAuditHandler(nil)
	handler.OnError(ntat.NewAuditEventBuilder(ntat.AuditEventSequencingFailure, ntat.ReasonSequencing).Build())
	assert.Equal(t, 1, handler.Count(ntat.AuditEventSequencingFailure))
}
