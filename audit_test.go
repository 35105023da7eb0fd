package ntat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditEventBuilder(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		event := NewAuditEventBuilder(AuditEventTokenIssued, ReasonProtocolStep).Build()
		assert.NotEmpty(t, event.EventID)
		assert.WithinDuration(t, time.Now(), event.Timestamp, time.Minute)
		assert.True(t, event.Success)
		assert.Empty(t, event.Error)
		assert.NotNil(t, event.Metadata)
	})

	t.Run("Failure", func(t *testing.T) {
		event := NewAuditEventBuilder(AuditEventRedemptionRejected, ReasonDoubleSpend).
			WithSuite("ristretto255").
			WithRole(RoleServer).
			WithError(ErrRedemptionRejected).
			WithMetadata("round", 2).
			BuildRedemption(2, time.Millisecond)
		assert.False(t, event.Success)
		assert.Equal(t, ErrRedemptionRejected.Error(), event.Error)
		assert.Equal(t, RoleServer, event.Role)
		assert.Equal(t, 2, event.Round)
		assert.Equal(t, 2, event.Metadata["round"])
	})

	t.Run("NilErrorStillFails", func(t *testing.T) {
		event := NewAuditEventBuilder(AuditEventSequencingFailure, ReasonSequencing).WithError(nil).Build()
		assert.False(t, event.Success)
		assert.Empty(t, event.Error)
	})

	t.Run("UniqueIDs", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			id := NewAuditEventBuilder(AuditEventQuerySent, ReasonProtocolStep).Build().EventID
			assert.False(t, seen[id], "duplicate event id %s", id)
			seen[id] = true
		}
	})

	t.Run("JSON", func(t *testing.T) {
		event := NewAuditEventBuilder(AuditEventTokenIssued, ReasonProtocolStep).
			WithSuite("ed25519").BuildIssuance(time.Second, 8)
		data, err := json.Marshal(event)
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "token_issued", decoded["event_type"])
		assert.Equal(t, "ed25519", decoded["suite"])
		assert.EqualValues(t, 8, decoded["batch_size"])
	})
}

// Events describe steps, never the values exchanged in them.
func TestAuditEventsCarryNoSecrets(t *testing.T) {
	env := newTestEnv(t, Ristretto255, "audit")
	token := env.issue(t)
	ok, err := redeem(t, context.Background(), env.client, env.server, token)
	require.NoError(t, err)
	require.True(t, ok)

	secrets := []string{
		token.Serial.String(),
		token.Tweak.String(),
		token.Sigma.String(),
		env.clientKey.Secret.String(),
		env.serverKey.Secret.String(),
	}
	check := func(e interface{}) {
		data, err := json.Marshal(e)
		require.NoError(t, err)
		for _, s := range secrets {
			assert.NotContains(t, string(data), s)
		}
	}

	env.audit.mu.Lock()
	defer env.audit.mu.Unlock()
	require.NotEmpty(t, env.audit.issuance)
	require.NotEmpty(t, env.audit.redemption)
	for _, e := range env.audit.issuance {
		check(e)
	}
	for _, e := range env.audit.redemption {
		check(e)
		assert.Contains(t, []int{1, 2}, e.Round)
	}
}

func TestNullAuditHandler(t *testing.T) {
	var h AuditEventHandler = &NullAuditHandler{}
	assert.NotPanics(t, func() {
		h.OnIssuance(NewAuditEventBuilder(AuditEventQuerySent, ReasonProtocolStep).BuildIssuance(0, 1))
		h.OnRedemption(NewAuditEventBuilder(AuditEventRedemptionAccepted, ReasonProtocolStep).BuildRedemption(2, 0))
		h.OnValidationFailure(NewAuditEventBuilder(AuditEventValidationFailure, ReasonValidationError).BuildValidationFailure("params", "x", nil))
		h.OnConfigurationChange(NewAuditEventBuilder(AuditEventConfigurationChange, ReasonInitialization).Build())
		h.OnError(NewAuditEventBuilder(AuditEventSequencingFailure, ReasonSequencing).Build())
	})
}
