package ntat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tchajed/marshal"
)

func TestWireRoundTrip(t *testing.T) {
	for _, st := range SupportedSuites() {
		st := st
		t.Run(string(st), func(t *testing.T) {
			env := newTestEnv(t, st, "wire")
			ctx := context.Background()
			pp := env.pp.WithHash(HashSHAKE256)

			decodedPP, err := DecodePublicParams(EncodePublicParams(pp))
			require.NoError(t, err)
			assert.True(t, pp.Equal(decodedPP))

			// every message crosses the codec before the peer sees it
			q, err := env.client.Query()
			require.NoError(t, err)
			q, err = DecodeQuery(env.pp, EncodeQuery(env.pp, q))
			require.NoError(t, err)

			resp, err := env.server.Issue(q)
			require.NoError(t, err)
			resp, err = DecodeResponse(env.pp, EncodeResponse(env.pp, resp))
			require.NoError(t, err)

			token, err := env.client.Final(resp)
			require.NoError(t, err)
			stored, err := DecodeToken(env.pp, EncodeToken(env.pp, token))
			require.NoError(t, err)
			assert.True(t, stored.Sigma.Equal(token.Sigma))
			assert.True(t, stored.Serial.Equal(token.Serial))
			assert.True(t, stored.Tweak.Equal(token.Tweak))

			p1, err := env.client.ProveRedemption1(stored)
			require.NoError(t, err)
			p1, err = DecodeRedemption1(env.pp, EncodeRedemption1(env.pp, p1))
			require.NoError(t, err)
			c, err := env.server.VerifyRedemption1(ctx, p1)
			require.NoError(t, err)
			c, err = DecodeScalar(env.pp, EncodeScalar(c))
			require.NoError(t, err)
			p2, err := env.client.ProveRedemption2(c)
			require.NoError(t, err)
			p2, err = DecodeRedemption2(env.pp, EncodeRedemption2(env.pp, p2))
			require.NoError(t, err)

			ok, err := env.server.VerifyRedemption2(ctx, p2)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestWireRejectsMalformed(t *testing.T) {
	env := newTestEnv(t, Ristretto255, "wire malformed")
	q, err := env.client.Query()
	require.NoError(t, err)
	good := EncodeQuery(env.pp, q)

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{0, 4, 8, 20, len(good) - 1} {
			_, err := DecodeQuery(env.pp, good[:n])
			assert.ErrorIs(t, err, ErrMalformedMessage, "length %d", n)
		}
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := DecodeQuery(env.pp, append(append([]byte{}, good...), 0))
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := DecodeResponse(env.pp, good)
		assert.ErrorIs(t, err, ErrMalformedMessage)
		assert.Equal(t, "response", GetErrorContext(err)["message"])
	})

	t.Run("wrong suite", func(t *testing.T) {
		other := newTestEnv(t, Ed25519, "wire malformed")
		_, err := DecodeQuery(other.pp, good)
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})

	t.Run("wrong version", func(t *testing.T) {
		bad := marshal.WriteInt(nil, WireVersion+1)
		bad = append(bad, good[8:]...)
		_, err := DecodeQuery(env.pp, bad)
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})

	t.Run("oversized length", func(t *testing.T) {
		bad := writeHeader(nil, env.pp.Suite.Name(), kindQuery)
		bad = marshal.WriteInt(bad, 1<<40)
		_, err := DecodeQuery(env.pp, bad)
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})

	t.Run("non-canonical scalar", func(t *testing.T) {
		bad := writeHeader(nil, env.pp.Suite.Name(), kindRedemption2)
		for i := 0; i < 4; i++ {
			ff := make([]byte, 32)
			for j := range ff {
				ff[j] = 0xff
			}
			bad = writeSlice(bad, ff)
		}
		_, err := DecodeRedemption2(env.pp, bad)
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})

	t.Run("bad params", func(t *testing.T) {
		_, err := DecodePublicParams(good)
		assert.Error(t, err)

		pp := *env.pp
		pp.G4 = pp.G3
		_, err = DecodePublicParams(EncodePublicParams(&pp))
		assert.ErrorIs(t, err, ErrInvalidParams)
	})
}
