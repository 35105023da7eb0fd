package ntat

import (
	"testing"

	"github.com/canopy-network/canopy/lib/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	for _, st := range SupportedSuites() {
		st := st
		t.Run(string(st), func(t *testing.T) {
			suite := newSuite(t, st)
			pp, err := Setup(suite, NewDeterministicReader([]byte("setup"), string(st)))
			require.NoError(t, err)
			require.NoError(t, pp.Validate())
			assert.Equal(t, HashSHA256, pp.Hash)

			again, err := Setup(suite, NewDeterministicReader([]byte("setup"), string(st)))
			require.NoError(t, err)
			assert.True(t, pp.Equal(again))

			fresh, err := Setup(suite, nil)
			require.NoError(t, err)
			assert.False(t, pp.Equal(fresh))
		})
	}

	_, err := Setup(nil, nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSetupFromSeed(t *testing.T) {
	for _, st := range SupportedSuites() {
		st := st
		t.Run(string(st), func(t *testing.T) {
			suite := newSuite(t, st)
			pp, err := SetupFromSeed(suite, []byte("seed-a"))
			require.NoError(t, err)
			again, err := SetupFromSeed(suite, []byte("seed-a"))
			require.NoError(t, err)
			other, err := SetupFromSeed(suite, []byte("seed-b"))
			require.NoError(t, err)

			assert.True(t, pp.Equal(again))
			assert.False(t, pp.Equal(other))
			assert.False(t, pp.G1.Equal(pp.Suite.Issuance().BasePoint()))
		})
	}
}

func TestParamsValidate(t *testing.T) {
	env := newTestEnv(t, Secp256k1, "validate")
	identity := env.pp.Suite.Issuance().PointIdentity()

	cases := map[string]func(pp *PublicParams){
		"missing g2":   func(pp *PublicParams) { pp.G2 = nil },
		"identity g1":  func(pp *PublicParams) { pp.G1 = identity },
		"g1 equals g4": func(pp *PublicParams) { pp.G4 = pp.G1 },
		"unknown hash": func(pp *PublicParams) { pp.Hash = HashAlgorithm(42) },
		"no suite":     func(pp *PublicParams) { pp.Suite = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			pp := *env.pp
			mutate(&pp)
			assert.Error(t, pp.Validate())
			_, err := NewClient(&pp, env.clientKey, env.serverKey.Public)
			assert.Error(t, err)
		})
	}
	assert.ErrorIs(t, (*PublicParams)(nil).Validate(), ErrInvalidParams)
}

func TestKeys(t *testing.T) {
	for _, st := range SupportedSuites() {
		st := st
		t.Run(string(st), func(t *testing.T) {
			env := newTestEnv(t, st, "keys")
			require.NoError(t, env.clientKey.Validate(env.pp))
			require.NoError(t, env.serverKey.Validate(env.pp))

			mismatched := &ClientKeyPair{Secret: env.clientKey.Secret, Public: env.pp.G3}
			assert.ErrorIs(t, mismatched.Validate(env.pp), ErrInvalidKey)
			assert.ErrorIs(t, (&ServerKeyPair{}).Validate(env.pp), ErrInvalidKey)

			_, err := NewClient(env.pp, env.clientKey, env.pp.Suite.Key().PointIdentity())
			assert.ErrorIs(t, err, ErrInvalidKey)
			_, err = NewServer(env.pp, env.serverKey, env.pp.Suite.Issuance().PointIdentity())
			assert.ErrorIs(t, err, ErrInvalidKey)

			env.clientKey.Zeroize()
			assert.True(t, env.clientKey.Secret.IsZero())
		})
	}
}

func newBLSKey(t *testing.T) *crypto.BLS12381PrivateKey {
	t.Helper()
	blsKeyInterface, err := crypto.NewBLS12381PrivateKey()
	require.NoError(t, err)
	blsKey, ok := blsKeyInterface.(*crypto.BLS12381PrivateKey)
	require.True(t, ok, "unexpected BLS key type")
	return blsKey
}

func TestDeriveServerKeyFromBLS(t *testing.T) {
	blsKey := newBLSKey(t)
	for _, st := range SupportedSuites() {
		st := st
		t.Run(string(st), func(t *testing.T) {
			pp, err := SetupFromSeed(newSuite(t, st), []byte("derive"))
			require.NoError(t, err)

			k1, err := DeriveServerKeyFromBLS(pp, blsKey, HashSHA256, []byte("ctx"))
			require.NoError(t, err)
			k2, err := DeriveServerKeyFromBLS(pp, blsKey, HashSHA256, []byte("ctx"))
			require.NoError(t, err)
			require.NoError(t, k1.Validate(pp))
			assert.True(t, k1.Public.Equal(k2.Public))
			assert.Equal(t, blsKey.PublicKey().Bytes(), k1.Anchor)

			for _, alg := range []HashAlgorithm{HashBLAKE2b, HashSHAKE256, HashBLAKE3} {
				k, err := DeriveServerKeyFromBLS(pp, blsKey, alg, []byte("ctx"))
				require.NoError(t, err)
				assert.False(t, k.Public.Equal(k1.Public), alg.String())
			}
			other, err := DeriveServerKeyFromBLS(pp, blsKey, HashSHA256, []byte("other ctx"))
			require.NoError(t, err)
			assert.False(t, other.Public.Equal(k1.Public))
			otherValidator, err := DeriveServerKeyFromBLS(pp, newBLSKey(t), HashSHA256, []byte("ctx"))
			require.NoError(t, err)
			assert.False(t, otherValidator.Public.Equal(k1.Public))

			// a derived key issues working tokens
			rng := NewDeterministicReader([]byte("derive"), string(st))
			ck, err := GenerateClientKey(pp, rng)
			require.NoError(t, err)
			client, err := NewClient(pp, ck, k1.Public, WithRand(rng))
			require.NoError(t, err)
			server, err := NewServer(pp, k1, ck.Public, WithRand(rng))
			require.NoError(t, err)
			q, err := client.Query()
			require.NoError(t, err)
			resp, err := server.Issue(q)
			require.NoError(t, err)
			_, err = client.Final(resp)
			require.NoError(t, err)
		})
	}

	pp, err := SetupFromSeed(newSuite(t, Ed25519), []byte("derive"))
	require.NoError(t, err)
	_, err = DeriveServerKeyFromBLS(pp, nil, HashSHA256, nil)
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = DeriveServerKeyFromBLS(pp, blsKey, HashAlgorithm(9), nil)
	assert.ErrorIs(t, err, ErrUnsupportedHash)
}
