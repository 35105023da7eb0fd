package main

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopy-network/canopy/lib/ntat"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile, suiteFlag, hashFlag, seedFlag, logLevel = "", "", "", "", ""
	cmd := rootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSuites(t *testing.T) {
	out, err := run(t, "suites")
	require.NoError(t, err)
	for _, s := range ntat.SupportedSuites() {
		assert.Contains(t, out, string(s))
	}
	assert.Contains(t, out, "pairing=true")
}

func TestParamsRoundTrip(t *testing.T) {
	out, err := run(t, "params", "--suite", "secp256k1", "--hash", "shake256", "--seed", "cli")
	require.NoError(t, err)

	raw, err := hex.DecodeString(string(bytes.TrimSpace([]byte(out))))
	require.NoError(t, err)
	pp, err := ntat.DecodePublicParams(raw)
	require.NoError(t, err)
	assert.Equal(t, "secp256k1", pp.Suite.Name())
	assert.Equal(t, ntat.HashSHAKE256, pp.Hash)
}

func TestDemo(t *testing.T) {
	out, err := run(t, "demo", "--suite", "ed25519", "--tokens", "2", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "issued=2 redeemed=2 replays_refused=2")
}

func TestBadFlags(t *testing.T) {
	_, err := run(t, "params", "--suite", "p256")
	assert.Error(t, err)
	_, err = run(t, "params", "--config", "/nonexistent/ntat.toml")
	assert.Error(t, err)
}
