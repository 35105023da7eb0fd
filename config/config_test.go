package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopy-network/canopy/lib/ntat"
	"github.com/canopy-network/canopy/lib/ntat/config"
)

func TestEmpty(t *testing.T) {
	_, err := config.LoadBinary([]byte(""))
	assert.Error(t, err)

	_, err = config.LoadBinary([]byte(`
[Logging]
	Level = "debug"
	`))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg, err := config.LoadBinary([]byte(`
[Protocol]
	`))
	require.NoError(t, err)

	assert.Equal(t, string(ntat.Ristretto255), cfg.Protocol.Suite)
	assert.Equal(t, "sha256", cfg.Protocol.TranscriptHash)
	assert.NotEmpty(t, cfg.Protocol.ParamsSeed)
	require.NotNil(t, cfg.Server)
	assert.Equal(t, 0, cfg.Server.BatchLimit)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Disable)
}

func TestInvalidValues(t *testing.T) {
	cases := map[string]string{
		"suite": `[Protocol]
	Suite = "p256"`,
		"hash": `[Protocol]
	TranscriptHash = "md5"`,
		"batch": `[Protocol]
[Server]
	BatchLimit = -1`,
		"syntax": `[Protocol
	Suite = "ed25519"`,
	}
	for name, cfgStr := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadBinary([]byte(cfgStr))
			assert.Error(t, err)
		})
	}
}

func TestParams(t *testing.T) {
	cfgStr := `[Protocol]
	Suite = "ED25519"
	TranscriptHash = "blake3"
	ParamsSeed = "test deployment"
[Logging]
	Disable = true
	`
	cfg, err := config.LoadBinary([]byte(cfgStr))
	require.NoError(t, err)
	assert.Equal(t, "ed25519", cfg.Protocol.Suite)

	pp, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, "ed25519", pp.Suite.Name())
	assert.Equal(t, ntat.HashBLAKE3, pp.Hash)

	again, err := cfg.Params()
	require.NoError(t, err)
	assert.True(t, pp.Equal(again), "same seed must give the same generators")

	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ntat.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[Protocol]
	Suite = "secp256k1"
[Server]
	BatchLimit = 4
[Logging]
	Level = "warn"
`), 0o600))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "secp256k1", cfg.Protocol.Suite)
	assert.Equal(t, 4, cfg.Server.BatchLimit)
	assert.Equal(t, "warn", cfg.Logging.Level)

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
