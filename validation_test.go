package ntat

import (
	"testing"

	"github.com/canopy-network/canopy/lib/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationValidator(t *testing.T) {
	cv := NewDefaultConfigurationValidator()

	t.Run("Suites", func(t *testing.T) {
		for _, st := range SupportedSuites() {
			result := cv.ValidateSuite(string(st))
			assert.True(t, result.Valid, st)
			assert.Equal(t, SecurityLevelHigh, result.SecurityLevel)
			assert.NoError(t, result.Err())
		}
		assert.NotEmpty(t, cv.ValidateSuite(string(BLS12381)).Recommendations)

		empty := cv.ValidateSuite("")
		assert.False(t, empty.Valid)
		unknown := cv.ValidateSuite("p256")
		assert.False(t, unknown.Valid)
		assert.NotEmpty(t, unknown.Recommendations)
		assert.ErrorIs(t, unknown.Err(), ErrInvalidParams)
	})

	t.Run("Hashes", func(t *testing.T) {
		for _, h := range allHashes {
			assert.True(t, cv.ValidateHash(h.String()).Valid, h)
		}
		bad := cv.ValidateHash("sha1")
		assert.False(t, bad.Valid)
		assert.Equal(t, SecurityLevelLow, bad.SecurityLevel)
	})

	t.Run("Params", func(t *testing.T) {
		env := newTestEnv(t, Secp256k1, "validator")
		assert.True(t, cv.ValidateParams(env.pp).Valid)
		assert.False(t, cv.ValidateParams(nil).Valid)

		broken := *env.pp
		broken.G4 = broken.G3
		result := cv.ValidateParams(&broken)
		assert.False(t, result.Valid)
		assert.Equal(t, SecurityLevelLow, result.SecurityLevel)
	})

	t.Run("Complete", func(t *testing.T) {
		env := newTestEnv(t, Ristretto255, "validator")
		pp := env.pp.WithHash(HashSHAKE256)

		ok := cv.ValidateCompleteConfiguration("ristretto255", "shake256", pp)
		assert.True(t, ok.Valid)
		assert.Contains(t, ok.Recommendations, "configuration meets high security standards")

		wrongHash := cv.ValidateCompleteConfiguration("ristretto255", "sha256", pp)
		assert.False(t, wrongHash.Valid)
		wrongSuite := cv.ValidateCompleteConfiguration("ed25519", "shake256", pp)
		assert.False(t, wrongSuite.Valid)
		assert.Len(t, wrongSuite.Errors, 1)

		assert.True(t, cv.ValidateCompleteConfiguration("ed25519", "blake3", nil).Valid)
	})

	t.Run("BLSAnchor", func(t *testing.T) {
		assert.False(t, cv.ValidateBLSAnchor(nil).Valid)
		key, err := crypto.NewBLS12381PrivateKey()
		require.NoError(t, err)
		assert.True(t, cv.ValidateBLSAnchor(key.(*crypto.BLS12381PrivateKey)).Valid)
	})
}

func TestCompatibilityChecker(t *testing.T) {
	checker := NewConfigurationCompatibilityChecker()
	suite := newSuite(t, Ed25519)
	pp, err := SetupFromSeed(suite, []byte("compat"))
	require.NoError(t, err)

	same, err := SetupFromSeed(suite, []byte("compat"))
	require.NoError(t, err)
	result := checker.CheckCompatibility(pp, same)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Warnings)

	result = checker.CheckCompatibility(pp, pp.WithHash(HashBLAKE2b))
	assert.True(t, result.Valid)
	assert.Len(t, result.Warnings, 1)

	rotated, err := SetupFromSeed(suite, []byte("rotated"))
	require.NoError(t, err)
	assert.False(t, checker.CheckCompatibility(pp, rotated).Valid)

	other, err := SetupFromSeed(newSuite(t, Ristretto255), []byte("compat"))
	require.NoError(t, err)
	assert.False(t, checker.CheckCompatibility(pp, other).Valid)
	assert.False(t, checker.CheckCompatibility(nil, pp).Valid)
}

func TestValidationReport(t *testing.T) {
	audit := &recordingAuditHandler{}
	cv := NewDefaultConfigurationValidator()

	cv.ValidateSuite("ristretto255").Report(audit, "ristretto255", "configuration")
	assert.Empty(t, audit.validationFailures)

	result := cv.ValidateSuite("p256")
	result.merge(cv.ValidateHash("md5"))
	result.Report(audit, "p256", "configuration")
	require.Len(t, audit.validationFailures, 1)

	event := audit.validationFailures[0]
	assert.Equal(t, AuditEventValidationFailure, event.EventType)
	assert.Equal(t, "configuration", event.ValidationType)
	assert.False(t, event.Success)
	assert.Equal(t, string(SecurityLevelLow), event.InputValues["security_level"])
	assert.Len(t, result.Errors, 2)

	assert.NotPanics(t, func() { result.Report(nil, "p256", "configuration") })
}

func TestMinSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityLevelLow, minSecurityLevel(SecurityLevelHigh, SecurityLevelLow))
	assert.Equal(t, SecurityLevelMedium, minSecurityLevel(SecurityLevelMedium, SecurityLevelHigh))
	assert.Equal(t, SecurityLevelHigh, minSecurityLevel(SecurityLevelHigh, SecurityLevelHigh))
}
