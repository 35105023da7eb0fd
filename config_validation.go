package ntat

import (
	"fmt"

	"github.com/canopy-network/canopy/lib/crypto"
)

// ConfigurationValidator checks a suite, transcript hash and parameter set
// before they are used to build clients and servers.
type ConfigurationValidator struct {
	supportedSuites map[string]bool
	supportedHashes map[string]bool
}

// NewDefaultConfigurationValidator accepts every compiled-in suite and hash
func NewDefaultConfigurationValidator() *ConfigurationValidator {
	cv := &ConfigurationValidator{
		supportedSuites: map[string]bool{},
		supportedHashes: map[string]bool{},
	}
	for _, s := range SupportedSuites() {
		cv.supportedSuites[string(s)] = true
	}
	for _, h := range []HashAlgorithm{HashSHA256, HashBLAKE2b, HashSHAKE256, HashBLAKE3} {
		cv.supportedHashes[h.String()] = true
	}
	return cv
}

// ValidateSuite validates that a suite name is supported
func (cv *ConfigurationValidator) ValidateSuite(name string) *ValidationResult {
	result := newValidationResult(SecurityLevelMedium)
	if name == "" {
		result.fail("suite name cannot be empty")
		return result
	}
	if !cv.supportedSuites[name] {
		result.fail("unsupported suite: %s", name)
		result.Recommendations = append(result.Recommendations, fmt.Sprintf("use one of %v", SupportedSuites()))
		return result
	}

	result.SecurityLevel = SecurityLevelHigh
	if SuiteType(name) == BLS12381 {
		result.Recommendations = append(result.Recommendations, "bls12-381 lets clients check tokens with a pairing on Final")
	}
	return result
}

// ValidateHash validates a transcript hash name
func (cv *ConfigurationValidator) ValidateHash(name string) *ValidationResult {
	result := newValidationResult(SecurityLevelHigh)
	if !cv.supportedHashes[name] {
		result.fail("unsupported transcript hash: %q", name)
		result.SecurityLevel = SecurityLevelLow
	}
	return result
}

// ValidateParams validates a full parameter set
func (cv *ConfigurationValidator) ValidateParams(pp *PublicParams) *ValidationResult {
	result := newValidationResult(SecurityLevelHigh)
	if pp == nil || pp.Suite == nil {
		result.fail("public parameters cannot be nil")
		result.SecurityLevel = SecurityLevelLow
		return result
	}
	result.merge(cv.ValidateSuite(pp.Suite.Name()))
	result.merge(cv.ValidateHash(pp.Hash.String()))
	if err := pp.Validate(); err != nil {
		result.fail("%v", err)
		result.SecurityLevel = SecurityLevelLow
	}
	return result
}

// ValidateBLSAnchor checks a validator key before an issuer key is derived from it
func (cv *ConfigurationValidator) ValidateBLSAnchor(key *crypto.BLS12381PrivateKey) *ValidationResult {
	result := newValidationResult(SecurityLevelHigh)
	if key == nil {
		result.fail("BLS key cannot be nil")
		return result
	}
	if isZeroBLSKey(key) {
		result.fail("BLS key is zero")
		result.SecurityLevel = SecurityLevelLow
	}
	return result
}

// ValidateCompleteConfiguration validates suite, hash and params together,
// and checks that pp was built for the named suite and hash.
func (cv *ConfigurationValidator) ValidateCompleteConfiguration(suite, hash string, pp *PublicParams) *ValidationResult {
	result := newValidationResult(SecurityLevelHigh)
	result.merge(cv.ValidateSuite(suite))
	result.merge(cv.ValidateHash(hash))
	if pp == nil {
		return result
	}
	result.merge(cv.ValidateParams(pp))
	if pp.Suite != nil && pp.Suite.Name() != suite {
		result.fail("params built for suite %s, configured %s", pp.Suite.Name(), suite)
	}
	if pp.Hash.String() != hash {
		result.fail("params use transcript hash %s, configured %s", pp.Hash, hash)
	}
	if result.Valid && result.SecurityLevel == SecurityLevelHigh {
		result.Recommendations = append(result.Recommendations, "configuration meets high security standards")
	}
	return result
}

func isZeroBLSKey(key *crypto.BLS12381PrivateKey) bool {
	for _, b := range key.Bytes() {
		if b != 0 {
			return false
		}
	}
	return true
}

// ConfigurationCompatibilityChecker checks whether tokens issued under one
// parameter set can still be redeemed under another.
type ConfigurationCompatibilityChecker struct{}

// NewConfigurationCompatibilityChecker creates a new compatibility checker
func NewConfigurationCompatibilityChecker() *ConfigurationCompatibilityChecker {
	return &ConfigurationCompatibilityChecker{}
}

// CheckCompatibility reports errors for any change that invalidates
// outstanding tokens and warnings for changes that only affect new proofs.
func (ccc *ConfigurationCompatibilityChecker) CheckCompatibility(oldParams, newParams *PublicParams) *ValidationResult {
	result := newValidationResult(SecurityLevelMedium)
	if oldParams == nil || newParams == nil {
		result.fail("parameters cannot be nil")
		return result
	}
	if oldParams.Suite.Name() != newParams.Suite.Name() {
		result.fail("suite mismatch: %s -> %s", oldParams.Suite.Name(), newParams.Suite.Name())
		return result
	}
	if !oldParams.G1.Equal(newParams.G1) || !oldParams.G3.Equal(newParams.G3) ||
		!oldParams.G4.Equal(newParams.G4) || !oldParams.G2.Equal(newParams.G2) {
		result.fail("generators changed: outstanding tokens cannot be redeemed")
	}
	if oldParams.Hash != newParams.Hash {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("transcript hash changed %s -> %s: in-flight sessions will fail", oldParams.Hash, newParams.Hash))
	}
	return result
}
