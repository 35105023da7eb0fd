// Package config defines the toml configuration of an ntat deployment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/canopy-network/canopy/lib/ntat"
)

const (
	defaultSuite          = string(ntat.Ristretto255)
	defaultTranscriptHash = "sha256"
	defaultParamsSeed     = "ntat/v1 public parameters"
	defaultLogLevel       = "info"
)

// nolint: gochecknoglobals
var defaultLogging = Logging{
	Disable: false,
	File:    "",
	Level:   defaultLogLevel,
}

// Protocol selects the cryptographic instantiation.
type Protocol struct {
	// Suite is one of secp256k1, ed25519, ristretto255, bls12-381.
	Suite string

	// TranscriptHash is one of sha256, blake2b, shake256, blake3.
	TranscriptHash string

	// ParamsSeed is hashed to the public generators. Every party of a
	// deployment must use the same seed.
	ParamsSeed string

	// KeyDerivationContext separates issuer keys derived from the same
	// validator BLS key.
	KeyDerivationContext string
}

// Server is the issuer configuration.
type Server struct {
	// BatchLimit bounds concurrent evaluations in IssueBatch. 0 = GOMAXPROCS.
	BatchLimit int
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stderr will be used.
	File string

	// Level specifies the log level.
	Level string
}

// Config is the top level configuration.
type Config struct {
	Protocol *Protocol
	Server   *Server
	Logging  *Logging
}

func (cfg *Config) validateAndApplyDefaults() error {
	if cfg.Protocol == nil {
		return errors.New("config: No Protocol block was present")
	}
	if cfg.Protocol.Suite == "" {
		cfg.Protocol.Suite = defaultSuite
	}
	cfg.Protocol.Suite = strings.ToLower(strings.TrimSpace(cfg.Protocol.Suite))
	if cfg.Protocol.TranscriptHash == "" {
		cfg.Protocol.TranscriptHash = defaultTranscriptHash
	}
	cfg.Protocol.TranscriptHash = strings.ToLower(strings.TrimSpace(cfg.Protocol.TranscriptHash))
	if cfg.Protocol.ParamsSeed == "" {
		cfg.Protocol.ParamsSeed = defaultParamsSeed
	}

	validator := ntat.NewDefaultConfigurationValidator()
	if res := validator.ValidateSuite(cfg.Protocol.Suite); !res.Valid {
		return errors.Errorf("config: %s", strings.Join(res.Errors, "; "))
	}
	if res := validator.ValidateHash(cfg.Protocol.TranscriptHash); !res.Valid {
		return errors.Errorf("config: %s", strings.Join(res.Errors, "; "))
	}

	if cfg.Server == nil {
		cfg.Server = &Server{}
	}
	if cfg.Server.BatchLimit < 0 {
		return errors.New("config: BatchLimit cannot be negative")
	}

	if cfg.Logging == nil {
		logging := defaultLogging
		cfg.Logging = &logging
	}
	return nil
}

// Params builds the public parameters the configuration describes.
func (cfg *Config) Params() (*ntat.PublicParams, error) {
	suite, err := ntat.NewSuite(ntat.SuiteType(cfg.Protocol.Suite))
	if err != nil {
		return nil, err
	}
	hash, err := ntat.ParseHashAlgorithm(cfg.Protocol.TranscriptHash)
	if err != nil {
		return nil, err
	}
	pp, err := ntat.SetupFromSeed(suite, []byte(cfg.Protocol.ParamsSeed))
	if err != nil {
		return nil, errors.Wrapf(err, "config: deriving %s parameters", cfg.Protocol.Suite)
	}
	return pp.WithHash(hash), nil
}

// Logger builds the logger the Logging block describes.
func (cfg *Config) Logger() (*zap.Logger, error) {
	return ntat.NewLogger(cfg.Logging.Level, cfg.Logging.File, cfg.Logging.Disable)
}

// LoadBinary loads, parses and validates the provided buffer b (as a config)
// and returns the Config.
func LoadBinary(b []byte) (*Config, error) {
	cfg := new(Config)
	if _, err := toml.Decode(string(b), cfg); err != nil {
		return nil, errors.Wrap(err, "config: decoding toml")
	}
	if err := cfg.validateAndApplyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses and validates the provided file and returns the Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(filepath.Clean(f))
	if err != nil {
		return nil, err
	}
	return LoadBinary(b)
}
