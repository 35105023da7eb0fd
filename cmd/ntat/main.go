package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canopy-network/canopy/lib/ntat"
	"github.com/canopy-network/canopy/lib/ntat/adapters"
	"github.com/canopy-network/canopy/lib/ntat/config"
	"github.com/canopy-network/canopy/lib/ntat/examples"
)

var (
	configFile string
	suiteFlag  string
	hashFlag   string
	seedFlag   string
	logLevel   string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ntat",
		Short:         "Non-transferable anonymous tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "toml configuration file")
	flags.StringVar(&suiteFlag, "suite", "", "override the configured suite")
	flags.StringVar(&hashFlag, "hash", "", "override the configured transcript hash")
	flags.StringVar(&seedFlag, "seed", "", "override the configured parameter seed")
	flags.StringVar(&logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(suitesCmd(), paramsCmd(), demoCmd())
	return cmd
}

// loadConfig reads --config if given and applies flag overrides on top
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.LoadBinary([]byte("[Protocol]\n"))
	}
	if err != nil {
		return nil, err
	}

	overridden := false
	if suiteFlag != "" {
		cfg.Protocol.Suite, overridden = suiteFlag, true
	}
	if hashFlag != "" {
		cfg.Protocol.TranscriptHash, overridden = hashFlag, true
	}
	if seedFlag != "" {
		cfg.Protocol.ParamsSeed = seedFlag
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if overridden {
		validator := ntat.NewDefaultConfigurationValidator()
		res := validator.ValidateSuite(cfg.Protocol.Suite)
		if res.Valid {
			res = validator.ValidateHash(cfg.Protocol.TranscriptHash)
		}
		if err := res.Err(); err != nil {
			return nil, errors.Wrap(err, "flags")
		}
	}
	return cfg, nil
}

func suitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suites",
		Short: "List supported suites",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range ntat.SupportedSuites() {
				suite, err := ntat.NewSuite(s)
				if err != nil {
					return err
				}
				_, pairing := suite.(ntat.Pairing)
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s scalar=%dB point=%dB pairing=%t\n",
					s, suite.Issuance().ScalarSize(), suite.Issuance().PointSize(), pairing)
			}
			return nil
		},
	}
}

func paramsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the encoded public parameters for the configured seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pp, err := cfg.Params()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(ntat.EncodePublicParams(pp)))
			return nil
		},
	}
}

func demoCmd() *cobra.Command {
	var tokens int
	var blsAnchor bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Issue and redeem tokens end to end",
		Long:  `Issues a batch of tokens, redeems each once, and checks that replays are refused.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := cfg.Logger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			pp, err := cfg.Params()
			if err != nil {
				return err
			}
			report, err := examples.TokenDemo(context.Background(), pp, examples.DemoOptions{
				Tokens:     tokens,
				BLSAnchor:  blsAnchor,
				KeyContext: cfg.Protocol.KeyDerivationContext,
				BatchLimit: cfg.Server.BatchLimit,
				Logger:     logger,
				Audit:      adapters.NewZapAuditHandler(logger),
			})
			if err != nil {
				logger.Error("demo failed", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"suite=%s hash=%s issued=%d redeemed=%d replays_refused=%d wire_bytes=%d issue=%s redeem=%s\n",
				report.Suite, report.Hash, report.Issued, report.Redeemed, report.DoubleSpendsHit,
				report.WireBytes, report.IssueTime, report.RedeemTime)
			return nil
		},
	}
	cmd.Flags().IntVarP(&tokens, "tokens", "n", 4, "number of tokens to issue")
	cmd.Flags().BoolVar(&blsAnchor, "bls-anchor", false, "derive the issuer key from a fresh validator BLS key")
	return cmd
}
