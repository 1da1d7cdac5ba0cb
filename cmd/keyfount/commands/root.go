package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keyfount/internal/derive"
	"keyfount/internal/seed"
)

var (
	seedHex    string
	passphrase string
	verbose    bool

	logger *zap.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:   "keyfount",
		Short: "Deterministic secp256k1 account key derivation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if verbose {
				logger, err = zap.NewDevelopment()
			} else {
				logger = zap.NewNop()
			}
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&seedHex, "seed", "s", "",
		"seed as 32 hex digits")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "",
		"passphrase to derive the seed from")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	root.AddCommand(seedCmd(), rootKeyCmd(), childCmd(), verifyCmd())
	return root.Execute()
}

// resolveSeed builds the seed from --seed, falling back to --passphrase.
// The caller owns the returned seed and must erase it.
func resolveSeed() (*derive.Seed, error) {
	switch {
	case seedHex != "":
		return seed.Parse(seedHex)
	case passphrase != "":
		return seed.FromPassphrase(passphrase), nil
	default:
		return nil, fmt.Errorf("a seed (-s) or passphrase (-p) is required")
	}
}
