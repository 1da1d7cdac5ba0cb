package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"keyfount/internal/derive"
	"keyfount/internal/seed"
)

func seedCmd() *cobra.Command {
	var salt string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a random seed or derive one from a passphrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				s   *derive.Seed
				err error
			)
			switch {
			case passphrase != "" && salt != "":
				var rawSalt []byte
				rawSalt, err = hex.DecodeString(salt)
				if err != nil {
					return fmt.Errorf("invalid salt hex: %w", err)
				}
				s, err = seed.Hardened(passphrase, rawSalt)
			case passphrase != "":
				s = seed.FromPassphrase(passphrase)
			default:
				s, err = seed.Generate()
			}
			if err != nil {
				return err
			}
			defer s.Zero()

			fmt.Printf("Seed: %x\n", s[:])
			return nil
		},
	}

	cmd.Flags().StringVar(&salt, "salt", "",
		"hex salt; with -p, stretches the passphrase with argon2id")
	return cmd
}
