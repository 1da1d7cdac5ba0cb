package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"keyfount/internal/derive"
	"keyfount/internal/util/memzero"
)

func childCmd() *cobra.Command {
	var (
		index       uint32
		generator   string
		showPrivate bool
	)

	cmd := &cobra.Command{
		Use:   "child",
		Short: "Derive a child key",
		Long: "Derive the child key at --index. With --generator only the " +
			"public child key is computed, without any private material. " +
			"With a seed the full child key pair is derived.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if generator != "" {
				pubGen, err := hex.DecodeString(generator)
				if err != nil {
					return fmt.Errorf("invalid generator hex: %w", err)
				}

				child, err := derive.PublicChild(pubGen, index)
				if err != nil {
					return err
				}

				fmt.Printf("Child public key %d: %x\n",
					index, child.SerializeCompressed())
				return nil
			}

			s, err := resolveSeed()
			if err != nil {
				return err
			}
			defer s.Zero()

			pair, err := derive.Root(s)
			if err != nil {
				return err
			}
			defer pair.Zero()

			child, err := derive.PrivateChild(
				pair.Pub.SerializeCompressed(), pair.Priv, index,
			)
			if err != nil {
				return err
			}
			defer child.Zero()

			fmt.Printf("Child public key %d: %x\n",
				index, child.Pub.SerializeCompressed())

			if showPrivate {
				priv := child.Priv.Serialize()
				fmt.Printf("Child private key %d: %x\n", index, priv)
				memzero.Zero(priv)
			}
			return nil
		},
	}

	cmd.Flags().Uint32VarP(&index, "index", "i", 0, "derivation index")
	cmd.Flags().StringVarP(&generator, "generator", "g", "",
		"public generator hex (public-only derivation)")
	cmd.Flags().BoolVar(&showPrivate, "show-private", false,
		"print the child private key")
	return cmd
}
