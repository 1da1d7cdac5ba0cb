package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keyfount/internal/derive"
)

func verifyCmd() *cobra.Command {
	var count uint32

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that public and private child derivation agree",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			pubGen := pair.Pub.SerializeCompressed()

			for i := uint32(0); i < count; i++ {
				viaPublic, err := derive.PublicChild(pubGen, i)
				if err != nil {
					return err
				}

				viaPrivate, err := derive.PrivateChild(pubGen, pair.Priv, i)
				if err != nil {
					return err
				}

				agree := viaPublic.IsEqual(viaPrivate.Pub)
				viaPrivate.Zero()
				if !agree {
					return fmt.Errorf("derivation mismatch at index %d", i)
				}
				logger.Debug("derivations agree", zap.Uint32("index", i))
			}

			fmt.Printf("OK: %d indices agree\n", count)
			return nil
		},
	}

	cmd.Flags().Uint32VarP(&count, "count", "n", 10,
		"number of indices to check")
	return cmd
}
