package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"keyfount/internal/derive"
	"keyfount/internal/util/memzero"
)

func rootKeyCmd() *cobra.Command {
	var showPrivate bool

	cmd := &cobra.Command{
		Use:   "root",
		Short: "Derive the root key pair from a seed",
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

			fmt.Printf("Public generator: %x\n",
				pair.Pub.SerializeCompressed())

			if showPrivate {
				priv := pair.Priv.Serialize()
				fmt.Printf("Private key: %x\n", priv)
				memzero.Zero(priv)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPrivate, "show-private", false,
		"print the root private key")
	return cmd
}
