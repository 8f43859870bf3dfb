package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudx-io/openescrow/server"
)

var keygenOut string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a receipt signing key",
	Long: `Generate an ECDSA P-256 receipt signing key, write it as PKCS#8 PEM for
server.signing_key_file and print the matching public key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := server.NewKeyManager()
		if err != nil {
			return err
		}
		privatePEM, err := keys.PrivateKeyPEM()
		if err != nil {
			return err
		}
		if err := os.WriteFile(keygenOut, privatePEM, 0o600); err != nil {
			return fmt.Errorf("write signing key: %w", err)
		}

		publicPEM, err := keys.PublicKeyPEM()
		if err != nil {
			return err
		}
		fmt.Printf("Wrote signing key %s to %s\n\n%s", keys.KeyID(), keygenOut, publicPEM)
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenOut, "out", "signing-key.pem", "output path for the private key")
	rootCmd.AddCommand(keygenCmd)
}
