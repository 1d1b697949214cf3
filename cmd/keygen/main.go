// Package main generates an RSA key pair for the sandbox server and its
// clients. The private key goes to SANDBOX_PRIVATE_KEY, the public key to
// GOSELL_ENCRYPTION_KEY.
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gosell/internal/crypto"

	"github.com/ardanlabs/conf"
)

type Config struct {
	Bits int    `conf:"default:2048"`
	Out  string `conf:"default:.,help:directory for private.pem and public.pem"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	help, err := conf.ParseOSArgs("KEYGEN", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Bits < crypto.MinKeyBits {
		return fmt.Errorf("key size must be at least %d bits", crypto.MinKeyBits)
	}

	key, err := rsa.GenerateKey(rand.Reader, cfg.Bits)
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}
	pub, err := crypto.NewDecryptor(key).PublicKey(crypto.SchemeRSAPKCS1)
	if err != nil {
		return err
	}
	pubPEM, err := pub.MarshalPEM()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return err
	}
	privPath := filepath.Join(cfg.Out, "private.pem")
	if err := os.WriteFile(privPath, []byte(crypto.MarshalPrivateKeyPEM(key)), 0o600); err != nil {
		return err
	}
	pubPath := filepath.Join(cfg.Out, "public.pem")
	if err := os.WriteFile(pubPath, []byte(pubPEM), 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s\n", privPath, pubPath)
	return nil
}
