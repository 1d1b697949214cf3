// Package main tokenizes a card or wallet token from the command line.
//
// Client settings come from the GOSELL_* environment (or .env); the payment
// data comes from flags:
//
//	tokenize --number 4242424242424242 --exp-month 12 --exp-year 30 --cvc 123 --name "Jane Doe" --key-file key.pem
//	tokenize --wallet token.json --customer cus_123
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gosell/internal/config"
	tapErrors "gosell/internal/errors"
	"gosell/internal/models"
	"gosell/internal/services/session"

	"github.com/ardanlabs/conf"
)

type Flags struct {
	Number   string `conf:"help:card number"`
	ExpMonth string `conf:"help:expiry month (MM)"`
	ExpYear  string `conf:"help:expiry year (YY or YYYY)"`
	CVC      string `conf:"noprint"`
	Name     string `conf:"help:cardholder name"`
	Wallet   string `conf:"help:path to a wallet token JSON file"`
	KeyFile  string `conf:"help:path to the PEM public key"`
	Customer string `conf:"help:save the token to this customer"`
}

func main() {
	if err := run(); err != nil {
		if te, ok := tapErrors.AsTapError(err); ok {
			fmt.Fprintln(os.Stderr, te.UserMessage())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run() error {
	var flags Flags
	help, err := conf.ParseOSArgs("TOKENIZE", &flags)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing flags: %w", err)
	}

	if err := config.LoadEnv(); err != nil && !errors.Is(err, config.ErrNoEnvFile) {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.KeyFile != "" {
		material, err := os.ReadFile(flags.KeyFile)
		if err != nil {
			return fmt.Errorf("reading key file: %w", err)
		}
		cfg.EncryptionKey = string(material)
	}

	sess, err := session.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	var (
		token    *models.Token
		tokenErr error
	)
	done := func(t *models.Token, e error) { token, tokenErr = t, e }

	if flags.Wallet != "" {
		data, err := os.ReadFile(flags.Wallet)
		if err != nil {
			return fmt.Errorf("reading wallet token: %w", err)
		}
		sess.CreateApplePayToken(ctx, data, done).Wait()
	} else {
		sess.CreateToken(ctx, flags.Number, flags.ExpMonth, flags.ExpYear, flags.CVC, flags.Name, nil, "", done).Wait()
	}
	if tokenErr != nil {
		return tokenErr
	}

	var out interface{} = token
	if flags.Customer != "" {
		saved, err := sess.Client().SaveCardSync(ctx, flags.Customer, token.ID)
		if err != nil {
			return err
		}
		out = saved
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
