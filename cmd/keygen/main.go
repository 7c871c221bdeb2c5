// Package main implements a command line tool that mints API keys for the
// image processing server.
//
// Usage:
//
//	keygen -username alice [-admin] [-rate-limit 100] [-ttl 720h]
//
// The signing secret is read from PRODSHOT_AUTH_API_KEY_SECRET (a .env file
// in the working directory is honoured) or from the -secret flag.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/phrazzld/prodshot-api/internal/auth"
)

const secretEnv = "PRODSHOT_AUTH_API_KEY_SECRET"

func main() {
	if err := run(os.Args[1:], os.Getenv, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, getenv func(string) string, out io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	username := fs.String("username", "", "owner of the key (required)")
	admin := fs.Bool("admin", false, "grant access to key administration")
	rateLimit := fs.Int("rate-limit", 100, "requests per minute allowed for the key")
	ttl := fs.Duration("ttl", 0, "key lifetime, e.g. 720h; zero never expires")
	secret := fs.String("secret", "", "signing secret; defaults to $"+secretEnv)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		return errors.New("-username is required")
	}
	if *ttl < 0 {
		return errors.New("-ttl cannot be negative")
	}

	if *secret == "" {
		// a missing .env file is not an error
		_ = godotenv.Load()
		*secret = getenv(secretEnv)
	}

	keys, err := auth.NewKeyService(*secret, *rateLimit)
	if err != nil {
		return fmt.Errorf("failed to create key service: %w", err)
	}

	apiKey, key, err := keys.Issue(context.Background(), auth.IssueRequest{
		Username:  *username,
		Admin:     *admin,
		RateLimit: *rateLimit,
		TTL:       *ttl,
	})
	if err != nil {
		return fmt.Errorf("failed to issue key: %w", err)
	}

	fmt.Fprintf(out, "Username:   %s\n", key.Username)
	fmt.Fprintf(out, "Key ID:     %s\n", key.ID)
	fmt.Fprintf(out, "Admin:      %t\n", key.Admin)
	fmt.Fprintf(out, "Rate limit: %d/min\n", key.RateLimit)
	if !key.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "Expires:    %s\n", key.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "API key:    %s\n", apiKey)
	return nil
}
