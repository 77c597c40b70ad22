package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"smartcontract-gateway.backend/internal/config"
	"smartcontract-gateway.backend/pkg/jwt"
)

type tokenGenDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	out     io.Writer
}

func defaultTokenGenDeps() tokenGenDeps {
	return tokenGenDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		out:     os.Stdout,
	}
}

func main() {
	if err := run(os.Args[1:], defaultTokenGenDeps()); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, deps tokenGenDeps) error {
	fs := flag.NewFlagSet("token-gen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	subject := fs.String("subject", "admin", "token subject")
	role := fs.String("role", "admin", "token role")
	ttl := fs.Duration("ttl", 0, "token lifetime (defaults to JWT_ACCESS_EXPIRY)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *subject == "" {
		return errors.New("subject is required")
	}
	if *ttl < 0 {
		return fmt.Errorf("invalid ttl: %s", *ttl)
	}

	_ = deps.loadEnv()
	cfg := deps.loadCfg()
	if cfg.JWT.Secret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	expiry := cfg.JWT.AccessExpiry
	if *ttl > 0 {
		expiry = *ttl
	}

	token, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, expiry).GenerateToken(*subject, *role)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintf(deps.out, "# subject=%s role=%s expires=%s\n", *subject, *role, time.Now().Add(expiry).UTC().Format(time.RFC3339))
	fmt.Fprintf(deps.out, "ACCESS_TOKEN=%s\n", token)
	return nil
}
