package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/noah-isme/academy-admissions/internal/service"
	"github.com/noah-isme/academy-admissions/pkg/config"
)

// admin-token mints a bearer token for the admin dashboard using ADMIN_JWT_SECRET.
func main() {
	var (
		userID string
		email  string
		ttl    time.Duration
	)

	flag.StringVar(&userID, "user", "", "Operator identifier recorded in the token")
	flag.StringVar(&email, "email", "", "Operator email (optional)")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime; defaults to ADMIN_TOKEN_TTL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	auth := service.NewAuthService(nil, nil, service.AuthConfig{
		Secret:   cfg.AdminAuth.Secret,
		TokenTTL: cfg.AdminAuth.TokenTTL,
		Issuer:   cfg.AdminAuth.Issuer,
	})
	token, expiresAt, err := auth.IssueToken(service.AdminTokenRequest{UserID: userID, Email: email, TTL: ttl})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not issue token: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
}
