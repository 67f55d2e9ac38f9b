package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"foodscan/internal/identity"
)

// devtoken mints an access token accepted by the API when AUTH_JWT_SECRET is set.
func main() {
	_ = godotenv.Load()

	var (
		userFlag   string
		emailFlag  string
		ttlFlag    time.Duration
		secretFlag string
	)
	flag.StringVar(&userFlag, "user", "", "user ID (UUID, random when empty)")
	flag.StringVar(&emailFlag, "email", "", "email claim")
	flag.DurationVar(&ttlFlag, "ttl", time.Hour, "token lifetime")
	flag.StringVar(&secretFlag, "secret", "", "signing secret (falls back to AUTH_JWT_SECRET)")
	flag.Parse()

	secret := strings.TrimSpace(secretFlag)
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET"))
	}
	if secret == "" {
		fmt.Fprintln(os.Stderr, "signing secret is required via -secret or AUTH_JWT_SECRET")
		os.Exit(1)
	}

	userID := strings.TrimSpace(userFlag)
	if userID == "" {
		userID = uuid.NewString()
	} else if _, err := uuid.Parse(userID); err != nil {
		fmt.Fprintln(os.Stderr, "-user must be a UUID")
		os.Exit(1)
	}

	audience := strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE"))
	if audience == "" {
		audience = "authenticated"
	}

	now := time.Now()
	token, err := identity.Sign(secret, identity.Claims{
		Email: emailFlag,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttlFlag)),
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
