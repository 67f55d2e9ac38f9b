package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"foodscan/internal/infra"
	"foodscan/internal/sqlinline"
)

// quota lists a user's analysis usage in the Postgres ledger. It never writes.
func main() {
	_ = godotenv.Load()

	var (
		userFlag   string
		windowFlag time.Duration
		limitFlag  int
	)
	flag.StringVar(&userFlag, "user", "", "user ID (UUID)")
	flag.DurationVar(&windowFlag, "window", 24*time.Hour, "trailing window to inspect")
	flag.IntVar(&limitFlag, "limit", 5, "daily limit used to compute the remaining quota")
	flag.Parse()

	userID := strings.TrimSpace(userFlag)
	if _, err := uuid.Parse(userID); err != nil {
		exitWithError(errors.New("-user must be a UUID"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, &infra.Config{DatabaseURL: dbURL})
	if err != nil {
		exitWithError(err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "quota").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	since := time.Now().Add(-windowFlag).UTC()

	rows, err := runner.Query(ctx, sqlinline.QListUsageSince, userID, since)
	if err != nil {
		exitWithError(fmt.Errorf("list usage: %w", err))
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			id        string
			createdAt time.Time
			props     []byte
		)
		if err := rows.Scan(&id, &createdAt, &props); err != nil {
			exitWithError(fmt.Errorf("scan usage: %w", err))
		}
		count++
		meta := map[string]any{}
		_ = json.Unmarshal(props, &meta)
		fmt.Printf("%s  %s  provider=%v country=%v\n", createdAt.Format(time.RFC3339), id, meta["provider"], meta["country"])
	}
	if err := rows.Err(); err != nil {
		exitWithError(fmt.Errorf("list usage: %w", err))
	}

	remaining := limitFlag - count
	if remaining < 0 {
		remaining = 0
	}
	fmt.Printf("used=%d limit=%d remaining=%d window=%s\n", count, limitFlag, remaining, windowFlag)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
