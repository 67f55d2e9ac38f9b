package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"foodscan/internal/i18n"
	"foodscan/internal/scanclient"
)

func main() {
	_ = godotenv.Load()

	var (
		photoFlag    string
		endpointFlag string
		tokenFlag    string
		apiKeyFlag   string
		localeFlag   string
		timeoutFlag  time.Duration
	)
	flag.StringVar(&photoFlag, "photo", "", "path to the food photo")
	flag.StringVar(&endpointFlag, "endpoint", defaultEndpoint(), "analysis endpoint URL")
	flag.StringVar(&tokenFlag, "token", os.Getenv("FOODSCAN_TOKEN"), "access token of the signed-in user")
	flag.StringVar(&apiKeyFlag, "apikey", os.Getenv("SUPABASE_ANON_KEY"), "project anon key")
	flag.StringVar(&localeFlag, "locale", i18n.Match(i18n.English, os.Getenv("LANG")), "message locale (en or it)")
	flag.DurationVar(&timeoutFlag, "timeout", 90*time.Second, "request timeout")
	flag.Parse()

	locale := i18n.Normalize(localeFlag)

	if strings.TrimSpace(photoFlag) == "" {
		fmt.Fprintln(os.Stderr, "-photo is required")
		os.Exit(2)
	}
	if strings.TrimSpace(endpointFlag) == "" {
		fmt.Fprintln(os.Stderr, "-endpoint or SUPABASE_URL is required")
		os.Exit(2)
	}

	photo, err := scanclient.SelectPhoto(photoFlag)
	if err != nil {
		_ = scanclient.RenderError(os.Stderr, locale, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeoutFlag)
	defer cancel()

	client := scanclient.New(endpointFlag, scanclient.Session{Token: tokenFlag, APIKey: apiKeyFlag}, nil)

	fmt.Fprintln(os.Stderr, i18n.T(locale, i18n.MsgAnalyzing))
	estimate, err := client.Submit(ctx, photo)
	if err != nil {
		_ = scanclient.RenderError(os.Stderr, locale, err)
		os.Exit(1)
	}
	_ = scanclient.Render(os.Stdout, locale, estimate)
}

func defaultEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("FOODSCAN_ENDPOINT")); v != "" {
		return v
	}
	if base := strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"); base != "" {
		return base + "/functions/v1/analyze-food"
	}
	return ""
}
