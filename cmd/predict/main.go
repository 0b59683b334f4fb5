package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/wingo/internal/api/wingo"
	"github.com/Alias1177/wingo/internal/config"
	"github.com/Alias1177/wingo/internal/predictor"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

// One-shot diagnostic: fetch the current history page, run the forecaster
// and print the result without touching the database or Telegram.
func main() {
	url := flag.String("url", config.DefaultAPIURL, "history endpoint")
	pageSize := flag.Int("page-size", 20, "rounds per history page")
	window := flag.Int("window", 10, "voting window size")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	client := wingo.NewClient(wingo.ClientOptions{
		BaseURL:        *url,
		PageSize:       *pageSize,
		RequestTimeout: 20 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rounds, err := client.GetHistory(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to fetch history")
	}

	fmt.Printf("Fetched %d rounds (oldest first):\n", len(rounds))
	for _, r := range rounds {
		fmt.Printf("  %s  number=%d  %s\n", r.Issue, r.Number, predictor.Label(r.Number))
	}

	forecast := predictor.Predict(rounds, *window)
	fmt.Printf("\nNext issue:  %s\n", forecast.NextIssue)
	fmt.Printf("Prediction:  %s\n", forecast.Predicted)
	fmt.Printf("Confidence:  %.3f\n", forecast.Confidence)
}
