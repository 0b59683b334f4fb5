package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alias1177/wingo/internal/broadcast"
	"github.com/Alias1177/wingo/internal/config"
	"github.com/Alias1177/wingo/internal/database"
	"github.com/Alias1177/wingo/internal/telegram"
)

// One-shot announcement tool: sends a message to every saved target.
func main() {
	text := flag.String("message", "", "text to broadcast to all saved targets")
	flag.Parse()

	if *text == "" {
		log.Fatal("Usage: broadcast -message <text>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg.DBPath, cfg.Retention)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	ctx := context.Background()

	targets, err := db.ListTargets(ctx)
	if err != nil {
		log.Fatalf("Failed to list targets: %v", err)
	}
	if len(targets) == 0 {
		log.Fatal("No targets configured")
	}
	log.Printf("Found %d targets in database", len(targets))

	caster := broadcast.New(telegram.NewSender(bot))
	sent := caster.SendAll(ctx, targets, *text)

	fmt.Printf("🎯 Broadcast completed: %d sent, %d failed out of %d targets\n",
		sent, len(targets)-sent, len(targets))
}
