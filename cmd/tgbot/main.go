package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Alias1177/wingo/internal/api/wingo"
	"github.com/Alias1177/wingo/internal/broadcast"
	"github.com/Alias1177/wingo/internal/config"
	"github.com/Alias1177/wingo/internal/database"
	"github.com/Alias1177/wingo/internal/message"
	"github.com/Alias1177/wingo/internal/telegram"
	"github.com/Alias1177/wingo/internal/worker"
)

const welcomeText = `Welcome to the WinGo Predictor Bot!

I watch the WinGo 1-minute draw and post HIGH/LOW predictions to the configured channels.

Commands:
/status - current prediction board
/stats - win/loss summary`

// Wired in main before the update loop starts.
var (
	cfg        *config.Config
	db         *database.DB
	predWorker *worker.Worker
	caster     *broadcast.Broadcaster
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()

	db, err = database.New(cfg.DBPath, cfg.Retention)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")

	caster = broadcast.New(telegram.NewSender(bot))

	client := wingo.NewClient(wingo.ClientOptions{
		BaseURL:        cfg.APIURL,
		PageSize:       cfg.PageSize,
		RequestTimeout: cfg.RequestTimeout,
	})

	predWorker = worker.New(cfg, db, client, caster)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	aggregator := worker.NewAggregator(cfg, db, caster)
	go aggregator.Run(ctx)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := bot.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down")
			if err := predWorker.Stop(); err != nil && !errors.Is(err, worker.ErrNotRunning) {
				logger.Error().Err(err).Msg("Failed to stop prediction worker")
			}
			return
		case update := <-updates:
			if update.Message != nil {
				handleMessage(ctx, bot, update.Message, &logger)
			}
		}
	}
}

// handleMessage processes incoming text messages
func handleMessage(ctx context.Context, bot *tgbotapi.BotAPI, msg *tgbotapi.Message, logger *zerolog.Logger) {
	if !msg.IsCommand() {
		return
	}
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		reply(bot, chatID, welcomeText, logger)
	case "status":
		handleStatus(ctx, bot, chatID, logger)
	case "stats":
		handleStats(ctx, bot, chatID, logger)
	case "settarget", "removetarget", "cleartargets", "targets",
		"startprediction", "stopprediction", "broadcast":
		if msg.From == nil || msg.From.ID != cfg.AdminID {
			reply(bot, chatID, "This command is restricted to the administrator.", logger)
			return
		}
		handleAdminCommand(ctx, bot, msg, logger)
	default:
		reply(bot, chatID, "Unknown command. See /start for the command list.", logger)
	}
}

// handleAdminCommand processes commands that change targets or worker state.
func handleAdminCommand(ctx context.Context, bot *tgbotapi.BotAPI, msg *tgbotapi.Message, logger *zerolog.Logger) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "settarget":
		if args == "" {
			reply(bot, chatID, "Usage: /settarget <chat id or @channel>", logger)
			return
		}
		if err := db.AddTarget(ctx, args); err != nil {
			logger.Error().Err(err).Str("target", args).Msg("Failed to add target")
			reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
			return
		}
		reply(bot, chatID, fmt.Sprintf("✅ Target %s added.", args), logger)
	case "removetarget":
		if args == "" {
			reply(bot, chatID, "Usage: /removetarget <chat id or @channel>", logger)
			return
		}
		if err := db.RemoveTarget(ctx, args); err != nil {
			logger.Error().Err(err).Str("target", args).Msg("Failed to remove target")
			reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
			return
		}
		reply(bot, chatID, fmt.Sprintf("✅ Target %s removed.", args), logger)
	case "cleartargets":
		if err := db.ClearTargets(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to clear targets")
			reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
			return
		}
		reply(bot, chatID, "✅ All targets removed.", logger)
	case "targets":
		targets, err := db.ListTargets(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to list targets")
			reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
			return
		}
		if len(targets) == 0 {
			reply(bot, chatID, "No targets configured. Use /settarget to add one.", logger)
			return
		}
		reply(bot, chatID, "Targets:\n"+strings.Join(targets, "\n"), logger)
	case "startprediction":
		switch err := predWorker.Start(ctx); {
		case err == nil:
			reply(bot, chatID, "🚀 Prediction started.", logger)
		case errors.Is(err, worker.ErrAlreadyRunning):
			reply(bot, chatID, "⚠️ Prediction already running.", logger)
		case errors.Is(err, worker.ErrNoTargets):
			reply(bot, chatID, "⚠️ No targets configured. Use /settarget first.", logger)
		default:
			logger.Error().Err(err).Msg("Failed to start prediction worker")
			reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
		}
	case "stopprediction":
		switch err := predWorker.Stop(); {
		case err == nil:
			reply(bot, chatID, "🛑 Prediction stopped.", logger)
		case errors.Is(err, worker.ErrNotRunning):
			reply(bot, chatID, "⚠️ No prediction worker running.", logger)
		default:
			logger.Error().Err(err).Msg("Failed to stop prediction worker")
			reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
		}
	case "broadcast":
		if args == "" {
			reply(bot, chatID, "Usage: /broadcast <text>", logger)
			return
		}
		targets, err := db.ListTargets(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to list targets")
			reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
			return
		}
		if len(targets) == 0 {
			reply(bot, chatID, "⚠️ No targets configured. Use /settarget first.", logger)
			return
		}
		sent := caster.SendAll(ctx, targets, args)
		reply(bot, chatID, fmt.Sprintf("📢 Broadcast delivered to %d of %d targets.", sent, len(targets)), logger)
	}
}

// handleStatus sends the current prediction board to the requesting chat.
func handleStatus(ctx context.Context, bot *tgbotapi.BotAPI, chatID int64, logger *zerolog.Logger) {
	rounds, err := db.ListRounds(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list rounds")
		reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
		return
	}
	predictions, err := db.ListPredictions(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list predictions")
		reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
		return
	}
	latest, err := db.LatestPrediction(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load latest prediction")
		reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
		return
	}

	targets, err := db.ListTargets(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list targets")
		reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
		return
	}

	state := "stopped"
	if predWorker.Running() {
		state = "running"
	}
	text := fmt.Sprintf("Worker: %s\nTargets: %d\n\n%s",
		state, len(targets),
		message.BuildStatus(cfg.HeaderTitle, rounds, predictions, latest, cfg.DisplayCount))
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeHTML
	if _, err := bot.Send(out); err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send status")
	}
}

// handleStats sends the aggregated win/loss summary.
func handleStats(ctx context.Context, bot *tgbotapi.BotAPI, chatID int64, logger *zerolog.Logger) {
	stats, err := db.Stats(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load stats")
		reply(bot, chatID, "Sorry, there was an error. Please try again later.", logger)
		return
	}
	out := tgbotapi.NewMessage(chatID, message.BuildSummary(stats))
	out.ParseMode = tgbotapi.ModeHTML
	if _, err := bot.Send(out); err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send stats")
	}
}

func reply(bot *tgbotapi.BotAPI, chatID int64, text string, logger *zerolog.Logger) {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}
