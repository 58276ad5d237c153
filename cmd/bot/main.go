package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"companion-bot/internal/auth"
	"companion-bot/internal/chat"
	"companion-bot/internal/config"
	"companion-bot/internal/delay"
	"companion-bot/internal/health"
	"companion-bot/internal/history"
	"companion-bot/internal/llm"
	"companion-bot/internal/observability"
	"companion-bot/internal/scheduler"
	"companion-bot/internal/storage"
	"companion-bot/internal/telegram"
)

const defaultPersona = "Sen benim sanal arkadaşımsın. Gerçek bir insan gibi kısa, samimi ve özensiz yaz. " +
	"Yapay zeka olduğunu asla söyleme."

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s storage: %v", cfg.StorageBackend, err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Printf("failed to close storage: %v", err)
		}
	}()

	clients, err := llm.NewClients(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	persona := readSystemPrompt(cfg.SystemPromptPath)
	if persona == "" {
		persona = defaultPersona
	}

	metrics := observability.NewMetrics("companion")
	store := history.NewStore(kv, cfg.HistoryKey, cfg.Location())
	conv := chat.New(store, clients.Chat, clients.Proactive, persona, cfg.CompletionTimeout).
		Instrument(metrics, clients.Provider)
	delayModel := delay.New(delay.SleepWindow{StartHour: cfg.SleepStartHour, EndHour: cfg.SleepEndHour}, cfg.Location(), nil)

	bot, err := telegram.New(cfg.TelegramBotToken, telegram.Options{
		Auth:             auth.New(cfg.AuthorizedUserID),
		Conversation:     conv,
		Delay:            delayModel,
		Metrics:          metrics,
		ReplyToStrangers: cfg.ReplyToStrangers,
	})
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	var sched *scheduler.Scheduler
	if cfg.ProactiveEnabled {
		proactive := scheduler.NewProactive(conv, bot, delayModel, nil, metrics)
		sched = scheduler.New(cfg.Location(), scheduler.JitterSchedule{
			Min: cfg.ProactiveMinInterval,
			Max: cfg.ProactiveMaxInterval,
		})
		sched.SetJob("proactive message check", proactive.RunCycle)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
	}

	srv := health.NewServer(cfg.Port, string(cfg.StorageBackend), metrics)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("liveness server stopped: %v", err)
			stop()
		}
	}()

	window := delayModel.Window()
	log.Printf("Bot started [provider=%s, storage=%s, sleep window=%02d:00-%02d:00 %s]",
		clients.Provider, cfg.StorageBackend, window.StartHour, window.EndHour, delayModel.Location())
	bot.Start(ctx)

	log.Println("Shutting down")
	if sched != nil {
		sched.Stop()
	}
	if err := srv.Stop(); err != nil {
		log.Printf("failed to stop liveness server: %v", err)
	}
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return strings.TrimSpace(string(data))
}
