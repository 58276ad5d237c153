package telegram

import (
	"context"
	"errors"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"companion-bot/internal/analytics"
	"companion-bot/internal/chat"
)

const (
	startCmd       = "start"
	testCmd        = "test"
	forgetCmd      = "unut"
	forgetAliasCmd = "forget"
	statusCmd      = "durum"
)

const (
	refusalText  = "sadece sahibimle konuşurum."
	backText     = "yine ben :)"
	forgetText   = "tamam, her şeyi unuttum"
	testText     = "Bot çalışıyor ve aktif. (Bu test mesajıdır, gecikme uygulanmaz)"
	fallbackText = "kafam yandı bi an.. ne diyodun"
)

// handleIncomingMessage routes one update. Strangers are never recorded.
func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	reqID := uuid.NewString()[:8]

	if !b.authSvc.IsAllowed(msg.From.ID) {
		b.count("unauthorized")
		log.Printf("[%s] Unauthorized message from user ID: %d, username: @%s", reqID, msg.From.ID, msg.From.UserName)
		if msg.IsCommand() || b.replyToStrangers {
			b.sendMessage(msg.Chat.ID, refusalText)
		}
		return
	}

	if msg.IsCommand() {
		b.count("command")
		b.handleCommand(ctx, reqID, msg)
		return
	}
	if msg.Text == "" {
		return
	}
	b.count("text")
	log.Printf("[%s] Incoming message from %d (@%s): %q", reqID, msg.From.ID, msg.From.UserName, msg.Text)
	b.handleText(ctx, reqID, msg)
}

func (b *Bot) handleCommand(ctx context.Context, reqID string, msg *tgbotapi.Message) {
	switch msg.Command() {
	case startCmd:
		started, err := b.conv.Begin(ctx)
		if err != nil {
			log.Printf("[%s] begin failed: %v", reqID, err)
			b.sendMessage(msg.Chat.ID, fallbackText)
			return
		}
		if started {
			b.sendMessage(msg.Chat.ID, chat.Greeting)
			return
		}
		b.sendMessage(msg.Chat.ID, backText)
	case testCmd:
		b.sendMessage(msg.Chat.ID, testText)
	case forgetCmd, forgetAliasCmd:
		if err := b.conv.Forget(ctx); err != nil {
			log.Printf("[%s] forget failed: %v", reqID, err)
			b.sendMessage(msg.Chat.ID, fallbackText)
			return
		}
		log.Printf("[%s] History cleared", reqID)
		b.sendMessage(msg.Chat.ID, forgetText)
	case statusCmd:
		turns, err := b.conv.History().Load(ctx)
		if err != nil {
			log.Printf("[%s] status failed: %v", reqID, err)
			b.sendMessage(msg.Chat.ID, fallbackText)
			return
		}
		loc := b.delay.Location()
		b.sendMessage(msg.Chat.ID, analytics.Analyze(turns, b.now().In(loc)).Format(loc))
	default:
		log.Printf("[%s] Ignoring unknown command /%s", reqID, msg.Command())
	}
}

// handleText records the message, waits like a person would, then answers.
func (b *Bot) handleText(ctx context.Context, reqID string, msg *tgbotapi.Message) {
	if _, err := b.conv.RecordUser(ctx, msg.Text); err != nil {
		log.Printf("[%s] failed to record message: %v", reqID, err)
		b.outcome("storage_error")
		b.sendMessage(msg.Chat.ID, fallbackText)
		return
	}

	d := b.delay.Next(b.now())
	if b.metrics != nil {
		b.metrics.ObserveReplyDelay(d)
	}
	log.Printf("[%s] Replying in %s", reqID, d.Round(time.Second))
	if err := b.sleep(ctx, d); err != nil {
		log.Printf("[%s] reply abandoned: %v", reqID, err)
		b.outcome("cancelled")
		return
	}

	b.sendTyping(msg.Chat.ID)

	resp, err := b.conv.Reply(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Printf("[%s] reply abandoned: %v", reqID, err)
			b.outcome("cancelled")
			return
		}
		if errors.Is(err, chat.ErrAlreadyAnswered) {
			log.Printf("[%s] Already answered by a later reply, staying quiet", reqID)
			b.outcome("already_answered")
			return
		}
		log.Printf("[%s] failed to generate reply: %v", reqID, err)
		b.outcome("fallback")
		b.sendMessage(msg.Chat.ID, fallbackText)
		return
	}

	log.Printf("[%s] LLM response [model=%s, tokens: prompt=%d, completion=%d, total=%d]: %q",
		reqID, resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens, resp.Content)
	b.outcome("replied")
	b.sendMessage(msg.Chat.ID, resp.Content)
}
