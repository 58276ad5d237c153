package telegram

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"companion-bot/internal/auth"
	"companion-bot/internal/chat"
	"companion-bot/internal/delay"
	"companion-bot/internal/observability"
)

type Bot struct {
	api     *tgbotapi.BotAPI
	s       sender
	authSvc *auth.Service
	conv    *chat.Conversation
	delay   *delay.Model
	metrics *observability.Metrics

	replyToStrangers bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	wg sync.WaitGroup
}

type Options struct {
	Auth             *auth.Service
	Conversation     *chat.Conversation
	Delay            *delay.Model
	Metrics          *observability.Metrics
	ReplyToStrangers bool
}

func New(botToken string, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	log.Printf("Authorized on account @%s", api.Self.UserName)
	return &Bot{
		api:              api,
		s:                botAPISender{api: api},
		authSvc:          opts.Auth,
		conv:             opts.Conversation,
		delay:            opts.Delay,
		metrics:          opts.Metrics,
		replyToStrangers: opts.ReplyToStrangers,
		now:              time.Now,
		sleep:            sleepCtx,
	}, nil
}

// Start polls for updates until ctx is cancelled. Every message is handled on
// its own goroutine so a long reply delay never holds up the loop.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			return
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return
			}
			if update.Message == nil {
				continue
			}
			msg := update.Message
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleIncomingMessage(ctx, msg)
			}()
		}
	}
}

// NotifyOwner sends an unprompted message to the authorized correspondent.
func (b *Bot) NotifyOwner(_ context.Context, text string) error {
	if _, err := b.s.Send(tgbotapi.NewMessage(b.authSvc.OwnerID(), text)); err != nil {
		return fmt.Errorf("send to owner: %w", err)
	}
	return nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) sendTyping(chatID int64) {
	if _, err := b.s.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("failed to send typing action: %v", err)
	}
}

func (b *Bot) count(kind string) {
	if b.metrics != nil {
		b.metrics.InboundMessages.WithLabelValues(kind).Inc()
	}
}

func (b *Bot) outcome(o string) {
	if b.metrics != nil {
		b.metrics.Replies.WithLabelValues(o).Inc()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
