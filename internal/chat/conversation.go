package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"companion-bot/internal/history"
	"companion-bot/internal/llm"
	"companion-bot/internal/observability"
)

// Greeting is the seed user turn written by the begin command.
const Greeting = "slm"

var (
	// ErrCompletion wraps every failure of the model call itself.
	ErrCompletion = errors.New("completion failed")
	// ErrAlreadyAnswered means the latest turn is not an unanswered user
	// message, usually because a later message in the same burst was
	// answered first.
	ErrAlreadyAnswered = errors.New("nothing left to answer")
)

// Conversation owns the single tracked dialogue. Completions are serialized
// by turnMu, so each reply is generated against a history that already
// contains every turn appended before it and replies never interleave.
type Conversation struct {
	history   *history.Store
	chat      llm.Client
	proactive llm.Client
	persona   string
	timeout   time.Duration

	metrics  *observability.Metrics
	provider string

	turnMu sync.Mutex
}

func New(store *history.Store, chatClient, proactiveClient llm.Client, persona string, timeout time.Duration) *Conversation {
	if proactiveClient == nil {
		proactiveClient = chatClient
	}
	return &Conversation{
		history:   store,
		chat:      chatClient,
		proactive: proactiveClient,
		persona:   persona,
		timeout:   timeout,
	}
}

// Instrument counts completion failures under the given provider label.
func (c *Conversation) Instrument(m *observability.Metrics, provider string) *Conversation {
	c.metrics = m
	c.provider = provider
	return c
}

func (c *Conversation) History() *history.Store { return c.history }

// RecordUser appends an inbound message. It is kept even if no reply follows.
func (c *Conversation) RecordUser(ctx context.Context, text string) (history.Turn, error) {
	return c.history.Append(ctx, history.RoleUser, text)
}

// Reply replays the full history to the chat model and records its answer.
// Nothing is appended when the completion fails or times out. A burst of
// user messages gets one answer: once a model turn is last, later calls
// return ErrAlreadyAnswered without calling the model.
func (c *Conversation) Reply(ctx context.Context) (llm.Response, error) {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()

	turns, err := c.history.Load(ctx)
	if err != nil {
		return llm.Response{}, err
	}
	if last, ok := history.Last(turns); !ok || last.Role != history.RoleUser {
		return llm.Response{}, ErrAlreadyAnswered
	}
	resp, err := c.generate(ctx, c.chat, append(c.system(), history.Messages(turns)...))
	if err != nil {
		return llm.Response{}, err
	}
	if _, err := c.history.Append(ctx, history.RoleModel, resp.Content); err != nil {
		return llm.Response{}, err
	}
	return resp, nil
}

// Originate asks the proactive model for an unprompted message, hands it to
// deliver and records it only once delivery succeeded.
func (c *Conversation) Originate(ctx context.Context, prompt string, deliver func(ctx context.Context, text string) error) (llm.Response, error) {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()

	msgs := append(c.system(), llm.Message{Role: llm.RoleUser, Content: prompt})
	resp, err := c.generate(ctx, c.proactive, msgs)
	if err != nil {
		return llm.Response{}, err
	}
	if err := deliver(ctx, resp.Content); err != nil {
		return llm.Response{}, fmt.Errorf("deliver proactive message: %w", err)
	}
	if _, err := c.history.Append(ctx, history.RoleModel, resp.Content); err != nil {
		return llm.Response{}, err
	}
	return resp, nil
}

// Begin seeds an empty history with the greeting. It reports false when a
// conversation already exists.
func (c *Conversation) Begin(ctx context.Context) (bool, error) {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()

	turns, err := c.history.Load(ctx)
	if err != nil {
		return false, err
	}
	if len(turns) > 0 {
		return false, nil
	}
	if _, err := c.history.Append(ctx, history.RoleUser, Greeting); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Conversation) Forget(ctx context.Context) error {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	return c.history.Clear(ctx)
}

func (c *Conversation) system() []llm.Message {
	if c.persona == "" {
		return nil
	}
	return []llm.Message{{Role: llm.RoleSystem, Content: c.persona}}
}

func (c *Conversation) generate(ctx context.Context, client llm.Client, msgs []llm.Message) (llm.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := client.Generate(ctx, msgs)
	if err != nil {
		if c.metrics != nil {
			c.metrics.CompletionErrors.WithLabelValues(c.provider).Inc()
		}
		return llm.Response{}, fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	return resp, nil
}
