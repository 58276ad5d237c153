package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"companion-bot/internal/history"
	"companion-bot/internal/llm"
	"companion-bot/internal/observability"
	"companion-bot/internal/storage"
)

type fakeLLM struct {
	resp llm.Response
	err  error
	got  [][]llm.Message
}

func (f *fakeLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	f.got = append(f.got, msgs)
	return f.resp, f.err
}

type blockingLLM struct{}

func (blockingLLM) Generate(ctx context.Context, _ []llm.Message) (llm.Response, error) {
	<-ctx.Done()
	return llm.Response{}, ctx.Err()
}

func newConversation(client llm.Client, timeout time.Duration) *Conversation {
	store := history.NewStore(storage.NewMemoryStore(), "chat_history", time.UTC)
	return New(store, client, nil, "persona", timeout)
}

func TestReplyReplaysHistoryAndRecordsAnswer(t *testing.T) {
	f := &fakeLLM{resp: llm.Response{Content: "iyi sen"}}
	c := newConversation(f, time.Second)
	ctx := context.Background()

	if _, err := c.RecordUser(ctx, "slm"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := c.RecordUser(ctx, "naber"); err != nil {
		t.Fatalf("record: %v", err)
	}
	resp, err := c.Reply(ctx)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if resp.Content != "iyi sen" {
		t.Fatalf("unexpected reply: %q", resp.Content)
	}

	sent := f.got[0]
	if len(sent) != 3 || sent[0].Role != llm.RoleSystem || sent[0].Content != "persona" {
		t.Fatalf("persona not sent first: %+v", sent)
	}
	if sent[1].Content != "slm" || sent[2].Content != "naber" {
		t.Fatalf("history not replayed in order: %+v", sent)
	}

	turns, _ := c.History().Load(ctx)
	if len(turns) != 3 || turns[2].Role != history.RoleModel || turns[2].Text != "iyi sen" {
		t.Fatalf("model turn not recorded: %+v", turns)
	}
}

func TestReplyFailureKeepsUserTurnOnly(t *testing.T) {
	c := newConversation(&fakeLLM{err: errors.New("quota")}, time.Second)
	ctx := context.Background()
	_, _ = c.RecordUser(ctx, "naber")
	if _, err := c.Reply(ctx); err == nil {
		t.Fatalf("expected error")
	}
	turns, _ := c.History().Load(ctx)
	if len(turns) != 1 || turns[0].Role != history.RoleUser {
		t.Fatalf("unexpected history after failure: %+v", turns)
	}
}

func TestReplyTimesOut(t *testing.T) {
	c := newConversation(blockingLLM{}, 20*time.Millisecond)
	ctx := context.Background()
	_, _ = c.RecordUser(ctx, "naber")
	start := time.Now()
	_, err := c.Reply(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout not applied")
	}
	turns, _ := c.History().Load(ctx)
	if len(turns) != 1 {
		t.Fatalf("timeout must not append a model turn: %+v", turns)
	}
}

func TestBegin(t *testing.T) {
	c := newConversation(&fakeLLM{}, time.Second)
	ctx := context.Background()
	started, err := c.Begin(ctx)
	if err != nil || !started {
		t.Fatalf("first begin: %v %v", started, err)
	}
	started, err = c.Begin(ctx)
	if err != nil || started {
		t.Fatalf("second begin must not seed again: %v %v", started, err)
	}
	turns, _ := c.History().Load(ctx)
	if len(turns) != 1 || turns[0].Role != history.RoleUser || turns[0].Text != Greeting {
		t.Fatalf("unexpected history: %+v", turns)
	}
	if err := c.Forget(ctx); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if turns, _ := c.History().Load(ctx); len(turns) != 0 {
		t.Fatalf("forget did not clear history")
	}
}

func TestOriginateRecordsOnlyDelivered(t *testing.T) {
	f := &fakeLLM{resp: llm.Response{Content: "aklıma ne geldi lan"}}
	c := newConversation(f, time.Second)
	ctx := context.Background()

	_, err := c.Originate(ctx, "prompt", func(context.Context, string) error { return errors.New("blocked") })
	if err == nil {
		t.Fatalf("expected delivery error")
	}
	if turns, _ := c.History().Load(ctx); len(turns) != 0 {
		t.Fatalf("undelivered message was recorded")
	}

	var delivered string
	if _, err := c.Originate(ctx, "prompt", func(_ context.Context, text string) error {
		delivered = text
		return nil
	}); err != nil {
		t.Fatalf("originate: %v", err)
	}
	turns, _ := c.History().Load(ctx)
	if delivered != "aklıma ne geldi lan" || len(turns) != 1 || turns[0].Role != history.RoleModel {
		t.Fatalf("unexpected state: %q %+v", delivered, turns)
	}
	last := f.got[len(f.got)-1]
	if len(last) != 2 || last[1].Content != "prompt" {
		t.Fatalf("prompt not sent: %+v", last)
	}
}

func TestBurstOfMessagesGetsOneAnswer(t *testing.T) {
	f := &fakeLLM{resp: llm.Response{Content: "ikisine de cevap"}}
	c := newConversation(f, time.Second)
	ctx := context.Background()

	_, _ = c.RecordUser(ctx, "ilk")
	_, _ = c.RecordUser(ctx, "ikinci")
	if _, err := c.Reply(ctx); err != nil {
		t.Fatalf("first reply: %v", err)
	}
	if _, err := c.Reply(ctx); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("want ErrAlreadyAnswered, got %v", err)
	}
	if len(f.got) != 1 {
		t.Fatalf("want one completion, got %d", len(f.got))
	}
	turns, _ := c.History().Load(ctx)
	if len(turns) != 3 || turns[2].Role != history.RoleModel {
		t.Fatalf("want exactly one model turn, got %+v", turns)
	}

	if err := c.Forget(ctx); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if _, err := c.Reply(ctx); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("empty history must not be answered, got %v", err)
	}
}

type brokenKV struct{ storage.MemoryStore }

func (*brokenKV) Get(context.Context, string) (string, error) {
	return "", errors.New("disk on fire")
}

func TestCompletionErrorsCountOnlyModelFailures(t *testing.T) {
	m := observability.NewMetrics("test")
	errs := m.CompletionErrors.WithLabelValues("gemini")

	c := newConversation(&fakeLLM{err: errors.New("quota")}, time.Second).Instrument(m, "gemini")
	ctx := context.Background()
	_, _ = c.RecordUser(ctx, "naber")
	_, err := c.Reply(ctx)
	if !errors.Is(err, ErrCompletion) {
		t.Fatalf("want ErrCompletion, got %v", err)
	}
	if _, err := c.Originate(ctx, "prompt", func(context.Context, string) error { return nil }); !errors.Is(err, ErrCompletion) {
		t.Fatalf("want ErrCompletion from originate, got %v", err)
	}
	if got := testutil.ToFloat64(errs); got != 2 {
		t.Fatalf("want 2 completion errors, got %v", got)
	}

	store := history.NewStore(&brokenKV{}, "chat_history", time.UTC)
	broken := New(store, &fakeLLM{}, nil, "persona", time.Second).Instrument(m, "gemini")
	if _, err := broken.Reply(ctx); err == nil || errors.Is(err, ErrCompletion) {
		t.Fatalf("storage failure must not look like a completion failure: %v", err)
	}
	if got := testutil.ToFloat64(errs); got != 2 {
		t.Fatalf("storage failure was counted as completion error: %v", got)
	}
}
