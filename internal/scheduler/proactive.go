package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"companion-bot/internal/chat"
	"companion-bot/internal/delay"
	"companion-bot/internal/history"
	"companion-bot/internal/observability"
)

const (
	// botSpokeLastSkip is the chance to stay quiet when the last turn is ours.
	botSpokeLastSkip = 0.7
	minSilence       = 4 * time.Hour
	maxSilence       = 11 * time.Hour
)

// Notifier delivers a message to the authorized correspondent.
type Notifier interface {
	NotifyOwner(ctx context.Context, text string) error
}

type Outcome string

const (
	OutcomeSleeping     Outcome = "skipped_sleeping"
	OutcomeEmpty        Outcome = "skipped_empty"
	OutcomeBotSpokeLast Outcome = "skipped_bot_spoke_last"
	OutcomeTooSoon      Outcome = "skipped_too_soon"
	OutcomeOriginate    Outcome = "originate"
	OutcomeSent         Outcome = "sent"
	OutcomeFailed       Outcome = "failed"
)

type Decision struct {
	Outcome Outcome
	Elapsed time.Duration
}

// Proactive decides when to start a conversation without being asked.
type Proactive struct {
	conv     *chat.Conversation
	notifier Notifier
	delay    *delay.Model
	rnd      delay.Source
	now      func() time.Time
	metrics  *observability.Metrics
}

func NewProactive(conv *chat.Conversation, notifier Notifier, model *delay.Model, rnd delay.Source, metrics *observability.Metrics) *Proactive {
	if rnd == nil {
		rnd = delay.DefaultSource
	}
	return &Proactive{
		conv:     conv,
		notifier: notifier,
		delay:    model,
		rnd:      rnd,
		now:      time.Now,
		metrics:  metrics,
	}
}

// Decide inspects the history at now. It does not look at the sleep window.
func (p *Proactive) Decide(now time.Time, turns []history.Turn) Decision {
	last, ok := history.Last(turns)
	if !ok {
		return Decision{Outcome: OutcomeEmpty}
	}
	if last.Role == history.RoleModel && p.rnd.Float64() < botSpokeLastSkip {
		return Decision{Outcome: OutcomeBotSpokeLast}
	}
	elapsed := now.Sub(last.Timestamp)
	threshold := time.Duration(delay.Uniform(p.rnd, float64(minSilence), float64(maxSilence)))
	if elapsed > threshold {
		return Decision{Outcome: OutcomeOriginate, Elapsed: elapsed}
	}
	return Decision{Outcome: OutcomeTooSoon, Elapsed: elapsed}
}

// RunCycle performs one scheduler tick. Errors are returned for logging only;
// the schedule keeps running regardless.
func (p *Proactive) RunCycle(ctx context.Context) error {
	now := p.now()
	if p.delay.Sleeping(now) {
		p.record(OutcomeSleeping)
		return nil
	}
	turns, err := p.conv.History().Load(ctx)
	if err != nil {
		p.record(OutcomeFailed)
		return fmt.Errorf("load history: %w", err)
	}
	d := p.Decide(now, turns)
	if d.Outcome != OutcomeOriginate {
		p.record(d.Outcome)
		return nil
	}

	hours := int(d.Elapsed.Hours())
	log.Printf("💬 Originating proactive message after %dh of silence", hours)
	resp, err := p.conv.Originate(ctx, OpenerPrompt(hours), p.notifier.NotifyOwner)
	if err != nil {
		p.record(OutcomeFailed)
		return fmt.Errorf("proactive message: %w", err)
	}
	p.record(OutcomeSent)
	log.Printf("💬 Proactive message sent [model=%s]: %q", resp.Model, resp.Content)
	return nil
}

func (p *Proactive) record(o Outcome) {
	if p.metrics != nil {
		p.metrics.ProactiveCycles.WithLabelValues(string(o)).Inc()
	}
}

// OpenerPrompt asks for a spontaneous, non-cliché conversation opener.
func OpenerPrompt(hours int) string {
	return fmt.Sprintf("Seninle arkadaşız ve en son %d saat önce konuştuk. "+
		"Sohbeti yeniden açmak için sanki aklına birden bir şey gelmiş gibi kısa, doğal, "+
		"alakasız ya da komik bir mesaj yaz. \"uzun zamandır konuşmadık\" gibi klişe laflar etme. "+
		"Tarz örnekleri: \"aklıma ne geldi lan\", \"rüyamda seni gördüm\", \"canım sıkıldı\". "+
		"Sadece mesajın kendisini yaz:", hours)
}
