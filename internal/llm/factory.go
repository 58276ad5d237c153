package llm

import (
	"context"
	"fmt"

	"companion-bot/internal/config"
)

// Clients bundles the chat client and the one used for proactive openers.
// Proactive equals Chat unless PROACTIVE_MODEL selects a separate model.
type Clients struct {
	Provider  string
	Chat      Client
	Proactive Client
}

func NewClients(ctx context.Context, cfg *config.Config) (Clients, error) {
	out := Clients{Provider: string(cfg.LLMProvider)}
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		c, err := NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return Clients{}, err
		}
		out.Chat, out.Proactive = c, c
		if cfg.ProactiveModel != "" {
			out.Proactive = c.WithModel(cfg.ProactiveModel)
		}
	case config.ProviderOpenAI:
		c := NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenRouterReferrer, cfg.OpenRouterTitle)
		out.Chat, out.Proactive = c, c
		if cfg.ProactiveModel != "" {
			out.Proactive = c.WithModel(cfg.ProactiveModel)
		}
	case config.ProviderYandex:
		c, err := NewYandex(cfg.YandexOAuthToken, cfg.YandexFolderID)
		if err != nil {
			return Clients{}, err
		}
		// yagpt has a single model per folder
		out.Chat, out.Proactive = c, c
	default:
		return Clients{}, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
	return out, nil
}
