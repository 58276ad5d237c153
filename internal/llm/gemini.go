package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when a provider answers without any text,
// e.g. when a safety filter blocked the candidate.
var ErrEmptyResponse = errors.New("llm returned empty response")

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// WithModel returns a client sharing the same connection but targeting another model.
func (c *GeminiClient) WithModel(model string) *GeminiClient {
	return &GeminiClient{client: c.client, model: model}
}

func (c *GeminiClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	system, contents := toGeminiContents(messages)
	if len(contents) == 0 {
		return Response{}, errors.New("gemini: no conversation content to send")
	}
	var cfg *genai.GenerateContentConfig
	if system != nil {
		cfg = &genai.GenerateContentConfig{SystemInstruction: system}
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return Response{}, ErrEmptyResponse
	}
	out := Response{Content: text, Model: c.model}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}

// toGeminiContents splits system messages into the system instruction and
// merges consecutive messages of the same role into one content block.
func toGeminiContents(messages []Message) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	var contents []*genai.Content
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.NewPartFromText(m.Content))
			continue
		}
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		if n := len(contents); n > 0 && contents[n-1].Role == string(role) {
			contents[n-1].Parts = append(contents[n-1].Parts, genai.NewPartFromText(m.Content))
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return system, contents
}
