package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Morwran/yagpt"
)

type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	// Exchange the OAuth token for an IAM token
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, toYandexMessages(messages))
	if err != nil {
		return Response{}, fmt.Errorf("yagpt completion failed: %w", err)
	}
	if resp == nil {
		return Response{}, ErrEmptyResponse
	}
	alternatives := make([]string, 0, len(resp.Alternatives))
	for _, a := range resp.Alternatives {
		alternatives = append(alternatives, a.Message.Content)
	}
	content, err := firstAlternative(alternatives)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Content:          content,
		Model:            yagpt.YaModelLite,
		PromptTokens:     int(resp.Usage.InputTextTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}

func toYandexMessages(messages []Message) []yagpt.Message {
	out := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, yagpt.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// firstAlternative picks the answer YandexGPT ranks first.
func firstAlternative(alternatives []string) (string, error) {
	if len(alternatives) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(alternatives[0])
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
