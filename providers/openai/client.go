package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/janstenner/NickerchenBot/llm"
	goopenai "github.com/sashabaranov/go-openai"
)

type Client struct {
	api *goopenai.Client
}

// New builds a chat-completions client. endpoint may point at any
// OpenAI-compatible server; empty means the public API.
func New(endpoint, apiKey string, timeout time.Duration) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &Client{api: goopenai.NewClientWithConfig(cfg)}
}

func (c *Client) Chat(ctx context.Context, req llm.Request) (llm.Result, error) {
	start := time.Now()

	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return llm.Result{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.Result{}, fmt.Errorf("openai chat: empty choices")
	}

	return llm.Result{
		Text: strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Duration: time.Since(start),
	}, nil
}
