// Package genai provides the free-text Q&A collaborator backed by the OpenAI
// API. After the questionnaire completes, messages that are not commands are
// answered here with the user's profile summary as context.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// systemPrompt frames the assistant as the coaching bot. Replies are kept
// short because the channel is WhatsApp.
const systemPrompt = "Você é o assistente do Mete o Shape, um serviço de " +
	"acompanhamento de nutrição e treino pelo WhatsApp. Responda em português, " +
	"de forma curta e prática, sempre dentro do contexto de alimentação, " +
	"hidratação e treino. O perfil do usuário segue abaixo.\n\n"

// Asker is the contract the conversation flow depends on. A nil Asker or an
// error answer means "unavailable" and the flow falls back to a static reply.
type Asker interface {
	Ask(ctx context.Context, question, profileContext string) (string, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  openai.ChatModel
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding $OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithModel overrides the chat model used for answers.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// Client wraps the OpenAI chat completion API.
type Client struct {
	client openai.Client
	model  openai.ChatModel
}

// NewClient initializes a GenAI client. The API key comes from options or the
// OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	slog.Debug("GenAI client created", "model", cfg.Model)
	return &Client{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
	}, nil
}

// Ask answers a free-text question with the user's profile as context.
func (c *Client) Ask(ctx context.Context, question, profileContext string) (string, error) {
	slog.Debug("GenAI Ask invoked", "question_length", len(question))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt + profileContext),
			openai.UserMessage(question),
		},
	})
	if err != nil {
		slog.Error("GenAI Ask request failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("GenAI Ask returned no choices")
		return "", fmt.Errorf("no choices returned")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("empty answer returned")
	}
	slog.Debug("GenAI Ask succeeded", "answer_length", len(answer))
	return answer, nil
}
