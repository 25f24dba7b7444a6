package llm

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// Client is the narrow contract the orchestrator depends on for text
// generation. Implementations must never fail just because credentials are
// absent; NewClient handles that by handing out the deterministic mock.
type Client interface {
	// Generate returns the full completion for a prompt. ragContext carries
	// retrieved policy snippets and may be empty.
	Generate(ctx context.Context, prompt, systemPrompt, ragContext string) (string, error)
	// GenerateStream emits the completion incrementally. The channel is
	// closed when generation finishes.
	GenerateStream(ctx context.Context, prompt, systemPrompt, ragContext string) (<-chan string, error)
}

// Config selects and configures a provider. The zero value yields the mock
// client, which keeps demo and test environments working offline.
type Config struct {
	Provider string // "openai", "anthropic", "groq" or "" for mock
	APIKey   string
	Model    string
}

// NewClient builds a Client for the configured provider. Provider selection
// happens once, here; the orchestrator receives the result by injection and
// never consults global state.
func NewClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return NewMockClient(), nil
	}
	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{openai.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, err
		}
		return &langchainClient{model: model}, nil
	case "groq":
		// Groq exposes an OpenAI-compatible API.
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithBaseURL(groqBaseURL)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, err
		}
		return &langchainClient{model: model}, nil
	case "anthropic":
		opts := []anthropic.Option{anthropic.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		model, err := anthropic.New(opts...)
		if err != nil {
			return nil, err
		}
		return &langchainClient{model: model}, nil
	default:
		return NewMockClient(), nil
	}
}

// langchainClient adapts any langchaingo model to the Client contract.
type langchainClient struct {
	model llms.Model
}

func (c *langchainClient) Generate(ctx context.Context, prompt, systemPrompt, ragContext string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, buildMessages(prompt, systemPrompt, ragContext),
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(2000),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

func (c *langchainClient) GenerateStream(ctx context.Context, prompt, systemPrompt, ragContext string) (<-chan string, error) {
	out := make(chan string)
	go func() {
		defer close(out)
		_, err := c.model.GenerateContent(ctx, buildMessages(prompt, systemPrompt, ragContext),
			llms.WithTemperature(0.7),
			llms.WithMaxTokens(2000),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				select {
				case out <- string(chunk):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}),
		)
		if err != nil {
			// The consumer sees a closed channel; the error surfaces on the
			// non-streaming path, which is what the orchestrator persists.
			return
		}
	}()
	return out, nil
}

func buildMessages(prompt, systemPrompt, ragContext string) []llms.MessageContent {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
	}
	if ragContext != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman,
			"Use the following company policy context to inform your response:\n\n"+ragContext))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))
	return messages
}
