package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tomenglish23/healthcare-certs-rag/message"
	"github.com/tomenglish23/healthcare-certs-rag/provider"
)

// Provider implements provider.Completer for Google Gemini models.
type Provider struct {
	config *provider.Config
	client *genai.Client
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *provider.Config {
	return &provider.Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxTokens:   2048,
		Temperature: 0,
	}
}

// New creates a new Gemini provider using the official SDK.
func New(ctx context.Context, config *provider.Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Provider{
		config: config,
		client: client,
	}, nil
}

// Generate implements provider.Completer.
func (p *Provider) Generate(ctx context.Context, messages []*message.Message) (*message.Message, error) {
	model := p.client.GenerativeModel(p.config.Model)
	if p.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(p.config.MaxTokens))
	}
	model.SetTemperature(float32(p.config.Temperature))

	// Gemini takes system instructions out of band; the rest of the
	// conversation is flattened into a single prompt.
	var systemParts []string
	var userParts []string
	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			systemParts = append(systemParts, msg.Content)
		default:
			userParts = append(userParts, msg.Content)
		}
	}
	if len(systemParts) > 0 {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(systemParts, "\n"))},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(strings.Join(userParts, "\n\n")))
	if err != nil {
		return nil, provider.Classify("gemini.generate", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, provider.Classify("gemini.generate", fmt.Errorf("no candidates returned"))
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}

	return message.NewMessage(message.RoleAssistant, out.String()), nil
}

// Close releases the underlying API client.
func (p *Provider) Close() error {
	return p.client.Close()
}
