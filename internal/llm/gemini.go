package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	defaultAPIKeyEnv = "GEMINI_API_KEY"
	defaultTimeout   = 120 * time.Second
)

// Config describes one Gemini-backed completer.
type Config struct {
	Model     string
	APIKey    string
	APIKeyEnv string
	Timeout   time.Duration
}

// GeminiCompleter implements Completer with the Gemini API. Every call is
// wrapped in a bounded wait so a hung model surfaces as a failed attempt
// instead of stalling the coordinator.
type GeminiCompleter struct {
	cfg    Config
	client *genai.Client
}

// NewGeminiCompleter constructs a completer for the configured model.
func NewGeminiCompleter(ctx context.Context, cfg Config) (*GeminiCompleter, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		envKey := strings.TrimSpace(cfg.APIKeyEnv)
		if envKey == "" {
			envKey = defaultAPIKeyEnv
		}
		apiKey = strings.TrimSpace(os.Getenv(envKey))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required (set api_key or api_key_env)")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiCompleter{
		cfg: Config{
			Model:   model,
			Timeout: timeout,
		},
		client: client,
	}, nil
}

// Complete executes a single generate-content request.
func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	output := strings.TrimSpace(resp.Text())
	if output == "" {
		return "", fmt.Errorf("gemini response did not contain output text")
	}
	return output, nil
}
