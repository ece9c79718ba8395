package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiConfig configures GeminiClient.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiClient implements Client on top of the Google GenAI SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini client. An empty API key yields a client whose
// Generate always fails with ErrNotConfigured; no SDK client is created.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	c := &GeminiClient{model: model, timeout: cfg.Timeout, logger: logger}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.client = client
	return c, nil
}

// Configured reports whether an API key was supplied.
func (c *GeminiClient) Configured() bool {
	return c.client != nil
}

// Model returns the fixed model identifier.
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate sends the request and returns the concatenated text of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("%w: request has no messages", ErrUpstream)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, toContents(req), config)
	if err != nil {
		c.logger.Error("Model call failed", "model", c.model, "error", err, "duration", time.Since(start))
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}

	c.logger.Debug("Model call completed",
		"model", c.model,
		"messages", len(req.Messages),
		"json", req.JSON,
		"response_length", len(text),
		"duration", time.Since(start),
	)
	return text, nil
}

// toContents maps the ordered history onto GenAI contents. Attachments ride
// along with the final message.
func toContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.Messages))
	last := len(req.Messages) - 1
	for i, msg := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == RoleAssistant {
			role = genai.Role(genai.RoleModel)
		}

		parts := []*genai.Part{genai.NewPartFromText(msg.Content)}
		if i == last {
			for _, att := range req.Attachments {
				parts = append(parts, genai.NewPartFromBytes(att.Data, att.MIMEType))
			}
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents
}
