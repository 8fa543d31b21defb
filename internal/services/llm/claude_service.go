package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/common"
	"github.com/ternarybob/precis/internal/interfaces"
	"github.com/ternarybob/precis/internal/models"
)

// ClaudeService implements the SummarizerService interface using the
// Anthropic Claude API.
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// Compile-time interface assertion
var _ interfaces.SummarizerService = (*ClaudeService)(nil)

// NewClaudeService creates a new Claude summarizer instance
func NewClaudeService(claudeConfig *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if claudeConfig.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for Claude service (set via ANTHROPIC_API_KEY, PRECIS_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	// Set default model name if not specified
	if claudeConfig.Model == "" {
		claudeConfig.Model = "claude-haiku-3-5-20241022"
	}

	// Parse timeout duration
	timeout, err := time.ParseDuration(claudeConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", claudeConfig.Timeout, err)
	}

	// Set default max tokens
	maxTokens := claudeConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	client := anthropic.NewClient(
		option.WithAPIKey(claudeConfig.APIKey),
	)

	logger.Debug().
		Str("model", claudeConfig.Model).
		Int("max_tokens", maxTokens).
		Msg("Claude summarizer initialized")

	return &ClaudeService{
		config:    claudeConfig,
		logger:    logger,
		client:    client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

// Summarize generates a summary for the given document text
func (s *ClaudeService) Summarize(ctx context.Context, text string, length models.SummaryLength) (*interfaces.SummaryResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(buildUserPrompt(text, length)),
			),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}
	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	// Extract text from response
	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	if builder.Len() == 0 {
		return nil, fmt.Errorf("no response generated from Claude API")
	}

	summary, confidence := parseConfidence(builder.String())
	return &interfaces.SummaryResult{
		Text:       summary,
		Confidence: confidence,
	}, nil
}

// Close releases the service
func (s *ClaudeService) Close() error {
	s.logger.Debug().Msg("Closing Claude summarizer")
	return nil
}
