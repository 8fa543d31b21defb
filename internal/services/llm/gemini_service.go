package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/common"
	"github.com/ternarybob/precis/internal/interfaces"
	"github.com/ternarybob/precis/internal/models"
	"google.golang.org/genai"
)

// GeminiService implements the SummarizerService interface using the
// Google Gemini API.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// Compile-time interface assertion
var _ interfaces.SummarizerService = (*GeminiService)(nil)

// NewGeminiService creates a new Gemini summarizer instance
func NewGeminiService(geminiConfig *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required for Gemini service (set via GEMINI_API_KEY, PRECIS_GEMINI_API_KEY, or gemini.api_key in config)")
	}

	// Set default model name if not specified
	if geminiConfig.Model == "" {
		geminiConfig.Model = "gemini-2.0-flash"
	}

	// Parse timeout duration
	timeout, err := time.ParseDuration(geminiConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", geminiConfig.Timeout, err)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	logger.Debug().
		Str("model", geminiConfig.Model).
		Msg("Gemini summarizer initialized")

	return &GeminiService{
		config:  geminiConfig,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}, nil
}

// Summarize generates a summary for the given document text
func (s *GeminiService) Summarize(ctx context.Context, text string, length models.SummaryLength) (*interfaces.SummaryResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if s.config.Temperature > 0 {
		config.Temperature = genai.Ptr(s.config.Temperature)
	}

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(buildUserPrompt(text, length))},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.config.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini generation failed: %w", err)
	}

	// Extract text from response, trying candidates until non-empty
	var builder strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					builder.WriteString(part.Text)
				}
			}
			if builder.Len() > 0 {
				break
			}
		}
	}
	if builder.Len() == 0 {
		return nil, fmt.Errorf("no response generated from Gemini API")
	}

	summary, confidence := parseConfidence(builder.String())
	return &interfaces.SummaryResult{
		Text:       summary,
		Confidence: confidence,
	}, nil
}

// Close releases the service
func (s *GeminiService) Close() error {
	s.logger.Debug().Msg("Closing Gemini summarizer")
	return nil
}
