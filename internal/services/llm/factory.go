package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/common"
	"github.com/ternarybob/precis/internal/interfaces"
)

// NewSummarizer creates the summarizer implementation selected by configuration
func NewSummarizer(cfg *common.Config, logger arbor.ILogger) (interfaces.SummarizerService, error) {
	logger.Info().Str("provider", string(cfg.LLM.DefaultProvider)).Msg("Initializing summarizer service")

	switch cfg.LLM.DefaultProvider {
	case common.LLMProviderClaude:
		return NewClaudeService(&cfg.Claude, logger)
	case common.LLMProviderGemini:
		return NewGeminiService(&cfg.Gemini, logger)
	default:
		return nil, fmt.Errorf("unsupported summarizer provider: %s", cfg.LLM.DefaultProvider)
	}
}
