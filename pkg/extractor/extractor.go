// Package extractor implements the merged per-exchange extractor: one LLM
// call covering emotion annotation, importance scoring, relationship signals,
// and an optional story-thread update, with a deterministic rule-based
// fallback that can never fail.
package extractor

import (
	"context"
	"log"
	"time"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/llm"
)

// defaultTimeout bounds the LLM call before falling back to rules.
const defaultTimeout = 8 * time.Second

// Extractor produces one ExtractionResult per exchange.
type Extractor struct {
	// provider is the LLM provider, nil for rules-only extraction.
	provider llm.Provider

	// timeout bounds the LLM call.
	timeout time.Duration
}

// New creates an extractor. A nil provider yields a rules-only extractor.
func New(provider llm.Provider) *Extractor {
	return &Extractor{
		provider: provider,
		timeout:  defaultTimeout,
	}
}

// NewWithTimeout creates an extractor with a custom LLM timeout.
func NewWithTimeout(provider llm.Provider, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Extractor{provider: provider, timeout: timeout}
}

// Extract analyzes one exchange and always returns a structurally valid
// result. LLM failure, timeout, or schema violation silently selects the
// rule-based path; the caller cannot distinguish failure modes except via
// the result's Source field.
func (e *Extractor) Extract(ctx context.Context, userID, userMessage, assistantMessage string) *core.ExtractionResult {
	if e.provider == nil {
		return e.ruleFallback(userID, userMessage)
	}

	llmCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	response, err := e.provider.Complete(llmCtx, extractionSystemPrompt(),
		extractionUserPrompt(userMessage, assistantMessage),
		llm.WithMaxTokens(600), llm.WithTemperature(0.2), llm.WithJSONOnly())
	if err != nil {
		log.Printf("[EXTRACT] llm call failed for %s, using rule fallback: %v", userID, err)
		return e.ruleFallback(userID, userMessage)
	}

	result, err := parseExtractionResponse(userID, response)
	if err != nil {
		log.Printf("[EXTRACT] invalid llm response for %s, using rule fallback: %v", userID, err)
		return e.ruleFallback(userID, userMessage)
	}
	return result
}
