// Package llm defines the chat-completion contract the engine requires from
// language-model providers.
//
// The engine only ever needs one call shape: a system prompt plus a user
// prompt producing one text completion. Providers must be invocable from
// goroutines without blocking the request path.
package llm

import "context"

// Provider is the chat-completion contract.
type Provider interface {
	// Complete generates one completion from a system prompt and user prompt.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - systemPrompt: Instruction prompt ("" for none)
	//   - userPrompt: The user-visible prompt
	//   - opts: Optional generation parameters
	//
	// Returns the completion text and any error.
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts ...CompleteOption) (string, error)

	// Close releases provider resources.
	Close() error
}

// CompleteOptions contains options for completion calls.
type CompleteOptions struct {
	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0).
	Temperature float64

	// JSONOnly asks the provider to return a bare JSON object where the
	// backing API supports a response format parameter.
	JSONOnly bool
}

// CompleteOption configures one completion call.
type CompleteOption func(*CompleteOptions)

// WithMaxTokens limits the response length.
func WithMaxTokens(max int) CompleteOption {
	return func(o *CompleteOptions) {
		o.MaxTokens = max
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) CompleteOption {
	return func(o *CompleteOptions) {
		o.Temperature = temp
	}
}

// WithJSONOnly requests a bare JSON object response.
func WithJSONOnly() CompleteOption {
	return func(o *CompleteOptions) {
		o.JSONOnly = true
	}
}

// ApplyCompleteOptions folds option functions over the defaults
// (MaxTokens=800, Temperature=0.7).
func ApplyCompleteOptions(opts []CompleteOption) *CompleteOptions {
	options := &CompleteOptions{
		MaxTokens:   800,
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
