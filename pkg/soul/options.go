package soul

import (
	"time"

	"github.com/soulmesh/soulmem-go/pkg/recall"
)

// RecallOption configures one recall call.
type RecallOption func(*recall.Options)

// WithTopK bounds each memory source's result count.
func WithTopK(topK int) RecallOption {
	return func(o *recall.Options) {
		o.TopK = topK
	}
}

// WithOwner selects the owner partition for long-term memories.
func WithOwner() RecallOption {
	return func(o *recall.Options) {
		o.IsOwner = true
	}
}

// WithTimeout overrides the outer recall deadline.
func WithTimeout(timeout time.Duration) RecallOption {
	return func(o *recall.Options) {
		o.Timeout = timeout
	}
}

// applyRecallOptions folds option functions over the zero options; the recall
// engine applies its own defaults for unset fields.
func applyRecallOptions(opts []RecallOption) recall.Options {
	var options recall.Options
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
