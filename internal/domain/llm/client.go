package llm

import "context"

// Client completes a single prompt with a language model.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
