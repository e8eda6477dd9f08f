package tools

import (
	"context"

	"ai-jobanalyzer-be/pkg/llm"
)

// ProviderCompletion adapts an llm.LLMProvider to the Completion capability.
type ProviderCompletion struct {
	Provider llm.LLMProvider
}

var _ Completion = &ProviderCompletion{}

func NewProviderCompletion(provider llm.LLMProvider) *ProviderCompletion {
	return &ProviderCompletion{Provider: provider}
}

func (p *ProviderCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	return p.Provider.Generate(ctx, prompt)
}
