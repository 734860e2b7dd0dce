package api

import (
	"context"

	"seo-keywords/pkg/keyword"
)

// IdeaClient issues one keyword-ideas lookup for a single seed phrase. The
// returned ideas carry text and metrics; SourcePhrase and Date are filled in
// by the Fetcher.
type IdeaClient interface {
	GenerateIdeas(ctx context.Context, phrase string) ([]keyword.Idea, error)
}

// IdeaClientFunc adapts a function to IdeaClient
type IdeaClientFunc func(ctx context.Context, phrase string) ([]keyword.Idea, error)

func (f IdeaClientFunc) GenerateIdeas(ctx context.Context, phrase string) ([]keyword.Idea, error) {
	return f(ctx, phrase)
}
