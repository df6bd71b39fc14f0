package port

import (
	"context"
	"mediabot/internal/core/domain"
)

// Result is one item returned by an integration search.
type Result interface {
	// Label returns the display string shown in result listings.
	Label() string
}

// Integration is a third-party capability commands declare by registry
// name. Search and Resolve form the shared contract; concrete
// integrations expose richer typed methods that commands use directly.
type Integration interface {
	Search(ctx context.Context, query string) ([]Result, error)
	// Resolve turns a search result into playable media. Integrations
	// whose results are not media fail with domain.ErrNotPlayable.
	Resolve(ctx context.Context, result Result) (domain.Media, error)
}
