package ai

import "context"

// Client reviews a scan's findings digest and returns a JSON analysis.
type Client interface {
	Analyze(ctx context.Context, digest string) (string, error)
}
