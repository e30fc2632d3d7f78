package local

import (
	"context"
	"strings"

	"github.com/bryanwahyu/zapscan/internal/infra/ai/prompt"
)

// Client produces analyses without calling an external provider. It is the
// fallback wired in when no OpenAI API key is configured.
type Client struct{}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Analyze(ctx context.Context, digest string) (string, error) {
	return prompt.AnalyzeDigest(targetFromDigest(digest), digest), nil
}

// targetFromDigest pulls the target URL off the digest's first line.
func targetFromDigest(digest string) string {
	for _, line := range strings.Split(digest, "\n") {
		if rest, ok := strings.CutPrefix(line, "target: "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
