package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/zapscan/internal/domain/ai"
	"github.com/bryanwahyu/zapscan/internal/domain/analyst"
	"github.com/bryanwahyu/zapscan/internal/domain/vulns"
)

type Service struct {
	Client ai.Client
	Repo   analyst.Repository
}

func NewService(client ai.Client, repo analyst.Repository) *Service {
	return &Service{Client: client, Repo: repo}
}

// AnalyzeAndStore runs the AI client over a findings digest and
// persists the result for later retrieval.
func (s *Service) AnalyzeAndStore(ctx context.Context, tenant, scanID, targetURL string, findings []*vulns.Vulnerability) (*analyst.Analysis, error) {
	digest := BuildDigest(targetURL, findings)

	result, err := s.Client.Analyze(ctx, digest)
	if err != nil {
		return nil, err
	}

	a := &analyst.Analysis{
		ID:        analyst.AnalysisID(uuid.New().String()),
		TenantID:  tenant,
		ScanID:    scanID,
		TargetURL: targetURL,
		Result:    result,
		CreatedAt: time.Now(),
	}
	if err := s.Repo.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAnalyses returns stored analyses page by page.
func (s *Service) ListAnalyses(ctx context.Context, tenant string, page, pageSize int) ([]*analyst.Analysis, error) {
	return s.Repo.Paginate(ctx, tenant, page, pageSize)
}

// LatestForScan returns the most recent analysis of one scan.
func (s *Service) LatestForScan(ctx context.Context, tenant, scanID string) (*analyst.Analysis, error) {
	return s.Repo.LatestByScan(ctx, tenant, scanID)
}

// BuildDigest flattens findings into the compact text block the prompt
// expects. Description bodies are trimmed so the request stays small.
func BuildDigest(targetURL string, findings []*vulns.Vulnerability) string {
	var b strings.Builder
	fmt.Fprintf(&b, "target: %s\nfindings: %d\n", targetURL, len(findings))
	for i, v := range findings {
		if i >= 50 {
			fmt.Fprintf(&b, "... and %d more\n", len(findings)-i)
			break
		}
		fmt.Fprintf(&b, "- [%s/%s] %s at %s", v.Risk, v.Confidence, v.Name, v.URL)
		if v.Param != "" {
			fmt.Fprintf(&b, " (param %s)", v.Param)
		}
		if v.CWEID > 0 {
			fmt.Fprintf(&b, " CWE-%d", v.CWEID)
		}
		b.WriteString("\n")
	}
	return b.String()
}
