package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bryanwahyu/zapscan/internal/domain/analyst"
	"github.com/bryanwahyu/zapscan/internal/domain/vulns"
)

type fakeClient struct {
	result string
	err    error
	digest string
}

func (c *fakeClient) Analyze(ctx context.Context, digest string) (string, error) {
	c.digest = digest
	if c.err != nil {
		return "", c.err
	}
	return c.result, nil
}

type fakeAnalystRepo struct {
	saved []*analyst.Analysis
	err   error
}

func (r *fakeAnalystRepo) Save(ctx context.Context, a *analyst.Analysis) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, a)
	return nil
}

func (r *fakeAnalystRepo) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*analyst.Analysis, error) {
	return r.saved, nil
}

func (r *fakeAnalystRepo) LatestByScan(ctx context.Context, tenant string, scanID string) (*analyst.Analysis, error) {
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].ScanID == scanID {
			return r.saved[i], nil
		}
	}
	return nil, errors.New("not found")
}

func sampleFindings() []*vulns.Vulnerability {
	return []*vulns.Vulnerability{
		{Name: "SQL Injection", Risk: "High", Confidence: "Medium", URL: "http://t/?id=1", Param: "id", CWEID: 89},
		{Name: "X-Frame-Options Header Not Set", Risk: "Medium", Confidence: "Medium", URL: "http://t/"},
	}
}

func TestAnalyzeAndStore(t *testing.T) {
	client := &fakeClient{result: `{"advice":"fix the injection first"}`}
	repo := &fakeAnalystRepo{}
	svc := NewService(client, repo)

	a, err := svc.AnalyzeAndStore(context.Background(), "acme", "scan-1", "http://t", sampleFindings())
	if err != nil {
		t.Fatalf("AnalyzeAndStore() error: %v", err)
	}
	if a.ID == "" {
		t.Error("analysis should get an ID")
	}
	if a.TenantID != "acme" || a.ScanID != "scan-1" || a.TargetURL != "http://t" {
		t.Errorf("analysis = %+v", a)
	}
	if a.Result != client.result {
		t.Errorf("result = %q", a.Result)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("saved = %d rows", len(repo.saved))
	}
	if !strings.HasPrefix(client.digest, "target: http://t\n") {
		t.Errorf("digest = %q", client.digest)
	}
}

func TestAnalyzeAndStore_ClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("provider down")}
	repo := &fakeAnalystRepo{}
	svc := NewService(client, repo)

	if _, err := svc.AnalyzeAndStore(context.Background(), "acme", "scan-1", "http://t", nil); err == nil {
		t.Fatal("expected error")
	}
	if len(repo.saved) != 0 {
		t.Error("nothing should be persisted when the client fails")
	}
}

func TestBuildDigest(t *testing.T) {
	digest := BuildDigest("http://t", sampleFindings())

	lines := strings.Split(strings.TrimRight(digest, "\n"), "\n")
	if lines[0] != "target: http://t" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "findings: 2" {
		t.Errorf("line 1 = %q", lines[1])
	}
	if lines[2] != "- [High/Medium] SQL Injection at http://t/?id=1 (param id) CWE-89" {
		t.Errorf("line 2 = %q", lines[2])
	}
	if lines[3] != "- [Medium/Medium] X-Frame-Options Header Not Set at http://t/" {
		t.Errorf("line 3 = %q", lines[3])
	}
}

func TestBuildDigest_CapsAtFifty(t *testing.T) {
	findings := make([]*vulns.Vulnerability, 60)
	for i := range findings {
		findings[i] = &vulns.Vulnerability{Name: fmt.Sprintf("Finding %d", i), Risk: "Low", Confidence: "Low", URL: "http://t/"}
	}

	digest := BuildDigest("http://t", findings)
	if !strings.Contains(digest, "... and 10 more\n") {
		t.Errorf("digest should truncate at 50 entries:\n%s", digest)
	}
	if got := strings.Count(digest, "- ["); got != 50 {
		t.Errorf("listed findings = %d, want 50", got)
	}
}
