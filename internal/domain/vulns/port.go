package vulns

import (
	"context"
)

// Repository defines persistence for vulnerabilities
type Repository interface {
	BulkInsert(ctx context.Context, items []*Vulnerability) error
	ListByScan(ctx context.Context, scanID string, risk string, limit int) ([]*Vulnerability, error)
	CountByScan(ctx context.Context, scanID string) (int64, error)
}
