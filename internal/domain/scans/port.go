package scans

import "context"
import "time"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, s *Scan) error
	Get(ctx context.Context, tenant string, id ScanID) (*Scan, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Scan, error)
	Delete(ctx context.Context, tenant string, id ScanID) error
	Summary(ctx context.Context, tenant string, sinceDays int) (Summary, error)

	Paginate(ctx context.Context, tenant string, page, pageSize int, filters map[string]interface{}) (PaginatedResult, error)

	UpdateStatus(ctx context.Context, tenant string, id ScanID, status Status) error
	UpdateResult(ctx context.Context, tenant string, id ScanID, status Status, finishedAt time.Time, counts RiskCounts, reportURL string, durationMS int64) error
}

// Engine port (interface ke scanner eksternal, implementasinya ZAP API)
type Engine interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// ArtifactStore port (interface untuk penyimpanan report)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
}

// Summary is the severity rollup over a window of scans.
type Summary struct {
	TotalScans    int `json:"total_scans"`
	High          int `json:"high"`
	Medium        int `json:"medium"`
	Low           int `json:"low"`
	Informational int `json:"informational"`
}
