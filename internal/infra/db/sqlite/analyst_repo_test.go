package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	domain "github.com/bryanwahyu/zapscan/internal/domain/analyst"
)

func TestAnalystRepository_SaveAndPaginate(t *testing.T) {
	db := testDB(t)
	repo := NewAnalystRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a1", "a2", "a3"} {
		err := repo.Save(ctx, &domain.Analysis{
			ID:        domain.AnalysisID(id),
			TenantID:  "acme",
			ScanID:    "scan-1",
			TargetURL: "http://t",
			Result:    `{"advice":"fix it"}`,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Save(%s) error: %v", id, err)
		}
	}

	got, err := repo.Paginate(ctx, "acme", 1, 2)
	if err != nil {
		t.Fatalf("Paginate() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "a3" {
		t.Errorf("newest first: got %s", got[0].ID)
	}
}

func TestAnalystRepository_LatestByScan(t *testing.T) {
	db := testDB(t)
	repo := NewAnalystRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a1", "a2"} {
		err := repo.Save(ctx, &domain.Analysis{
			ID:        domain.AnalysisID(id),
			TenantID:  "acme",
			ScanID:    "scan-1",
			Result:    "{}",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	got, err := repo.LatestByScan(ctx, "acme", "scan-1")
	if err != nil {
		t.Fatalf("LatestByScan() error: %v", err)
	}
	if got.ID != "a2" {
		t.Errorf("ID = %s, want a2", got.ID)
	}
}

func TestAnalystRepository_LatestByScan_Missing(t *testing.T) {
	db := testDB(t)
	repo := NewAnalystRepository(db)

	_, err := repo.LatestByScan(context.Background(), "acme", "nope")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("error = %v, want sql.ErrNoRows", err)
	}
}

func TestAnalystRepository_Save_EmptyResultDefaults(t *testing.T) {
	db := testDB(t)
	repo := NewAnalystRepository(db)
	ctx := context.Background()

	if err := repo.Save(ctx, &domain.Analysis{ID: "a1", TenantID: "acme", ScanID: "s"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := repo.LatestByScan(ctx, "acme", "s")
	if err != nil {
		t.Fatalf("LatestByScan() error: %v", err)
	}
	if got.Result != "{}" {
		t.Errorf("Result = %q, want {}", got.Result)
	}
}
