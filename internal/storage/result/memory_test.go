package result

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hika3390/jquants-backtest/internal/backtest"
	"github.com/hika3390/jquants-backtest/internal/core"
)

func testRecord(userID, code string) *Record {
	return &Record{
		UserID:   userID,
		Name:     "test run",
		Code:     code,
		FromDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ToDate:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Result: &backtest.Result{
			InitialCash: 1000000,
			FinalEquity: 1100000,
			TotalReturn: 10,
		},
	}
}

func TestMemoryStore_SaveAssignsID(t *testing.T) {
	store := NewMemoryStore(10)
	rec := testRecord("user1", "7203")

	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestMemoryStore_GetByID(t *testing.T) {
	store := NewMemoryStore(10)
	rec := testRecord("user1", "7203")
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByID(context.Background(), "user1", rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Code != "7203" {
		t.Errorf("Code = %q, want 7203", got.Code)
	}
	if got.Result.TotalReturn != 10 {
		t.Errorf("TotalReturn = %f, want 10", got.Result.TotalReturn)
	}

	// Another user must not see it
	if _, err := store.GetByID(context.Background(), "user2", rec.ID); !errors.Is(err, core.ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound for wrong user, got %v", err)
	}

	if _, err := store.GetByID(context.Background(), "user1", "missing"); !errors.Is(err, core.ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound, got %v", err)
	}
}

func TestMemoryStore_ListFilterAndOrder(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for i, code := range []string{"7203", "9984", "7203"} {
		rec := testRecord("user1", code)
		rec.CreatedAt = time.Date(2024, 7, 1+i, 0, 0, 0, 0, time.UTC)
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	other := testRecord("user2", "7203")
	if err := store.Save(ctx, other); err != nil {
		t.Fatalf("Save: %v", err)
	}

	records, err := store.List(ctx, ListFilter{UserID: "user1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	// Newest first
	if !records[0].CreatedAt.After(records[1].CreatedAt) {
		t.Error("expected newest-first ordering")
	}

	records, err = store.List(ctx, ListFilter{UserID: "user1", Code: "7203"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records for code 7203, got %d", len(records))
	}
}

func TestMemoryStore_ListPagination(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := testRecord("user1", fmt.Sprintf("%04d", 7200+i))
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	records, err := store.List(ctx, ListFilter{UserID: "user1", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}

	records, err = store.List(ctx, ListFilter{UserID: "user1", Offset: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records past end, got %d", len(records))
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	rec := testRecord("user1", "7203")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Wrong user cannot delete
	if err := store.Delete(ctx, "user2", rec.ID); !errors.Is(err, core.ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound for wrong user, got %v", err)
	}

	if err := store.Delete(ctx, "user1", rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, "user1", rec.ID); !errors.Is(err, core.ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound after delete, got %v", err)
	}
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		rec := testRecord("user1", "7203")
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	if _, err := store.GetByID(ctx, "user1", ids[0]); !errors.Is(err, core.ErrResultNotFound) {
		t.Errorf("expected oldest record to be evicted, got %v", err)
	}
	if _, err := store.GetByID(ctx, "user1", ids[2]); err != nil {
		t.Errorf("expected newest record to survive, got %v", err)
	}
}

func TestMemoryStore_Count(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for _, code := range []string{"7203", "9984"} {
		if err := store.Save(ctx, testRecord("user1", code)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	n, err := store.Count(ctx, ListFilter{UserID: "user1"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}

	n, err = store.Count(ctx, ListFilter{UserID: "user1", Code: "9984"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}
