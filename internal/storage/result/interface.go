// internal/storage/result/interface.go
package result

import (
	"context"
	"time"

	"github.com/hika3390/jquants-backtest/internal/backtest"
)

// Record is a persisted backtest run with its metadata.
type Record struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Name      string           `json:"name"`
	Code      string           `json:"code"`
	FromDate  time.Time        `json:"fromDate"`
	ToDate    time.Time        `json:"toDate"`
	CreatedAt time.Time        `json:"createdAt"`
	Result    *backtest.Result `json:"result"`
}

// Store defines the interface for backtest result persistence.
type Store interface {
	// Save persists a record and assigns an ID if empty.
	Save(ctx context.Context, rec *Record) error

	// GetByID retrieves a record owned by the user.
	GetByID(ctx context.Context, userID, id string) (*Record, error)

	// List retrieves records matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]Record, error)

	// Delete removes a record owned by the user.
	Delete(ctx context.Context, userID, id string) error

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing records.
type ListFilter struct {
	UserID string
	Code   string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
