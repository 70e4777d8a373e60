// internal/storage/archive/archiver.go
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/hika3390/jquants-backtest/internal/core"
	"github.com/hika3390/jquants-backtest/internal/storage/result"
)

// Archiver writes completed run snapshots to a cold storage backend as
// JSON, keyed by user and record ID.
type Archiver struct {
	backend Backend
}

// NewArchiver creates an archiver over the given backend.
func NewArchiver(backend Backend) *Archiver {
	return &Archiver{backend: backend}
}

func snapshotPath(userID, id string) string {
	return path.Join("results", userID, id+".json")
}

// Archive stores a snapshot of the record.
func (a *Archiver) Archive(ctx context.Context, rec *result.Record) error {
	if rec.ID == "" || rec.UserID == "" {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("record missing id or user"))
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("marshal snapshot: %w", err))
	}

	if err := a.backend.Write(ctx, snapshotPath(rec.UserID, rec.ID), data); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("write snapshot: %w", err))
	}
	return nil
}

// Load reads a previously archived snapshot.
func (a *Archiver) Load(ctx context.Context, userID, id string) (*result.Record, error) {
	p := snapshotPath(userID, id)

	exists, err := a.backend.Exists(ctx, p)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	if !exists {
		return nil, core.ErrResultNotFound
	}

	data, err := a.backend.Read(ctx, p)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("read snapshot: %w", err))
	}

	var rec result.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("unmarshal snapshot: %w", err))
	}
	return &rec, nil
}

// Remove deletes an archived snapshot. Missing snapshots are not an error.
func (a *Archiver) Remove(ctx context.Context, userID, id string) error {
	p := snapshotPath(userID, id)

	exists, err := a.backend.Exists(ctx, p)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if !exists {
		return nil
	}

	if err := a.backend.Delete(ctx, p); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("delete snapshot: %w", err))
	}
	return nil
}

// ListUser returns the record IDs archived for a user.
func (a *Archiver) ListUser(ctx context.Context, userID string) ([]string, error) {
	paths, err := a.backend.List(ctx, path.Join("results", userID))
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}

	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		base := path.Base(p)
		ids = append(ids, strings.TrimSuffix(base, ".json"))
	}
	return ids, nil
}
