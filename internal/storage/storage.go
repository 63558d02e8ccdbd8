// Package storage persists indexed booking rows and index metadata.
package storage

import (
	"context"

	"github.com/hyperjump/frontdesk/internal/models"
)

// Storage holds indexed rows scoped by source path plus small string metadata.
type Storage interface {
	// ReplaceRows deletes every row stored for sourcePath, inserts rows and writes meta,
	// all in one transaction.
	ReplaceRows(ctx context.Context, sourcePath string, rows []*models.IndexedRow, meta map[string]string) error
	// LoadRows returns the rows stored for sourcePath in position order. Only Position,
	// Row, Text and Embedding are populated.
	LoadRows(ctx context.Context, sourcePath string) ([]*models.IndexedRow, error)
	DeleteRows(ctx context.Context, sourcePath string) error
	CountRows(ctx context.Context, sourcePath string) (int64, error)
	ListSources(ctx context.Context) ([]SourceStats, error)

	GetMeta(ctx context.Context, key string) (string, bool, error)
	SetMeta(ctx context.Context, key, value string) error

	Close() error
}

// SourceStats describes the rows stored for one source path.
type SourceStats struct {
	Path string `json:"path"`
	Rows int64  `json:"rows"`
}
