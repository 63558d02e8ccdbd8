// Package indexer keeps the persistent row index in step with the booking dataset.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/frontdesk/internal/dataset"
	"github.com/hyperjump/frontdesk/internal/embedding"
	"github.com/hyperjump/frontdesk/internal/keyword"
	"github.com/hyperjump/frontdesk/internal/models"
	"github.com/hyperjump/frontdesk/internal/storage"
	"go.uber.org/zap"
)

const (
	metaKeySourceMtime = "source_mtime:"
	metaKeyEmbedModel  = "embed_model:"
	metaKeyIndexedAt   = "indexed_at:"
)

// Outcome describes what EnsureIndex did.
type Outcome string

const (
	// OutcomeFresh means the stored index already matched the dataset.
	OutcomeFresh Outcome = "fresh"
	// OutcomeRebuilt means every row was re-embedded and replaced.
	OutcomeRebuilt Outcome = "rebuilt"
	// OutcomeMissing means the dataset file does not exist yet.
	OutcomeMissing Outcome = "missing"
	// OutcomeEmpty means the dataset has no rows; the stored index is left alone.
	OutcomeEmpty Outcome = "empty"
)

// Report summarizes one EnsureIndex call.
type Report struct {
	Path      string        `json:"path"`
	Outcome   Outcome       `json:"outcome"`
	Rows      int           `json:"rows"`
	RebuildID string        `json:"rebuild_id,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Indexer rebuilds the row index for a dataset path when the file or the embedding model
// changes.
type Indexer struct {
	storage  storage.Storage
	embedder embedding.Embedder
	logger   *zap.Logger
	mu       sync.Mutex
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for rebuild events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// NewIndexer creates an indexer that embeds rows with embedder and persists them to store.
func NewIndexer(store storage.Storage, embedder embedding.Embedder, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:  store,
		embedder: embedder,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// SourceKey returns the key rows for path are stored under.
func SourceKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	return abs, nil
}

// EnsureIndex rebuilds the index for sourcePath unless the stored modification time and
// model id match and rows are present. A missing file or an empty dataset is not an error.
// On an embedding failure nothing is written, so the next call retries.
func (idx *Indexer) EnsureIndex(ctx context.Context, sourcePath string) (*Report, error) {
	return idx.ensure(ctx, sourcePath, false)
}

// Rebuild re-embeds sourcePath even when the stored index is current.
func (idx *Indexer) Rebuild(ctx context.Context, sourcePath string) (*Report, error) {
	return idx.ensure(ctx, sourcePath, true)
}

func (idx *Indexer) ensure(ctx context.Context, sourcePath string, force bool) (*Report, error) {
	start := time.Now()
	key, err := SourceKey(sourcePath)
	if err != nil {
		return nil, err
	}
	report := &Report{Path: key}

	info, err := os.Stat(key)
	if err != nil || !info.Mode().IsRegular() {
		idx.logger.Debug("dataset not found, nothing to index", zap.String("path", key))
		report.Outcome = OutcomeMissing
		return report, nil
	}
	mtime := strconv.FormatInt(info.ModTime().UnixNano(), 10)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !force {
		fresh, count, err := idx.isFresh(ctx, key, mtime)
		if err != nil {
			return nil, err
		}
		if fresh {
			report.Outcome = OutcomeFresh
			report.Rows = int(count)
			report.Duration = time.Since(start)
			return report, nil
		}
	}

	snap, err := dataset.Load(key)
	if errors.Is(err, dataset.ErrNoHeader) || (err == nil && snap.Len() == 0) {
		idx.logger.Info("dataset is empty, index left unchanged", zap.String("path", key))
		report.Outcome = OutcomeEmpty
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	report.RebuildID = uuid.New().String()
	idx.logger.Info("rebuilding row index",
		zap.String("path", key),
		zap.Int("rows", snap.Len()),
		zap.String("model", idx.embedder.Model()),
		zap.String("rebuild_id", report.RebuildID),
	)

	rows := make([]*models.IndexedRow, snap.Len())
	texts := make([]string, snap.Len())
	for i, r := range snap.Rows {
		texts[i] = RowText(r)
		rows[i] = &models.IndexedRow{Position: i, Row: r, Text: texts[i]}
	}
	vectors, err := idx.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(rows) {
		return nil, fmt.Errorf("got %d embeddings for %d rows", len(vectors), len(rows))
	}
	for i := range rows {
		rows[i].Embedding = vectors[i]
	}

	meta := map[string]string{
		metaKeySourceMtime + key: mtime,
		metaKeyEmbedModel + key:  idx.embedder.Model(),
	}
	if err := idx.storage.ReplaceRows(ctx, key, rows, meta); err != nil {
		return nil, fmt.Errorf("failed to store rows: %w", err)
	}
	// indexed_at is informational; staleness only reads the keys written above.
	if err := idx.storage.SetMeta(ctx, metaKeyIndexedAt+key, time.Now().UTC().Format(time.RFC3339)); err != nil {
		idx.logger.Warn("failed to record index time", zap.String("path", key), zap.Error(err))
	}

	report.Outcome = OutcomeRebuilt
	report.Rows = len(rows)
	report.Duration = time.Since(start)
	idx.logger.Info("row index rebuilt",
		zap.String("path", key),
		zap.Int("rows", report.Rows),
		zap.Duration("duration", report.Duration),
		zap.String("rebuild_id", report.RebuildID),
	)
	return report, nil
}

// Drop deletes the rows stored for sourcePath and clears its staleness metadata, so the
// next EnsureIndex rebuilds from scratch. The dataset file is not touched.
func (idx *Indexer) Drop(ctx context.Context, sourcePath string) error {
	key, err := SourceKey(sourcePath)
	if err != nil {
		return err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.storage.DeleteRows(ctx, key); err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}
	for _, prefix := range []string{metaKeySourceMtime, metaKeyEmbedModel, metaKeyIndexedAt} {
		if err := idx.storage.SetMeta(ctx, prefix+key, ""); err != nil {
			return err
		}
	}
	idx.logger.Info("row index dropped", zap.String("path", key))
	return nil
}

func (idx *Indexer) isFresh(ctx context.Context, key, mtime string) (bool, int64, error) {
	storedMtime, ok, err := idx.storage.GetMeta(ctx, metaKeySourceMtime+key)
	if err != nil || !ok || storedMtime != mtime {
		return false, 0, err
	}
	storedModel, ok, err := idx.storage.GetMeta(ctx, metaKeyEmbedModel+key)
	if err != nil || !ok || storedModel != idx.embedder.Model() {
		return false, 0, err
	}
	count, err := idx.storage.CountRows(ctx, key)
	if err != nil {
		return false, 0, err
	}
	return count > 0, count, nil
}

// LoadIndex returns the stored rows for sourcePath with token sets and dates derived.
func (idx *Indexer) LoadIndex(ctx context.Context, sourcePath string) ([]*models.IndexedRow, error) {
	key, err := SourceKey(sourcePath)
	if err != nil {
		return nil, err
	}
	rows, err := idx.storage.LoadRows(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load rows: %w", err)
	}
	for _, r := range rows {
		r.Tokens = keyword.TokenSet(r.Text)
		r.ParsedAt, r.HasDate = r.Row.Date()
	}
	return rows, nil
}

// IndexedAt returns when sourcePath was last rebuilt, if ever.
func (idx *Indexer) IndexedAt(ctx context.Context, sourcePath string) (time.Time, bool) {
	key, err := SourceKey(sourcePath)
	if err != nil {
		return time.Time{}, false
	}
	v, ok, err := idx.storage.GetMeta(ctx, metaKeyIndexedAt+key)
	if err != nil || !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RowText renders the canonical descriptive text for a row: "field: value" pairs for
// every known field in order, joined by "; ".
func RowText(r models.Row) string {
	parts := make([]string, len(models.KnownFields))
	for i, f := range models.KnownFields {
		parts[i] = f + ": " + r.Get(f)
	}
	return strings.Join(parts, "; ")
}
