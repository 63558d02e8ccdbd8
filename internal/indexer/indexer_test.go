package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/frontdesk/internal/embedding"
	"github.com/hyperjump/frontdesk/internal/models"
	"github.com/hyperjump/frontdesk/internal/storage"
	"go.uber.org/zap"
)

const sampleCSV = `date,room_number,room_type,status
2025-06-10,12,Queen,Available
2025-06-10,5,Twin,Occupied
2025-06-11,7,Queen,Available
2025-06-11,8,Family Room,Vacant
bad-date,9,Twin,Available
`

func testIndexer(t *testing.T, e embedding.Embedder) (*Indexer, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewIndexer(store, e, WithLogger(zap.NewNop())), store
}

func writeCSV(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestEnsureIndex_buildThenSkip(t *testing.T) {
	mock := embedding.NewMockEmbedder(16)
	idx, _ := testIndexer(t, embedding.NewBatcher(mock, 2, 0))
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rooms.csv")
	writeCSV(t, path, sampleCSV, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	report, err := idx.EnsureIndex(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Outcome != OutcomeRebuilt || report.Rows != 5 || report.RebuildID == "" {
		t.Errorf("first report = %+v", report)
	}
	if mock.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3 batches of at most 2", mock.Calls())
	}

	report, err = idx.EnsureIndex(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Outcome != OutcomeFresh || report.Rows != 5 {
		t.Errorf("second report = %+v", report)
	}
	if mock.Calls() != 3 {
		t.Errorf("unchanged dataset must not call the embedder again, Calls() = %d", mock.Calls())
	}
	if _, ok := idx.IndexedAt(ctx, path); !ok {
		t.Error("IndexedAt should be recorded")
	}
}

func TestEnsureIndex_mtimeChangeReplacesRows(t *testing.T) {
	mock := embedding.NewMockEmbedder(16)
	idx, store := testIndexer(t, mock)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rooms.csv")
	writeCSV(t, path, sampleCSV, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if _, err := idx.EnsureIndex(ctx, path); err != nil {
		t.Fatal(err)
	}

	writeCSV(t, path, "date,room_number,room_type,status\n2025-07-01,99,Suite,Available\n",
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	report, err := idx.EnsureIndex(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Outcome != OutcomeRebuilt {
		t.Fatalf("outcome = %s, want rebuilt", report.Outcome)
	}
	key, _ := SourceKey(path)
	if n, _ := store.CountRows(ctx, key); n != 1 {
		t.Errorf("CountRows = %d, old rows should be gone", n)
	}
	rows, err := idx.LoadIndex(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].Row.Get("room_number") != "99" {
		t.Errorf("row = %v", rows[0].Row)
	}
}

func TestEnsureIndex_modelChangeForcesRebuild(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rooms.csv")
	writeCSV(t, path, sampleCSV, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := NewIndexer(store, embedding.NewMockEmbedder(8).WithModel("small")).EnsureIndex(ctx, path); err != nil {
		t.Fatal(err)
	}
	large := embedding.NewMockEmbedder(8).WithModel("large")
	report, err := NewIndexer(store, large).EnsureIndex(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Outcome != OutcomeRebuilt || large.Calls() != 1 {
		t.Errorf("report = %+v, calls = %d", report, large.Calls())
	}
}

func TestEnsureIndex_embeddingFailureWritesNothing(t *testing.T) {
	mock := embedding.NewMockEmbedder(16)
	idx, store := testIndexer(t, mock)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rooms.csv")
	writeCSV(t, path, sampleCSV, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	mock.FailWith(errors.New("rate limited"))
	if _, err := idx.EnsureIndex(ctx, path); err == nil {
		t.Fatal("expected embedding error")
	}
	key, _ := SourceKey(path)
	if n, _ := store.CountRows(ctx, key); n != 0 {
		t.Errorf("CountRows = %d after failed rebuild", n)
	}
	if _, ok, _ := store.GetMeta(ctx, metaKeySourceMtime+key); ok {
		t.Error("staleness metadata must not be written on failure")
	}

	mock.FailWith(nil)
	report, err := idx.EnsureIndex(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Outcome != OutcomeRebuilt {
		t.Errorf("retry outcome = %s", report.Outcome)
	}
}

func TestEnsureIndex_missingAndEmpty(t *testing.T) {
	mock := embedding.NewMockEmbedder(16)
	idx, _ := testIndexer(t, mock)
	ctx := context.Background()
	dir := t.TempDir()

	report, err := idx.EnsureIndex(ctx, filepath.Join(dir, "absent.csv"))
	if err != nil || report.Outcome != OutcomeMissing {
		t.Errorf("missing file: %+v, %v", report, err)
	}

	empty := filepath.Join(dir, "empty.csv")
	writeCSV(t, empty, "", time.Now())
	report, err = idx.EnsureIndex(ctx, empty)
	if err != nil || report.Outcome != OutcomeEmpty {
		t.Errorf("empty file: %+v, %v", report, err)
	}

	headerOnly := filepath.Join(dir, "header.csv")
	writeCSV(t, headerOnly, "date,room_number\n", time.Now())
	report, err = idx.EnsureIndex(ctx, headerOnly)
	if err != nil || report.Outcome != OutcomeEmpty {
		t.Errorf("header only: %+v, %v", report, err)
	}
	if mock.Calls() != 0 {
		t.Errorf("Calls() = %d, want 0", mock.Calls())
	}
}

func TestRebuild_ignoresFreshness(t *testing.T) {
	mock := embedding.NewMockEmbedder(16)
	idx, _ := testIndexer(t, mock)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rooms.csv")
	writeCSV(t, path, sampleCSV, time.Now())
	_, _ = idx.EnsureIndex(ctx, path)
	if _, err := idx.Rebuild(ctx, path); err != nil {
		t.Fatal(err)
	}
	if mock.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", mock.Calls())
	}
}

func TestDrop_clearsRowsAndForcesRebuild(t *testing.T) {
	mock := embedding.NewMockEmbedder(16)
	idx, store := testIndexer(t, mock)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "rooms.csv")
	other := filepath.Join(dir, "annex.csv")
	writeCSV(t, path, sampleCSV, time.Now())
	writeCSV(t, other, sampleCSV, time.Now())
	_, _ = idx.EnsureIndex(ctx, path)
	_, _ = idx.EnsureIndex(ctx, other)
	if _, ok := idx.IndexedAt(ctx, path); !ok {
		t.Fatal("IndexedAt should be set after a rebuild")
	}

	if err := idx.Drop(ctx, path); err != nil {
		t.Fatal(err)
	}
	key, _ := SourceKey(path)
	if n, _ := store.CountRows(ctx, key); n != 0 {
		t.Errorf("rows after drop = %d", n)
	}
	if _, ok := idx.IndexedAt(ctx, path); ok {
		t.Error("IndexedAt should be cleared by Drop")
	}
	otherKey, _ := SourceKey(other)
	if n, _ := store.CountRows(ctx, otherKey); n != 5 {
		t.Errorf("other dataset rows = %d, want 5", n)
	}

	calls := mock.Calls()
	report, err := idx.EnsureIndex(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Outcome != OutcomeRebuilt || mock.Calls() != calls+1 {
		t.Errorf("after drop: report %+v, calls %d", report, mock.Calls())
	}
}

func TestLoadIndex_derivesTokensAndDates(t *testing.T) {
	idx, _ := testIndexer(t, embedding.NewMockEmbedder(16))
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rooms.csv")
	writeCSV(t, path, sampleCSV, time.Now())
	if _, err := idx.EnsureIndex(ctx, path); err != nil {
		t.Fatal(err)
	}
	rows, err := idx.LoadIndex(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows", len(rows))
	}
	for i, r := range rows {
		if r.Position != i {
			t.Errorf("row %d has position %d", i, r.Position)
		}
		if len(r.Embedding) != 16 {
			t.Errorf("row %d embedding has %d dims", i, len(r.Embedding))
		}
	}
	if !rows[0].HasDate || rows[0].ParsedAt.Day() != 10 {
		t.Errorf("row 0 date = %v, %v", rows[0].ParsedAt, rows[0].HasDate)
	}
	if rows[4].HasDate {
		t.Error("unparseable date should leave HasDate false")
	}
	if _, ok := rows[3].Tokens["family"]; !ok {
		t.Errorf("tokens missing room type: %v", rows[3].Tokens)
	}
}

func TestRowText(t *testing.T) {
	text := RowText(models.Row{"date": "2025-06-10", "room_number": "12", "unknown_field": "x"})
	if !strings.HasPrefix(text, "date: 2025-06-10; room_number: 12; room_type: ; status: ") {
		t.Errorf("RowText = %q", text)
	}
	if strings.Contains(text, "unknown_field") {
		t.Error("only known fields are rendered")
	}
	if got := strings.Count(text, "; "); got != len(models.KnownFields)-1 {
		t.Errorf("got %d separators", got)
	}
}
