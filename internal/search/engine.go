// Package search finds the booking rows relevant to a caller utterance.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/frontdesk/internal/dataset"
	"github.com/hyperjump/frontdesk/internal/dates"
	"github.com/hyperjump/frontdesk/internal/indexer"
	"github.com/hyperjump/frontdesk/internal/keyword"
	"github.com/hyperjump/frontdesk/internal/models"
	"github.com/hyperjump/frontdesk/internal/summary"
	"github.com/hyperjump/frontdesk/internal/vector"
	"go.uber.org/zap"
)

// RowIndex is the row store view the engine needs.
type RowIndex interface {
	EnsureIndex(ctx context.Context, sourcePath string) (*indexer.Report, error)
	LoadIndex(ctx context.Context, sourcePath string) ([]*models.IndexedRow, error)
}

// QueryEmbedder embeds a single utterance.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Engine runs date-aware, lexically pre-filtered semantic search over indexed rows.
type Engine struct {
	index         RowIndex
	queries       QueryEmbedder
	resolver      *dates.Resolver
	defaultSource string
	logger        *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDefaultSource sets the dataset searched when a query names none.
func WithDefaultSource(path string) EngineOption {
	return func(e *Engine) { e.defaultSource = path }
}

// WithResolver replaces the date resolver (tests pin its clock).
func WithResolver(r *dates.Resolver) EngineOption {
	return func(e *Engine) { e.resolver = r }
}

// NewEngine creates an engine. A nil queries embedder means no embedding credential is
// configured; every search then returns an empty result.
func NewEngine(index RowIndex, queries QueryEmbedder, opts ...EngineOption) *Engine {
	e := &Engine{
		index:    index,
		queries:  queries,
		resolver: dates.NewResolver(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Available reports whether the engine can ground anything at all.
func (e *Engine) Available() bool {
	return e.queries != nil
}

// Search returns the rows relevant to query, capped at query.Limit.
//
// A resolved date selects every row on that date (or, without an explicit year, on that
// month and day in any year); such results carry a complete summary. Otherwise rows
// sharing a keyword with the query are ranked by embedding similarity and the summary
// covers only the returned sample. Availability and room-type filters apply before the
// limit. Embedding failures and malformed stored vectors are returned as errors.
func (e *Engine) Search(ctx context.Context, query *models.Query) (*models.MatchResult, error) {
	start := time.Now()
	if err := query.Validate(); err != nil {
		return nil, err
	}
	result := &models.MatchResult{Path: models.MatchNone}
	if e.queries == nil {
		return result, nil
	}

	source := query.SourcePath
	if source == "" {
		source = e.defaultSource
	}
	if _, err := e.index.EnsureIndex(ctx, source); err != nil {
		e.logger.Warn("index refresh failed, searching stored rows", zap.String("path", source), zap.Error(err))
	}
	rows, err := e.index.LoadIndex(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return result, nil
	}

	plain := make([]models.Row, len(rows))
	for i, r := range rows {
		plain[i] = r.Row
	}
	analysis := AnalyzeQuery(query.Text, keyword.NewRoomTypeMatcher(dataset.RoomTypes(plain)))
	result.WantsRoomNumbers = analysis.WantsRoomNumbers

	if res, ok := e.resolver.Resolve(query.Text); ok {
		if matched := rowsOn(rows, res, false); len(matched) > 0 {
			e.complete(result, matched, res, analysis, models.MatchExactDate, query.Limit)
		} else if !res.ExplicitYear {
			if matched := rowsOn(rows, res, true); len(matched) > 0 {
				e.complete(result, matched, res, analysis, models.MatchMonthDay, query.Limit)
			}
		}
	}

	if result.Path == models.MatchNone {
		if err := e.semantic(ctx, result, rows, query, analysis); err != nil {
			return nil, err
		}
	}

	result.QueryTime = time.Since(start).Milliseconds()
	e.logger.Debug("booking search",
		zap.String("query", query.Text),
		zap.String("match_path", string(result.Path)),
		zap.Int("rows", len(result.Rows)),
	)
	return result, nil
}

// rowsOn returns the rows dated res (ignoring the year when monthDay is set).
func rowsOn(rows []*models.IndexedRow, res dates.Resolution, monthDay bool) []models.Row {
	var out []models.Row
	for _, r := range rows {
		if !r.HasDate {
			continue
		}
		if monthDay {
			if !res.SameMonthDay(r.ParsedAt) {
				continue
			}
		} else if y, m, d := r.ParsedAt.Date(); y != res.Date.Year() || m != res.Date.Month() || d != res.Date.Day() {
			continue
		}
		out = append(out, r.Row)
	}
	return out
}

func (e *Engine) complete(result *models.MatchResult, matched []models.Row, res dates.Resolution, a Analysis, path models.MatchPath, limit int) {
	summary.SortRowsByRoom(matched)
	filtered, s := summary.FilterAndSummarize(matched, summary.Options{
		AvailabilityOnly: a.AvailabilityOnly,
		RoomType:         a.RoomType,
		DateLabel:        res.Label(),
		Complete:         true,
	})
	result.Rows = truncate(filtered, limit)
	result.Summary = s
	result.Path = path
}

func (e *Engine) semantic(ctx context.Context, result *models.MatchResult, rows []*models.IndexedRow, query *models.Query, a Analysis) error {
	candidates := rows
	if len(a.Tokens) > 0 {
		var lexical []*models.IndexedRow
		for _, r := range rows {
			if r.HasToken(a.Tokens) {
				lexical = append(lexical, r)
			}
		}
		if len(lexical) > 0 {
			candidates = lexical
		}
	}

	queryVec, err := e.queries.EmbedQuery(ctx, query.Text)
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}
	vectors := make([][]float32, len(candidates))
	mismatched := 0
	for i, r := range candidates {
		vectors[i] = r.Embedding
		if len(r.Embedding) != len(queryVec) {
			mismatched++
		}
	}
	if mismatched > 0 {
		// Stored rows came from a different model; they score 0 until the next rebuild.
		e.logger.Warn("embedding dimensions differ from query",
			zap.Int("query_dims", len(queryVec)),
			zap.Int("rows", mismatched),
		)
	}
	ranked := vector.Rank(queryVec, vectors)
	ordered := make([]models.Row, len(ranked))
	for i, s := range ranked {
		ordered[i] = candidates[s.Index].Row
	}

	opts := summary.Options{AvailabilityOnly: a.AvailabilityOnly, RoomType: a.RoomType}
	result.Rows = truncate(summary.Filter(ordered, opts), query.Limit)
	result.Path = models.MatchSemantic
	if len(result.Rows) > 0 {
		result.Summary = summary.Summarize(result.Rows, opts)
	}
	return nil
}

func truncate(rows []models.Row, limit int) []models.Row {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
