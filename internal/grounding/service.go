// Package grounding decides whether an utterance needs booking data and builds the
// context block handed to the conversational model.
package grounding

import (
	"context"
	"regexp"

	"github.com/hyperjump/frontdesk/internal/config"
	"github.com/hyperjump/frontdesk/internal/keyword"
	"github.com/hyperjump/frontdesk/internal/models"
	"go.uber.org/zap"
)

// isoDateRegex matches an ISO-shaped date anywhere in lowercased text.
var isoDateRegex = regexp.MustCompile(`\b20\d{2}-\d{1,2}-\d{1,2}\b`)

// domainKeywords is the booking, date, weekday and month vocabulary that triggers grounding.
var domainKeywords = []string{
	"available", "availability", "book", "booking", "check", "checkin", "checkout",
	"date", "night", "occupancy", "occupied", "reserve", "reservation", "room", "rooms",
	"stay", "today", "tomorrow", "tonight", "next", "vacant", "vacancy",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"jan", "january", "feb", "february", "mar", "march", "apr", "april", "may",
	"jun", "june", "jul", "july", "aug", "august", "sep", "sept", "september",
	"oct", "october", "nov", "november", "dec", "december",
}

// Searcher finds the rows relevant to a query.
type Searcher interface {
	Search(ctx context.Context, query *models.Query) (*models.MatchResult, error)
	Available() bool
}

// Service is the entry point used by the conversational-turn layer.
type Service struct {
	searcher  Searcher
	formatter *Formatter
	keywords  map[string]struct{}
	maxRows   int
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a grounding service. cfg supplies the formatter settings, the
// default sample size and extra trigger keywords; nil uses defaults.
func NewService(searcher Searcher, cfg *config.GroundingConfig, opts ...Option) *Service {
	s := &Service{
		searcher:  searcher,
		formatter: NewFormatter(cfg),
		keywords:  make(map[string]struct{}, len(domainKeywords)),
		maxRows:   config.DefaultMaxRows,
		logger:    zap.NewNop(),
	}
	for _, k := range domainKeywords {
		s.keywords[k] = struct{}{}
	}
	if cfg != nil {
		for _, k := range cfg.Keywords {
			for _, tok := range keyword.Tokenize(k) {
				s.keywords[tok] = struct{}{}
			}
		}
		if cfg.MaxRows > 0 {
			s.maxRows = cfg.MaxRows
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShouldGround reports whether utterance mentions booking vocabulary or an ISO date.
func (s *Service) ShouldGround(utterance string) bool {
	if utterance == "" {
		return false
	}
	if keyword.Intersects(keyword.TokenSet(utterance), s.keywords) {
		return true
	}
	return isoDateRegex.MatchString(utterance)
}

// BuildContext searches datasetPath ("" for the configured dataset) and formats the
// result. It returns "" when nothing relevant is found, grounding is unavailable, or any
// step fails; failures are logged, never returned.
func (s *Service) BuildContext(ctx context.Context, utterance, datasetPath string, maxRows int) string {
	if s.searcher == nil || !s.searcher.Available() {
		return ""
	}
	if maxRows <= 0 {
		maxRows = s.maxRows
	}
	result, err := s.searcher.Search(ctx, &models.Query{Text: utterance, SourcePath: datasetPath, Limit: maxRows})
	if err != nil {
		s.logger.Warn("booking grounding failed", zap.String("query", utterance), zap.Error(err))
		return ""
	}
	if result.Empty() {
		return ""
	}
	return s.formatter.Format(result.Rows, result.Summary, result.WantsRoomNumbers, maxRows)
}

// Request is one grounding call from the conversational-turn layer.
type Request struct {
	Utterance   string
	DatasetPath string // "" for the configured dataset
	MaxRows     int    // 0 for the configured sample size
	// Force skips the booking-vocabulary check.
	Force bool
}

// Response pairs the vocabulary decision with the context block.
type Response struct {
	ShouldGround bool
	Context      string
}

// Ground applies the ShouldGround gate (unless req.Force is set) and builds the context
// block for the utterance.
func (s *Service) Ground(ctx context.Context, req Request) Response {
	resp := Response{ShouldGround: s.ShouldGround(req.Utterance)}
	if resp.ShouldGround || req.Force {
		resp.Context = s.BuildContext(ctx, req.Utterance, req.DatasetPath, req.MaxRows)
	}
	return resp
}
