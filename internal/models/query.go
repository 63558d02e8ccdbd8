package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a query has no text.
var ErrEmptyQuery = errors.New("query cannot be empty")

// DefaultLimit is the row cap applied when a query does not set one.
const DefaultLimit = 10

// Query is one caller utterance to ground, scoped to a dataset source.
type Query struct {
	Text       string `json:"query"`
	SourcePath string `json:"source_path,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// Validate trims the text and applies the default limit.
// Returns ErrEmptyQuery when nothing is left to search for.
func (q *Query) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return ErrEmptyQuery
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	return nil
}
