// Package models defines core data structures for booking rows, queries, and match results.
package models

import (
	"strings"
	"time"
)

// Known dataset fields in canonical order. Row text and sample rendering both follow it.
var KnownFields = []string{
	"date",
	"room_number",
	"room_type",
	"status",
	"booking_id",
	"guest_name",
	"check_in",
	"check_out",
	"channel",
	"nightly_rate_nzd",
	"notes",
	"floor",
	"bed_setup",
	"max_guests",
	"room_size_sqm",
	"kitchenette",
	"amenities",
	"view",
	"accessible",
	"room_type_description",
	"rate_source",
	"pricing_reason",
}

// Row is one dataset record. All values are strings; absent fields read as "".
type Row map[string]string

// Get returns the value of field, or "" when the field is absent.
func (r Row) Get(field string) string {
	if r == nil {
		return ""
	}
	return r[field]
}

// Date parses the row's date field as YYYY-MM-DD. ok is false when it does not parse.
func (r Row) Date() (time.Time, bool) {
	v := strings.TrimSpace(r.Get("date"))
	if v == "" {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// IndexedRow is a Row enriched with the data the row store derives for it.
type IndexedRow struct {
	Position  int
	Row       Row
	Text      string
	Tokens    map[string]struct{}
	Embedding []float32
	ParsedAt  time.Time // zero when HasDate is false
	HasDate   bool
}

// HasToken reports whether the row text contains any of the given tokens.
func (r *IndexedRow) HasToken(tokens map[string]struct{}) bool {
	for t := range tokens {
		if _, ok := r.Tokens[t]; ok {
			return true
		}
	}
	return false
}
