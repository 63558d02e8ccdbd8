// Package summary filters matched rows by availability and room type and aggregates them.
package summary

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/frontdesk/internal/keyword"
	"github.com/hyperjump/frontdesk/internal/models"
)

// Options select the filters and labels applied by FilterAndSummarize.
type Options struct {
	AvailabilityOnly bool
	RoomType         string // "" disables the room-type filter
	DateLabel        string
	Complete         bool
}

// IsAvailable reports whether the row's status marks the room as free.
func IsAvailable(r models.Row) bool {
	status := strings.ToLower(strings.TrimSpace(r.Get("status")))
	return status == "available" || status == "vacant" || strings.HasPrefix(status, "available")
}

// MatchesRoomType reports whether the row's room type equals roomType after tokenizer
// normalization, so "Queen Suite" matches "queen-suite".
func MatchesRoomType(r models.Row, roomType string) bool {
	return keyword.Normalize(r.Get("room_type")) == keyword.Normalize(roomType)
}

// Filter returns the rows passing the availability and room-type filters, in order.
func Filter(rows []models.Row, opts Options) []models.Row {
	out := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		if opts.AvailabilityOnly && !IsAvailable(r) {
			continue
		}
		if opts.RoomType != "" && !MatchesRoomType(r, opts.RoomType) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Summarize aggregates rows that have already been filtered.
func Summarize(rows []models.Row, opts Options) *models.Summary {
	s := &models.Summary{
		Total:            len(rows),
		ByRoomType:       make(map[string]int),
		RoomNumbers:      []string{},
		DateLabel:        opts.DateLabel,
		RoomType:         opts.RoomType,
		AvailabilityOnly: opts.AvailabilityOnly,
		Complete:         opts.Complete,
	}
	seen := make(map[string]bool)
	for _, r := range rows {
		rt := strings.TrimSpace(r.Get("room_type"))
		if rt == "" {
			rt = models.UnknownRoomType
		}
		s.ByRoomType[rt]++

		room := strings.TrimSpace(r.Get("room_number"))
		if room != "" && !seen[room] {
			seen[room] = true
			s.RoomNumbers = append(s.RoomNumbers, room)
		}
	}
	SortRoomNumbers(s.RoomNumbers)
	return s
}

// FilterAndSummarize filters rows and summarizes the survivors.
func FilterAndSummarize(rows []models.Row, opts Options) ([]models.Row, *models.Summary) {
	filtered := Filter(rows, opts)
	return filtered, Summarize(filtered, opts)
}

// CompareRoomNumbers orders room numbers numerically first (by value), then the rest
// lexically. It returns a negative number when a sorts before b.
func CompareRoomNumbers(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// SortRoomNumbers sorts rooms in place using CompareRoomNumbers.
func SortRoomNumbers(rooms []string) {
	sort.SliceStable(rooms, func(i, j int) bool { return CompareRoomNumbers(rooms[i], rooms[j]) < 0 })
}

// SortRowsByRoom sorts rows in place by room number using CompareRoomNumbers.
func SortRowsByRoom(rows []models.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return CompareRoomNumbers(strings.TrimSpace(rows[i].Get("room_number")), strings.TrimSpace(rows[j].Get("room_number"))) < 0
	})
}
