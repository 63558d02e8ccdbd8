package models

import "sort"

// MatchPath names the strategy that produced a match.
type MatchPath string

const (
	// MatchNone means nothing matched or grounding was unavailable.
	MatchNone MatchPath = ""
	// MatchExactDate means rows share the resolved calendar date.
	MatchExactDate MatchPath = "exact_date"
	// MatchMonthDay means rows share month and day with the resolved date, any year.
	MatchMonthDay MatchPath = "month_day"
	// MatchSemantic means rows were lexically pre-filtered and ranked by embedding similarity.
	MatchSemantic MatchPath = "semantic"
)

// UnknownRoomType groups rows with a blank room_type.
const UnknownRoomType = "Unknown"

// Summary aggregates a matched row set.
// Complete is true only when the aggregate covers the full candidate set (date paths),
// never for a capped semantic sample.
type Summary struct {
	Total            int            `json:"total"`
	ByRoomType       map[string]int `json:"by_room_type"`
	RoomNumbers      []string       `json:"room_numbers"`
	DateLabel        string         `json:"date_label,omitempty"`
	RoomType         string         `json:"room_type,omitempty"`
	AvailabilityOnly bool           `json:"availability_only"`
	Complete         bool           `json:"summary_complete"`
}

// RoomTypes returns the room types present in the summary in sorted order.
func (s *Summary) RoomTypes() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.ByRoomType))
	for k := range s.ByRoomType {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MatchResult is the outcome of one relevance search.
type MatchResult struct {
	Rows             []Row     `json:"rows"`
	Summary          *Summary  `json:"summary,omitempty"`
	Path             MatchPath `json:"match_path"`
	WantsRoomNumbers bool      `json:"wants_room_numbers"`
	QueryTime        int64     `json:"query_time_ms"`
}

// Empty reports whether the result carries nothing to report.
func (m *MatchResult) Empty() bool {
	return m == nil || (len(m.Rows) == 0 && m.Summary == nil)
}
