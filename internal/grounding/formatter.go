package grounding

import (
	"fmt"
	"strings"

	"github.com/hyperjump/frontdesk/internal/config"
	"github.com/hyperjump/frontdesk/internal/models"
	"github.com/hyperjump/frontdesk/pkg/utils"
)

// Formatter renders a match result as the grounding block for the conversational model.
// Its wording keeps the model from inventing or recounting availability.
type Formatter struct {
	roomPreview int
	spokenCap   int
}

// NewFormatter creates a formatter. Zero settings fall back to the config defaults.
func NewFormatter(cfg *config.GroundingConfig) *Formatter {
	f := &Formatter{roomPreview: config.DefaultRoomPreview, spokenCap: config.DefaultSpokenRoomCap}
	if cfg != nil {
		if cfg.RoomPreview > 0 {
			f.roomPreview = cfg.RoomPreview
		}
		if cfg.SpokenRoomCap > 0 {
			f.spokenCap = cfg.SpokenRoomCap
		}
	}
	return f
}

// Format returns the context block for rows and s, or "" when there is nothing to report.
// At most maxRows rows are appended as a sample; maxRows <= 0 omits them.
func (f *Formatter) Format(rows []models.Row, s *models.Summary, wantsRoomNumbers bool, maxRows int) string {
	if len(rows) == 0 && s == nil {
		return ""
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("Booking data from the motel availability table.")
	if s != nil {
		if s.DateLabel != "" {
			line("Date: %s.", s.DateLabel)
		}
		if s.RoomType != "" {
			line("Room type filter: %s.", s.RoomType)
		}
		if s.AvailabilityOnly {
			line("Status filter: available rooms only.")
		} else {
			line("Status filter: all statuses.")
		}

		if s.Complete {
			f.writeComplete(line, s)
		} else {
			line("Retrieval is partial: the rows below are a ranked sample, not every matching row. Do not state exact counts or totals.")
		}

		if wantsRoomNumbers {
			f.writeRoomNumbers(line, s)
		}
	}

	if maxRows > 0 && len(rows) > 0 {
		if len(rows) > maxRows {
			rows = rows[:maxRows]
		}
		line("Sample rows (supporting detail only, never a source for counts):")
		for _, r := range rows {
			line("- %s", describe(r))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *Formatter) writeComplete(line func(string, ...any), s *models.Summary) {
	if s.Total == 0 {
		line("No matching rooms for this request.")
		return
	}
	types := s.RoomTypes()
	counts := make([]string, len(types))
	for i, rt := range types {
		counts[i] = fmt.Sprintf("%s: %d", rt, s.ByRoomType[rt])
	}
	line("Availability summary (authoritative, covers every matching row): %s. Total: %d.", strings.Join(counts, ", "), s.Total)
	line("Use these counts exactly as given. Do not re-derive or recount them from the sample rows.")
	if len(types) > 1 {
		line("More than one room type matches; ask the caller which room type they prefer before listing rooms.")
	}
	line("Do not read out more than %d room numbers unless the caller explicitly asks for more.", f.spokenCap)
}

func (f *Formatter) writeRoomNumbers(line func(string, ...any), s *models.Summary) {
	if !s.Complete {
		line("The full room-number list is not available from this partial retrieval; a follow-up is needed (for example, ask which date the caller means).")
		return
	}
	if len(s.RoomNumbers) == 0 {
		return
	}
	preview, rest := utils.PreviewList(s.RoomNumbers, f.roomPreview)
	line("Room numbers (use verbatim, do not add or change rooms): %s.", preview)
	if rest > 0 {
		line("Offer to read the full list if the caller asks for it.")
	}
}

// describe renders every known field of r as "field: value" pairs.
func describe(r models.Row) string {
	parts := make([]string, len(models.KnownFields))
	for i, field := range models.KnownFields {
		parts[i] = field + ": " + r.Get(field)
	}
	return strings.Join(parts, ", ")
}
