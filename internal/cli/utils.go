// Package cli provides CLI output helpers for frontdesk.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/frontdesk/internal/indexer"
	"github.com/hyperjump/frontdesk/internal/models"
	"github.com/hyperjump/frontdesk/internal/storage"
	"github.com/hyperjump/frontdesk/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat, defaulting to text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteSearchResults writes a match result to w in the given format.
func WriteSearchResults(w io.Writer, result *models.MatchResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	writeSearchResultsText(w, result)
	return nil
}

func writeSearchResultsText(w io.Writer, result *models.MatchResult) {
	if result.Empty() {
		fmt.Fprintf(w, "\nNo booking rows matched (%dms)\n", result.QueryTime)
		return
	}
	fmt.Fprintf(w, "\n%d rows via %s in %dms\n", len(result.Rows), result.Path, result.QueryTime)
	if s := result.Summary; s != nil {
		if s.DateLabel != "" {
			fmt.Fprintf(w, "Date: %s\n", s.DateLabel)
		}
		if s.RoomType != "" {
			fmt.Fprintf(w, "Room type: %s\n", s.RoomType)
		}
		if s.Complete {
			fmt.Fprintf(w, "Total: %d (complete)\n", s.Total)
		} else {
			fmt.Fprintf(w, "Sample of %d (partial)\n", s.Total)
		}
		for _, rt := range s.RoomTypes() {
			fmt.Fprintf(w, "  %-20s %d\n", rt, s.ByRoomType[rt])
		}
		if result.WantsRoomNumbers && len(s.RoomNumbers) > 0 {
			fmt.Fprintf(w, "Rooms: %s\n", strings.Join(s.RoomNumbers, ", "))
		}
	}
	fmt.Fprintln(w)
	for _, r := range result.Rows {
		fmt.Fprintf(w, "%-10s %-6s %-20s %s\n",
			r.Get("date"), r.Get("room_number"), utils.Truncate(r.Get("room_type"), 20), r.Get("status"))
	}
}

// WriteContext writes a grounding block, or a note when there is none.
func WriteContext(w io.Writer, text string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]string{"context": text})
	}
	if text == "" {
		fmt.Fprintln(w, "(no booking context for this utterance)")
		return nil
	}
	fmt.Fprintln(w, text)
	return nil
}

// WriteIndexReport writes the outcome of an index run.
func WriteIndexReport(w io.Writer, report *indexer.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	switch report.Outcome {
	case indexer.OutcomeRebuilt:
		fmt.Fprintf(w, "Indexed %d rows from %s in %s (rebuild %s)\n",
			report.Rows, report.Path, report.Duration.Round(time.Millisecond), report.RebuildID)
	case indexer.OutcomeFresh:
		fmt.Fprintf(w, "Index for %s is up to date (%d rows)\n", report.Path, report.Rows)
	case indexer.OutcomeMissing:
		fmt.Fprintf(w, "Dataset %s not found; nothing indexed\n", report.Path)
	case indexer.OutcomeEmpty:
		fmt.Fprintf(w, "Dataset %s has no rows; index left unchanged\n", report.Path)
	}
	return nil
}

// Status is what the status command reports.
type Status struct {
	DatasetPath   string                `json:"dataset_path"`
	DatabasePath  string                `json:"database_path"`
	Provider      string                `json:"embedding_provider"`
	Model         string                `json:"embedding_model"`
	Credential    bool                  `json:"credential_configured"`
	IndexedAt     *time.Time            `json:"indexed_at,omitempty"`
	Sources       []storage.SourceStats `json:"sources"`
	DiskUsageByte int64                 `json:"disk_usage_bytes"`
}

// WriteStatus writes index status.
func WriteStatus(w io.Writer, st *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Dataset:    %s\n", st.DatasetPath)
	fmt.Fprintf(w, "Database:   %s (%d bytes)\n", st.DatabasePath, st.DiskUsageByte)
	fmt.Fprintf(w, "Embeddings: %s / %s", st.Provider, st.Model)
	if !st.Credential {
		fmt.Fprint(w, " (no credential, grounding disabled)")
	}
	fmt.Fprintln(w)
	if st.IndexedAt != nil {
		fmt.Fprintf(w, "Indexed at: %s\n", st.IndexedAt.Format(time.RFC3339))
	}
	if len(st.Sources) == 0 {
		fmt.Fprintln(w, "No indexed sources")
		return nil
	}
	fmt.Fprintln(w, "Sources:")
	for _, s := range st.Sources {
		fmt.Fprintf(w, "  %6d  %s\n", s.Rows, s.Path)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
