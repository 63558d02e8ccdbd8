package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/frontdesk/internal/indexer"
	"github.com/hyperjump/frontdesk/internal/models"
	"github.com/hyperjump/frontdesk/internal/storage"
)

func sampleResult() *models.MatchResult {
	return &models.MatchResult{
		Rows: []models.Row{
			{"date": "2025-06-10", "room_number": "5", "room_type": "Twin", "status": "Available"},
			{"date": "2025-06-10", "room_number": "12", "room_type": "Queen", "status": "Available"},
		},
		Summary: &models.Summary{
			Total:            2,
			ByRoomType:       map[string]int{"Queen": 1, "Twin": 1},
			RoomNumbers:      []string{"5", "12"},
			DateLabel:        "2025-06-10",
			AvailabilityOnly: true,
			Complete:         true,
		},
		Path:             models.MatchExactDate,
		WantsRoomNumbers: true,
		QueryTime:        42,
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{" JSON ", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResult(), OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.MatchResult
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Path != models.MatchExactDate || decoded.QueryTime != 42 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Summary == nil || !decoded.Summary.Complete || decoded.Summary.Total != 2 {
		t.Errorf("decoded summary = %+v", decoded.Summary)
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResult(), OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"2 rows via exact_date in 42ms", "Date: 2025-06-10", "Total: 2 (complete)", "Rooms: 5, 12", "Queen", "Twin"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteSearchResults_textPartialAndEmpty(t *testing.T) {
	res := sampleResult()
	res.Summary.Complete = false
	res.Path = models.MatchSemantic
	var buf bytes.Buffer
	_ = WriteSearchResults(&buf, res, OutputText)
	if !strings.Contains(buf.String(), "Sample of 2 (partial)") {
		t.Errorf("partial output:\n%s", buf.String())
	}

	buf.Reset()
	_ = WriteSearchResults(&buf, &models.MatchResult{}, OutputText)
	if !strings.Contains(buf.String(), "No booking rows matched") {
		t.Errorf("empty output: %q", buf.String())
	}
}

func TestWriteContext(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteContext(&buf, "", OutputText)
	if !strings.Contains(buf.String(), "no booking context") {
		t.Errorf("empty context: %q", buf.String())
	}

	buf.Reset()
	_ = WriteContext(&buf, "Date: Jun 12.", OutputJSON)
	var out map[string]string
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil || out["context"] != "Date: Jun 12." {
		t.Errorf("json context = %v, %v", out, err)
	}
}

func TestWriteIndexReport(t *testing.T) {
	tests := []struct {
		report *indexer.Report
		want   string
	}{
		{&indexer.Report{Path: "/a.csv", Outcome: indexer.OutcomeRebuilt, Rows: 7, RebuildID: "r1", Duration: 1500 * time.Millisecond}, "Indexed 7 rows from /a.csv in 1.5s (rebuild r1)"},
		{&indexer.Report{Path: "/a.csv", Outcome: indexer.OutcomeFresh, Rows: 7}, "up to date (7 rows)"},
		{&indexer.Report{Path: "/a.csv", Outcome: indexer.OutcomeMissing}, "not found"},
		{&indexer.Report{Path: "/a.csv", Outcome: indexer.OutcomeEmpty}, "has no rows"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := WriteIndexReport(&buf, tt.report, OutputText); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("%s: got %q, want substring %q", tt.report.Outcome, buf.String(), tt.want)
		}
	}
}

func TestWriteStatus(t *testing.T) {
	at := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)
	st := &Status{
		DatasetPath:   "/srv/motel.csv",
		DatabasePath:  "/srv/booking.db",
		Provider:      "openai",
		Model:         "text-embedding-3-small",
		IndexedAt:     &at,
		Sources:       []storage.SourceStats{{Path: "/srv/motel.csv", Rows: 70}},
		DiskUsageByte: 4096,
	}
	var buf bytes.Buffer
	_ = WriteStatus(&buf, st, OutputText)
	out := buf.String()
	for _, sub := range []string{"grounding disabled", "2025-06-11T08:00:00Z", "70  /srv/motel.csv", "4096 bytes"} {
		if !strings.Contains(out, sub) {
			t.Errorf("status output missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	st.Credential = true
	st.Sources = nil
	_ = WriteStatus(&buf, st, OutputText)
	if strings.Contains(buf.String(), "disabled") || !strings.Contains(buf.String(), "No indexed sources") {
		t.Errorf("status output:\n%s", buf.String())
	}
}
