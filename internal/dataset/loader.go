// Package dataset loads booking tables from CSV or Excel files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/frontdesk/internal/models"
	"github.com/xuri/excelize/v2"
)

// ErrNoHeader is returned when a file has no header row.
var ErrNoHeader = errors.New("dataset has no header row")

// Snapshot is every row of one source file at one modification time.
type Snapshot struct {
	Path    string
	ModTime time.Time
	Header  []string
	Rows    []models.Row
}

// Len returns the number of rows in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// RoomTypes returns the distinct non-blank room_type values in row order.
func (s *Snapshot) RoomTypes() []string {
	if s == nil {
		return nil
	}
	return RoomTypes(s.Rows)
}

// RoomTypes returns the distinct non-blank room_type values of rows in first-seen order.
func RoomTypes(rows []models.Row) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		rt := r.Get("room_type")
		if rt == "" || seen[rt] {
			continue
		}
		seen[rt] = true
		out = append(out, rt)
	}
	return out
}

// Load reads the file at path. Files ending in .xlsx are read from their first sheet;
// anything else is parsed as CSV. Cells are trimmed and missing cells read as "".
func Load(path string) (*Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	var records [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readExcel(path)
	default:
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	header, rows, err := toRows(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Snapshot{
		Path:    path,
		ModTime: info.ModTime(),
		Header:  header,
		Rows:    rows,
	}, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func toRows(records [][]string) ([]string, []models.Row, error) {
	if len(records) == 0 {
		return nil, nil, ErrNoHeader
	}
	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[i] = strings.TrimSpace(name)
	}

	rows := make([]models.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(models.Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			var v string
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			row[name] = v
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
