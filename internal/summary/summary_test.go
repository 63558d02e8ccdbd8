package summary

import (
	"reflect"
	"testing"

	"github.com/hyperjump/frontdesk/internal/models"
)

func row(room, roomType, status string) models.Row {
	return models.Row{"room_number": room, "room_type": roomType, "status": status}
}

func TestIsAvailable(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"Available", true},
		{" vacant ", true},
		{"AVAILABLE - late checkout", true},
		{"available_soon", true},
		{"Occupied", false},
		{"unavailable", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAvailable(models.Row{"status": tt.status}); got != tt.want {
			t.Errorf("IsAvailable(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestFilter(t *testing.T) {
	rows := []models.Row{
		row("1", "Queen Suite", "Available"),
		row("2", "queen-suite", "Occupied"),
		row("3", "Twin", "Vacant"),
		row("4", "Queen", "Available"),
	}
	got := Filter(rows, Options{AvailabilityOnly: true, RoomType: "QUEEN suite"})
	if len(got) != 1 || got[0].Get("room_number") != "1" {
		t.Errorf("got %v", got)
	}
	got = Filter(rows, Options{RoomType: "Queen Suite"})
	if len(got) != 2 {
		t.Errorf("room-type filter without availability: got %d rows", len(got))
	}
	if got := Filter(rows, Options{}); len(got) != 4 {
		t.Errorf("no filters: got %d rows", len(got))
	}
}

func TestSummarize(t *testing.T) {
	rows := []models.Row{
		row("12", "Queen", "Available"),
		row("5", "Queen", "Available"),
		row("B2", "", "Available"),
		row("5", "Queen", "Available"),
		row("", "Twin", "Available"),
		row("101", "Twin", "Available"),
	}
	s := Summarize(rows, Options{DateLabel: "Jun 10", Complete: true, AvailabilityOnly: true})
	if s.Total != 6 {
		t.Errorf("Total = %d", s.Total)
	}
	wantTypes := map[string]int{"Queen": 3, "Twin": 2, models.UnknownRoomType: 1}
	if !reflect.DeepEqual(s.ByRoomType, wantTypes) {
		t.Errorf("ByRoomType = %v", s.ByRoomType)
	}
	wantRooms := []string{"5", "12", "101", "B2"}
	if !reflect.DeepEqual(s.RoomNumbers, wantRooms) {
		t.Errorf("RoomNumbers = %v, want %v", s.RoomNumbers, wantRooms)
	}
	if !s.Complete || s.DateLabel != "Jun 10" || !s.AvailabilityOnly {
		t.Errorf("flags not carried: %+v", s)
	}
}

func TestFilterAndSummarize_empty(t *testing.T) {
	rows, s := FilterAndSummarize([]models.Row{row("1", "Queen", "Occupied")},
		Options{AvailabilityOnly: true, Complete: true})
	if len(rows) != 0 || s.Total != 0 || !s.Complete {
		t.Errorf("rows=%v summary=%+v", rows, s)
	}
	if s.RoomNumbers == nil {
		t.Error("RoomNumbers should be an empty list, not nil")
	}
}

func TestSortRoomNumbers(t *testing.T) {
	rooms := []string{"B1", "12", "A3", "5", "007", "7", "100"}
	SortRoomNumbers(rooms)
	want := []string{"5", "007", "7", "12", "100", "A3", "B1"}
	if !reflect.DeepEqual(rooms, want) {
		t.Errorf("got %v, want %v", rooms, want)
	}
}

func TestSortRowsByRoom(t *testing.T) {
	rows := []models.Row{row("12", "", ""), row("5", "", ""), row("Annex", "", "")}
	SortRowsByRoom(rows)
	if rows[0].Get("room_number") != "5" || rows[1].Get("room_number") != "12" || rows[2].Get("room_number") != "Annex" {
		t.Errorf("got %v", rows)
	}
}
