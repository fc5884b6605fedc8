package ingest

import (
	"testing"
	"time"
)

func TestParseTimestamp_ExcelSerial(t *testing.T) {
	// 45352.354166666664 is 2024-03-01 08:30:00
	ts := ParseTimestamp("45352.354166666664")
	if !ts.Valid {
		t.Fatalf("serial timestamp not parsed, raw = %q", ts.Raw)
	}
	want := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	if !ts.Time.Equal(want) {
		t.Errorf("serial parsed to %v, want %v", ts.Time, want)
	}
}

func TestParseTimestamp_SerialMatchesTextual(t *testing.T) {
	// the same instant encoded both ways must produce identical timestamps
	serial := ParseTimestamp("45352.354166666664")
	textual := ParseTimestamp("01/03/2024 08:30")
	if !serial.Valid || !textual.Valid {
		t.Fatal("both encodings should parse")
	}
	if !serial.Time.Equal(textual.Time) {
		t.Errorf("serial %v != textual %v", serial.Time, textual.Time)
	}
}

func TestParseTimestamp_DayFirstWins(t *testing.T) {
	// ambiguous "01/02" must resolve day-first: 1 February, not 2 January
	ts := ParseTimestamp("01/02/2025")
	if !ts.Valid {
		t.Fatal("date not parsed")
	}
	if ts.Time.Month() != time.February || ts.Time.Day() != 1 {
		t.Errorf("01/02/2025 parsed to %v, want 1 February 2025", ts.Time)
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"09/03/2025 08:30:15", time.Date(2025, 3, 9, 8, 30, 15, 0, time.UTC)},
		{"09/03/2025 08:30", time.Date(2025, 3, 9, 8, 30, 0, 0, time.UTC)},
		{"9/3/2025 08:30", time.Date(2025, 3, 9, 8, 30, 0, 0, time.UTC)},
		{"09-03-2025 08:30", time.Date(2025, 3, 9, 8, 30, 0, 0, time.UTC)},
		{"09/03/2025", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"2025-03-09 08:30:00", time.Date(2025, 3, 9, 8, 30, 0, 0, time.UTC)},
		{"2025-03-09T08:30:00", time.Date(2025, 3, 9, 8, 30, 0, 0, time.UTC)},
		{"2025-03-09", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		ts := ParseTimestamp(tt.input)
		if !ts.Valid {
			t.Errorf("ParseTimestamp(%q) did not parse", tt.input)
			continue
		}
		if !ts.Time.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, ts.Time, tt.want)
		}
	}
}

func TestParseTimestamp_Unparseable(t *testing.T) {
	tests := []string{"not a date", "banana", "99/99/9999", "-5", "0"}
	for _, input := range tests {
		ts := ParseTimestamp(input)
		if ts.Valid {
			t.Errorf("ParseTimestamp(%q) should not parse, got %v", input, ts.Time)
		}
		if ts.Raw != input {
			t.Errorf("ParseTimestamp(%q) raw = %q, want original preserved", input, ts.Raw)
		}
	}
}

func TestParseTimestamp_Empty(t *testing.T) {
	ts := ParseTimestamp("   ")
	if ts.Valid || ts.Raw != "" {
		t.Errorf("blank cell = %+v, want zero Timestamp", ts)
	}
}

func TestParseTimestamp_FormulaWrapped(t *testing.T) {
	ts := ParseTimestamp(`="09/03/2025 08:30"`)
	if !ts.Valid {
		t.Fatalf("formula-wrapped timestamp not parsed, raw = %q", ts.Raw)
	}
	want := time.Date(2025, 3, 9, 8, 30, 0, 0, time.UTC)
	if !ts.Time.Equal(want) {
		t.Errorf("parsed to %v, want %v", ts.Time, want)
	}
}

func TestNormalize_PreservesRowCount(t *testing.T) {
	records := []Record{
		{UserName: "Dr. A", InTime: Timestamp{Raw: "09/03/2025 08:30"}},
		{UserName: "Dr. B", InTime: Timestamp{Raw: "garbage"}},
		{UserName: "Dr. C"},
	}
	out := Normalize(records)
	if len(out) != 3 {
		t.Fatalf("Normalize() returned %d records, want 3", len(out))
	}
	if !out[0].InTime.Valid {
		t.Error("parseable timestamp should be valid after Normalize")
	}
	if out[1].InTime.Valid || out[1].InTime.Raw != "garbage" {
		t.Errorf("unparseable timestamp should keep raw text, got %+v", out[1].InTime)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Radiology", "Radiology"},
		{"crlf to space", "Radio\r\nlogy", "Radio logy"},
		{"lf run collapses", "a\n\n\nb", "a b"},
		{"quotes dropped", `Dr. "A"`, "Dr. A"},
		{"nul dropped", "a\x00b", "ab"},
		{"control dropped", "a\tb", "ab"},
		{"trimmed", "  x  ", "x"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimestampOn(t *testing.T) {
	day := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	ts := Timestamp{Time: time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC), Valid: true}
	if !ts.On(day) {
		t.Error("timestamp on same calendar day should match")
	}
	if ts.On(day.AddDate(0, 0, 1)) {
		t.Error("timestamp should not match the next day")
	}
	if (Timestamp{Raw: "garbage"}).On(day) {
		t.Error("unparsed timestamp should never match a day")
	}
}

func TestTimestampDisplay(t *testing.T) {
	ts := Timestamp{Time: time.Date(2025, 3, 9, 8, 5, 0, 0, time.UTC), Valid: true}
	if got := ts.Display(); got != "09-03-2025 08:05" {
		t.Errorf("Display() = %q, want %q", got, "09-03-2025 08:05")
	}
	if got := (Timestamp{Raw: "x"}).Display(); got != "" {
		t.Errorf("unparsed Display() = %q, want empty", got)
	}
}
