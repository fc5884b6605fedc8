package ingest

import (
	"errors"
	"strings"
	"testing"
)

const sampleHeader = "S.No,Attendance id,User Name,Users Designation,Office Locations,Division/Units,In Time,Out Time,Status"

func TestParse_CSV(t *testing.T) {
	data := sampleHeader + "\n" +
		`1,="1001",Dr. A,Professor,Main Block,Radiology,09/03/2025 08:30,09/03/2025 17:00,Present` + "\n" +
		`2,1002,Dr. B,Tutor NG,Main Block,Pediatrics,,,Leave` + "\n" +
		"\n" + // blank row dropped
		`3,1003,Dr. C,Professor,Annex,ENT,09/03/2025 09:00,,Present` + "\n"

	records, err := Parse([]byte(data), FormatCSV)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Parse() returned %d records, want 3", len(records))
	}

	if records[0].AttendanceID != "1001" {
		t.Errorf("AttendanceID = %q, want %q (formula artifact not stripped)",
			records[0].AttendanceID, "1001")
	}
	if records[0].InTime.Raw != "09/03/2025 08:30" {
		t.Errorf("InTime.Raw = %q, want raw cell text before Normalize", records[0].InTime.Raw)
	}
	if records[1].Status != "Leave" {
		t.Errorf("Status = %q, want %q", records[1].Status, "Leave")
	}
	if records[1].InTime.Raw != "" {
		t.Errorf("empty InTime cell should stay empty, got %q", records[1].InTime.Raw)
	}
}

func TestParse_HeaderCaseAndSpacing(t *testing.T) {
	data := "s.no, ATTENDANCE ID ,user name,USERS DESIGNATION,office locations,division/units,in time,out time,STATUS\n" +
		"1,1001,Dr. A,Professor,Main,Radiology,,,Present\n"

	records, err := Parse([]byte(data), FormatCSV)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].AttendanceID != "1001" {
		t.Errorf("AttendanceID = %q, want %q", records[0].AttendanceID, "1001")
	}
}

func TestParse_MissingColumns(t *testing.T) {
	data := "S.No,User Name,Status\n1,Dr. A,Present\n"

	_, err := Parse([]byte(data), FormatCSV)
	if err == nil {
		t.Fatal("Parse() expected error for missing columns")
	}

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Parse() error = %T, want *FormatError", err)
	}

	// every missing required column must be named
	for _, want := range []string{ColAttendance, ColDesignation, ColOffice, ColDivision} {
		found := false
		for _, m := range formatErr.Missing {
			if m == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing column %q not reported in %v", want, formatErr.Missing)
		}
	}
	if !strings.Contains(err.Error(), "missing required columns") {
		t.Errorf("error message %q should enumerate missing columns", err.Error())
	}
}

func TestParse_EmptyFile(t *testing.T) {
	for _, data := range [][]byte{nil, []byte(""), []byte("   \n  ")} {
		_, err := Parse(data, FormatCSV)
		var formatErr *FormatError
		if !errors.As(err, &formatErr) {
			t.Errorf("Parse(%q) error = %v, want *FormatError", data, err)
		}
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	records, err := Parse([]byte(sampleHeader+"\n"), FormatCSV)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestParse_RaggedRows(t *testing.T) {
	// short row: trailing columns read as empty
	data := sampleHeader + "\n1,1001,Dr. A,Professor,Main,Radiology\n"

	records, err := Parse([]byte(data), FormatCSV)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Status != "" {
		t.Errorf("Status = %q, want empty for short row", records[0].Status)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		fileName string
		override Format
		want     Format
	}{
		{"report.csv", "", FormatCSV},
		{"report.xlsx", "", FormatXLSX},
		{"report.XLSX", "", FormatXLSX},
		{"report.txt", "", FormatCSV},
		{"report", "", FormatCSV},
		{"report.xlsx", FormatCSV, FormatCSV},
		{"report.csv", FormatXLSX, FormatXLSX},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.fileName, tt.override); got != tt.want {
			t.Errorf("DetectFormat(%q, %q) = %q, want %q", tt.fileName, tt.override, got, tt.want)
		}
	}
}

func TestCleanIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "1001", "1001"},
		{"formula wrapped", `="1001"`, "1001"},
		{"formula single quotes", `='1001'`, "1001"},
		{"trailing quote", `1001"`, "1001"},
		{"embedded quotes", `10"01`, "1001"},
		{"leading equals only", "=1001", "1001"},
		{"whitespace", `  ="1001"  `, "1001"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanIdentifier(tt.input); got != tt.want {
				t.Errorf("CleanIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
