package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"punch-go/internal/punch"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleTimesheet() *punch.Timesheet {
	office := "Office, HQ"
	events := []punch.PunchEvent{
		{ID: "1", Kind: punch.KindEntry, CapturedAt: at("2024-03-04T08:00:00-03:00"), OffsetMinutes: -180, LocationLabel: &office},
		{ID: "2", Kind: punch.KindBreakStart, CapturedAt: at("2024-03-04T12:00:00-03:00"), OffsetMinutes: -180},
		{ID: "3", Kind: punch.KindBreakEnd, CapturedAt: at("2024-03-04T13:00:00-03:00"), OffsetMinutes: -180},
		{ID: "4", Kind: punch.KindExit, CapturedAt: at("2024-03-04T19:30:00-03:00"), OffsetMinutes: -180},
	}
	calc := punch.NewCalculator(540)
	day := punch.DayInterval{Date: punch.Date{Year: 2024, Month: time.March, Day: 4}, Events: events}
	day.Totals = calc.Calculate(events)

	missing := punch.DayInterval{
		Date:   punch.Date{Year: 2024, Month: time.March, Day: 1},
		Totals: punch.Totals{Completion: punch.Missing},
	}

	return &punch.Timesheet{
		Month:                punch.YearMonth{Year: 2024, Month: time.March},
		ThresholdMinutes:     540,
		Days:                 []punch.DayInterval{day, missing},
		TotalWorkedMinutes:   day.WorkedMinutes,
		TotalOvertimeMinutes: day.OvertimeMinutes,
		WorkingDays:          1,
		Absences:             1,
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0h 00m"},
		{5, "0h 05m"},
		{480, "8h 00m"},
		{630, "10h 30m"},
		{-90, "-1h 30m"},
	}
	for _, tt := range tests {
		if got := FormatMinutes(tt.in); got != tt.want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"csv", "JSON", "md"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", s, err)
		}
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("ParseFormat(xlsx) expected error")
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(sampleTimesheet(), CSV); got != "2024-03.csv" {
		t.Errorf("FileName() = %q, want 2024-03.csv", got)
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleTimesheet())
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	t.Run("times are on the device's wall clock", func(t *testing.T) {
		r := rows[0]
		if r.Entry != "08:00" || r.BreakStart != "12:00" || r.BreakEnd != "13:00" || r.Exit != "19:30" {
			t.Errorf("row times = %s %s %s %s", r.Entry, r.BreakStart, r.BreakEnd, r.Exit)
		}
		if r.Worked != 630 || r.Overtime != 90 || r.Status != "complete" {
			t.Errorf("row totals = %+v", r)
		}
		if r.Location != "Office, HQ" || r.Weekday != "Mon" {
			t.Errorf("row = %+v", r)
		}
	})

	t.Run("missing day has dashes", func(t *testing.T) {
		r := rows[1]
		if r.Entry != "-" || r.Exit != "-" || r.Status != "missing" {
			t.Errorf("missing row = %+v", r)
		}
	})
}

func TestRender_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleTimesheet(), CSV); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v", records[0])
	}
	want := []string{"2024-03-04", "Mon", "08:00", "12:00", "13:00", "19:30", "630", "90", "0", "complete", "Office, HQ"}
	if strings.Join(records[1], "|") != strings.Join(want, "|") {
		t.Errorf("row = %v, want %v", records[1], want)
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleTimesheet(), JSON); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var doc struct {
		Month  string `json:"month"`
		Totals struct {
			WorkedMinutes int `json:"workedMinutes"`
			Absences      int `json:"absences"`
		} `json:"totals"`
		Days []struct {
			Date   string         `json:"date"`
			Status string         `json:"status"`
			Events []punch.Record `json:"events"`
		} `json:"days"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if doc.Month != "2024-03" || doc.Totals.WorkedMinutes != 630 || doc.Totals.Absences != 1 {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Days) != 2 || len(doc.Days[0].Events) != 4 {
		t.Fatalf("days = %+v", doc.Days)
	}

	ev, err := punch.ParseRecord(doc.Days[0].Events[0])
	if err != nil {
		t.Fatalf("exported record does not parse: %v", err)
	}
	if ev.OffsetMinutes != -180 || !ev.CapturedAt.Equal(at("2024-03-04T11:00:00Z")) {
		t.Errorf("event = %+v", ev)
	}
}

func TestRender_Markdown(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleTimesheet(), Markdown); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Timesheet 2024-03",
		"| Mon 2024-03-04 | 08:00 | 12:00 | 13:00 | 19:30 | 10h 30m | 1h 30m | 0h 00m | complete | Office, HQ |",
		"**Worked:** 10h 30m",
		"**Absences:** 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}
