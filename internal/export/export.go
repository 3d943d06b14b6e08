// Package export renders a punch.Timesheet as CSV, JSON or a Markdown table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"punch-go/internal/punch"
)

// Format is an export format.
type Format string

const (
	CSV      Format = "csv"
	JSON     Format = "json"
	Markdown Format = "md"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case CSV, JSON, Markdown:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, json or md)", s)
	}
}

// FileName is the vault name for an export of ts in format f, e.g. "2024-03.csv".
func FileName(ts *punch.Timesheet, f Format) string {
	return ts.Month.String() + "." + string(f)
}

// FormatMinutes renders minutes as "8h 05m".
func FormatMinutes(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%dh %02dm", sign, minutes/60, minutes%60)
}

// Row is one flattened timesheet line. Punch times are HH:MM on the
// capturing device's wall clock; a missing punch is "-".
type Row struct {
	Date       string
	Weekday    string
	Entry      string
	BreakStart string
	BreakEnd   string
	Exit       string
	Worked     int
	Overtime   int
	Deficit    int
	Status     string
	Location   string
	Live       bool
	Anomalies  int
}

// Rows flattens ts.Days, most recent first. A day with several cycles shows
// its first entry and break and its last break end and exit.
func Rows(ts *punch.Timesheet) []Row {
	rows := make([]Row, 0, len(ts.Days))
	for _, d := range ts.Days {
		r := Row{
			Date:       d.Date.String(),
			Weekday:    d.Date.Weekday().String()[:3],
			Entry:      clockTime(d.First(punch.KindEntry)),
			BreakStart: clockTime(d.First(punch.KindBreakStart)),
			BreakEnd:   clockTime(d.Last(punch.KindBreakEnd)),
			Exit:       clockTime(d.Last(punch.KindExit)),
			Worked:     d.WorkedMinutes,
			Overtime:   d.OvertimeMinutes,
			Deficit:    d.DeficitMinutes,
			Status:     string(d.Completion),
			Live:       d.Live,
			Anomalies:  len(d.Anomalies),
		}
		if e := d.First(punch.KindEntry); e != nil && e.LocationLabel != nil {
			r.Location = *e.LocationLabel
		}
		rows = append(rows, r)
	}
	return rows
}

func clockTime(ev *punch.PunchEvent) string {
	if ev == nil {
		return "-"
	}
	return ev.LocalTime().Format("15:04")
}

// Render writes ts to w in format f.
func Render(w io.Writer, ts *punch.Timesheet, f Format) error {
	switch f {
	case CSV:
		return renderCSV(w, ts)
	case JSON:
		return renderJSON(w, ts)
	case Markdown:
		return renderMarkdown(w, ts)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

var csvHeader = []string{
	"date", "weekday", "entry", "break_start", "break_end", "exit",
	"worked_minutes", "overtime_minutes", "deficit_minutes", "status", "location",
}

func renderCSV(w io.Writer, ts *punch.Timesheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range Rows(ts) {
		rec := []string{
			r.Date, r.Weekday, r.Entry, r.BreakStart, r.BreakEnd, r.Exit,
			strconv.Itoa(r.Worked), strconv.Itoa(r.Overtime), strconv.Itoa(r.Deficit),
			r.Status, r.Location,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

type jsonDocument struct {
	Month            string     `json:"month"`
	ThresholdMinutes int        `json:"thresholdMinutes"`
	Totals           jsonTotals `json:"totals"`
	Days             []jsonDay  `json:"days"`
}

type jsonTotals struct {
	WorkedMinutes   int `json:"workedMinutes"`
	OvertimeMinutes int `json:"overtimeMinutes"`
	DeficitMinutes  int `json:"deficitMinutes"`
	WorkingDays     int `json:"workingDays"`
	Absences        int `json:"absences"`
	IncompleteDays  int `json:"incompleteDays"`
}

type jsonDay struct {
	Date            string         `json:"date"`
	Status          string         `json:"status"`
	WorkedMinutes   int            `json:"workedMinutes"`
	OvertimeMinutes int            `json:"overtimeMinutes"`
	DeficitMinutes  int            `json:"deficitMinutes"`
	Live            bool           `json:"live,omitempty"`
	Events          []punch.Record `json:"events"`
	Anomalies       []jsonAnomaly  `json:"anomalies,omitempty"`
}

type jsonAnomaly struct {
	Kind    string `json:"kind"`
	EventID string `json:"eventId"`
	Detail  string `json:"detail"`
}

func renderJSON(w io.Writer, ts *punch.Timesheet) error {
	doc := jsonDocument{
		Month:            ts.Month.String(),
		ThresholdMinutes: ts.ThresholdMinutes,
		Totals: jsonTotals{
			WorkedMinutes:   ts.TotalWorkedMinutes,
			OvertimeMinutes: ts.TotalOvertimeMinutes,
			DeficitMinutes:  ts.TotalDeficitMinutes,
			WorkingDays:     ts.WorkingDays,
			Absences:        ts.Absences,
			IncompleteDays:  ts.IncompleteDays,
		},
		Days: make([]jsonDay, 0, len(ts.Days)),
	}
	for _, d := range ts.Days {
		day := jsonDay{
			Date:            d.Date.String(),
			Status:          string(d.Completion),
			WorkedMinutes:   d.WorkedMinutes,
			OvertimeMinutes: d.OvertimeMinutes,
			DeficitMinutes:  d.DeficitMinutes,
			Live:            d.Live,
			Events:          make([]punch.Record, 0, len(d.Events)),
		}
		for _, ev := range d.Events {
			day.Events = append(day.Events, punch.RecordOf(ev))
		}
		for _, a := range d.Anomalies {
			day.Anomalies = append(day.Anomalies, jsonAnomaly{Kind: string(a.Kind), EventID: a.EventID, Detail: a.Detail})
		}
		doc.Days = append(doc.Days, day)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func renderMarkdown(w io.Writer, ts *punch.Timesheet) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Timesheet %s\n\n", ts.Month)
	b.WriteString("| Date | Entry | Break start | Break end | Exit | Worked | Overtime | Deficit | Status | Location |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
	for _, r := range Rows(ts) {
		status := r.Status
		if r.Live {
			status += " (live)"
		}
		if r.Anomalies > 0 {
			status += " !"
		}
		fmt.Fprintf(&b, "| %s %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Weekday, r.Date, r.Entry, r.BreakStart, r.BreakEnd, r.Exit,
			FormatMinutes(r.Worked), FormatMinutes(r.Overtime), FormatMinutes(r.Deficit),
			status, mdEscape(r.Location))
	}
	fmt.Fprintf(&b, "\n**Worked:** %s  \n**Overtime:** %s  \n**Deficit:** %s  \n",
		FormatMinutes(ts.TotalWorkedMinutes), FormatMinutes(ts.TotalOvertimeMinutes), FormatMinutes(ts.TotalDeficitMinutes))
	fmt.Fprintf(&b, "**Working days:** %d  \n**Absences:** %d  \n**Incomplete:** %d\n",
		ts.WorkingDays, ts.Absences, ts.IncompleteDays)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
