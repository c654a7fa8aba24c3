package planner_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"goaltrack/internal/domain"
	"goaltrack/internal/planner"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedPlanner(today time.Time) planner.Planner {
	return planner.Planner{Now: func() time.Time { return today }}
}

func TestComputeTotalDays(t *testing.T) {
	tests := []struct {
		start, end time.Time
		want       int
	}{
		{date(2024, 1, 1), date(2024, 1, 1), 1},
		{date(2024, 1, 1), date(2024, 1, 10), 10},
		{date(2024, 2, 1), date(2024, 3, 1), 30},
		{date(2023, 12, 20), date(2024, 1, 5), 17},
		{date(2024, 1, 10), date(2024, 1, 1), 10},
	}
	for _, tt := range tests {
		if got := planner.ComputeTotalDays(tt.start, tt.end); got != tt.want {
			t.Errorf("start=%s end=%s got=%d want=%d", tt.start.Format(domain.DateLayout), tt.end.Format(domain.DateLayout), got, tt.want)
		}
	}
}

func TestComputeTotalDaysMatchesCalendarCount(t *testing.T) {
	start := date(2023, 11, 3)
	for _, s := range []int{0, 17, 58, 300} {
		for _, n := range []int{0, 1, 27, 31, 365, 400} {
			from := start.AddDate(0, 0, s)
			to := from.AddDate(0, 0, n)
			if got := planner.ComputeTotalDays(from, to); got != n+1 {
				t.Fatalf("from=%s n=%d got=%d", from.Format(domain.DateLayout), n, got)
			}
		}
	}
}

func TestComputeDaysElapsed(t *testing.T) {
	start := date(2024, 1, 10)
	if got := planner.ComputeDaysElapsed(start, date(2024, 1, 9)); got != nil {
		t.Fatalf("expected nil before start, got %d", *got)
	}
	got := planner.ComputeDaysElapsed(start, time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC))
	if got == nil || *got != 0 {
		t.Fatalf("expected 0 on start day, got %v", got)
	}
	got = planner.ComputeDaysElapsed(start, time.Date(2024, 1, 15, 1, 0, 0, 0, time.UTC))
	if got == nil || *got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestBuildCalendarReportScenario(t *testing.T) {
	p := fixedPlanner(date(2023, 6, 1))
	r, err := p.BuildCalendarReport(domain.GoalPlan{Name: "Learn Piano", Start: date(2024, 1, 1), End: date(2024, 1, 10)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if r.TotalDays != 10 {
		t.Fatalf("total days %d", r.TotalDays)
	}
	if r.DaysElapsed != nil || r.DaysRemaining != 10 {
		t.Fatalf("not started: elapsed=%v remaining=%d", r.DaysElapsed, r.DaysRemaining)
	}
	if len(r.Months) != 1 {
		t.Fatalf("months %d", len(r.Months))
	}
	jan := r.Months[0]
	if jan.MonthName != "January" || jan.MonthIndex != 0 || jan.Year != 2024 {
		t.Fatalf("unexpected month %+v", jan)
	}
	if jan.FirstWeekdayOffset != 1 || jan.DayCount != 31 || len(jan.Cells) != 31 {
		t.Fatalf("unexpected grid shape offset=%d count=%d cells=%d", jan.FirstWeekdayOffset, jan.DayCount, len(jan.Cells))
	}
	cells := jan.InRange()
	if len(cells) != 10 {
		t.Fatalf("populated cells %d", len(cells))
	}
	for i, c := range cells {
		if c.CalendarDay != i+1 || c.SequenceIndex != i+1 || c.DaysRemaining != 9-i {
			t.Fatalf("cell %d = %+v", i, c)
		}
	}
	for d := 11; d <= 31; d++ {
		if jan.Cells[d-1] != nil {
			t.Fatalf("day %d should be a placeholder", d)
		}
	}
}

func TestBuildCalendarReportRemaining(t *testing.T) {
	plan := domain.GoalPlan{Name: "Run", Start: date(2024, 1, 1), End: date(2024, 1, 10)}
	tests := []struct {
		today       time.Time
		wantElapsed int
		wantRemain  int
	}{
		{date(2024, 1, 1), 0, 9},
		{date(2024, 1, 4), 3, 6},
		{date(2024, 1, 10), 9, 0},
		// past the end the formula goes negative and clamps to total
		{date(2024, 2, 1), 31, 10},
	}
	for _, tt := range tests {
		r, err := fixedPlanner(tt.today).BuildCalendarReport(plan)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if r.DaysElapsed == nil || *r.DaysElapsed != tt.wantElapsed {
			t.Errorf("today=%s elapsed=%v want=%d", tt.today.Format(domain.DateLayout), r.DaysElapsed, tt.wantElapsed)
		}
		if r.DaysRemaining != tt.wantRemain {
			t.Errorf("today=%s remaining=%d want=%d", tt.today.Format(domain.DateLayout), r.DaysRemaining, tt.wantRemain)
		}
	}
}

func TestBuildCalendarReportSameDay(t *testing.T) {
	r, err := fixedPlanner(date(2024, 1, 1)).BuildCalendarReport(domain.GoalPlan{Name: "x", Start: date(2024, 3, 15), End: date(2024, 3, 15)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if r.TotalDays != 1 || len(r.Months) != 1 {
		t.Fatalf("total=%d months=%d", r.TotalDays, len(r.Months))
	}
	cells := r.Months[0].InRange()
	if len(cells) != 1 || cells[0].CalendarDay != 15 || cells[0].SequenceIndex != 1 || cells[0].DaysRemaining != 0 {
		t.Fatalf("cells %+v", cells)
	}
}

func TestBuildCalendarReportYearBoundary(t *testing.T) {
	r, err := fixedPlanner(date(2023, 1, 1)).BuildCalendarReport(domain.GoalPlan{Name: "x", Start: date(2023, 12, 20), End: date(2024, 1, 5)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(r.Months) != 2 {
		t.Fatalf("months %d", len(r.Months))
	}
	if r.Months[0].Year != 2023 || r.Months[0].MonthIndex != 11 || r.Months[1].Year != 2024 || r.Months[1].MonthIndex != 0 {
		t.Fatalf("months out of order: %s %d, %s %d", r.Months[0].MonthName, r.Months[0].Year, r.Months[1].MonthName, r.Months[1].Year)
	}
	dec := r.Months[0].InRange()
	jan := r.Months[1].InRange()
	if len(dec) != 12 || len(jan) != 5 {
		t.Fatalf("dec=%d jan=%d", len(dec), len(jan))
	}
	if dec[len(dec)-1].SequenceIndex != 12 || jan[0].SequenceIndex != 13 {
		t.Fatalf("sequence did not continue: dec last=%d jan first=%d", dec[len(dec)-1].SequenceIndex, jan[0].SequenceIndex)
	}
}

func TestSequenceCoversTotal(t *testing.T) {
	p := fixedPlanner(date(2024, 5, 5))
	ranges := [][2]time.Time{
		{date(2024, 1, 31), date(2024, 3, 1)},
		{date(2023, 2, 14), date(2024, 2, 29)},
		{date(2024, 7, 7), date(2024, 7, 8)},
	}
	for _, rg := range ranges {
		r, err := p.BuildCalendarReport(domain.GoalPlan{Name: "g", Start: rg[0], End: rg[1]})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		next := 1
		for _, m := range r.Months {
			for _, c := range m.InRange() {
				if c.SequenceIndex != next {
					t.Fatalf("%s %d: got index %d want %d", m.MonthName, m.Year, c.SequenceIndex, next)
				}
				if c.DaysRemaining != r.TotalDays-c.SequenceIndex {
					t.Fatalf("remaining %d for index %d", c.DaysRemaining, c.SequenceIndex)
				}
				next++
			}
		}
		if next-1 != r.TotalDays {
			t.Fatalf("populated %d cells, total %d", next-1, r.TotalDays)
		}
	}
}

func TestBuildCalendarReportDeterministic(t *testing.T) {
	p := fixedPlanner(date(2024, 2, 2))
	plan := domain.GoalPlan{Name: "Write book", Start: date(2024, 1, 15), End: date(2024, 4, 2)}
	a, err := p.BuildCalendarReport(plan)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.BuildCalendarReport(plan)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("reports differ")
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Fatalf("json differs")
	}
}

func TestBuildCalendarReportValidation(t *testing.T) {
	p := fixedPlanner(date(2024, 1, 1))
	tests := []struct {
		name  string
		plan  domain.GoalPlan
		field string
	}{
		{"empty name", domain.GoalPlan{Name: "  ", Start: date(2024, 1, 1), End: date(2024, 1, 2)}, "name"},
		{"missing start", domain.GoalPlan{Name: "x", End: date(2024, 1, 2)}, "start_date"},
		{"missing end", domain.GoalPlan{Name: "x", Start: date(2024, 1, 2)}, "end_date"},
		{"end before start", domain.GoalPlan{Name: "x", Start: date(2024, 1, 2), End: date(2024, 1, 1)}, "end_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.BuildCalendarReport(tt.plan)
			var ve *planner.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("field %s want %s", ve.Field, tt.field)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := planner.ParseDate("start_date", "2024-02-29")
	if err != nil || !d.Equal(date(2024, 2, 29)) {
		t.Fatalf("parse: %v %v", d, err)
	}
	d, err = planner.ParseDate("start_date", "")
	if err != nil || !d.IsZero() {
		t.Fatalf("empty should be zero: %v %v", d, err)
	}
	_, err = planner.ParseDate("start_date", "02/29/2024")
	var ve *planner.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestReportIDStable(t *testing.T) {
	plan := domain.GoalPlan{Name: "a", Start: date(2024, 1, 1), End: date(2024, 1, 2)}
	if planner.ReportID(plan) != planner.ReportID(plan) {
		t.Fatal("report id not stable")
	}
	other := plan
	other.Name = "b"
	if planner.ReportID(plan) == planner.ReportID(other) {
		t.Fatal("distinct plans share an id")
	}
}
