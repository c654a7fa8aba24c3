package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"goaltrack/internal/domain"
)

const day = 24 * time.Hour

// ValidationError rejects a plan before any calendar is computed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type Planner struct {
	Now func() time.Time
}

func New() Planner {
	return Planner{Now: time.Now}
}

func (p Planner) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// ParseDate reads a YYYY-MM-DD date. An empty string yields the zero time so
// that Validate reports the field as missing.
func ParseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", raw)}
	}
	return t, nil
}

// Validate checks the plan invariants: a name, both dates, end not before start.
func Validate(plan domain.GoalPlan) error {
	if strings.TrimSpace(plan.Name) == "" {
		return &ValidationError{Field: "name", Message: "goal name is required"}
	}
	if plan.Start.IsZero() {
		return &ValidationError{Field: "start_date", Message: "start date is required"}
	}
	if plan.End.IsZero() {
		return &ValidationError{Field: "end_date", Message: "end date is required"}
	}
	if midnight(plan.End).Before(midnight(plan.Start)) {
		return &ValidationError{Field: "end_date", Message: "end date must be after start date"}
	}
	return nil
}

// ComputeTotalDays counts the days of the inclusive range. The difference is
// absolute; callers validate ordering.
func ComputeTotalDays(start, end time.Time) int {
	diff := end.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	return int((diff+day-1)/day) + 1
}

// ComputeDaysElapsed returns whole days between start and today, both taken at
// midnight, or nil when today is before start.
func ComputeDaysElapsed(start, today time.Time) *int {
	s := midnight(start)
	t := midnight(today)
	if t.Before(s) {
		return nil
	}
	n := int(t.Sub(s) / day)
	return &n
}

// ReportID is stable for a given name and range.
func ReportID(plan domain.GoalPlan) string {
	key := plan.Name + "|" + plan.Start.Format(domain.DateLayout) + "|" + plan.End.Format(domain.DateLayout)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// BuildCalendarReport validates the plan and computes the whole report from
// scratch.
func (p Planner) BuildCalendarReport(plan domain.GoalPlan) (domain.CalendarReport, error) {
	if err := Validate(plan); err != nil {
		return domain.CalendarReport{}, err
	}
	plan.Start = midnight(plan.Start)
	plan.End = midnight(plan.End)

	total := ComputeTotalDays(plan.Start, plan.End)
	elapsed := ComputeDaysElapsed(plan.Start, p.now())
	remaining := total
	if elapsed != nil {
		remaining = total - *elapsed - 1
	}
	if remaining < 0 {
		remaining = total
	}

	var months []domain.MonthGrid
	seq := 0
	last := firstOfMonth(plan.End)
	for cur := firstOfMonth(plan.Start); !cur.After(last); cur = cur.AddDate(0, 1, 0) {
		year, month := cur.Year(), cur.Month()
		count := daysIn(year, month)
		grid := domain.MonthGrid{
			Year:               year,
			MonthIndex:         int(month) - 1,
			MonthName:          month.String(),
			FirstWeekdayOffset: int(cur.Weekday()),
			DayCount:           count,
			Cells:              make([]*domain.DayCell, count),
		}
		for d := 1; d <= count; d++ {
			date := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
			if date.Before(plan.Start) || date.After(plan.End) {
				continue
			}
			seq++
			grid.Cells[d-1] = &domain.DayCell{
				CalendarDay:   d,
				SequenceIndex: seq,
				DaysRemaining: total - seq,
			}
		}
		months = append(months, grid)
	}

	return domain.CalendarReport{
		ID:            ReportID(plan),
		Plan:          plan,
		TotalDays:     total,
		DaysElapsed:   elapsed,
		DaysRemaining: remaining,
		Months:        months,
	}, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
