package domain

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

type GoalPlan struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start_date" format:"date"`
	End   time.Time `json:"end_date" format:"date"`
}

type DayCell struct {
	CalendarDay   int `json:"calendar_day"`
	SequenceIndex int `json:"sequence_index"`
	DaysRemaining int `json:"days_remaining"`
}

// MonthGrid holds one calendar month. Cells has DayCount entries; a nil entry
// is a day of the month outside the plan's range.
type MonthGrid struct {
	Year               int        `json:"year"`
	MonthIndex         int        `json:"month_index"`
	MonthName          string     `json:"month_name"`
	FirstWeekdayOffset int        `json:"first_weekday_offset"`
	DayCount           int        `json:"day_count"`
	Cells              []*DayCell `json:"cells"`
}

// InRange returns the populated cells of the month.
func (m MonthGrid) InRange() []DayCell {
	var out []DayCell
	for _, c := range m.Cells {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

type CalendarReport struct {
	ID            string      `json:"id"`
	Plan          GoalPlan    `json:"plan"`
	TotalDays     int         `json:"total_days"`
	DaysElapsed   *int        `json:"days_elapsed,omitempty"`
	DaysRemaining int         `json:"days_remaining"`
	Months        []MonthGrid `json:"months"`
}

type JournalEntry struct {
	ID       int64  `json:"id"`
	TS       string `json:"ts" format:"date-time"`
	Type     string `json:"type"`
	ReportID string `json:"report_id,omitempty"`
	Goal     string `json:"goal,omitempty"`
	ActorID  string `json:"actor_id"`
	Payload  string `json:"payload_json"`
}
