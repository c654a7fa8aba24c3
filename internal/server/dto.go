package server

import (
	"encoding/json"

	"goaltrack/internal/domain"
)

// Request payloads

type ReportRequest struct {
	Name      string `json:"name" doc:"Goal name" example:"Learn Piano"`
	StartDate string `json:"start_date" doc:"First day of the goal (YYYY-MM-DD)" example:"2024-01-01"`
	EndDate   string `json:"end_date" doc:"Last day of the goal (YYYY-MM-DD)" example:"2024-01-10"`
}

// Response payloads

type PlanResponse struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date" format:"date"`
	EndDate   string `json:"end_date" format:"date"`
}

type DayCellResponse struct {
	CalendarDay   int `json:"calendar_day"`
	SequenceIndex int `json:"sequence_index"`
	DaysRemaining int `json:"days_remaining"`
}

type MonthResponse struct {
	Year               int    `json:"year"`
	MonthIndex         int    `json:"month_index" doc:"0 for January"`
	MonthName          string `json:"month_name"`
	FirstWeekdayOffset int    `json:"first_weekday_offset" doc:"0 for Sunday"`
	DayCount           int    `json:"day_count"`
	// Cells has one entry per day of the month; null marks a day outside the goal.
	Cells []*DayCellResponse `json:"cells"`
}

type ReportResponse struct {
	ID            string          `json:"id"`
	Plan          PlanResponse    `json:"plan"`
	TotalDays     int             `json:"total_days"`
	DaysElapsed   *int            `json:"days_elapsed,omitempty"`
	DaysRemaining int             `json:"days_remaining"`
	FileName      string          `json:"file_name"`
	Months        []MonthResponse `json:"months"`
}

type JournalEntryResponse struct {
	ID       int64          `json:"id"`
	TS       string         `json:"ts" format:"date-time"`
	Type     string         `json:"type"`
	ReportID string         `json:"report_id,omitempty"`
	Goal     string         `json:"goal,omitempty"`
	ActorID  string         `json:"actor_id"`
	Payload  map[string]any `json:"payload,omitempty"`
}

type paginatedJournal struct {
	Items      []JournalEntryResponse `json:"items"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

func planResponse(p domain.GoalPlan) PlanResponse {
	return PlanResponse{
		Name:      p.Name,
		StartDate: p.Start.Format(domain.DateLayout),
		EndDate:   p.End.Format(domain.DateLayout),
	}
}

func reportResponse(r domain.CalendarReport, fileName string) ReportResponse {
	resp := ReportResponse{
		ID:            r.ID,
		Plan:          planResponse(r.Plan),
		TotalDays:     r.TotalDays,
		DaysElapsed:   r.DaysElapsed,
		DaysRemaining: r.DaysRemaining,
		FileName:      fileName,
		Months:        make([]MonthResponse, 0, len(r.Months)),
	}
	for _, m := range r.Months {
		mr := MonthResponse{
			Year:               m.Year,
			MonthIndex:         m.MonthIndex,
			MonthName:          m.MonthName,
			FirstWeekdayOffset: m.FirstWeekdayOffset,
			DayCount:           m.DayCount,
			Cells:              make([]*DayCellResponse, len(m.Cells)),
		}
		for i, c := range m.Cells {
			if c == nil {
				continue
			}
			mr.Cells[i] = &DayCellResponse{
				CalendarDay:   c.CalendarDay,
				SequenceIndex: c.SequenceIndex,
				DaysRemaining: c.DaysRemaining,
			}
		}
		resp.Months = append(resp.Months, mr)
	}
	return resp
}

func journalEntryResponse(e domain.JournalEntry) JournalEntryResponse {
	resp := JournalEntryResponse{
		ID:       e.ID,
		TS:       e.TS,
		Type:     e.Type,
		ReportID: e.ReportID,
		Goal:     e.Goal,
		ActorID:  e.ActorID,
	}
	if e.Payload != "" {
		_ = json.Unmarshal([]byte(e.Payload), &resp.Payload)
	}
	return resp
}
