// Package session models the two display modes of the goal tracker: editing a
// draft plan, or viewing a generated report.
package session

import (
	"context"
	"errors"
	"io"

	"goaltrack/internal/domain"
	"goaltrack/internal/export"
	"goaltrack/internal/planner"
)

type Mode string

const (
	ModeEditing Mode = "editing"
	ModeViewing Mode = "viewing"
)

var (
	ErrNotEditing = errors.New("session is viewing a report; go back to edit")
	ErrNotViewing = errors.New("no report generated yet")
)

// State is either Editing or Viewing.
type State interface {
	Mode() Mode
}

// Draft holds the raw form fields.
type Draft struct {
	Name      string
	StartDate string
	EndDate   string
}

type Editing struct {
	Draft Draft
}

func (Editing) Mode() Mode { return ModeEditing }

type Viewing struct {
	Draft  Draft
	Report domain.CalendarReport
}

func (Viewing) Mode() Mode { return ModeViewing }

// Backend generates and exports reports.
type Backend interface {
	Generate(ctx context.Context, plan domain.GoalPlan, actorID string) (domain.CalendarReport, error)
	Export(ctx context.Context, report domain.CalendarReport, w io.Writer, actorID string) (export.Result, error)
	FileName(goalName string) string
}

type Session struct {
	backend Backend
	actorID string
	state   State
}

func New(backend Backend, actorID string) *Session {
	return &Session{backend: backend, actorID: actorID, state: Editing{}}
}

func (s *Session) State() State { return s.state }

func (s *Session) edit(fn func(d *Draft)) error {
	ed, ok := s.state.(Editing)
	if !ok {
		return ErrNotEditing
	}
	fn(&ed.Draft)
	s.state = ed
	return nil
}

func (s *Session) SetName(v string) error {
	return s.edit(func(d *Draft) { d.Name = v })
}

func (s *Session) SetStartDate(v string) error {
	return s.edit(func(d *Draft) { d.StartDate = v })
}

func (s *Session) SetEndDate(v string) error {
	return s.edit(func(d *Draft) { d.EndDate = v })
}

// Generate builds a fresh report from the draft and switches to viewing. On
// any error the state is left untouched.
func (s *Session) Generate(ctx context.Context) (domain.CalendarReport, error) {
	ed, ok := s.state.(Editing)
	if !ok {
		return domain.CalendarReport{}, ErrNotEditing
	}
	plan, err := PlanFromDraft(ed.Draft)
	if err != nil {
		return domain.CalendarReport{}, err
	}
	report, err := s.backend.Generate(ctx, plan, s.actorID)
	if err != nil {
		return domain.CalendarReport{}, err
	}
	s.state = Viewing{Draft: ed.Draft, Report: report}
	return report, nil
}

// Back returns to editing with the draft preserved.
func (s *Session) Back() error {
	v, ok := s.state.(Viewing)
	if !ok {
		return ErrNotViewing
	}
	s.state = Editing{Draft: v.Draft}
	return nil
}

// Download exports the viewed report to w and returns the file name to
// offer it under.
func (s *Session) Download(ctx context.Context, w io.Writer) (string, export.Result, error) {
	v, ok := s.state.(Viewing)
	if !ok {
		return "", export.Result{}, ErrNotViewing
	}
	res, err := s.backend.Export(ctx, v.Report, w, s.actorID)
	if err != nil {
		return "", export.Result{}, err
	}
	return s.backend.FileName(v.Report.Plan.Name), res, nil
}

// PlanFromDraft parses the form fields into a plan without validating it.
func PlanFromDraft(d Draft) (domain.GoalPlan, error) {
	start, err := planner.ParseDate("start_date", d.StartDate)
	if err != nil {
		return domain.GoalPlan{}, err
	}
	end, err := planner.ParseDate("end_date", d.EndDate)
	if err != nil {
		return domain.GoalPlan{}, err
	}
	return domain.GoalPlan{Name: d.Name, Start: start, End: end}, nil
}
