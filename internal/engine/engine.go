package engine

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"goaltrack/internal/config"
	"goaltrack/internal/domain"
	"goaltrack/internal/events"
	"goaltrack/internal/export"
	"goaltrack/internal/planner"
	"goaltrack/internal/render"
	"goaltrack/internal/repo"
)

var ErrJournalDisabled = errors.New("journal is disabled")

// Engine ties planning, rendering, export and the journal together. DB may be
// nil, in which case nothing is journaled.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Logger *slog.Logger
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Logger: slog.Default(),
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e Engine) config() *config.Config {
	if e.Config != nil {
		return e.Config
	}
	return config.Default()
}

func (e Engine) journalOn() bool {
	return e.DB != nil && e.config().Journal.Enabled
}

// Exporter returns a PDF exporter configured from the export settings.
func (e Engine) Exporter(title string) export.Exporter {
	cfg := e.config().Export
	ex := export.New()
	ex.Scale = cfg.Scale
	ex.Quality = cfg.JPEGQuality
	ex.PageSize = cfg.PageSize
	ex.Title = title
	ex.Logger = e.logger()
	ex.Now = e.now
	return ex
}

// Generate builds a report for plan as of the engine clock.
func (e Engine) Generate(ctx context.Context, plan domain.GoalPlan, actorID string) (domain.CalendarReport, error) {
	return e.GenerateAt(ctx, plan, e.now(), actorID)
}

// GenerateAt builds a report as if today were the given instant.
func (e Engine) GenerateAt(ctx context.Context, plan domain.GoalPlan, today time.Time, actorID string) (domain.CalendarReport, error) {
	p := planner.Planner{Now: func() time.Time { return today }}
	report, err := p.BuildCalendarReport(plan)
	if err != nil {
		return domain.CalendarReport{}, err
	}
	e.record(ctx, events.TypeReportGenerated, report, actorID, events.EventPayload{
		"start_date":     report.Plan.Start.Format(domain.DateLayout),
		"end_date":       report.Plan.End.Format(domain.DateLayout),
		"total_days":     report.TotalDays,
		"days_remaining": report.DaysRemaining,
		"months":         len(report.Months),
	})
	return report, nil
}

// Export renders report and writes it to w as a PDF: one header page, then
// one page per month.
func (e Engine) Export(ctx context.Context, report domain.CalendarReport, w io.Writer, actorID string) (export.Result, error) {
	header, months := render.Regions(report)
	res, err := e.Exporter("Goal Tracker: "+report.Plan.Name).ExportReport(ctx, header, months, w)
	if err != nil {
		return export.Result{}, err
	}
	e.record(ctx, events.TypeReportExported, report, actorID, events.EventPayload{
		"pages":     res.Pages,
		"bytes":     res.Bytes,
		"file_name": e.FileName(report.Plan.Name),
	})
	return res, nil
}

// FileName returns the download name for a goal.
func (e Engine) FileName(goalName string) string {
	cfg := e.config().Export
	if strings.TrimSpace(goalName) == "" {
		goalName = cfg.DefaultName
	}
	return export.FileName(goalName, cfg.FileSuffix)
}

// Journal lists the most recent journal entries.
func (e Engine) Journal(ctx context.Context, limit int, f repo.JournalFilter) ([]domain.JournalEntry, error) {
	if !e.journalOn() {
		return nil, ErrJournalDisabled
	}
	return e.Repo.LatestEntries(ctx, limit, f)
}

// JournalEntry returns one journal entry by id.
func (e Engine) JournalEntry(ctx context.Context, id int64) (domain.JournalEntry, error) {
	if !e.journalOn() {
		return domain.JournalEntry{}, ErrJournalDisabled
	}
	return e.Repo.GetEntry(ctx, id)
}

// JournalStats counts journal entries per type.
func (e Engine) JournalStats(ctx context.Context) (map[string]int, error) {
	if !e.journalOn() {
		return nil, ErrJournalDisabled
	}
	return e.Repo.CountByType(ctx)
}

// record journals an action. The journal is an audit trail only, so a failed
// write is logged and the caller's result stands.
func (e Engine) record(ctx context.Context, evtType string, report domain.CalendarReport, actorID string, payload events.EventPayload) {
	if !e.journalOn() {
		return
	}
	w := e.Events
	if w.DB == nil {
		w.DB = e.DB
	}
	if w.Now == nil {
		w.Now = e.now
	}
	if err := w.Record(ctx, evtType, report.ID, report.Plan.Name, actorID, payload); err != nil {
		e.logger().Warn("journal write failed", "type", evtType, "report_id", report.ID, "err", err)
	}
}
