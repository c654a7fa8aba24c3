package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"goaltrack/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// JournalFilter narrows journal listings. Zero values match everything.
type JournalFilter struct {
	Type     string
	ReportID string
	ActorID  string
	// Cursor returns entries with IDs below it when positive.
	Cursor int64
}

func (r Repo) LatestEntries(ctx context.Context, limit int, f JournalFilter) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	clauses := []string{"1=1"}
	var args []any
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.ReportID != "" {
		clauses = append(clauses, "report_id=?")
		args = append(args, f.ReportID)
	}
	if f.ActorID != "" {
		clauses = append(clauses, "actor_id=?")
		args = append(args, f.ActorID)
	}
	if f.Cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, f.Cursor)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,COALESCE(report_id,''),COALESCE(goal,''),actor_id,payload_json FROM journal %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.ReportID, &e.Goal, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) GetEntry(ctx context.Context, id int64) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := r.DB.QueryRowContext(ctx, `SELECT id,ts,type,COALESCE(report_id,''),COALESCE(goal,''),actor_id,payload_json FROM journal WHERE id=?`, id).
		Scan(&e.ID, &e.TS, &e.Type, &e.ReportID, &e.Goal, &e.ActorID, &e.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

// CountByType returns how many journal entries exist per type.
func (r Repo) CountByType(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT type, COUNT(*) FROM journal GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		res[typ] = n
	}
	return res, rows.Err()
}
