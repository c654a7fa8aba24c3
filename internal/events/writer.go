package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypeReportGenerated = "report.generated"
	TypeReportExported  = "report.exported"
)

// Writer appends entries to the export journal.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

// Append writes one journal entry inside tx.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, reportID, goal, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	if evtType == "" {
		return fmt.Errorf("journal entry type is required")
	}
	if actorID == "" {
		actorID = "local-user"
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO journal(ts,type,report_id,goal,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		ts, evtType, nullable(reportID), nullable(goal), actorID, string(data))
	return err
}

// Record appends a single entry in its own transaction.
func (w Writer) Record(ctx context.Context, evtType, reportID, goal, actorID string, payload EventPayload) error {
	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := w.Append(ctx, tx, evtType, reportID, goal, actorID, payload); err != nil {
		return err
	}
	return tx.Commit()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
