package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"projectdesk/internal/events"
)

type EventFilter struct {
	Limit      int
	Type       string
	EntityKind string
	EntityID   string
	ProjectID  string
}

// LatestEvents returns the newest audit events first.
func (r Repo) LatestEvents(ctx context.Context, f EventFilter) ([]events.Event, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	clauses := []string{"1=1"}
	var args []any
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.EntityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, f.EntityKind)
	}
	if f.EntityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, f.EntityID)
	}
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	query := fmt.Sprintf(`SELECT id,ts,type,entity_kind,entity_id,COALESCE(project_id,''),payload_json FROM events WHERE %s ORDER BY id DESC LIMIT ?`,
		strings.Join(clauses, " AND "))
	args = append(args, f.Limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []events.Event{}
	for rows.Next() {
		var (
			e       events.Event
			payload string
		)
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ProjectID, &payload); err != nil {
			return nil, err
		}
		e.Payload = events.Payload{}
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
				return nil, fmt.Errorf("decode event %d payload: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
