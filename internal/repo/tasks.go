package repo

import (
	"context"
	"database/sql"
	"errors"

	"projectdesk/internal/domain"
)

const taskColumns = `id,titulo,descripcion,fecha_asignada,fecha_limite,estado`

type projectTask struct {
	projectID string
	task      domain.Task
}

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	if err := row.Scan(&t.ID, &t.Titulo, &t.Descripcion, &t.FechaAsignada, &t.FechaLimite, &t.Estado); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, ErrNotFound
		}
		return t, err
	}
	return t, nil
}

func (r Repo) allTasks(ctx context.Context) ([]projectTask, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT project_id,`+taskColumns+` FROM tasks ORDER BY project_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []projectTask
	for rows.Next() {
		var (
			pt projectTask
			t  = &pt.task
		)
		if err := rows.Scan(&pt.projectID, &t.ID, &t.Titulo, &t.Descripcion, &t.FechaAsignada, &t.FechaLimite, &t.Estado); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

// ListTasks returns a project's tasks in creation order. It does not check the
// project exists.
func (r Repo) ListTasks(ctx context.Context, tx *sql.Tx, projectID string) ([]domain.Task, error) {
	rows, err := r.q(tx).QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id=? ORDER BY position`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r Repo) GetTask(ctx context.Context, tx *sql.Tx, projectID, id string) (domain.Task, error) {
	return scanTask(r.q(tx).QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id=? AND id=?`, projectID, id))
}

// InsertTask appends t after the project's existing tasks.
func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, projectID string, t domain.Task) error {
	q := r.q(tx)
	var next int
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(position),0)+1 FROM tasks WHERE project_id=?`, projectID).Scan(&next); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `INSERT INTO tasks(id,project_id,position,titulo,descripcion,fecha_asignada,fecha_limite,estado) VALUES (?,?,?,?,?,?,?,?)`,
		t.ID, projectID, next, t.Titulo, t.Descripcion, t.FechaAsignada, t.FechaLimite, int(t.Estado))
	return err
}

func (r Repo) UpdateTask(ctx context.Context, tx *sql.Tx, projectID string, t domain.Task) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE tasks SET titulo=?,descripcion=?,fecha_asignada=?,fecha_limite=?,estado=? WHERE project_id=? AND id=?`,
		t.Titulo, t.Descripcion, t.FechaAsignada, t.FechaLimite, int(t.Estado), projectID, t.ID)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (r Repo) DeleteTask(ctx context.Context, tx *sql.Tx, projectID, id string) error {
	res, err := r.q(tx).ExecContext(ctx, `DELETE FROM tasks WHERE project_id=? AND id=?`, projectID, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// ReplaceTasks swaps a project's whole task list, keeping the given order.
func (r Repo) ReplaceTasks(ctx context.Context, tx *sql.Tx, projectID string, tasks []domain.Task) error {
	if _, err := r.q(tx).ExecContext(ctx, `DELETE FROM tasks WHERE project_id=?`, projectID); err != nil {
		return err
	}
	for _, t := range tasks {
		if err := r.InsertTask(ctx, tx, projectID, t); err != nil {
			return err
		}
	}
	return nil
}
