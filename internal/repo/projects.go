package repo

import (
	"context"
	"database/sql"
	"errors"

	"projectdesk/internal/domain"
)

const projectColumns = `id,nombre,descripcion,fecha_inicio,fecha_fin,empleados_json`

func scanProject(row rowScanner) (domain.Project, error) {
	var (
		p    domain.Project
		list string
	)
	if err := row.Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.FechaInicio, &p.FechaFin, &list); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, ErrNotFound
		}
		return p, err
	}
	ids, err := unmarshalList(list)
	if err != nil {
		return p, err
	}
	p.EmpleadosAsignados = ids
	p.Tareas = []domain.Task{}
	return p, nil
}

// ListProjects returns every project with its tasks in creation order.
func (r Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	out := []domain.Project{}
	index := map[string]int{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Release the connection before the task query.
	rows.Close()

	tasks, err := r.allTasks(ctx)
	if err != nil {
		return nil, err
	}
	for _, pt := range tasks {
		if i, ok := index[pt.projectID]; ok {
			out[i].Tareas = append(out[i].Tareas, pt.task)
		}
	}
	return out, nil
}

// GetProject loads one project with its tasks.
func (r Repo) GetProject(ctx context.Context, tx *sql.Tx, id string) (domain.Project, error) {
	p, err := scanProject(r.q(tx).QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
	if err != nil {
		return p, err
	}
	tasks, err := r.ListTasks(ctx, tx, id)
	if err != nil {
		return p, err
	}
	p.Tareas = tasks
	return p, nil
}

func (r Repo) ProjectExists(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var n int
	if err := r.q(tx).QueryRowContext(ctx, `SELECT count(*) FROM projects WHERE id=?`, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertProject stores the project row. Tasks are written separately.
func (r Repo) InsertProject(ctx context.Context, tx *sql.Tx, p domain.Project, createdAt string) error {
	list, err := marshalList(p.EmpleadosAsignados)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO projects(id,nombre,descripcion,fecha_inicio,fecha_fin,empleados_json,created_at) VALUES (?,?,?,?,?,?,?)`,
		p.ID, p.Nombre, p.Descripcion, p.FechaInicio, p.FechaFin, list, createdAt)
	return err
}

func (r Repo) UpdateProject(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	list, err := marshalList(p.EmpleadosAsignados)
	if err != nil {
		return err
	}
	res, err := r.q(tx).ExecContext(ctx, `UPDATE projects SET nombre=?,descripcion=?,fecha_inicio=?,fecha_fin=?,empleados_json=? WHERE id=?`,
		p.Nombre, p.Descripcion, p.FechaInicio, p.FechaFin, list, p.ID)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// DeleteProject removes the project; its tasks go with it through the foreign key.
func (r Repo) DeleteProject(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := r.q(tx).ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
