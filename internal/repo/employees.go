package repo

import (
	"context"
	"database/sql"
	"errors"

	"projectdesk/internal/domain"
)

const employeeColumns = `id,nombre,correo,proyectos_json`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (domain.Employee, error) {
	var (
		e    domain.Employee
		list string
	)
	if err := row.Scan(&e.ID, &e.Nombre, &e.Correo, &list); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, ErrNotFound
		}
		return e, err
	}
	ids, err := unmarshalList(list)
	if err != nil {
		return e, err
	}
	e.ProyectosAsignados = ids
	return e, nil
}

func (r Repo) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r Repo) GetEmployee(ctx context.Context, tx *sql.Tx, id string) (domain.Employee, error) {
	return scanEmployee(r.q(tx).QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id=?`, id))
}

func (r Repo) InsertEmployee(ctx context.Context, tx *sql.Tx, e domain.Employee, createdAt string) error {
	list, err := marshalList(e.ProyectosAsignados)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO employees(id,nombre,correo,proyectos_json,created_at) VALUES (?,?,?,?,?)`,
		e.ID, e.Nombre, e.Correo, list, createdAt)
	return err
}

func (r Repo) UpdateEmployee(ctx context.Context, tx *sql.Tx, e domain.Employee) error {
	list, err := marshalList(e.ProyectosAsignados)
	if err != nil {
		return err
	}
	res, err := r.q(tx).ExecContext(ctx, `UPDATE employees SET nombre=?,correo=?,proyectos_json=? WHERE id=?`,
		e.Nombre, e.Correo, list, e.ID)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (r Repo) DeleteEmployee(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := r.q(tx).ExecContext(ctx, `DELETE FROM employees WHERE id=?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
