// Package engine holds the development backend's business rules. Every
// mutation runs in one transaction together with its audit event.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"projectdesk/internal/domain"
	"projectdesk/internal/events"
	"projectdesk/internal/repo"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Now    func() time.Time
	NewID  func() string
	Log    logrus.FieldLogger
}

func New(db *sql.DB, log logrus.FieldLogger) Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{},
		Now:    time.Now,
		NewID:  uuid.NewString,
		Log:    log,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

// writer stamps events with the engine clock unless Events has its own.
func (e Engine) writer() events.Writer {
	w := e.Events
	if w.Now == nil {
		w.Now = e.now
	}
	return w
}

func (e Engine) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func validateEmployee(emp domain.Employee) error {
	if strings.TrimSpace(emp.Nombre) == "" {
		return invalid("nombre is required")
	}
	return nil
}

func validateProject(p domain.Project) error {
	if strings.TrimSpace(p.Nombre) == "" {
		return invalid("nombre is required")
	}
	for _, t := range p.Tareas {
		if err := validateTask(t); err != nil {
			return err
		}
	}
	return nil
}

func validateTask(t domain.Task) error {
	if strings.TrimSpace(t.Titulo) == "" {
		return invalid("titulo is required")
	}
	if !t.Estado.Valid() {
		return invalid("estado %d out of range", int(t.Estado))
	}
	return nil
}

func (e Engine) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return e.Repo.ListEmployees(ctx)
}

func (e Engine) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	return e.Repo.GetEmployee(ctx, nil, id)
}

// CreateEmployee stores emp under a fresh id unless the caller supplied one.
func (e Engine) CreateEmployee(ctx context.Context, emp domain.Employee) (domain.Employee, error) {
	emp = emp.Normalize()
	if err := validateEmployee(emp); err != nil {
		return domain.Employee{}, err
	}
	if emp.ID == "" {
		emp.ID = e.newID()
	}
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := e.Repo.GetEmployee(ctx, tx, emp.ID); err == nil {
			return fmt.Errorf("%w: employee %s already exists", ErrConflict, emp.ID)
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if err := e.Repo.InsertEmployee(ctx, tx, emp, e.stamp()); err != nil {
			return fmt.Errorf("insert employee: %w", err)
		}
		return e.writer().Append(ctx, tx, events.EmployeeCreated, "employee", emp.ID, "", events.Payload{"nombre": emp.Nombre})
	})
	if err != nil {
		return domain.Employee{}, err
	}
	e.Log.WithField("employee_id", emp.ID).Info("employee created")
	return emp, nil
}

// UpdateEmployee merges patch into the stored record and returns the result.
func (e Engine) UpdateEmployee(ctx context.Context, id string, patch domain.EmployeePatch) (domain.Employee, error) {
	var out domain.Employee
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := e.Repo.GetEmployee(ctx, tx, id)
		if err != nil {
			return err
		}
		out = patch.Apply(cur).Normalize()
		if err := validateEmployee(out); err != nil {
			return err
		}
		if err := e.Repo.UpdateEmployee(ctx, tx, out); err != nil {
			return fmt.Errorf("update employee: %w", err)
		}
		return e.writer().Append(ctx, tx, events.EmployeeUpdated, "employee", id, "", events.Payload{
			"fields": patch.Fields(),
		})
	})
	if err != nil {
		return domain.Employee{}, err
	}
	return out, nil
}

func (e Engine) DeleteEmployee(ctx context.Context, id string) error {
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.DeleteEmployee(ctx, tx, id); err != nil {
			return err
		}
		return e.writer().Append(ctx, tx, events.EmployeeDeleted, "employee", id, "", nil)
	})
	if err == nil {
		e.Log.WithField("employee_id", id).Info("employee deleted")
	}
	return err
}

func (e Engine) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return e.Repo.ListProjects(ctx)
}

func (e Engine) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return e.Repo.GetProject(ctx, nil, id)
}

// assignTaskIDs gives every task without an id a fresh one.
func (e Engine) assignTaskIDs(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		if t.ID == "" {
			t.ID = e.newID()
		}
		out[i] = t
	}
	return out
}

// CreateProject stores p and any tasks it carries.
func (e Engine) CreateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	p = p.Normalize()
	if err := validateProject(p); err != nil {
		return domain.Project{}, err
	}
	if p.ID == "" {
		p.ID = e.newID()
	}
	p.Tareas = e.assignTaskIDs(p.Tareas)
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := e.Repo.ProjectExists(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: project %s already exists", ErrConflict, p.ID)
		}
		if err := e.Repo.InsertProject(ctx, tx, p, e.stamp()); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		if err := e.Repo.ReplaceTasks(ctx, tx, p.ID, p.Tareas); err != nil {
			return fmt.Errorf("insert tasks: %w", err)
		}
		return e.writer().Append(ctx, tx, events.ProjectCreated, "project", p.ID, p.ID, events.Payload{
			"nombre": p.Nombre,
			"tareas": len(p.Tareas),
		})
	})
	if err != nil {
		return domain.Project{}, err
	}
	e.Log.WithField("project_id", p.ID).Info("project created")
	return p, nil
}

// UpdateProject merges patch into the stored project. The id is immutable; a
// tareas field replaces the whole task list.
func (e Engine) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	patch.ID = nil
	var out domain.Project
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := e.Repo.GetProject(ctx, tx, id)
		if err != nil {
			return err
		}
		out = patch.Apply(cur)
		if patch.Tareas != nil {
			out.Tareas = e.assignTaskIDs(out.Tareas)
		}
		if err := validateProject(out); err != nil {
			return err
		}
		if err := e.Repo.UpdateProject(ctx, tx, out); err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		if patch.Tareas != nil {
			if err := e.Repo.ReplaceTasks(ctx, tx, id, out.Tareas); err != nil {
				return fmt.Errorf("replace tasks: %w", err)
			}
		}
		return e.writer().Append(ctx, tx, events.ProjectUpdated, "project", id, id, events.Payload{
			"fields": patch.Fields(),
		})
	})
	if err != nil {
		return domain.Project{}, err
	}
	return out, nil
}

func (e Engine) DeleteProject(ctx context.Context, id string) error {
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.DeleteProject(ctx, tx, id); err != nil {
			return err
		}
		return e.writer().Append(ctx, tx, events.ProjectDeleted, "project", id, id, nil)
	})
	if err == nil {
		e.Log.WithField("project_id", id).Info("project deleted")
	}
	return err
}

func (e Engine) requireProject(ctx context.Context, tx *sql.Tx, projectID string) error {
	ok, err := e.Repo.ProjectExists(ctx, tx, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, repo.ErrNotFound)
	}
	return nil
}

func (e Engine) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	if err := e.requireProject(ctx, nil, projectID); err != nil {
		return nil, err
	}
	return e.Repo.ListTasks(ctx, nil, projectID)
}

// CreateTask appends t to the project's task list.
func (e Engine) CreateTask(ctx context.Context, projectID string, t domain.Task) (domain.Task, error) {
	if err := validateTask(t); err != nil {
		return domain.Task{}, err
	}
	if t.ID == "" {
		t.ID = e.newID()
	}
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		if err := e.requireProject(ctx, tx, projectID); err != nil {
			return err
		}
		if _, err := e.Repo.GetTask(ctx, tx, projectID, t.ID); err == nil {
			return fmt.Errorf("%w: task %s already exists", ErrConflict, t.ID)
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if err := e.Repo.InsertTask(ctx, tx, projectID, t); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return e.writer().Append(ctx, tx, events.TaskCreated, "task", t.ID, projectID, events.Payload{
			"titulo": t.Titulo,
			"estado": t.Estado.String(),
		})
	})
	if err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// UpdateTask merges patch into the stored task and returns the full result.
func (e Engine) UpdateTask(ctx context.Context, projectID, taskID string, patch domain.TaskPatch) (domain.Task, error) {
	patch.ID = nil
	var out domain.Task
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		if err := e.requireProject(ctx, tx, projectID); err != nil {
			return err
		}
		cur, err := e.Repo.GetTask(ctx, tx, projectID, taskID)
		if err != nil {
			return fmt.Errorf("task %s: %w", taskID, err)
		}
		out = patch.Apply(cur)
		if err := validateTask(out); err != nil {
			return err
		}
		if err := e.Repo.UpdateTask(ctx, tx, projectID, out); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		payload := events.Payload{
			"fields": patch.Fields(),
		}
		if patch.Estado != nil && *patch.Estado != cur.Estado {
			payload["from"] = cur.Estado.String()
			payload["to"] = out.Estado.String()
		}
		return e.writer().Append(ctx, tx, events.TaskUpdated, "task", taskID, projectID, payload)
	})
	if err != nil {
		return domain.Task{}, err
	}
	return out, nil
}

func (e Engine) DeleteTask(ctx context.Context, projectID, taskID string) error {
	return e.withTx(ctx, func(tx *sql.Tx) error {
		if err := e.requireProject(ctx, tx, projectID); err != nil {
			return err
		}
		if err := e.Repo.DeleteTask(ctx, tx, projectID, taskID); err != nil {
			return fmt.Errorf("task %s: %w", taskID, err)
		}
		return e.writer().Append(ctx, tx, events.TaskDeleted, "task", taskID, projectID, nil)
	})
}

func (e Engine) LatestEvents(ctx context.Context, f repo.EventFilter) ([]events.Event, error) {
	return e.Repo.LatestEvents(ctx, f)
}
