package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"projectdesk/internal/domain"
)

var errTransport = errors.New("connection refused")

// fakeAPI is an in-memory backend. Setting fail makes the next call return it.
type fakeAPI struct {
	mu        sync.Mutex
	seq       int
	calls     []string
	fail      error
	employees []domain.Employee
	projects  []domain.Project
	// echoTasks controls whether UpdateProject echoes the tareas field.
	echoTasks bool
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.fail != nil {
		err := f.fail
		f.fail = nil
		return err
	}
	return nil
}

func (f *fakeAPI) nextID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	if err := f.record("list_employees"); err != nil {
		return nil, err
	}
	return append([]domain.Employee(nil), f.employees...), nil
}

func (f *fakeAPI) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	if err := f.record("get_employee " + id); err != nil {
		return domain.Employee{}, err
	}
	for _, e := range f.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Employee{}, errors.New("api error: status=404")
}

func (f *fakeAPI) CreateEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	if err := f.record("create_employee"); err != nil {
		return domain.Employee{}, err
	}
	e.ID = f.nextID("e")
	f.employees = append(f.employees, e)
	return e, nil
}

func (f *fakeAPI) UpdateEmployee(ctx context.Context, id string, patch domain.EmployeePatch) (domain.Employee, error) {
	if err := f.record("update_employee " + id); err != nil {
		return domain.Employee{}, err
	}
	for i, e := range f.employees {
		if e.ID == id {
			f.employees[i] = patch.Apply(e)
			return f.employees[i], nil
		}
	}
	return patch.Apply(domain.Employee{ID: id}), nil
}

func (f *fakeAPI) DeleteEmployee(ctx context.Context, id string) error {
	if err := f.record("delete_employee " + id); err != nil {
		return err
	}
	out := f.employees[:0]
	for _, e := range f.employees {
		if e.ID != id {
			out = append(out, e)
		}
	}
	f.employees = out
	return nil
}

func (f *fakeAPI) ListProjects(ctx context.Context) ([]domain.Project, error) {
	if err := f.record("list_projects"); err != nil {
		return nil, err
	}
	out := make([]domain.Project, len(f.projects))
	for i, p := range f.projects {
		out[i] = p.Clone()
	}
	return out, nil
}

func (f *fakeAPI) GetProject(ctx context.Context, id string) (domain.Project, error) {
	if err := f.record("get_project " + id); err != nil {
		return domain.Project{}, err
	}
	for _, p := range f.projects {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return domain.Project{}, errors.New("api error: status=404")
}

func (f *fakeAPI) CreateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	if err := f.record("create_project"); err != nil {
		return domain.Project{}, err
	}
	p.ID = f.nextID("p")
	// Mimic a backend that omits empty lists.
	stored := p.Clone()
	f.projects = append(f.projects, stored)
	p.Tareas = nil
	return p, nil
}

func (f *fakeAPI) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.ProjectPatch, error) {
	if err := f.record("update_project " + id); err != nil {
		return domain.ProjectPatch{}, err
	}
	for i, p := range f.projects {
		if p.ID == id {
			f.projects[i] = patch.Apply(p)
			updated := f.projects[i]
			resp := domain.ProjectPatch{
				ID:                 &updated.ID,
				Nombre:             &updated.Nombre,
				Descripcion:        &updated.Descripcion,
				FechaInicio:        &updated.FechaInicio,
				FechaFin:           &updated.FechaFin,
				EmpleadosAsignados: &updated.EmpleadosAsignados,
			}
			if f.echoTasks {
				resp.Tareas = &updated.Tareas
			}
			return resp, nil
		}
	}
	return domain.ProjectPatch{}, errors.New("api error: status=404")
}

func (f *fakeAPI) DeleteProject(ctx context.Context, id string) error {
	if err := f.record("delete_project " + id); err != nil {
		return err
	}
	out := f.projects[:0]
	for _, p := range f.projects {
		if p.ID != id {
			out = append(out, p)
		}
	}
	f.projects = out
	return nil
}

func (f *fakeAPI) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	if err := f.record("list_tasks " + projectID); err != nil {
		return nil, err
	}
	for _, p := range f.projects {
		if p.ID == projectID {
			return append([]domain.Task{}, p.Tareas...), nil
		}
	}
	return nil, errors.New("api error: status=404")
}

func (f *fakeAPI) CreateTask(ctx context.Context, projectID string, t domain.Task) (domain.Task, error) {
	if err := f.record("create_task " + projectID); err != nil {
		return domain.Task{}, err
	}
	t.ID = f.nextID("t")
	for i, p := range f.projects {
		if p.ID == projectID {
			f.projects[i].Tareas = append(f.projects[i].Tareas, t)
		}
	}
	return t, nil
}

func (f *fakeAPI) UpdateTask(ctx context.Context, projectID, taskID string, patch domain.TaskPatch) (domain.TaskPatch, error) {
	if err := f.record("update_task " + projectID + "/" + taskID); err != nil {
		return domain.TaskPatch{}, err
	}
	// Echo only the fields that were sent, like a backend returning the patch.
	return patch, nil
}

func (f *fakeAPI) DeleteTask(ctx context.Context, projectID, taskID string) error {
	return f.record("delete_task " + projectID + "/" + taskID)
}
