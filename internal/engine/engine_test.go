package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"projectdesk/internal/db"
	"projectdesk/internal/domain"
	"projectdesk/internal/engine"
	"projectdesk/internal/logging"
	"projectdesk/internal/migrate"
	"projectdesk/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	ctx := context.Background()
	if _, err := migrate.Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, logging.Discard())
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	seq := 0
	eng.NewID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func TestEmployeeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	e, err := env.Engine.CreateEmployee(env.Ctx, domain.Employee{Nombre: "Ana", Correo: "a@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.ID != "id-1" || e.ProyectosAsignados == nil {
		t.Fatalf("unexpected employee %+v", e)
	}
	updated, err := env.Engine.UpdateEmployee(env.Ctx, e.ID, domain.EmployeePatch{Correo: domain.StringPtr("ana@x.com")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Nombre != "Ana" || updated.Correo != "ana@x.com" {
		t.Fatalf("partial update lost fields: %+v", updated)
	}
	if err := env.Engine.DeleteEmployee(env.Ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Engine.GetEmployee(env.Ctx, e.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := env.Engine.DeleteEmployee(env.Ctx, e.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestCreateEmployeeValidation(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.CreateEmployee(env.Ctx, domain.Employee{Nombre: "  "}); !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := env.Engine.CreateEmployee(env.Ctx, domain.Employee{ID: "e1", Nombre: "Ana"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.Engine.CreateEmployee(env.Ctx, domain.Employee{ID: "e1", Nombre: "Bea"}); !errors.Is(err, engine.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestProjectWithTasksRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProject(env.Ctx, domain.Project{
		Nombre:      "Portal",
		FechaInicio: "2024-01-01",
		FechaFin:    "2024-03-01",
		Tareas: []domain.Task{
			{Titulo: "Design", FechaLimite: "2024-01-15"},
			{Titulo: "Build", FechaLimite: "2024-02-15", Estado: domain.StatusInProgress},
		},
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	got, err := env.Engine.GetProject(env.Ctx, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if len(got.Tareas) != 2 || got.Tareas[0].Titulo != "Design" || got.Tareas[1].Estado != domain.StatusInProgress {
		t.Fatalf("tasks not persisted in order: %+v", got.Tareas)
	}
	if got.Tareas[0].ID == "" {
		t.Fatalf("tasks must receive ids")
	}
	if got.EmpleadosAsignados == nil {
		t.Fatalf("list fields must never be nil")
	}
}

func TestUpdateProjectKeepsTasksUnlessSent(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProject(env.Ctx, domain.Project{Nombre: "Portal", Tareas: []domain.Task{{Titulo: "Design"}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := env.Engine.UpdateProject(env.Ctx, p.ID, domain.ProjectPatch{
		ID:     domain.StringPtr("hijack"),
		Nombre: domain.StringPtr("Portal v2"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != p.ID || updated.Nombre != "Portal v2" || len(updated.Tareas) != 1 {
		t.Fatalf("unexpected update result %+v", updated)
	}
	empty := []domain.Task{}
	updated, err = env.Engine.UpdateProject(env.Ctx, p.ID, domain.ProjectPatch{Tareas: &empty})
	if err != nil {
		t.Fatalf("update tasks: %v", err)
	}
	tasks, err := env.Engine.ListTasks(env.Ctx, p.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(updated.Tareas) != 0 || len(tasks) != 0 {
		t.Fatalf("expected task list replaced, got %d/%d", len(updated.Tareas), len(tasks))
	}
}

func TestTaskOperations(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProject(env.Ctx, domain.Project{Nombre: "Portal"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	task, err := env.Engine.CreateTask(env.Ctx, p.ID, domain.Task{Titulo: "Design", FechaLimite: "2024-01-10"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	done, err := env.Engine.UpdateTask(env.Ctx, p.ID, task.ID, domain.TaskPatch{Estado: domain.StatusPtr(domain.StatusCompleted)})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if done.Estado != domain.StatusCompleted || done.Titulo != "Design" {
		t.Fatalf("unexpected task %+v", done)
	}
	bad := domain.TaskStatus(9)
	if _, err := env.Engine.UpdateTask(env.Ctx, p.ID, task.ID, domain.TaskPatch{Estado: &bad}); !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := env.Engine.UpdateTask(env.Ctx, p.ID, "missing", domain.TaskPatch{}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := env.Engine.CreateTask(env.Ctx, "ghost", domain.Task{Titulo: "x"}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected project not found, got %v", err)
	}
	if err := env.Engine.DeleteTask(env.Ctx, p.ID, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	tasks, _ := env.Engine.ListTasks(env.Ctx, p.ID)
	if len(tasks) != 0 {
		t.Fatalf("task not deleted")
	}
}

func TestDeleteProjectCascadesTasks(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProject(env.Ctx, domain.Project{Nombre: "Portal", Tareas: []domain.Task{{Titulo: "a"}, {Titulo: "b"}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.Engine.DeleteProject(env.Ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Engine.ListTasks(env.Ctx, p.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	var n int
	if err := env.Engine.DB.QueryRow(`SELECT count(*) FROM tasks`).Scan(&n); err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected tasks removed with project, %d left", n)
	}
}

func TestMutationsAreAudited(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProject(env.Ctx, domain.Project{Nombre: "Portal"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	task, err := env.Engine.CreateTask(env.Ctx, p.ID, domain.Task{Titulo: "Design"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := env.Engine.UpdateTask(env.Ctx, p.ID, task.ID, domain.TaskPatch{Estado: domain.StatusPtr(domain.StatusInProgress)}); err != nil {
		t.Fatalf("update task: %v", err)
	}
	// A failed mutation must not leave an event behind.
	if _, err := env.Engine.CreateTask(env.Ctx, p.ID, domain.Task{}); err == nil {
		t.Fatalf("expected validation failure")
	}
	evts, err := env.Engine.LatestEvents(env.Ctx, repo.EventFilter{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evts) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evts))
	}
	latest := evts[0]
	if latest.Type != "task.updated" || latest.EntityID != task.ID {
		t.Fatalf("unexpected latest event %+v", latest)
	}
	if latest.Payload["from"] != "pending" || latest.Payload["to"] != "in_progress" {
		t.Fatalf("unexpected payload %+v", latest.Payload)
	}
	if latest.TS != "2024-01-01T00:00:00Z" {
		t.Fatalf("unexpected timestamp %s", latest.TS)
	}
}
