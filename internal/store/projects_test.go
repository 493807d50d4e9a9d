package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"projectdesk/internal/domain"
)

var today = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func newProjectStore(api *fakeAPI) *ProjectStore {
	return NewProjectStore(api, WithClock(func() time.Time { return today }))
}

func seededAPI() *fakeAPI {
	return &fakeAPI{projects: []domain.Project{
		{
			ID: "p1", Nombre: "Portal", FechaInicio: "2024-01-01", FechaFin: "2024-12-31",
			EmpleadosAsignados: []string{"e1"},
			Tareas: []domain.Task{
				{ID: "t1", Titulo: "Design", FechaLimite: "2024-06-14", Estado: domain.StatusPending},
				{ID: "t2", Titulo: "Build", FechaLimite: "2024-06-14", Estado: domain.StatusCompleted},
			},
		},
		{ID: "p2", Nombre: "Intranet", FechaInicio: "2024-07-01", FechaFin: "2024-08-01"},
	}}
}

func TestFetchProjectsNormalisesTasks(t *testing.T) {
	s := newProjectStore(seededAPI())
	s.FetchProjects(context.Background())
	st := s.State()
	if len(st.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(st.Projects))
	}
	if st.Projects[1].Tareas == nil {
		t.Fatalf("tareas must never be nil")
	}
}

func TestFetchProjectsTransportFailure(t *testing.T) {
	api := seededAPI()
	s := newProjectStore(api)
	ctx := context.Background()
	s.FetchProjects(ctx)
	before := s.State().Projects
	api.fail = errTransport
	s.FetchProjects(ctx)
	st := s.State()
	if len(st.Projects) != len(before) || st.Projects[0].ID != before[0].ID {
		t.Fatalf("projects changed on failure")
	}
	if st.Error == "" {
		t.Fatalf("expected error recorded")
	}
	if st.IsLoading {
		t.Fatalf("loading flag left on")
	}
}

func TestAddProjectKeepsTasksPresent(t *testing.T) {
	s := newProjectStore(&fakeAPI{})
	created, err := s.AddProject(context.Background(), domain.Project{Nombre: "New"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.Tareas == nil {
		t.Fatalf("returned project must carry a task list")
	}
	if got := s.State().Projects[0].Tareas; got == nil || len(got) != 0 {
		t.Fatalf("stored project must carry an empty task list, got %#v", got)
	}
}

func TestUpdateProjectMergesAndKeepsTasks(t *testing.T) {
	api := seededAPI()
	s := newProjectStore(api)
	ctx := context.Background()
	s.FetchProjects(ctx)
	s.FetchProjectByID(ctx, "p1")
	// The update response omits tareas; the local list must survive.
	_, err := s.AddTask(ctx, "p1", domain.Task{Titulo: "Deploy"})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	got, err := s.UpdateProject(ctx, "p1", domain.ProjectPatch{Nombre: domain.StringPtr("Portal v2")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Nombre != "Portal v2" || got.FechaInicio != "2024-01-01" {
		t.Fatalf("unexpected merge result %+v", got)
	}
	if len(got.Tareas) != 3 {
		t.Fatalf("expected tasks retained, got %d", len(got.Tareas))
	}
	st := s.State()
	if st.Projects[0].Nombre != "Portal v2" || st.CurrentProject.Nombre != "Portal v2" {
		t.Fatalf("list and current project must agree")
	}
}

func TestUpdateProjectRefreshesCurrentWithoutList(t *testing.T) {
	s := newProjectStore(seededAPI())
	ctx := context.Background()
	if s.FetchProjectByID(ctx, "p1") == nil {
		t.Fatalf("fetch by id failed")
	}
	got, err := s.UpdateProject(ctx, "p1", domain.ProjectPatch{Nombre: domain.StringPtr("Renamed")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	st := s.State()
	if st.CurrentProject == nil || st.CurrentProject.Nombre != "Renamed" {
		t.Fatalf("current project not refreshed: %+v", st.CurrentProject)
	}
	if len(st.CurrentProject.Tareas) != 2 || st.CurrentProject.FechaFin != "2024-12-31" {
		t.Fatalf("unechoed fields lost: %+v", st.CurrentProject)
	}
	if got.Nombre != "Renamed" || len(got.Tareas) != 2 {
		t.Fatalf("unexpected result %+v", got)
	}
	if len(st.Projects) != 0 {
		t.Fatalf("list must stay untouched")
	}
}

func TestProjectMutationFailuresRethrow(t *testing.T) {
	cases := []struct {
		name string
		want string
		run  func(context.Context, *ProjectStore) error
	}{
		{"add project", "error creating project: connection refused", func(ctx context.Context, s *ProjectStore) error {
			_, err := s.AddProject(ctx, domain.Project{Nombre: "New"})
			return err
		}},
		{"update project", "error updating project: connection refused", func(ctx context.Context, s *ProjectStore) error {
			_, err := s.UpdateProject(ctx, "p1", domain.ProjectPatch{Nombre: domain.StringPtr("x")})
			return err
		}},
		{"delete project", "error deleting project: connection refused", func(ctx context.Context, s *ProjectStore) error {
			return s.DeleteProject(ctx, "p1")
		}},
		{"add task", "error creating task: connection refused", func(ctx context.Context, s *ProjectStore) error {
			_, err := s.AddTask(ctx, "p1", domain.Task{Titulo: "x"})
			return err
		}},
		{"update task", "error updating task: connection refused", func(ctx context.Context, s *ProjectStore) error {
			_, err := s.UpdateTask(ctx, "p1", "t1", domain.TaskPatch{Titulo: domain.StringPtr("x")})
			return err
		}},
		{"delete task", "error deleting task: connection refused", func(ctx context.Context, s *ProjectStore) error {
			return s.DeleteTask(ctx, "p1", "t1")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := seededAPI()
			s := newProjectStore(api)
			ctx := context.Background()
			s.FetchProjects(ctx)
			s.FetchProjectByID(ctx, "p1")
			before := s.State()
			api.fail = errTransport
			if err := tc.run(ctx, s); !errors.Is(err, errTransport) {
				t.Fatalf("expected transport error, got %v", err)
			}
			after := s.State()
			if after.Error != tc.want {
				t.Fatalf("error = %q want %q", after.Error, tc.want)
			}
			if after.IsLoading {
				t.Fatalf("loading flag left on")
			}
			if !reflect.DeepEqual(after.Projects, before.Projects) || !reflect.DeepEqual(after.CurrentProject, before.CurrentProject) {
				t.Fatalf("local state changed on failure")
			}
		})
	}
}

func TestDeleteProjectClearsCurrent(t *testing.T) {
	s := newProjectStore(seededAPI())
	ctx := context.Background()
	s.FetchProjects(ctx)
	s.FetchProjectByID(ctx, "p1")
	if s.State().CurrentProject.ID != "p1" {
		t.Fatalf("current project not set")
	}
	if err := s.DeleteProject(ctx, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	st := s.State()
	if st.CurrentProject != nil {
		t.Fatalf("expected current project cleared")
	}
	if _, ok := ProjectByID(st.Projects, "p1"); ok {
		t.Fatalf("deleted project still listed")
	}
}

func TestDeleteOtherProjectKeepsCurrent(t *testing.T) {
	s := newProjectStore(seededAPI())
	ctx := context.Background()
	s.FetchProjects(ctx)
	s.FetchProjectByID(ctx, "p1")
	if err := s.DeleteProject(ctx, "p2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.State().CurrentProject == nil {
		t.Fatalf("current project must survive deleting another project")
	}
}

func TestFetchTasksRefreshesBothViews(t *testing.T) {
	api := seededAPI()
	s := newProjectStore(api)
	ctx := context.Background()
	s.FetchProjects(ctx)
	s.FetchProjectByID(ctx, "p1")
	api.projects[0].Tareas = append(api.projects[0].Tareas, domain.Task{ID: "t9", Titulo: "Remote"})
	tasks, err := s.FetchTasks(ctx, "p1")
	if err != nil {
		t.Fatalf("fetch tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	st := s.State()
	if len(st.Projects[0].Tareas) != 3 || len(st.CurrentProject.Tareas) != 3 {
		t.Fatalf("views diverged: list=%d current=%d", len(st.Projects[0].Tareas), len(st.CurrentProject.Tareas))
	}
}

func TestFetchTasksFailureRethrows(t *testing.T) {
	api := seededAPI()
	s := newProjectStore(api)
	s.FetchProjects(context.Background())
	api.fail = errTransport
	if _, err := s.FetchTasks(context.Background(), "p1"); !errors.Is(err, errTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if s.State().Error == "" {
		t.Fatalf("expected error recorded")
	}
}

func TestAddTaskUnknownProject(t *testing.T) {
	api := seededAPI()
	s := newProjectStore(api)
	_, err := s.AddTask(context.Background(), "p1", domain.Task{Titulo: "x"})
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if api.callCount() != 0 {
		t.Fatalf("remote must not be called for an unknown project")
	}
	st := s.State()
	if st.Error != "error creating task: project not found" || st.IsLoading {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestAddTaskAppends(t *testing.T) {
	s := newProjectStore(seededAPI())
	ctx := context.Background()
	s.FetchProjects(ctx)
	task, err := s.AddTask(ctx, "p2", domain.Task{Titulo: "Kickoff", FechaLimite: "2024-07-02"})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	p, _ := s.GetProjectByID("p2")
	if len(p.Tareas) != 1 || p.Tareas[0].ID != task.ID {
		t.Fatalf("task not appended: %+v", p.Tareas)
	}
}

func TestUpdateTaskShallowMerge(t *testing.T) {
	s := newProjectStore(seededAPI())
	ctx := context.Background()
	s.FetchProjects(ctx)
	before := s.State()
	got, err := s.UpdateTask(ctx, "p1", "t1", domain.TaskPatch{Estado: domain.StatusPtr(domain.StatusInProgress)})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if got.Estado != domain.StatusInProgress {
		t.Fatalf("status not overwritten: %+v", got)
	}
	if got.Titulo != "Design" || got.FechaLimite != "2024-06-14" {
		t.Fatalf("absent fields changed: %+v", got)
	}
	after, _ := s.GetProjectByID("p1")
	if after.Tareas[0].Estado != domain.StatusInProgress {
		t.Fatalf("store not updated")
	}
	if before.Projects[0].Tareas[0].Estado != domain.StatusPending {
		t.Fatalf("earlier snapshot was mutated")
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	api := seededAPI()
	s := newProjectStore(api)
	ctx := context.Background()
	s.FetchProjects(ctx)
	calls := api.callCount()
	if _, err := s.UpdateTask(ctx, "p1", "nope", domain.TaskPatch{}); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if _, err := s.UpdateTask(ctx, "nope", "t1", domain.TaskPatch{}); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if api.callCount() != calls {
		t.Fatalf("remote must not be called on local-consistency failure")
	}
}

func TestDeleteTaskFilters(t *testing.T) {
	s := newProjectStore(seededAPI())
	ctx := context.Background()
	s.FetchProjects(ctx)
	if err := s.DeleteTask(ctx, "p1", "t1"); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	p, _ := s.GetProjectByID("p1")
	if len(p.Tareas) != 1 || p.Tareas[0].ID != "t2" {
		t.Fatalf("unexpected tasks %+v", p.Tareas)
	}
	if err := s.DeleteTask(ctx, "ghost", "t1"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestSetDateFilterIsLocal(t *testing.T) {
	api := seededAPI()
	s := newProjectStore(api)
	s.FetchProjects(context.Background())
	calls := api.callCount()
	notified := 0
	s.Subscribe(func(ProjectState) { notified++ })
	s.SetDateFilter(&domain.DateRange{StartDate: "2024-07-15", EndDate: "2024-07-20"})
	if api.callCount() != calls {
		t.Fatalf("filter must not call the API")
	}
	if notified != 1 {
		t.Fatalf("expected one notification, got %d", notified)
	}
	got := s.FilteredProjects()
	if len(got) != 2 {
		t.Fatalf("both projects span the range, got %d", len(got))
	}
	s.SetDateFilter(&domain.DateRange{StartDate: "2025-01-01", EndDate: "2025-02-01"})
	if len(s.FilteredProjects()) != 0 {
		t.Fatalf("expected nothing in 2025")
	}
	s.SetDateFilter(nil)
	if len(s.FilteredProjects()) != 2 {
		t.Fatalf("nil filter must return everything")
	}
}

func TestProjectStoreDelayedTasksScenario(t *testing.T) {
	s := newProjectStore(seededAPI())
	s.FetchProjects(context.Background())
	delayed := s.DelayedTasks()
	if len(delayed) != 1 {
		t.Fatalf("expected exactly one delayed task, got %+v", delayed)
	}
	if delayed[0].Task.ID != "t1" || delayed[0].Delay != 1 || delayed[0].ProjectName != "Portal" {
		t.Fatalf("unexpected entry %+v", delayed[0])
	}
	if stats := s.TaskStatistics(); stats.Delayed != 1 || stats.Total != 2 {
		t.Fatalf("unexpected statistics %+v", stats)
	}
}

func TestProjectsByEmployee(t *testing.T) {
	s := newProjectStore(seededAPI())
	s.FetchProjects(context.Background())
	got := s.GetProjectsByEmployee("e1")
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("unexpected result %+v", got)
	}
}
