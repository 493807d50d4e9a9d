package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"projectdesk/internal/db"
	"projectdesk/internal/domain"
	"projectdesk/internal/engine"
	"projectdesk/internal/events"
	"projectdesk/internal/logging"
	"projectdesk/internal/migrate"
	"projectdesk/internal/server"
)

func TestMain(m *testing.M) {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	os.Exit(m.Run())
}

func newBackend(t *testing.T) string {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	handler, err := server.New(server.Config{Engine: engine.New(conn, logging.Discard()), BasePath: "/api", Log: logging.Discard()})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		conn.Close()
	})
	return srv.URL + "/api"
}

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	out = &buf
	in = strings.NewReader(stdin)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("pdk %s: %v\n%s", strings.Join(args, " "), err, buf.String())
	}
	return buf.String()
}

func decode[T any](t *testing.T, data string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return v
}

func TestCommandsAgainstBackend(t *testing.T) {
	api := newBackend(t)
	ws := t.TempDir()
	t.Cleanup(func() { os.Unsetenv("PROJECTDESK_API_URL") })

	run(t, "", "config", "init", "-w", ws, "--api-url", api)
	if _, err := os.Stat(filepath.Join(ws, "projectdesk.yml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	env, err := godotenv.Read(filepath.Join(ws, ".env"))
	if err != nil || env["PROJECTDESK_API_URL"] != api {
		t.Fatalf("unexpected .env %v (%v)", env, err)
	}

	if got := run(t, "", "config", "show", "-w", ws); !strings.Contains(got, "# backend "+api+": reachable") {
		t.Fatalf("expected reachable backend in config show, got %q", got)
	}

	emp := decode[domain.Employee](t, run(t, "", "employee", "add", "-w", ws, "--json", "--nombre", "Ana", "--correo", "ana@x.com"))
	if emp.ID == "" || emp.Nombre != "Ana" {
		t.Fatalf("unexpected employee %+v", emp)
	}

	proj := decode[domain.Project](t, run(t, "", "project", "add", "-w", ws, "--json",
		"--nombre", "Portal", "--inicio", "2024-01-01", "--fin", "2024-12-31", "--empleado", emp.ID))
	if proj.ID == "" || len(proj.EmpleadosAsignados) != 1 {
		t.Fatalf("unexpected project %+v", proj)
	}

	task := decode[domain.Task](t, run(t, "", "task", "add", proj.ID, "-w", ws, "--json", "--titulo", "Design", "--limite", "2000-01-01"))
	if task.ID == "" || task.Estado != domain.StatusPending {
		t.Fatalf("unexpected task %+v", task)
	}

	byEmp := decode[[]domain.Project](t, run(t, "", "project", "by-employee", emp.ID, "-w", ws, "--json"))
	if len(byEmp) != 1 || byEmp[0].ID != proj.ID {
		t.Fatalf("unexpected by-employee result %+v", byEmp)
	}

	dash := decode[dashboard](t, run(t, "", "dashboard", "-w", ws, "--json"))
	if dash.Statistics.Total != 1 || dash.Statistics.Delayed != 1 || len(dash.Delayed) != 1 {
		t.Fatalf("unexpected dashboard %+v", dash)
	}

	filtered := decode[dashboard](t, run(t, "", "dashboard", "-w", ws, "--json", "--from", "1990-01-01", "--to", "1990-02-01"))
	if filtered.Statistics.Total != 1 || filtered.Filtered == nil || filtered.Filtered.Projects != 0 || filtered.Filtered.Statistics.Total != 0 {
		t.Fatalf("filter must only narrow the filtered section: %+v", filtered)
	}

	updated := decode[domain.Task](t, run(t, "", "task", "update", proj.ID, task.ID, "-w", ws, "--json", "--estado", "completed"))
	if updated.Estado != domain.StatusCompleted || updated.Titulo != "Design" {
		t.Fatalf("unexpected updated task %+v", updated)
	}

	if got := run(t, "n\n", "project", "delete", proj.ID, "-w", ws); !strings.Contains(got, "cancelled") {
		t.Fatalf("expected cancellation, got %q", got)
	}
	if got := run(t, "", "project", "delete", proj.ID, "-w", ws, "--yes"); !strings.Contains(got, "deleted project") {
		t.Fatalf("expected deletion, got %q", got)
	}

	evts := decode[[]events.Event](t, run(t, "", "log", "tail", "-w", ws, "--json", "--kind", "project"))
	if len(evts) != 2 || evts[0].Type != events.ProjectDeleted {
		t.Fatalf("unexpected events %+v", evts)
	}
}
