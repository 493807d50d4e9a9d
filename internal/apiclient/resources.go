package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"projectdesk/internal/domain"
	"projectdesk/internal/events"
)

const (
	employeesPath = "Empleado"
	projectsPath  = "Project"
	tasksSegment  = "Tarea"
	eventsPath    = "Evento"
)

func employeePath(id string) string {
	return fmt.Sprintf("%s/%s", employeesPath, url.PathEscape(id))
}

func projectPath(id string) string {
	return fmt.Sprintf("%s/%s", projectsPath, url.PathEscape(id))
}

func tasksPath(projectID string) string {
	return fmt.Sprintf("%s/%s", projectPath(projectID), tasksSegment)
}

func taskPath(projectID, taskID string) string {
	return fmt.Sprintf("%s/%s", tasksPath(projectID), url.PathEscape(taskID))
}

// ListEmployees returns every employee.
func (c *Client) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	var resp []domain.Employee
	err := c.do(ctx, http.MethodGet, employeesPath, nil, &resp)
	return resp, err
}

func (c *Client) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	var resp domain.Employee
	err := c.do(ctx, http.MethodGet, employeePath(id), nil, &resp)
	return resp, err
}

// CreateEmployee sends a new employee and returns the server's canonical record.
func (c *Client) CreateEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	var resp domain.Employee
	err := c.do(ctx, http.MethodPost, employeesPath, e.Normalize(), &resp)
	return resp, err
}

func (c *Client) UpdateEmployee(ctx context.Context, id string, patch domain.EmployeePatch) (domain.Employee, error) {
	var resp domain.Employee
	err := c.do(ctx, http.MethodPut, employeePath(id), patch, &resp)
	return resp, err
}

func (c *Client) DeleteEmployee(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, employeePath(id), nil, nil)
}

// ListProjects returns every project with its embedded tasks.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var resp []domain.Project
	err := c.do(ctx, http.MethodGet, projectsPath, nil, &resp)
	return resp, err
}

func (c *Client) GetProject(ctx context.Context, id string) (domain.Project, error) {
	var resp domain.Project
	err := c.do(ctx, http.MethodGet, projectPath(id), nil, &resp)
	return resp, err
}

func (c *Client) CreateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	var resp domain.Project
	err := c.do(ctx, http.MethodPost, projectsPath, p.Normalize(), &resp)
	return resp, err
}

// UpdateProject returns the response as a patch so callers can tell echoed
// fields from absent ones.
func (c *Client) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.ProjectPatch, error) {
	var resp domain.ProjectPatch
	err := c.do(ctx, http.MethodPut, projectPath(id), patch, &resp)
	return resp, err
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, projectPath(id), nil, nil)
}

func (c *Client) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	var resp []domain.Task
	err := c.do(ctx, http.MethodGet, tasksPath(projectID), nil, &resp)
	return resp, err
}

func (c *Client) CreateTask(ctx context.Context, projectID string, t domain.Task) (domain.Task, error) {
	var resp domain.Task
	err := c.do(ctx, http.MethodPost, tasksPath(projectID), t, &resp)
	return resp, err
}

// UpdateTask returns the response as a patch; see UpdateProject.
func (c *Client) UpdateTask(ctx context.Context, projectID, taskID string, patch domain.TaskPatch) (domain.TaskPatch, error) {
	var resp domain.TaskPatch
	err := c.do(ctx, http.MethodPut, taskPath(projectID, taskID), patch, &resp)
	return resp, err
}

func (c *Client) DeleteTask(ctx context.Context, projectID, taskID string) error {
	return c.do(ctx, http.MethodDelete, taskPath(projectID, taskID), nil, nil)
}

// Health pings the backend.
func (c *Client) Health(ctx context.Context) error {
	var resp map[string]string
	return c.do(ctx, http.MethodGet, "health", nil, &resp)
}

// EventQuery filters the backend's audit log.
type EventQuery struct {
	Limit      int
	Type       string
	EntityKind string
	EntityID   string
	ProjectID  string
}

// ListEvents returns recent audit events, newest first.
func (c *Client) ListEvents(ctx context.Context, q EventQuery) ([]events.Event, error) {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	for key, val := range map[string]string{
		"type":       q.Type,
		"entityKind": q.EntityKind,
		"entityId":   q.EntityID,
		"projectId":  q.ProjectID,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	endpoint := eventsPath
	if len(v) > 0 {
		endpoint += "?" + v.Encode()
	}
	var resp []events.Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}
