// Package store keeps the client-side mirror of the server-owned employee and
// project collections and computes the derived views the presentation layer reads.
//
// Each operation toggles the shared loading flag, clears the previous error, performs
// exactly one remote call without holding the store lock, then reconciles local state.
// Listeners registered with Subscribe receive a snapshot after every state change.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"projectdesk/internal/domain"
	"projectdesk/internal/logging"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
)

// EmployeeAPI is the remote employee resource.
type EmployeeAPI interface {
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	GetEmployee(ctx context.Context, id string) (domain.Employee, error)
	CreateEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error)
	UpdateEmployee(ctx context.Context, id string, patch domain.EmployeePatch) (domain.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

// ProjectAPI is the remote project resource with its nested tasks.
type ProjectAPI interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	GetProject(ctx context.Context, id string) (domain.Project, error)
	CreateProject(ctx context.Context, p domain.Project) (domain.Project, error)
	UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.ProjectPatch, error)
	DeleteProject(ctx context.Context, id string) error

	ListTasks(ctx context.Context, projectID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, projectID string, t domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, projectID, taskID string, patch domain.TaskPatch) (domain.TaskPatch, error)
	DeleteTask(ctx context.Context, projectID, taskID string) error
}

type options struct {
	log logrus.FieldLogger
	now func() time.Time
}

type Option func(*options)

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithClock overrides the time source used by the date-based views.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{log: logging.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// describe builds the human-readable message recorded in a store's error field.
func describe(action string, err error) string {
	if err == nil || err.Error() == "" {
		return action
	}
	return action + ": " + err.Error()
}

// listeners delivers snapshots in the order they were taken. A snapshot that
// arrives after a newer one has been delivered is dropped, so the last view a
// listener sees is always the latest state. Listeners run outside the store
// lock and may read the store, but must not mutate it synchronously.
type listeners[S any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(S)

	seq       uint64 // guarded by the owning store's lock
	order     sync.Mutex
	delivered uint64
}

func (l *listeners[S]) add(fn func(S)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(S))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners[S]) empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns) == 0
}

// stamp numbers a snapshot. Callers hold the store lock.
func (l *listeners[S]) stamp() uint64 {
	l.seq++
	return l.seq
}

// publish notifies listeners unless a newer snapshot was already delivered.
func (l *listeners[S]) publish(seq uint64, state S) {
	l.order.Lock()
	defer l.order.Unlock()
	if seq <= l.delivered {
		return
	}
	l.delivered = seq
	l.notify(state)
}

// notify calls listeners in registration order.
func (l *listeners[S]) notify(state S) {
	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	fns := make([]func(S), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(state)
	}
}

func cloneEmployees(in []domain.Employee) []domain.Employee {
	out := make([]domain.Employee, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

func cloneProjects(in []domain.Project) []domain.Project {
	out := make([]domain.Project, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
