package store

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"projectdesk/internal/domain"
)

// ProjectState is a point-in-time copy of the project store.
type ProjectState struct {
	Projects        []domain.Project
	IsLoading       bool
	Error           string
	CurrentProject  *domain.Project
	DateFilter      *domain.DateRange
	ProjectToDelete string
	ShowDeleteModal bool
}

// ProjectStore mirrors the backend's project collection, each project carrying
// its own task list.
type ProjectStore struct {
	api ProjectAPI
	log logrus.FieldLogger
	now func() time.Time

	mu              sync.RWMutex
	projects        []domain.Project
	isLoading       bool
	err             string
	current         *domain.Project
	dateFilter      *domain.DateRange
	projectToDelete string
	showDeleteModal bool

	subs listeners[ProjectState]
}

func NewProjectStore(api ProjectAPI, opts ...Option) *ProjectStore {
	o := buildOptions(opts)
	return &ProjectStore{
		api:      api,
		log:      o.log.WithField("store", "projects"),
		now:      o.now,
		projects: []domain.Project{},
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
func (s *ProjectStore) Subscribe(fn func(ProjectState)) func() {
	return s.subs.add(fn)
}

func (s *ProjectStore) State() ProjectState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *ProjectStore) snapshotLocked() ProjectState {
	st := ProjectState{
		Projects:        cloneProjects(s.projects),
		IsLoading:       s.isLoading,
		Error:           s.err,
		ProjectToDelete: s.projectToDelete,
		ShowDeleteModal: s.showDeleteModal,
	}
	if s.current != nil {
		c := s.current.Clone()
		st.CurrentProject = &c
	}
	if s.dateFilter != nil {
		f := *s.dateFilter
		st.DateFilter = &f
	}
	return st
}

func (s *ProjectStore) mutate(fn func()) {
	s.mu.Lock()
	fn()
	if s.subs.empty() {
		s.mu.Unlock()
		return
	}
	seq := s.subs.stamp()
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.subs.publish(seq, st)
}

func (s *ProjectStore) begin(action string) {
	s.log.WithField("action", action).Debug("store action started")
	s.mutate(func() {
		s.isLoading = true
		s.err = ""
	})
}

func (s *ProjectStore) fail(msg string, err error) {
	s.log.WithError(err).Error(msg)
	s.mutate(func() {
		s.err = describe(msg, err)
		s.isLoading = false
	})
}

func (s *ProjectStore) indexLocked(id string) int {
	for i, p := range s.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// replaceLocked installs p at index i in a fresh slice and keeps CurrentProject in step.
func (s *ProjectStore) replaceLocked(i int, p domain.Project) {
	next := append([]domain.Project(nil), s.projects...)
	next[i] = p
	s.projects = next
	if s.current != nil && s.current.ID == p.ID {
		c := p.Clone()
		s.current = &c
	}
}

// FetchProjects replaces the collection with the server's list. Failures are
// recorded and the previous collection is kept.
func (s *ProjectStore) FetchProjects(ctx context.Context) {
	s.begin("fetch_projects")
	items, err := s.api.ListProjects(ctx)
	if err != nil {
		s.fail("error loading projects", err)
		return
	}
	next := make([]domain.Project, 0, len(items))
	for _, p := range items {
		next = append(next, p.Normalize())
	}
	s.mutate(func() {
		s.projects = next
		s.isLoading = false
	})
}

// FetchProjectByID loads one project into CurrentProject. It returns nil on failure.
func (s *ProjectStore) FetchProjectByID(ctx context.Context, id string) *domain.Project {
	s.begin("fetch_project")
	p, err := s.api.GetProject(ctx, id)
	if err != nil {
		s.fail("error loading project", err)
		return nil
	}
	p = p.Normalize()
	s.mutate(func() {
		c := p.Clone()
		s.current = &c
		s.isLoading = false
	})
	return &p
}

// AddProject creates the project remotely and appends the server's record.
func (s *ProjectStore) AddProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	s.begin("add_project")
	created, err := s.api.CreateProject(ctx, p.Normalize())
	if err != nil {
		s.fail("error creating project", err)
		return domain.Project{}, err
	}
	created = created.Normalize()
	s.mutate(func() {
		next := make([]domain.Project, 0, len(s.projects)+1)
		for _, existing := range s.projects {
			if created.ID == "" || existing.ID != created.ID {
				next = append(next, existing)
			}
		}
		s.projects = append(next, created.Clone())
		s.isLoading = false
	})
	return created, nil
}

// UpdateProject sends a partial update and merges the fields echoed by the
// server into the local record, so locally held tasks survive a response that
// omits them.
func (s *ProjectStore) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	s.begin("update_project")
	resp, err := s.api.UpdateProject(ctx, id, patch)
	if err != nil {
		s.fail("error updating project", err)
		return domain.Project{}, err
	}
	var merged domain.Project
	s.mutate(func() {
		i := s.indexLocked(id)
		if i < 0 {
			base := domain.Project{ID: id}
			if s.current != nil && s.current.ID == id {
				base = *s.current
			}
			merged = resp.Apply(patch.Apply(base))
			if s.current != nil && s.current.ID == id {
				c := merged.Clone()
				s.current = &c
			}
		} else {
			merged = resp.Apply(patch.Apply(s.projects[i]))
			s.replaceLocked(i, merged)
		}
		s.isLoading = false
	})
	return merged.Clone(), nil
}

// DeleteProject deletes remotely, filters the project out and clears
// CurrentProject when it was the deleted record.
func (s *ProjectStore) DeleteProject(ctx context.Context, id string) error {
	s.begin("delete_project")
	if err := s.api.DeleteProject(ctx, id); err != nil {
		s.fail("error deleting project", err)
		return err
	}
	s.mutate(func() {
		next := make([]domain.Project, 0, len(s.projects))
		for _, p := range s.projects {
			if p.ID != id {
				next = append(next, p)
			}
		}
		s.projects = next
		if s.current != nil && s.current.ID == id {
			s.current = nil
		}
		if s.projectToDelete == id {
			s.projectToDelete = ""
			s.showDeleteModal = false
		}
		s.isLoading = false
	})
	return nil
}

// SetDateFilter stores the filter criteria; nil clears it. No remote call.
func (s *ProjectStore) SetDateFilter(r *domain.DateRange) {
	s.mutate(func() {
		if r == nil {
			s.dateFilter = nil
			return
		}
		f := *r
		s.dateFilter = &f
	})
}

// ConfirmDelete stages id as the pending deletion target.
func (s *ProjectStore) ConfirmDelete(id string) {
	s.mutate(func() {
		s.projectToDelete = id
		s.showDeleteModal = true
	})
}

func (s *ProjectStore) CancelDelete() {
	s.mutate(func() {
		s.projectToDelete = ""
		s.showDeleteModal = false
	})
}

// PendingDelete returns the staged deletion target, if any.
func (s *ProjectStore) PendingDelete() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectToDelete, s.showDeleteModal && s.projectToDelete != ""
}
