package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"projectdesk/internal/domain"
)

// EmployeeState is a point-in-time copy of the employee store.
type EmployeeState struct {
	Employees        []domain.Employee
	IsLoading        bool
	Error            string
	CurrentEmployee  *domain.Employee
	EmployeeToDelete string
	ShowDeleteModal  bool
}

// EmployeeStore mirrors the backend's employee collection.
type EmployeeStore struct {
	api EmployeeAPI
	log logrus.FieldLogger

	mu               sync.RWMutex
	employees        []domain.Employee
	isLoading        bool
	err              string
	current          *domain.Employee
	employeeToDelete string
	showDeleteModal  bool

	subs listeners[EmployeeState]
}

func NewEmployeeStore(api EmployeeAPI, opts ...Option) *EmployeeStore {
	o := buildOptions(opts)
	return &EmployeeStore{
		api:       api,
		log:       o.log.WithField("store", "employees"),
		employees: []domain.Employee{},
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
func (s *EmployeeStore) Subscribe(fn func(EmployeeState)) func() {
	return s.subs.add(fn)
}

func (s *EmployeeStore) State() EmployeeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *EmployeeStore) snapshotLocked() EmployeeState {
	st := EmployeeState{
		Employees:        cloneEmployees(s.employees),
		IsLoading:        s.isLoading,
		Error:            s.err,
		EmployeeToDelete: s.employeeToDelete,
		ShowDeleteModal:  s.showDeleteModal,
	}
	if s.current != nil {
		c := s.current.Clone()
		st.CurrentEmployee = &c
	}
	return st
}

func (s *EmployeeStore) mutate(fn func()) {
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

func (s *EmployeeStore) begin(action string) {
	s.log.WithField("action", action).Debug("store action started")
	s.mutate(func() {
		s.isLoading = true
		s.err = ""
	})
}

func (s *EmployeeStore) fail(msg string, err error) {
	s.log.WithError(err).Error(msg)
	s.mutate(func() {
		s.err = describe(msg, err)
		s.isLoading = false
	})
}

// FetchEmployees replaces the collection with the server's list. Failures are
// recorded in the error field and the previous collection is kept.
func (s *EmployeeStore) FetchEmployees(ctx context.Context) {
	s.begin("fetch_employees")
	items, err := s.api.ListEmployees(ctx)
	if err != nil {
		s.fail("error loading employees", err)
		return
	}
	next := make([]domain.Employee, 0, len(items))
	for _, e := range items {
		next = append(next, e.Normalize())
	}
	s.mutate(func() {
		s.employees = next
		s.isLoading = false
	})
}

// FetchEmployeeByID loads one employee into CurrentEmployee. It returns nil on failure.
func (s *EmployeeStore) FetchEmployeeByID(ctx context.Context, id string) *domain.Employee {
	s.begin("fetch_employee")
	e, err := s.api.GetEmployee(ctx, id)
	if err != nil {
		s.fail("error loading employee", err)
		return nil
	}
	e = e.Normalize()
	s.mutate(func() {
		c := e.Clone()
		s.current = &c
		s.isLoading = false
	})
	return &e
}

// AddEmployee creates the employee remotely and appends the server's record.
func (s *EmployeeStore) AddEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	s.begin("add_employee")
	created, err := s.api.CreateEmployee(ctx, e)
	if err != nil {
		s.fail("error creating employee", err)
		return domain.Employee{}, err
	}
	created = created.Normalize()
	s.mutate(func() {
		next := make([]domain.Employee, 0, len(s.employees)+1)
		for _, existing := range s.employees {
			if created.ID == "" || existing.ID != created.ID {
				next = append(next, existing)
			}
		}
		s.employees = append(next, created.Clone())
		s.isLoading = false
	})
	return created, nil
}

// UpdateEmployee sends a partial update and replaces the local entry with the
// server's full record. The list is untouched when id is not mirrored locally.
func (s *EmployeeStore) UpdateEmployee(ctx context.Context, id string, patch domain.EmployeePatch) (domain.Employee, error) {
	s.begin("update_employee")
	updated, err := s.api.UpdateEmployee(ctx, id, patch)
	if err != nil {
		s.fail("error updating employee", err)
		return domain.Employee{}, err
	}
	updated = updated.Normalize()
	s.mutate(func() {
		for i, existing := range s.employees {
			if existing.ID == id {
				next := append([]domain.Employee(nil), s.employees...)
				next[i] = updated.Clone()
				s.employees = next
				break
			}
		}
		if s.current != nil && s.current.ID == id {
			c := updated.Clone()
			s.current = &c
		}
		s.isLoading = false
	})
	return updated, nil
}

// DeleteEmployee deletes remotely and filters the id out of the local list.
func (s *EmployeeStore) DeleteEmployee(ctx context.Context, id string) error {
	s.begin("delete_employee")
	if err := s.api.DeleteEmployee(ctx, id); err != nil {
		s.fail("error deleting employee", err)
		return err
	}
	s.mutate(func() {
		next := make([]domain.Employee, 0, len(s.employees))
		for _, e := range s.employees {
			if e.ID != id {
				next = append(next, e)
			}
		}
		s.employees = next
		if s.current != nil && s.current.ID == id {
			s.current = nil
		}
		if s.employeeToDelete == id {
			s.employeeToDelete = ""
			s.showDeleteModal = false
		}
		s.isLoading = false
	})
	return nil
}

// ConfirmDelete stages id as the pending deletion target.
func (s *EmployeeStore) ConfirmDelete(id string) {
	s.mutate(func() {
		s.employeeToDelete = id
		s.showDeleteModal = true
	})
}

func (s *EmployeeStore) CancelDelete() {
	s.mutate(func() {
		s.employeeToDelete = ""
		s.showDeleteModal = false
	})
}

// PendingDelete returns the staged deletion target, if any.
func (s *EmployeeStore) PendingDelete() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.employeeToDelete, s.showDeleteModal && s.employeeToDelete != ""
}

func (s *EmployeeStore) GetEmployeeByID(id string) (domain.Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := EmployeeByID(s.employees, id)
	if !ok {
		return domain.Employee{}, false
	}
	return e.Clone(), true
}

func (s *EmployeeStore) GetEmployeesByProject(projectID string) []domain.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEmployees(EmployeesByProject(s.employees, projectID))
}

// EmployeeByID is a linear lookup by identifier.
func EmployeeByID(employees []domain.Employee, id string) (domain.Employee, bool) {
	for _, e := range employees {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Employee{}, false
}

// EmployeesByProject returns the employees whose assignment list contains projectID.
func EmployeesByProject(employees []domain.Employee, projectID string) []domain.Employee {
	out := []domain.Employee{}
	for _, e := range employees {
		for _, p := range e.ProyectosAsignados {
			if p == projectID {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
