package store

import (
	"context"

	"projectdesk/internal/domain"
)

func (s *ProjectStore) hasProject(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id) >= 0
}

func (s *ProjectStore) localTask(projectID, taskID string) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(projectID)
	if i < 0 {
		return domain.Task{}, ErrProjectNotFound
	}
	for _, t := range s.projects[i].Tareas {
		if t.ID == taskID {
			return t, nil
		}
	}
	return domain.Task{}, ErrTaskNotFound
}

// withTasksLocked swaps in a new task list for the project at index i.
func (s *ProjectStore) withTasksLocked(i int, tasks []domain.Task) {
	p := s.projects[i].Clone()
	p.Tareas = tasks
	s.replaceLocked(i, p.Normalize())
}

// FetchTasks refreshes a project's task list from the backend. CurrentProject is
// refreshed too when it refers to the same project.
func (s *ProjectStore) FetchTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	s.begin("fetch_tasks")
	tasks, err := s.api.ListTasks(ctx, projectID)
	if err != nil {
		s.fail("error fetching tasks", err)
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	s.mutate(func() {
		if i := s.indexLocked(projectID); i >= 0 {
			s.withTasksLocked(i, append([]domain.Task{}, tasks...))
		} else if s.current != nil && s.current.ID == projectID {
			c := s.current.Clone()
			c.Tareas = append([]domain.Task{}, tasks...)
			s.current = &c
		}
		s.isLoading = false
	})
	return tasks, nil
}

// AddTask creates a task under projectID and appends the server's record.
func (s *ProjectStore) AddTask(ctx context.Context, projectID string, t domain.Task) (domain.Task, error) {
	s.begin("add_task")
	if !s.hasProject(projectID) {
		s.fail("error creating task", ErrProjectNotFound)
		return domain.Task{}, ErrProjectNotFound
	}
	created, err := s.api.CreateTask(ctx, projectID, t)
	if err != nil {
		s.fail("error creating task", err)
		return domain.Task{}, err
	}
	s.mutate(func() {
		if i := s.indexLocked(projectID); i >= 0 {
			tasks := make([]domain.Task, 0, len(s.projects[i].Tareas)+1)
			tasks = append(tasks, s.projects[i].Tareas...)
			s.withTasksLocked(i, append(tasks, created))
		}
		s.isLoading = false
	})
	return created, nil
}

// UpdateTask sends a partial update and shallow-merges it, then the server's
// echoed fields, into the local task. A new task list is installed so earlier
// snapshots keep the prior value.
func (s *ProjectStore) UpdateTask(ctx context.Context, projectID, taskID string, patch domain.TaskPatch) (domain.Task, error) {
	s.begin("update_task")
	prior, err := s.localTask(projectID, taskID)
	if err != nil {
		s.fail("error updating task", err)
		return domain.Task{}, err
	}
	resp, err := s.api.UpdateTask(ctx, projectID, taskID, patch)
	if err != nil {
		s.fail("error updating task", err)
		return domain.Task{}, err
	}
	merged := resp.Apply(patch.Apply(prior))
	s.mutate(func() {
		i := s.indexLocked(projectID)
		if i < 0 {
			s.isLoading = false
			return
		}
		tasks := append([]domain.Task{}, s.projects[i].Tareas...)
		for j, t := range tasks {
			if t.ID == taskID {
				merged = resp.Apply(patch.Apply(t))
				tasks[j] = merged
				break
			}
		}
		s.withTasksLocked(i, tasks)
		s.isLoading = false
	})
	return merged, nil
}

// DeleteTask deletes remotely and filters the task out of its project.
func (s *ProjectStore) DeleteTask(ctx context.Context, projectID, taskID string) error {
	s.begin("delete_task")
	if !s.hasProject(projectID) {
		s.fail("error deleting task", ErrProjectNotFound)
		return ErrProjectNotFound
	}
	if err := s.api.DeleteTask(ctx, projectID, taskID); err != nil {
		s.fail("error deleting task", err)
		return err
	}
	s.mutate(func() {
		if i := s.indexLocked(projectID); i >= 0 {
			tasks := make([]domain.Task, 0, len(s.projects[i].Tareas))
			for _, t := range s.projects[i].Tareas {
				if t.ID != taskID {
					tasks = append(tasks, t)
				}
			}
			s.withTasksLocked(i, tasks)
		}
		s.isLoading = false
	})
	return nil
}
