package store

import (
	"sort"
	"time"

	"projectdesk/internal/dates"
	"projectdesk/internal/domain"
)

// Derived views are pure functions of a snapshot. The store methods below are
// conveniences that evaluate them against the current state.

func ProjectByID(projects []domain.Project, id string) (domain.Project, bool) {
	for _, p := range projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}

// ProjectsByEmployee returns projects whose assignment list contains employeeID.
func ProjectsByEmployee(projects []domain.Project, employeeID string) []domain.Project {
	out := []domain.Project{}
	for _, p := range projects {
		for _, e := range p.EmpleadosAsignados {
			if e == employeeID {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// FilteredProjects keeps projects whose span overlaps the filter range: the start
// or the end falls within the range (inclusive), or the span contains it. A nil
// filter returns projects unchanged. Unparseable dates never match.
func FilteredProjects(projects []domain.Project, filter *domain.DateRange) []domain.Project {
	if filter == nil {
		return projects
	}
	out := []domain.Project{}
	from, okFrom := dates.Parse(filter.StartDate)
	to, okTo := dates.Parse(filter.EndDate)
	if !okFrom || !okTo {
		return out
	}
	within := func(t time.Time) bool { return !t.Before(from) && !t.After(to) }
	for _, p := range projects {
		start, okStart := dates.Parse(p.FechaInicio)
		end, okEnd := dates.Parse(p.FechaFin)
		if !okStart || !okEnd {
			continue
		}
		if within(start) || within(end) || (!start.After(from) && !end.Before(to)) {
			out = append(out, p)
		}
	}
	return out
}

// DelayedTasks lists every task that is not completed and whose due date is
// before today, most overdue first.
func DelayedTasks(projects []domain.Project, now time.Time) []domain.DelayedTask {
	out := []domain.DelayedTask{}
	for _, p := range projects {
		for _, t := range p.Tareas {
			if t.Estado == domain.StatusCompleted || !dates.IsPast(t.FechaLimite, now) {
				continue
			}
			delay := dates.DelayDays(t.FechaLimite, now)
			if delay <= 0 {
				continue
			}
			out = append(out, domain.DelayedTask{
				ProjectID:   p.ID,
				ProjectName: p.Nombre,
				Task:        t,
				Delay:       delay,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Delay > out[j].Delay })
	return out
}

// UpcomingTasks lists open tasks due between today and days from now, both
// inclusive, soonest first.
func UpcomingTasks(projects []domain.Project, now time.Time, days int) []domain.UpcomingTask {
	out := []domain.UpcomingTask{}
	if days < 0 {
		return out
	}
	today := dates.Today(now)
	from, to := dates.DaysAgo(now, 1), dates.DaysFromNow(now, days+1)
	for _, p := range projects {
		for _, t := range p.Tareas {
			if t.Estado == domain.StatusCompleted {
				continue
			}
			due := dates.FormatForInput(t.FechaLimite)
			if !dates.InRange(due, from, to) {
				continue
			}
			left, _ := dates.DaysBetween(today, due)
			out = append(out, domain.UpcomingTask{ProjectID: p.ID, ProjectName: p.Nombre, Task: t, DaysLeft: left})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysLeft < out[j].DaysLeft })
	return out
}

// ComputeTaskStatistics aggregates all tasks in one pass. Any status other than
// completed or in progress counts as pending; delayed counts tasks that are not
// completed and past due, whatever their status code.
func ComputeTaskStatistics(projects []domain.Project, now time.Time) domain.TaskStatistics {
	var st domain.TaskStatistics
	for _, p := range projects {
		for _, t := range p.Tareas {
			st.Total++
			switch t.Estado {
			case domain.StatusCompleted:
				st.Completed++
			case domain.StatusInProgress:
				st.InProgress++
			default:
				st.Pending++
			}
			if t.Estado != domain.StatusCompleted && dates.IsPast(t.FechaLimite, now) {
				st.Delayed++
			}
		}
	}
	if st.Total > 0 {
		st.CompletionRate = float64(st.Completed) / float64(st.Total) * 100
		st.DelayRate = float64(st.Delayed) / float64(st.Total) * 100
	}
	return st
}

func (s *ProjectStore) GetProjectByID(id string) (domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := ProjectByID(s.projects, id)
	if !ok {
		return domain.Project{}, false
	}
	return p.Clone(), true
}

func (s *ProjectStore) GetProjectsByEmployee(employeeID string) []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProjects(ProjectsByEmployee(s.projects, employeeID))
}

// FilteredProjects applies the current date filter to the current projects.
func (s *ProjectStore) FilteredProjects() []domain.Project {
	st := s.State()
	return FilteredProjects(st.Projects, st.DateFilter)
}

func (s *ProjectStore) DelayedTasks() []domain.DelayedTask {
	return DelayedTasks(s.State().Projects, s.now())
}

func (s *ProjectStore) UpcomingTasks(days int) []domain.UpcomingTask {
	return UpcomingTasks(s.State().Projects, s.now(), days)
}

func (s *ProjectStore) TaskStatistics() domain.TaskStatistics {
	return ComputeTaskStatistics(s.State().Projects, s.now())
}
