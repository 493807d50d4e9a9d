package server

import (
	"projectdesk/internal/domain"
	"projectdesk/internal/events"
)

// Request payloads. Every field is optional in the schema; the engine decides
// what is required so errors share one envelope.

type EmployeeRequest struct {
	ID                 string   `json:"id,omitempty"`
	Nombre             string   `json:"nombre,omitempty" example:"Ana"`
	Correo             string   `json:"correo,omitempty" example:"ana@example.com"`
	ProyectosAsignados []string `json:"proyectosAsignados,omitempty"`
}

type TaskRequest struct {
	ID            string `json:"id,omitempty"`
	Titulo        string `json:"titulo,omitempty" example:"Design"`
	Descripcion   string `json:"descripcion,omitempty"`
	FechaAsignada string `json:"fechaAsignada,omitempty" example:"2024-06-01"`
	FechaLimite   string `json:"fechaLimite,omitempty" example:"2024-06-30"`
	Estado        int    `json:"estado,omitempty" minimum:"0" maximum:"3" doc:"0 pending, 1 in progress, 2 completed, 3 delayed"`
}

type ProjectRequest struct {
	ID                 string        `json:"id,omitempty"`
	Nombre             string        `json:"nombre,omitempty" example:"Portal"`
	Descripcion        string        `json:"descripcion,omitempty"`
	FechaInicio        string        `json:"fechaInicio,omitempty" example:"2024-01-01"`
	FechaFin           string        `json:"fechaFin,omitempty" example:"2024-12-31"`
	EmpleadosAsignados []string      `json:"empleadosAsignados,omitempty"`
	Tareas             []TaskRequest `json:"tareas,omitempty"`
}

type EmployeePatchRequest struct {
	Nombre             *string   `json:"nombre,omitempty"`
	Correo             *string   `json:"correo,omitempty"`
	ProyectosAsignados *[]string `json:"proyectosAsignados,omitempty"`
}

type TaskPatchRequest struct {
	ID            *string `json:"id,omitempty" doc:"ignored; task ids are immutable"`
	Titulo        *string `json:"titulo,omitempty"`
	Descripcion   *string `json:"descripcion,omitempty"`
	FechaAsignada *string `json:"fechaAsignada,omitempty"`
	FechaLimite   *string `json:"fechaLimite,omitempty"`
	Estado        *int    `json:"estado,omitempty" minimum:"0" maximum:"3"`
}

type ProjectPatchRequest struct {
	ID                 *string        `json:"id,omitempty" doc:"ignored; project ids are immutable"`
	Nombre             *string        `json:"nombre,omitempty"`
	Descripcion        *string        `json:"descripcion,omitempty"`
	FechaInicio        *string        `json:"fechaInicio,omitempty"`
	FechaFin           *string        `json:"fechaFin,omitempty"`
	EmpleadosAsignados *[]string      `json:"empleadosAsignados,omitempty"`
	Tareas             *[]TaskRequest `json:"tareas,omitempty" doc:"replaces the whole task list"`
}

func (r EmployeeRequest) toDomain() domain.Employee {
	return domain.Employee{
		ID:                 r.ID,
		Nombre:             r.Nombre,
		Correo:             r.Correo,
		ProyectosAsignados: r.ProyectosAsignados,
	}.Normalize()
}

func (r TaskRequest) toDomain() domain.Task {
	return domain.Task{
		ID:            r.ID,
		Titulo:        r.Titulo,
		Descripcion:   r.Descripcion,
		FechaAsignada: r.FechaAsignada,
		FechaLimite:   r.FechaLimite,
		Estado:        domain.TaskStatus(r.Estado),
	}
}

func tasksToDomain(in []TaskRequest) []domain.Task {
	out := make([]domain.Task, 0, len(in))
	for _, t := range in {
		out = append(out, t.toDomain())
	}
	return out
}

func (r ProjectRequest) toDomain() domain.Project {
	return domain.Project{
		ID:                 r.ID,
		Nombre:             r.Nombre,
		Descripcion:        r.Descripcion,
		FechaInicio:        r.FechaInicio,
		FechaFin:           r.FechaFin,
		EmpleadosAsignados: r.EmpleadosAsignados,
		Tareas:             tasksToDomain(r.Tareas),
	}.Normalize()
}

func (r EmployeePatchRequest) toDomain() domain.EmployeePatch {
	return domain.EmployeePatch{Nombre: r.Nombre, Correo: r.Correo, ProyectosAsignados: r.ProyectosAsignados}
}

func (r TaskPatchRequest) toDomain() domain.TaskPatch {
	p := domain.TaskPatch{
		Titulo:        r.Titulo,
		Descripcion:   r.Descripcion,
		FechaAsignada: r.FechaAsignada,
		FechaLimite:   r.FechaLimite,
	}
	if r.Estado != nil {
		p.Estado = domain.StatusPtr(domain.TaskStatus(*r.Estado))
	}
	return p
}

func (r ProjectPatchRequest) toDomain() domain.ProjectPatch {
	p := domain.ProjectPatch{
		Nombre:             r.Nombre,
		Descripcion:        r.Descripcion,
		FechaInicio:        r.FechaInicio,
		FechaFin:           r.FechaFin,
		EmpleadosAsignados: r.EmpleadosAsignados,
	}
	if r.Tareas != nil {
		tasks := tasksToDomain(*r.Tareas)
		p.Tareas = &tasks
	}
	return p
}

// Responses reuse the domain records; these wrap them for huma.

type employeeOutput struct {
	Body domain.Employee `json:"body"`
}

type employeesOutput struct {
	Body []domain.Employee `json:"body"`
}

type projectOutput struct {
	Body domain.Project `json:"body"`
}

type projectsOutput struct {
	Body []domain.Project `json:"body"`
}

type taskOutput struct {
	Body domain.Task `json:"body"`
}

type tasksOutput struct {
	Body []domain.Task `json:"body"`
}

type eventsOutput struct {
	Body []events.Event `json:"body"`
}
