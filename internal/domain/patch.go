package domain

// Patches carry partial updates. A nil field is absent and keeps the prior value.

type EmployeePatch struct {
	Nombre             *string   `json:"nombre,omitempty"`
	Correo             *string   `json:"correo,omitempty"`
	ProyectosAsignados *[]string `json:"proyectosAsignados,omitempty"`
}

func (p EmployeePatch) Apply(e Employee) Employee {
	if p.Nombre != nil {
		e.Nombre = *p.Nombre
	}
	if p.Correo != nil {
		e.Correo = *p.Correo
	}
	if p.ProyectosAsignados != nil {
		e.ProyectosAsignados = append([]string(nil), (*p.ProyectosAsignados)...)
	}
	return e
}

func (p EmployeePatch) Empty() bool {
	return p.Nombre == nil && p.Correo == nil && p.ProyectosAsignados == nil
}

type ProjectPatch struct {
	ID                 *string   `json:"id,omitempty"`
	Nombre             *string   `json:"nombre,omitempty"`
	Descripcion        *string   `json:"descripcion,omitempty"`
	FechaInicio        *string   `json:"fechaInicio,omitempty"`
	FechaFin           *string   `json:"fechaFin,omitempty"`
	EmpleadosAsignados *[]string `json:"empleadosAsignados,omitempty"`
	Tareas             *[]Task   `json:"tareas,omitempty"`
}

func (p ProjectPatch) Apply(pr Project) Project {
	if p.ID != nil {
		pr.ID = *p.ID
	}
	if p.Nombre != nil {
		pr.Nombre = *p.Nombre
	}
	if p.Descripcion != nil {
		pr.Descripcion = *p.Descripcion
	}
	if p.FechaInicio != nil {
		pr.FechaInicio = *p.FechaInicio
	}
	if p.FechaFin != nil {
		pr.FechaFin = *p.FechaFin
	}
	if p.EmpleadosAsignados != nil {
		pr.EmpleadosAsignados = append([]string(nil), (*p.EmpleadosAsignados)...)
	}
	if p.Tareas != nil {
		pr.Tareas = append([]Task{}, (*p.Tareas)...)
	}
	return pr.Normalize()
}

func (p ProjectPatch) Empty() bool {
	return p.ID == nil && p.Nombre == nil && p.Descripcion == nil && p.FechaInicio == nil &&
		p.FechaFin == nil && p.EmpleadosAsignados == nil && p.Tareas == nil
}

type TaskPatch struct {
	ID            *string     `json:"id,omitempty"`
	Titulo        *string     `json:"titulo,omitempty"`
	Descripcion   *string     `json:"descripcion,omitempty"`
	FechaAsignada *string     `json:"fechaAsignada,omitempty"`
	FechaLimite   *string     `json:"fechaLimite,omitempty"`
	Estado        *TaskStatus `json:"estado,omitempty"`
}

func (p TaskPatch) Apply(t Task) Task {
	if p.ID != nil {
		t.ID = *p.ID
	}
	if p.Titulo != nil {
		t.Titulo = *p.Titulo
	}
	if p.Descripcion != nil {
		t.Descripcion = *p.Descripcion
	}
	if p.FechaAsignada != nil {
		t.FechaAsignada = *p.FechaAsignada
	}
	if p.FechaLimite != nil {
		t.FechaLimite = *p.FechaLimite
	}
	if p.Estado != nil {
		t.Estado = *p.Estado
	}
	return t
}

func (p TaskPatch) Empty() bool {
	return p.ID == nil && p.Titulo == nil && p.Descripcion == nil && p.FechaAsignada == nil &&
		p.FechaLimite == nil && p.Estado == nil
}

// Normalize guarantees the list fields are non-nil so they always serialise as arrays.
func (pr Project) Normalize() Project {
	if pr.Tareas == nil {
		pr.Tareas = []Task{}
	}
	if pr.EmpleadosAsignados == nil {
		pr.EmpleadosAsignados = []string{}
	}
	return pr
}

func (e Employee) Normalize() Employee {
	if e.ProyectosAsignados == nil {
		e.ProyectosAsignados = []string{}
	}
	return e
}

// Clone returns a deep copy.
func (pr Project) Clone() Project {
	out := pr
	if pr.EmpleadosAsignados != nil {
		out.EmpleadosAsignados = append([]string{}, pr.EmpleadosAsignados...)
	}
	if pr.Tareas != nil {
		out.Tareas = append([]Task{}, pr.Tareas...)
	}
	return out
}

func (e Employee) Clone() Employee {
	out := e
	if e.ProyectosAsignados != nil {
		out.ProyectosAsignados = append([]string{}, e.ProyectosAsignados...)
	}
	return out
}

func StringPtr(s string) *string { return &s }

func StatusPtr(s TaskStatus) *TaskStatus { return &s }

// fieldNames returns the names whose flag is set, in order.
func fieldNames(names []string, set ...bool) []string {
	out := []string{}
	for i, ok := range set {
		if ok {
			out = append(out, names[i])
		}
	}
	return out
}

// Fields lists the JSON names the patch carries.
func (p EmployeePatch) Fields() []string {
	return fieldNames([]string{"nombre", "correo", "proyectosAsignados"},
		p.Nombre != nil, p.Correo != nil, p.ProyectosAsignados != nil)
}

func (p ProjectPatch) Fields() []string {
	return fieldNames([]string{"id", "nombre", "descripcion", "fechaInicio", "fechaFin", "empleadosAsignados", "tareas"},
		p.ID != nil, p.Nombre != nil, p.Descripcion != nil, p.FechaInicio != nil, p.FechaFin != nil,
		p.EmpleadosAsignados != nil, p.Tareas != nil)
}

func (p TaskPatch) Fields() []string {
	return fieldNames([]string{"id", "titulo", "descripcion", "fechaAsignada", "fechaLimite", "estado"},
		p.ID != nil, p.Titulo != nil, p.Descripcion != nil, p.FechaAsignada != nil, p.FechaLimite != nil,
		p.Estado != nil)
}
