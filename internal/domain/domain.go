package domain

type Employee struct {
	ID                 string   `json:"id,omitempty"`
	Nombre             string   `json:"nombre"`
	Correo             string   `json:"correo"`
	ProyectosAsignados []string `json:"proyectosAsignados"`
}

type Project struct {
	ID                 string   `json:"id,omitempty"`
	Nombre             string   `json:"nombre"`
	Descripcion        string   `json:"descripcion"`
	FechaInicio        string   `json:"fechaInicio"`
	FechaFin           string   `json:"fechaFin"`
	EmpleadosAsignados []string `json:"empleadosAsignados"`
	Tareas             []Task   `json:"tareas"`
}

type Task struct {
	ID            string     `json:"id,omitempty"`
	Titulo        string     `json:"titulo"`
	Descripcion   string     `json:"descripcion"`
	FechaAsignada string     `json:"fechaAsignada"`
	FechaLimite   string     `json:"fechaLimite"`
	Estado        TaskStatus `json:"estado"`
}

// TaskStatus is the closed status enumeration carried on the wire as a small integer.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusInProgress
	StatusCompleted
	StatusDelayed
)

var statusNames = map[TaskStatus]string{
	StatusPending:    "pending",
	StatusInProgress: "in_progress",
	StatusCompleted:  "completed",
	StatusDelayed:    "delayed",
}

func (s TaskStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s TaskStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseTaskStatus accepts either the status name or its numeric code.
func ParseTaskStatus(v string) (TaskStatus, bool) {
	for s, name := range statusNames {
		if name == v {
			return s, true
		}
	}
	switch v {
	case "0":
		return StatusPending, true
	case "1":
		return StatusInProgress, true
	case "2":
		return StatusCompleted, true
	case "3":
		return StatusDelayed, true
	}
	return 0, false
}

// DateRange filters projects by their date span. It is never persisted.
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type DelayedTask struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	Task        Task   `json:"task"`
	Delay       int    `json:"delay"`
}

// UpcomingTask is an open task due within a look-ahead window.
type UpcomingTask struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	Task        Task   `json:"task"`
	DaysLeft    int    `json:"daysLeft"`
}

type TaskStatistics struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"inProgress"`
	Pending        int     `json:"pending"`
	Delayed        int     `json:"delayed"`
	CompletionRate float64 `json:"completionRate"`
	DelayRate      float64 `json:"delayRate"`
}
