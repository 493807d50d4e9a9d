// Package app wires configuration, logging, the API client and the two stores
// into one explicitly constructed graph for the presentation layer.
package app

import (
	"time"

	"github.com/sirupsen/logrus"

	"projectdesk/internal/apiclient"
	"projectdesk/internal/config"
	"projectdesk/internal/logging"
	"projectdesk/internal/store"
)

// Overrides are values taken from flags or the environment. Zero values keep
// whatever the config file says.
type Overrides struct {
	APIURL   string
	Timeout  time.Duration
	LogLevel string
	LogFile  string
}

// ResolveConfig loads projectdesk.yml from workspace (defaults when absent),
// applies overrides and validates the result.
func ResolveConfig(workspace string, o Overrides) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if o.APIURL != "" {
		cfg.API.BaseURL = o.APIURL
	}
	if o.Timeout > 0 {
		cfg.API.Timeout = o.Timeout
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFile != "" {
		cfg.Log.File = o.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type App struct {
	Config    *config.Config
	Log       *logrus.Logger
	Client    *apiclient.Client
	Employees *store.EmployeeStore
	Projects  *store.ProjectStore
}

// New builds the client and both stores from cfg. Extra store options are
// applied after the logger.
func New(cfg *config.Config, opts ...store.Option) (*App, error) {
	log, err := logging.New(cfg.Log, "pdk")
	if err != nil {
		return nil, err
	}
	client := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithLogger(log),
		apiclient.WithBreaker(cfg.API.Breaker.MaxFailures, cfg.API.Breaker.OpenTimeout),
	)
	storeOpts := append([]store.Option{store.WithLogger(log)}, opts...)
	return &App{
		Config:    cfg,
		Log:       log,
		Client:    client,
		Employees: store.NewEmployeeStore(client, storeOpts...),
		Projects:  store.NewProjectStore(client, storeOpts...),
	}, nil
}

// Trace subscribes listeners that log every store transition at info level.
// The returned function removes them.
func (a *App) Trace() func() {
	offEmployees := a.Employees.Subscribe(func(st store.EmployeeState) {
		a.Log.WithFields(logrus.Fields{
			"store":     "employees",
			"loading":   st.IsLoading,
			"employees": len(st.Employees),
			"error":     st.Error,
		}).Info("state changed")
	})
	offProjects := a.Projects.Subscribe(func(st store.ProjectState) {
		fields := logrus.Fields{
			"store":    "projects",
			"loading":  st.IsLoading,
			"projects": len(st.Projects),
			"error":    st.Error,
		}
		if st.DateFilter != nil {
			fields["filter"] = st.DateFilter.StartDate + ".." + st.DateFilter.EndDate
		}
		a.Log.WithFields(fields).Info("state changed")
	})
	return func() {
		offEmployees()
		offProjects()
	}
}
