package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"projectdesk/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "pdk",
	Short: "projectdesk CLI",
	Long: `projectdesk manages employees, projects and project tasks kept by a REST backend.
- Employees carry the ids of the projects they are assigned to.
- Projects carry a date span, assigned employee ids and their own task list.
- Tasks move between pending, in_progress, completed and delayed; a task that is not
  completed and whose due date is before today counts as delayed on the dashboard.
- 'pdk serve' runs a local development backend; point api.base_url at it.`,
	SilenceUsage: true,
}

// in and out are swapped by tests.
var (
	in  io.Reader = os.Stdin
	out io.Writer = os.Stdout
)

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// initConfig loads .env from the workspace, then lets PROJECTDESK_* variables
// override flags that were not set explicitly.
func initConfig() {
	envFile := filepath.Join(viper.GetString("workspace"), ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", envFile, err)
	}
	viper.SetEnvPrefix("PROJECTDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("workspace", "w", ".", "directory holding projectdesk.yml and .env")
	flags.Bool("json", false, "output JSON")
	flags.BoolP("yes", "y", false, "skip delete confirmations")
	flags.BoolP("verbose", "v", false, "log every store state change")
	flags.String("api-url", "", "backend base URL (overrides api.base_url)")
	flags.Duration("timeout", 0, "request timeout (overrides api.timeout)")
	flags.String("log-level", "", "log level (overrides log.level)")
	for _, name := range []string{"workspace", "json", "yes", "verbose", "api-url", "timeout", "log-level"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(employeeCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
}

// withApp resolves configuration and builds the stores for one command.
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := app.ResolveConfig(viper.GetString("workspace"), app.Overrides{
		APIURL:   viper.GetString("api-url"),
		Timeout:  viper.GetDuration("timeout"),
		LogLevel: viper.GetString("log-level"),
	})
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	if viper.GetBool("verbose") {
		defer a.Trace()()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a)
}

// confirm asks a yes/no question unless --yes was given.
func confirm(question string) bool {
	if viper.GetBool("yes") {
		return true
	}
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func printJSONOrTable(v any, render func(table.Writer)) error {
	if viper.GetBool("json") || render == nil {
		return printJSON(v)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	render(tw)
	tw.Render()
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// setEnvValue writes key=value into the dotenv file at path, replacing an
// existing assignment.
func setEnvValue(path, key, value string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		env = map[string]string{}
	}
	env[key] = value
	return godotenv.Write(env, path)
}
