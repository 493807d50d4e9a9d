package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"projectdesk/internal/apiclient"
	"projectdesk/internal/app"
	"projectdesk/internal/config"
	"projectdesk/internal/db"
	"projectdesk/internal/migrate"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Show or create projectdesk.yml"}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configInitCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := viper.GetString("workspace")
			cfg, err := app.ResolveConfig(ws, app.Overrides{
				APIURL:   viper.GetString("api-url"),
				Timeout:  viper.GetDuration("timeout"),
				LogLevel: viper.GetString("log-level"),
			})
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
			printBackendStatus(cmd.Context(), cfg.API.BaseURL)
			return printSchemaStatus(cmd.Context(), ws)
		},
	}
}

// printBackendStatus pings the configured backend. An unreachable backend is
// reported, not treated as an error.
func printBackendStatus(ctx context.Context, baseURL string) {
	client := apiclient.New(baseURL, apiclient.WithTimeout(2*time.Second))
	if err := client.Health(ctx); err != nil {
		fmt.Fprintf(out, "# backend %s: unreachable (%v)\n", baseURL, err)
		return
	}
	fmt.Fprintf(out, "# backend %s: reachable\n", baseURL)
}

// printSchemaStatus reports the local backend database version when one exists.
func printSchemaStatus(ctx context.Context, ws string) error {
	path := db.Path(db.Config{Workspace: ws})
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	conn, err := db.Open(db.Config{Workspace: ws})
	if err != nil {
		return err
	}
	defer conn.Close()
	current, err := migrate.Version(ctx, conn)
	if err != nil {
		return err
	}
	latest, err := migrate.Latest()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# backend db %s: schema %d/%d\n", path, current, latest)
	return nil
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default projectdesk.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := viper.GetString("workspace")
			path := config.Path(ws)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", path)
			if u := viper.GetString("api-url"); u != "" {
				envPath := filepath.Join(ws, ".env")
				if err := setEnvValue(envPath, "PROJECTDESK_API_URL", u); err != nil {
					return err
				}
				fmt.Fprintf(out, "set PROJECTDESK_API_URL in %s\n", envPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
