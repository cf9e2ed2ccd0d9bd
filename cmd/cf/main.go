package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"caseflow/internal/app"
	"caseflow/internal/db"
	"caseflow/internal/engine"
	"caseflow/internal/server"
	"caseflow/internal/template"
)

var rootCmd = &cobra.Command{
	Use:   "cf",
	Short: "Caseflow CLI",
	Long: `Caseflow runs template-driven application workflows.
An application template declares states, the roles that act in each state,
which events they may fire, what they may read and write, and which external
data is fetched on state entry. The engine enforces all of it; this CLI and
the HTTP API are thin shells around the same engine.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CASEFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(templateCmd())
	rootCmd.AddCommand(applicationCmd())
	rootCmd.AddCommand(pruneCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func templateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "template", Short: "Inspect application templates"}
	cmd.AddCommand(templateListCmd())
	cmd.AddCommand(templateShowCmd())
	return cmd
}

func templateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				templates := a.Engine.Registry.List()
				if viper.GetBool("json") {
					return printJSON(templates)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Type", "Name", "Initial", "States"})
				for _, t := range templates {
					tw.AppendRow(table.Row{t.Type, t.Name, t.Initial, len(t.States)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func templateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <type>",
		Short: "Show a template's state machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				t, err := a.Engine.Registry.Get(args[0])
				if err != nil {
					return err
				}
				type stateView struct {
					Terminal    bool                        `json:"terminal"`
					Roles       []string                    `json:"roles"`
					Transitions map[template.Event]string   `json:"transitions,omitempty"`
					Require     map[template.Event][]string `json:"require_providers,omitempty"`
				}
				view := struct {
					Type    string               `json:"type"`
					Name    string               `json:"name"`
					Initial string               `json:"initial"`
					States  map[string]stateView `json:"states"`
				}{Type: t.Type, Name: t.Name, Initial: t.Initial, States: map[string]stateView{}}
				for name, meta := range t.States {
					sv := stateView{
						Terminal:    meta.Terminal(),
						Transitions: meta.Transitions,
						Require:     meta.RequireProviders,
					}
					for _, role := range meta.Roles {
						sv.Roles = append(sv.Roles, string(role.ID))
					}
					view.States[name] = sv
				}
				return printJSONOrTable(view)
			})
		},
	}
}

func applicationCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "application", Short: "Manage applications", Aliases: []string{"app"}}
	cmd.AddCommand(applicationCreateCmd())
	cmd.AddCommand(applicationListCmd())
	cmd.AddCommand(applicationShowCmd())
	cmd.AddCommand(applicationFireCmd())
	cmd.AddCommand(applicationAnswersCmd())
	cmd.AddCommand(applicationRefreshCmd())
	return cmd
}

func applicationCreateCmd() *cobra.Command {
	var typeID string
	var assignees []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an application",
		RunE: func(cmd *cobra.Command, args []string) error {
			if typeID == "" {
				return fmt.Errorf("--type required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				created, err := a.Engine.CreateApplication(ctx, engine.CreateOptions{
					TypeID:    typeID,
					Applicant: viper.GetString("actor-id"),
					Assignees: assignees,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&typeID, "type", "", "application type id")
	cmd.Flags().StringSliceVar(&assignees, "assignee", nil, "assignee actor id (repeatable)")
	return cmd
}

func applicationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the actor's applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				apps, err := a.Engine.ListApplications(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(apps)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "State", "Version", "Modified"})
				for _, item := range apps {
					tw.AppendRow(table.Row{item.ID, item.TypeID, item.State, item.Version, item.Modified})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func applicationShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an application as the actor sees it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				got, err := a.Engine.ViewApplication(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(got)
			})
		},
	}
}

func applicationFireCmd() *cobra.Command {
	var expectedVersion int64
	cmd := &cobra.Command{
		Use:   "fire <id> <event>",
		Short: "Fire a state machine event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				updated, tr, err := a.Engine.FireEvent(ctx, engine.FireEventOptions{
					ApplicationID:   args[0],
					Event:           template.Event(args[1]),
					ActorID:         viper.GetString("actor-id"),
					ExpectedVersion: expectedVersion,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{
					"application": updated,
					"transition":  tr,
				})
			})
		},
	}
	cmd.Flags().Int64Var(&expectedVersion, "expected-version", 0, "fail if the application changed since this version")
	return cmd
}

func applicationAnswersCmd() *cobra.Command {
	var data string
	var strict bool
	cmd := &cobra.Command{
		Use:   "answers <id>",
		Short: "Save answers from a JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if data == "" {
				return fmt.Errorf("--data required")
			}
			var answers map[string]any
			if err := json.Unmarshal([]byte(data), &answers); err != nil {
				return fmt.Errorf("invalid --data: %w", err)
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				updated, err := a.Engine.SaveAnswers(ctx, engine.SaveAnswersOptions{
					ApplicationID: args[0],
					ActorID:       viper.GetString("actor-id"),
					Answers:       answers,
					Strict:        strict,
					Partial:       !strict,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(updated)
			})
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "answers as a JSON object")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject out-of-scope keys and validate the full answer set")
	return cmd
}

func applicationRefreshCmd() *cobra.Command {
	var keys []string
	cmd := &cobra.Command{
		Use:   "refresh <id>",
		Short: "Re-run external data providers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				updated, err := a.Engine.RunProviders(ctx, engine.RunProvidersOptions{
					ApplicationID: args[0],
					ActorID:       viper.GetString("actor-id"),
					Keys:          keys,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(updated.ExternalData)
			})
		},
	}
	cmd.Flags().StringSliceVar(&keys, "key", nil, "provider key (repeatable)")
	return cmd
}

func pruneCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "prune", Short: "Lifecycle pruning"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List applications past their prune deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				apps, err := a.Engine.ListPrunable(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(apps)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Delete all applications past their prune deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				n, err := pruneOnce(ctx, a.Engine)
				if err != nil {
					return err
				}
				fmt.Printf("pruned %d application(s)\n", n)
				return nil
			})
		},
	})
	return cmd
}

func pruneOnce(ctx context.Context, e engine.Engine) (int, error) {
	apps, err := e.ListPrunable(ctx)
	if err != nil {
		return 0, err
	}
	for i, a := range apps {
		if err := e.Repo.DeleteApplication(ctx, a.ID); err != nil {
			return i, err
		}
	}
	return len(apps), nil
}

func apikeyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	cmd.AddCommand(apikeyCreateCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				keys, err := a.Engine.Repo.ListAPIKeys(ctx, "")
				if err != nil {
					return err
				}
				return printJSONOrTable(keys)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				return a.Engine.Repo.DeleteAPIKey(ctx, args[0])
			})
		},
	})
	return cmd
}

func apikeyCreateCmd() *cobra.Command {
	var actorID, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key (the raw key is printed once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actorID == "" {
				actorID = viper.GetString("actor-id")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				raw, key, err := engine.NewAPIKey(ctx, a.Engine.Repo, actorID, name)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{
					"id":       key.ID,
					"actor_id": key.ActorID,
					"name":     key.Name,
					"key":      raw,
				})
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "actor the key authenticates as")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Event log"}
	var n int
	var appID string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				if appID != "" {
					events, err := a.Engine.Repo.ListEvents(ctx, appID, n)
					if err != nil {
						return err
					}
					return printJSONOrTable(events)
				}
				latest, err := a.Engine.Repo.LatestEventID(ctx)
				if err != nil {
					return err
				}
				cursor := latest - int64(n)
				if cursor < 0 {
					cursor = 0
				}
				events, err := a.Engine.Repo.EventsAfter(ctx, n, cursor)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&appID, "application", "", "filter by application id")
	cmd.AddCommand(tail)
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				cfg := a.Config
				if addr != "" {
					cfg.Server.Addr = addr
				}
				if basePath != "" {
					cfg.Server.BasePath = basePath
				}
				if secret := os.Getenv("CASEFLOW_JWT_SECRET"); secret != "" {
					cfg.Auth.JWTSecret = secret
				}
				handler, err := server.New(server.Config{
					Engine:   a.Engine,
					BasePath: cfg.Server.BasePath,
					Auth: server.AuthConfig{
						JWTSecret:              cfg.Auth.JWTSecret,
						AllowLegacyActorHeader: cfg.Auth.AllowLegacyActorHeader,
					},
					Webhooks: cfg.Webhooks,
				})
				if err != nil {
					return err
				}
				if cfg.Prune.Enabled {
					go runPruneWorker(ctx, a.Engine, time.Duration(cfg.Prune.IntervalSeconds)*time.Second)
				}
				srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Caseflow API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n",
					cfg.Server.Addr, cfg.Server.BasePath, cfg.Server.BasePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (overrides config)")
	return cmd
}

func runPruneWorker(ctx context.Context, e engine.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if n, err := pruneOnce(ctx, e); err != nil {
			fmt.Fprintf(os.Stderr, "prune: %v\n", err)
		} else if n > 0 {
			fmt.Printf("prune: removed %d application(s)\n", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.Context) error) error {
	a, err := app.Bootstrap(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
