package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"goaltrack/internal/app"
	"goaltrack/internal/config"
	"goaltrack/internal/db"
	"goaltrack/internal/engine"
	"goaltrack/internal/events"
	"goaltrack/internal/migrate"
	"goaltrack/internal/planner"
	"goaltrack/internal/repo"
	"goaltrack/internal/server"
	"goaltrack/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "gt",
	Short: "Goal tracker CLI",
	Long: `Goal tracker turns a named goal with a start and end date into a day-by-day calendar.
- Plan: every day in the range gets a sequence number (day 1, day 2, ...) and a count of days still to go.
- Export: the calendar becomes a PDF with a summary page followed by one page per month.
- Journal: generated and exported reports are recorded in .goaltrack/goaltrack.db; view with 'gt log tail'.
- Config: goaltrack.yml in the workspace tunes the export; create it with 'gt config init'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(viper.GetString("log-level"))
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("GOALTRACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier recorded in the journal")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// goalFlags are shared by plan and export.
type goalFlags struct {
	name, start, end, today string
}

func (g *goalFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&g.name, "name", "", "goal name")
	cmd.Flags().StringVar(&g.start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&g.end, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&g.today, "today", "", "evaluate progress as of this date (YYYY-MM-DD)")
}

// newSession fills a session from the flags and generates the report.
func (g *goalFlags) newSession(ctx context.Context, e engine.Engine) (*session.Session, error) {
	if g.today != "" {
		today, err := planner.ParseDate("today", g.today)
		if err != nil {
			return nil, err
		}
		e.Now = func() time.Time { return today }
	}
	s := session.New(e, viper.GetString("actor-id"))
	for _, set := range []func() error{
		func() error { return s.SetName(g.name) },
		func() error { return s.SetStartDate(g.start) },
		func() error { return s.SetEndDate(g.end) },
	} {
		if err := set(); err != nil {
			return nil, err
		}
	}
	if _, err := s.Generate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func planCmd() *cobra.Command {
	var g goalFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute and print the goal calendar",
		Example: `  gt plan --name "Learn Piano" --start 2024-01-01 --end 2024-01-10
  gt plan --name "Learn Piano" --start 2024-01-01 --end 2024-03-31 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := g.newSession(ctx, e)
				if err != nil {
					return err
				}
				rep := s.State().(session.Viewing).Report
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				printReport(os.Stdout, rep, newStyles(os.Stdout))
				return nil
			})
		},
	}
	g.bind(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	var g goalFlags
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the goal calendar as a PDF",
		Long:  "Writes a summary page followed by one page per calendar month. The file is only written once the whole document rendered.",
		Example: `  gt export --name "Learn Piano" --start 2024-01-01 --end 2024-03-31
  gt export --name "Run 5k" --start 2024-05-01 --end 2024-06-15 --out - > run.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := g.newSession(ctx, e)
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				name, res, err := s.Download(ctx, &buf)
				if err != nil {
					return err
				}
				target := out
				switch {
				case target == "-":
					_, err := buf.WriteTo(os.Stdout)
					return err
				case target == "":
					target = name
				default:
					if fi, err := os.Stat(target); err == nil && fi.IsDir() {
						target = filepath.Join(target, name)
					}
				}
				if err := writeFileAtomic(target, buf.Bytes()); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"file": target, "pages": res.Pages, "bytes": res.Bytes})
				}
				fmt.Printf("wrote %s (%d pages, %d bytes)\n", target, res.Pages, res.Bytes)
				return nil
			})
		},
	}
	g.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file or directory ('-' for stdout); defaults to <name>-tracker.pdf")
	cmd.Flags().Float64("scale", 0, "raster scale, at most 4 (overrides export.scale)")
	cmd.Flags().Int("quality", 0, "JPEG quality 1-100 (overrides export.jpeg_quality)")
	cmd.Flags().String("page-size", "", "page size: A3, A4, A5, Letter, Legal (overrides export.page_size)")
	_ = viper.BindPFlag("export.scale", cmd.Flags().Lookup("scale"))
	_ = viper.BindPFlag("export.jpeg_quality", cmd.Flags().Lookup("quality"))
	_ = viper.BindPFlag("export.page_size", cmd.Flags().Lookup("page-size"))
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage goaltrack.yml",
		Long:  "Config tunes the export (raster scale, JPEG quality, page size, file naming), the journal, and the API server defaults.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default goaltrack.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cfg)
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate goaltrack.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if file != "" {
				_, err = config.FromFile(file)
			} else {
				_, err = loadConfig()
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Validate this file instead of the workspace config")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Export journal",
		Long: "The journal records every generated and exported report for auditing.\n" +
			"Entries are never reloaded: goals are not saved between runs, only their history is.",
	}
	log.AddCommand(logTailCmd(), logShowCmd(), logStatsCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var f repo.JournalFilter
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show recent journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entries, err := e.Journal(ctx, n, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Time", "Type", "Goal", "Actor", "Details"})
				for _, entry := range entries {
					tw.AppendRow(table.Row{entry.ID, entry.TS, entry.Type, entry.Goal, entry.ActorID, entry.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	cmd.Flags().StringVar(&f.Type, "type", "", "entry type filter ("+events.TypeReportGenerated+", "+events.TypeReportExported+")")
	cmd.Flags().StringVar(&f.ReportID, "report", "", "report id filter")
	cmd.Flags().StringVar(&f.ActorID, "actor", "", "actor filter")
	return cmd
}

func logShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid entry id %q", args[0])
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entry, err := e.JournalEntry(ctx, id)
				if errors.Is(err, repo.ErrNotFound) {
					return fmt.Errorf("journal entry %d not found", id)
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entry)
				}
				printEntry(os.Stdout, entry)
				return nil
			})
		},
	}
}

func logStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count journal entries per type",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				counts, err := e.JournalStats(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(counts)
				}
				printStats(os.Stdout, counts)
				return nil
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var allowActorHeader bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		Long:  "Serves the planner and PDF export over HTTP. Set GOALTRACK_JWT_SECRET to require HS256 bearer tokens.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				addr := e.Config.Server.Addr
				if viper.IsSet("server.addr") {
					addr = viper.GetString("server.addr")
				}
				basePath := e.Config.Server.BasePath
				if viper.IsSet("server.base_path") {
					basePath = viper.GetString("server.base_path")
				}
				authCfg := server.AuthConfig{
					JWTSecret:              viper.GetString("jwt-secret"),
					AllowLegacyActorHeader: allowActorHeader,
					Logger:                 slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
				}
				if authCfg.JWTSecret == "" {
					slog.Warn("GOALTRACK_JWT_SECRET not set; API is open to anyone who can reach " + addr)
				}
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg, Logger: slog.Default()})
				if err != nil {
					return err
				}
				srv := &http.Server{
					Addr:              addr,
					Handler:           handler,
					ReadHeaderTimeout: 10 * time.Second,
					ErrorLog:          log.New(os.Stderr, "http: ", log.LstdFlags),
				}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Goal Tracker API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().String("base-path", "", "API base path (overrides server.base_path)")
	cmd.Flags().String("jwt-secret", "", "HS256 secret for bearer tokens")
	cmd.Flags().BoolVar(&allowActorHeader, "allow-actor-header", false, "accept X-Actor-Id without auth (deprecated)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.base_path", cmd.Flags().Lookup("base-path"))
	_ = viper.BindPFlag("jwt-secret", cmd.Flags().Lookup("jwt-secret"))
	return cmd
}

// --- helpers ---

// loadConfig reads goaltrack.yml and applies flag and environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := app.ResolveConfig(viper.GetString("workspace"))
	if err != nil {
		return nil, err
	}
	if v := viper.GetFloat64("export.scale"); v != 0 {
		cfg.Export.Scale = v
	}
	if v := viper.GetInt("export.jpeg_quality"); v != 0 {
		cfg.Export.JPEGQuality = v
	}
	if v := viper.GetString("export.page_size"); v != "" {
		cfg.Export.PageSize = v
	}
	if viper.IsSet("journal.enabled") {
		cfg.Journal.Enabled = viper.GetBool("journal.enabled")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, closeFn, err := app.OpenEngine(ctx, viper.GetString("workspace"), cfg, slog.Default())
	if err != nil {
		return err
	}
	defer closeFn()
	if cfg.Journal.Enabled {
		v, err := migrate.Version(ctx, e.DB)
		if err == nil {
			slog.Debug("journal ready", "path", db.Path(viper.GetString("workspace")), "schema_version", v)
		}
	}
	return fn(ctx, e)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".gt-export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
