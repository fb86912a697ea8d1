package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/guillermoBallester/storeadmin/internal/adapter/console"
	"github.com/guillermoBallester/storeadmin/internal/adapter/memstore"
	"github.com/guillermoBallester/storeadmin/internal/adapter/postgres"
	"github.com/guillermoBallester/storeadmin/internal/bootstrap"
	"github.com/guillermoBallester/storeadmin/internal/config"
	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/port"
	"github.com/guillermoBallester/storeadmin/internal/core/service"
	"github.com/guillermoBallester/storeadmin/internal/logging"
)

// app holds the wiring shared by every command. It is filled in by setup
// before a command runs and released by close.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// flags
	envFile string
	backend string
	noColor bool

	cfg      *config.Config
	logger   *slog.Logger
	flushLog func()
	store    port.Store
	allow    *domain.AllowList
	catalog  *service.SchemaCatalog
	repo     *service.RecordRepository
	scanner  *service.SearchScanner
	sink     *console.Sink
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "storeadmin",
		Short: "Manage and search the records of a store database",
		Long: `storeadmin browses, edits and searches the rows of an allow-listed set of
tables. Tables are described at run time, so the same commands work for
every table without per-table code.`,
		Version:            version,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "file of KEY=VALUE settings loaded before the environment is read")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "store backend: postgres or memory (overrides STORE_BACKEND)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetVersionTemplate("storeadmin {{.Version}}\n")

	root.AddCommand(
		a.shellCommand(),
		a.listCommand(),
		a.searchCommand(),
		a.bootstrapCommand(),
		a.mcpCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}
	if a.backend != "" {
		if err := os.Setenv("STORE_BACKEND", a.backend); err != nil {
			return fmt.Errorf("setting backend: %w", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	a.logger, a.flushLog = logging.New(cfg, a.stderr)

	a.logger.Debug("starting storeadmin",
		slog.String("version", version),
		slog.String("command", cmd.Name()),
		slog.String("backend", cfg.Backend),
		slog.String("db.namespace", cfg.Schema),
		slog.String("query_timeout", cfg.QueryTimeout.String()),
	)

	store, err := a.openStore(cmd.Context())
	if err != nil {
		return err
	}
	a.store = store
	a.allow = domain.NewAllowList(cfg.Tables)
	a.catalog = service.NewSchemaCatalog(store, a.allow, a.logger)
	a.repo = service.NewRecordRepository(store, a.catalog, a.logger)
	a.scanner = service.NewSearchScanner(a.repo, a.logger)
	a.sink = console.New(a.stdout, a.noColor)

	if cfg.Backend == config.BackendMemory && !isBootstrap(cmd) {
		a.bootstrapMemory(cmd.Context())
	}
	return nil
}

func (a *app) openStore(ctx context.Context) (port.Store, error) {
	if a.cfg.Backend == config.BackendMemory {
		return memstore.New(a.cfg.Schema), nil
	}

	store, err := postgres.Connect(ctx, a.cfg.DatabaseURL, postgres.Options{
		Schema:       a.cfg.Schema,
		QueryTimeout: a.cfg.QueryTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.logger.Info("database connected",
		slog.String("db.system", "postgresql"),
		slog.String("db.namespace", a.cfg.Schema),
	)
	return store, nil
}

// bootstrapMemory gives a fresh memory store the tables and demo rows, so
// every command has data to work on. Output goes to the log only.
func (a *app) bootstrapMemory(ctx context.Context) {
	runner := bootstrap.NewRunner(a.store, a.repo, port.Discard, a.logger)
	created := runner.Create(ctx)
	seeded, err := runner.Seed(ctx)
	if err != nil {
		a.logger.Warn("seeding memory store failed", slog.String("error", err.Error()))
		return
	}
	a.logger.Debug("memory store prepared",
		slog.String("create", created.String()),
		slog.String("seed", seeded.String()),
	)
}

func isBootstrap(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "bootstrap" {
			return true
		}
	}
	return false
}

// close releases what setup acquired. It is safe to call when setup never
// ran, as for --help.
func (a *app) close(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.logger.Warn("closing store", slog.String("error", err.Error()))
		}
		a.store = nil
	}
	if a.flushLog != nil {
		a.flushLog()
		a.flushLog = nil
	}
}
