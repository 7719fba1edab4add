package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/repositories"
	"github.com/desertthunder/vibe/internal/services"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/desertthunder/vibe/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	client     *services.Client
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.RecommendEngine
	db         *sql.DB
	history    *repositories.HistoryRepository
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config and Client may be left nil; they are then resolved from --config when the app starts.
type RunnerOpts struct {
	Config     *shared.Config
	Client     *services.Client
	HTTPClient *http.Client
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
	if opts.DB != nil {
		r.history = repositories.NewHistoryRepository(opts.DB)
	}
	if opts.Client != nil {
		r.setClient(opts.Client)
	}
	return r
}

func (r *Runner) setClient(c *services.Client) {
	r.client = c
	r.engine = tasks.NewRecommendEngine(c, r.logger)
}

// app builds the root command. Running it without a subcommand launches the TUI.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "vibe",
		Usage:   "Find songs that match the vibe of a seed song",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override log level (debug, info, warn, error)",
			},
		},
		Before:   r.load,
		After:    r.close,
		Action:   r.TUI,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		tuiCommand, recommendCommand, songCommand, searchCommand, healthCommand,
		batchCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// load resolves configuration and the backend client unless they were injected.
func (r *Runner) load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		config, err := shared.ResolveConfig(cmd.String("config"))
		if err != nil {
			return ctx, err
		}
		r.config = config
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	}

	if level := cmd.String("log-level"); level != "" {
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	}

	if r.client == nil {
		r.setClient(services.NewClient(r.config.Backend, r.httpClient))
	}
	return ctx, nil
}

func (r *Runner) close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.history = nil
	return err
}

// SetLogger replaces the runner's logger, e.g. to redirect output while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if r.client != nil {
		r.engine = tasks.NewRecommendEngine(r.client, l)
	}
}

// historyRepo opens the history database on first use and runs pending migrations.
func (r *Runner) historyRepo() (*repositories.HistoryRepository, error) {
	if r.history != nil {
		return r.history, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.history = repositories.NewHistoryRepository(db)
	return r.history, nil
}

// recorder returns a history recorder, or nil when the database cannot be opened.
//
// History is best effort, so the failure is only logged.
func (r *Runner) recorder() *repositories.HistoryRecorder {
	repo, err := r.historyRepo()
	if err != nil {
		r.logger.Warn("history disabled", "err", err)
		return nil
	}
	return repositories.NewHistoryRecorder(repo)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
