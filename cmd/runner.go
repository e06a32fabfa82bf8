package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunex/internal/formatter"
	"github.com/desertthunder/tunex/internal/pagination"
	"github.com/desertthunder/tunex/internal/repositories"
	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	registry   *services.Registry
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Registry is built from the configuration in [Runner.Init].
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Registry   *services.Registry
	HTTPClient *http.Client
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		registry:   opts.Registry,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// Init loads the configuration, opens the optional store and builds the provider registry.
//
// It runs before every command. Dependencies passed through [RunnerOpts] are kept.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if lvl := cmd.String("log-level"); lvl != "" {
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(lvl))
	}
	if path := cmd.String("config"); path != "" && r.configPath == "" {
		r.configPath = path
	}

	if r.config == nil {
		config, err := r.loadConfig()
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	if r.registry != nil {
		return ctx, nil
	}

	deps := services.DepsFromConfig(r.config, r.logger)
	db, err := shared.OpenStore(r.config.Database)
	if err != nil {
		return ctx, fmt.Errorf("failed to open credential store: %w", err)
	}
	if db != nil {
		r.db = db
		deps.Credentials = repositories.NewCredentialRepository(db)
		deps.Sessions = repositories.NewSessionRepository(db)
		r.logger.Debug("credential store enabled", "path", r.config.Database.Path)
	}

	registry, err := services.NewRegistry(r.config, deps)
	if err != nil {
		return ctx, err
	}
	registry.Restore(ctx)
	r.registry = registry
	return ctx, nil
}

// Close releases the credential store.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// loadConfig reads the config file when present, falling back to the embedded defaults.
func (r *Runner) loadConfig() (*shared.Config, error) {
	config := shared.DefaultConfig()
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			loaded, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return nil, err
			}
			config = loaded
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, songCommand, albumCommand, artistCommand, playlistCommand, searchCommand,
		exportCommand, authCommand, cacheCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// catalog resolves the catalog named by the --provider flag.
func (r *Runner) catalog(cmd *cli.Command) (services.Catalog, error) {
	if r.registry == nil {
		return nil, fmt.Errorf("%w: provider registry not initialized", shared.ErrMissingConfig)
	}
	return r.registry.Resolve(cmd.String("provider"))
}

func (r *Runner) page(cmd *cli.Command) pagination.Params {
	return pagination.Normalize(cmd.Int("limit"), cmd.Int("offset"))
}

// renderer builds a [formatter.Renderer] for the --format flag.
func (r *Runner) renderer(cmd *cli.Command) (*formatter.Renderer, error) {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return formatter.NewRenderer(r.output, format), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
