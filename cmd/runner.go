package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/v4vx/internal/services"
	"github.com/desertthunder/v4vx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	directory  services.FeedDirectory
	fetcher    services.Fetcher
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	status     io.Writer
	now        func() time.Time
	verbose    bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Directory and Fetcher replace the network clients built from config.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Directory  services.FeedDirectory
	Fetcher    services.Fetcher
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer // command results
	Status     io.Writer // progress and summaries when results go to Output
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		directory:  opts.Directory,
		fetcher:    opts.Fetcher,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		status:     opts.Status,
		now:        opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, resolveCommand, batchCommand, storeCommand, historyCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the injected config, or the file named by --config overlaid on defaults.
// A missing file falls back to defaults; a malformed one is an error.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := r.configPath
	if cmd != nil && cmd.String("config") != "" {
		path = cmd.String("config")
	}

	config := shared.DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if config, err = shared.LoadConfig(path); err != nil {
				return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
			}
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}
	config.ApplyEnv()

	if !r.verbose {
		shared.SetLogLevelString(r.logger, config.Log.Level)
	}

	r.config = config
	return config, nil
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
	return r.writePlain(format+"\n", args...)
}

func (r *Runner) writeStatus(text string) {
	fmt.Fprintln(r.status, text)
}

// readJSONFile decodes path into v, reporting a missing or malformed file as invalid input.
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s is not valid JSON: %v", shared.ErrInvalidInput, path, err)
	}
	return nil
}
