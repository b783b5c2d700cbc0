package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/chuongle2003/chorus-cli/internal/api"
	"github.com/chuongle2003/chorus-cli/internal/chat"
	"github.com/chuongle2003/chorus-cli/internal/repositories"
	"github.com/chuongle2003/chorus-cli/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	api        *api.Client
	tokens     *api.TokenStore
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	API        *api.Client
	Tokens     *api.TokenStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = api.NewClient(opts.Config.API.BaseURL, opts.HTTPClient, opts.Tokens, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		api:        opts.API,
		tokens:     opts.Tokens,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. to redirect into a file
// while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// newSession builds a chat session over the runner's API client. The
// cache is optional; commands that only need the socket pass nil.
func (r *Runner) newSession(cache chat.CacheWriter) *chat.Session {
	return chat.NewSession(chat.SessionOpts{
		API:            r.api,
		Identity:       r.tokens,
		WSBase:         r.config.API.WSBaseURL,
		ReconnectDelay: r.config.Chat.ReconnectDelay(),
		SearchDebounce: r.config.Chat.SearchDebounce(),
		SendRate:       r.config.Chat.SendRateLimit,
		SendBurst:      r.config.Chat.SendBurst,
		Cache:          cache,
		Logger:         r.logger,
	})
}

// openCache opens the local database and wraps it in the write-through
// cache. The caller owns closing the returned db.
func (r *Runner) openCache() (*sql.DB, *repositories.Cache, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, repositories.NewCache(db), nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, conversationsCommand, messagesCommand, searchCommand, recordCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
