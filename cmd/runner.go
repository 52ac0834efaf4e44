package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/library"
	"github.com/desertthunder/crate/internal/repositories"
	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	kv         library.KeyValueStore
	db         *sql.DB
	sessions   *library.SessionStore
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	reader     *bufio.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	KV         library.KeyValueStore // opened from Config.Database on first use when nil
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Catalog == nil {
		opts.Catalog = services.NewClientFromConfig(opts.Config.API, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		kv:         opts.KV,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		reader:     bufio.NewReader(opts.Input),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, registerCommand, logoutCommand, whoamiCommand,
		catalogCommand, subsCommand, tuiCommand, mockServerCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by subsequent actions.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database opened for the session store, if any.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// sessionStore returns the session store, opening the configured database on first use.
func (r *Runner) sessionStore() (*library.SessionStore, error) {
	if r.sessions != nil {
		return r.sessions, nil
	}

	if r.kv == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		r.db = db
		r.kv = repositories.NewKVRepository(db)
	}

	r.sessions = library.NewSessionStore(r.kv, r.logger)
	return r.sessions, nil
}

// requireSession loads the stored session and fails when the user is not logged in.
func (r *Runner) requireSession(ctx context.Context) (*library.SessionStore, error) {
	sessions, err := r.sessionStore()
	if err != nil {
		return nil, err
	}

	session, err := sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !session.Authenticated() {
		return nil, fmt.Errorf("%w: run 'crate login' first", shared.ErrNotAuthenticated)
	}
	return sessions, nil
}

// libraryOpts wires the browsing components to the CLI. Redirects become a login hint and notifications
// go to the log so they never mix with rendered output.
func (r *Runner) libraryOpts(sessions *library.SessionStore) library.Opts {
	return library.Opts{
		Catalog: r.catalog,
		Session: sessions,
		Navigator: library.NavigatorFunc(func(path string) {
			if path == library.LoginPath {
				r.logger.Warn("login required", "hint", "crate login")
			}
		}),
		Notifier: library.NotifierFunc(func(msg string) {
			r.logger.Info(msg)
		}),
		Logger:   r.logger,
		PageSize: r.config.Browse.PageSize,
	}
}

// prompt reads a line of input. Secrets are read without echo when input is a terminal.
func (r *Runner) prompt(label string, secret bool) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)

	if f, ok := r.input.(*os.File); ok && secret && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}

	line, err := r.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
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
