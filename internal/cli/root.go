// Package cli is the talk2dom terminal client. It drives the backend client
// directly with the backend token saved by `talk2dom login` and renders the
// paginated list views as tables.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/talk2dom/web/internal/api/validation"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/session"
)

const defaultBackendURL = "http://localhost:8000"

var (
	// ErrNotLoggedIn is returned by commands that need a backend token when
	// none is configured.
	ErrNotLoggedIn = errors.New("not logged in; run `talk2dom login` first")

	// ErrSessionExpired is returned when the backend rejects the saved token.
	ErrSessionExpired = errors.New("session expired; run `talk2dom login` again")
)

// Options wires the command tree to its environment.
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Getenv resolves TALK2DOM_* defaults. Defaults to os.Getenv.
	Getenv func(string) string
}

type app struct {
	in  io.Reader
	out io.Writer
	err io.Writer

	configPath string
	backendURL string
	token      string
	timeout    time.Duration
	logLevel   string

	cfg    Config
	logger *slog.Logger
	users  *session.Cache
}

// NewRootCommand builds the talk2dom command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	a := &app{in: opts.In, out: opts.Out, err: opts.Err}

	root := &cobra.Command{
		Use:           "talk2dom",
		Short:         "Talk2Dom command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	timeout := 15 * time.Second
	if v := opts.Getenv("TALK2DOM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", opts.Getenv("TALK2DOM_CONFIG"), "credentials file (default ~/.talk2dom/config.yaml)")
	pf.StringVar(&a.backendURL, "backend-url", opts.Getenv("TALK2DOM_BACKEND_URL"), "backend base URL")
	pf.StringVar(&a.token, "token", opts.Getenv("TALK2DOM_TOKEN"), "backend token, overrides the saved one")
	pf.DurationVar(&a.timeout, "timeout", timeout, "per-request timeout")
	pf.StringVar(&a.logLevel, "log-level", envOr(opts.Getenv, "TALK2DOM_LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.meCmd(),
		a.projectsCmd(),
		a.membersCmd(),
		a.invitesCmd(),
		a.keysCmd(),
		a.cacheCmd(),
	)
	return root
}

// Execute runs the command tree against the process environment.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand(Options{})
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *app) setup() error {
	a.logger = slog.New(slog.NewTextHandler(a.err, &slog.HandlerOptions{Level: parseLevel(a.logLevel)}))

	if a.configPath == "" {
		path, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		a.configPath = path
	}

	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.backendURL == "" {
		a.backendURL = cfg.BackendURL
	}
	if a.backendURL == "" {
		a.backendURL = defaultBackendURL
	}
	if a.token == "" {
		a.token = cfg.Token
	}
	a.logger.Debug("cli configured", "backend", a.backendURL, "config", a.configPath)
	return nil
}

func (a *app) anonymous() *backend.Client {
	return backend.New(a.backendURL,
		backend.WithTimeout(a.timeout),
		backend.WithObserver(a.observe),
	)
}

// client returns a backend client carrying the configured token.
func (a *app) client() (*backend.Client, error) {
	if a.token == "" {
		return nil, ErrNotLoggedIn
	}
	return a.anonymous().WithToken(a.token), nil
}

// currentUser returns the signed-in user, loaded at most once per run.
func (a *app) currentUser(ctx context.Context, c *backend.Client) (backend.User, error) {
	if a.users == nil {
		a.users = session.NewCache(c.Me)
	}
	u, err := a.users.User(ctx)
	if errors.Is(err, session.ErrAnonymous) {
		return backend.User{}, ErrSessionExpired
	}
	if err != nil {
		return backend.User{}, failure(err, "Failed to load user")
	}
	return u, nil
}

func (a *app) observe(method, route string, status int, elapsed time.Duration) {
	a.logger.Debug("backend request", "method", method, "route", route, "status", status, "elapsed", elapsed)
}

// failure turns a backend error into the message shown to the user. A 401
// on an authenticated call means the saved token is no longer accepted.
func failure(err error, fallback string) error {
	if backend.StatusOf(err) == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	var fe *backend.FetchError
	var ne *backend.NetworkError
	if errors.As(err, &fe) || errors.As(err, &ne) {
		return errors.New(backend.UserMessage(err, fallback))
	}
	return err
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

// invalid joins field errors into one user-facing error, or returns nil.
func invalid(errs []validation.FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return errors.New(strings.Join(msgs, "; "))
}
