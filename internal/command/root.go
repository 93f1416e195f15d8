// Package command defines the authctl command line.
package command

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-blog-auth/credential"
	"github.com/jrsteele09/go-blog-auth/gateway"
	"github.com/jrsteele09/go-blog-auth/internal/config"
	"github.com/jrsteele09/go-blog-auth/internal/logging"
	"github.com/jrsteele09/go-blog-auth/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const envMetadataKey = "env"

var errNotSignedIn = errors.New("not signed in, run `authctl login` first")

// env is what every command works with, built once in Before.
type env struct {
	input      *bufio.Reader
	cfg        config.Config
	log        zerolog.Logger
	gw         *gateway.Gateway
	session    *session.Store
	registry   *prometheus.Registry
	closeStore func() error
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "authctl",
		Usage:    "Sign in to the blog and manage your account from the terminal",
		Version:  fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			StatusCommand(),
			WhoamiCommand(),
			LoginCommand(),
			RegisterCommand(),
			LogoutCommand(),
			LoginGoogleCommand(),
			LoginGithubCommand(),
			PasswordCommand(),
			VerifyEmailCommand(),
			ResendVerificationCommand(),
			ProfileCommand(),
			GuardCommand(),
		},
		Before: setup,
		After:  teardown,
		Action: func(c *cli.Context) error {
			displayAppname(c.App.Writer, envFrom(c).cfg.GetAppName())
			return cli.ShowAppHelp(c)
		},
	}
}

// globalFlags returns the global CLI flags. Each maps onto a config key and
// overrides the config file and BLOGAUTH_ environment variables.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file",
			EnvVars: []string{"BLOGAUTH_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Backend API root (e.g., http://localhost:8000/api)",
		},
		&cli.StringFlag{
			Name:  "credential-store",
			Usage: "Where the session credential is kept: file, memory, redis",
		},
		&cli.StringFlag{
			Name:  "credential-path",
			Usage: "Credential file for the file store",
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Credential profile for the redis store",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Human readable logs",
		},
		&cli.BoolFlag{
			Name:  "metrics",
			Usage: "Print backend request counts on exit",
		},
	}
}

func overridesFrom(c *cli.Context) map[string]any {
	overrides := map[string]any{
		"backend.base_url":   c.String("base-url"),
		"credential.store":   c.String("credential-store"),
		"credential.path":    c.String("credential-path"),
		"credential.profile": c.String("profile"),
		"log.level":          c.String("log-level"),
	}
	if c.IsSet("pretty") {
		overrides["log.pretty"] = c.Bool("pretty")
	}
	return overrides
}

func setup(c *cli.Context) error {
	opts := []config.Option{config.WithOverrides(overridesFrom(c))}
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithFile(path))
	}
	cfg, err := config.New(opts...)
	if err != nil {
		return err
	}

	logger := logging.Setup(c.App.ErrWriter, cfg.GetLogLevel(), cfg.GetLogPretty())

	store, closeStore, err := credential.Open(cfg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	gw, err := gateway.New(c.Context, gateway.ConfigFrom(cfg), store,
		gateway.WithLogger(logger),
		gateway.WithMetrics(gateway.NewMetrics(registry)),
	)
	if err != nil {
		_ = closeStore()
		return err
	}

	c.App.Metadata[envMetadataKey] = &env{
		input:      bufio.NewReader(c.App.Reader),
		cfg:        cfg,
		log:        logger,
		gw:         gw,
		session:    session.New(gw, session.WithLogger(logger)),
		registry:   registry,
		closeStore: closeStore,
	}
	return nil
}

func teardown(c *cli.Context) error {
	e, ok := c.App.Metadata[envMetadataKey].(*env)
	if !ok {
		return nil
	}
	e.session.Teardown()
	if c.Bool("metrics") {
		printMetrics(c.App.Writer, e.registry)
	}
	return e.closeStore()
}

// envFrom retrieves the command environment from context.
func envFrom(c *cli.Context) *env {
	return c.App.Metadata[envMetadataKey].(*env)
}

// ready resolves the stored credential before any operation runs.
func ready(c *cli.Context) (*env, session.State) {
	e := envFrom(c)
	return e, e.session.Initialize(c.Context)
}

// requireSignedIn fails unless the session resolved to a signed in user.
func requireSignedIn(c *cli.Context) (*env, session.State, error) {
	e, st := ready(c)
	if st.Status != session.StatusAuthenticated {
		return e, st, errNotSignedIn
	}
	return e, st, nil
}
