package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/smnsjas/go-dspace/auth"
	"github.com/smnsjas/go-dspace/client"
	"github.com/smnsjas/go-dspace/internal/config"
	dlog "github.com/smnsjas/go-dspace/internal/log"
	"github.com/smnsjas/go-dspace/internal/output"
	"github.com/smnsjas/go-dspace/metrics"
	"github.com/smnsjas/go-dspace/model"
	"github.com/smnsjas/go-dspace/transport"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const sessionKey = "session"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "dspace-client",
		Usage:   "Browse and download from a DSpace REST API",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			statusCommand(),
			loginCommand(),
			logoutCommand(),
			communitiesCommand(),
			collectionsCommand(),
			itemsCommand(),
			bitstreamsCommand(),
			handleCommand(),
		},
		Before: setup,
		After:  teardown,
	}
}

// globalFlags returns the global CLI flags. Defaults live in the config
// package so that a flag only overrides lower sources when it is set.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
		&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "REST API base URL, e.g. https://demo.dspace.org/rest (env DSPACE_URL)"},
		&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "login e-mail; commands log in first and out afterwards"},
		&cli.StringFlag{Name: "password", Usage: "password (use DSPACE_PASSWORD instead)"},
		&cli.StringFlag{Name: "token", Usage: "reuse a session token printed by login (env DSPACE_TOKEN)"},
		&cli.BoolFlag{Name: "xml", Usage: "send login credentials as XML"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output format: table, json, yaml"},
		&cli.BoolFlag{Name: "insecure", Usage: "skip TLS certificate verification"},
		&cli.DurationFlag{Name: "timeout", Usage: "HTTP timeout (default 60s)"},
		&cli.StringFlag{Name: "gateway-auth", Usage: "HTTP authentication in front of the API: none, basic, ntlm"},
		&cli.StringFlag{Name: "gateway-user", Usage: "gateway user name"},
		&cli.StringFlag{Name: "gateway-password", Usage: "gateway password (use DSPACE_GATEWAY_PASSWORD instead)"},
		&cli.StringFlag{Name: "gateway-domain", Usage: "NTLM domain"},
		&cli.StringFlag{Name: "proxy", Usage: `proxy URL, or "direct" to ignore proxy environment variables`},
		&cli.IntFlag{Name: "max-concurrent", Usage: "maximum requests in flight (0 = unlimited)"},
		&cli.Float64Flag{Name: "rate", Usage: "maximum requests per second (0 = unlimited)"},
		&cli.IntFlag{Name: "burst", Usage: "rate limiter burst"},
		&cli.StringFlag{Name: "log-level", Usage: "log level: debug, info, warn, error"},
		&cli.StringFlag{Name: "log-file", Usage: "write logs to this file (rotated at 10MB)"},
		&cli.BoolFlag{Name: "log-json", Usage: "log as JSON"},
		&cli.StringFlag{Name: "metrics-file", Usage: "write Prometheus metrics to this file on exit"},
	}
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"url":              "url",
	"email":            "email",
	"password":         "password",
	"token":            "token",
	"output":           "output",
	"insecure":         "insecure",
	"timeout":          "timeout",
	"proxy":            "proxy",
	"gateway-auth":     "gateway.auth",
	"gateway-user":     "gateway.username",
	"gateway-password": "gateway.password",
	"gateway-domain":   "gateway.domain",
	"max-concurrent":   "limits.concurrent",
	"rate":             "limits.rate",
	"burst":            "limits.burst",
	"log-level":        "log.level",
	"log-file":         "log.file",
	"log-json":         "log.json",
	"metrics-file":     "metrics.file",
}

func flagOverrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	for name, key := range flagKeys {
		if c.IsSet(name) {
			m[key] = c.Value(name)
		}
	}
	if c.Bool("xml") {
		m["format"] = "xml"
	}
	return m
}

// session is the per-invocation state shared by all commands.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	logFile  io.Closer
	registry *prometheus.Registry
	out      output.Formatter

	client     *client.Client
	autoLogout bool
}

func setup(c *cli.Context) error {
	cfg, err := config.NewLoader(config.WithConfigFile(c.String("config"))).Load(flagOverrides(c))
	if err != nil {
		return err
	}

	level, ok := dlog.ParseLevel(cfg.Log.Level)
	if !ok {
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}

	s := &session{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		out:      output.NewFormatter(output.Format(cfg.Output)),
	}

	logw := c.App.ErrWriter
	if cfg.Log.File != "" {
		rf, err := dlog.NewRotatingFile(cfg.Log.File, dlog.DefaultMaxSize, dlog.DefaultMaxBackups)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		s.logFile = rf
		logw = rf
	}
	s.logger = dlog.New(logw, level, cfg.Log.JSON)

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[sessionKey] = s
	return nil
}

func teardown(c *cli.Context) error {
	s := getSession(c)
	if s == nil {
		return nil
	}

	var errs []error
	if s.autoLogout && s.client != nil {
		timeout := s.cfg.Timeout
		if timeout <= 0 {
			timeout = transport.DefaultTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := s.client.Logout(ctx); err != nil {
			s.logger.Warn("logout failed", "error", err)
		}
		cancel()
	}
	if s.cfg.Metrics.File != "" {
		if err := prometheus.WriteToTextfile(s.cfg.Metrics.File, s.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if s.logFile != nil {
		errs = append(errs, s.logFile.Close())
	}
	return errors.Join(errs...)
}

func getSession(c *cli.Context) *session {
	s, _ := c.App.Metadata[sessionKey].(*session)
	return s
}

// connect creates the client. With autoLogin and an e-mail but no token it
// logs in and schedules a logout for teardown.
func (s *session) connect(ctx context.Context, errw io.Writer, autoLogin bool) error {
	if s.cfg.URL == "" {
		return errors.New("no repository URL: set --url or DSPACE_URL")
	}

	m := metrics.New("dspace")
	if err := m.Register(s.registry); err != nil {
		return err
	}

	opts := []transport.HTTPTransportOption{
		transport.WithTimeout(s.cfg.Timeout),
		transport.WithProxy(s.cfg.Proxy),
		transport.WithUserAgent("dspace-client/" + Version),
		transport.WithLogger(s.logger),
		transport.WithMiddleware(m.Middleware()),
	}
	gw, err := gatewayAuth(s.cfg.Gateway, s.logger)
	if err != nil {
		return err
	}
	if gw != nil {
		opts = append(opts, transport.WithAuthenticator(gw))
	}
	if s.cfg.Insecure {
		opts = append(opts, transport.WithInsecureSkipVerify(true))
	}
	if s.cfg.Limits.Concurrent > 0 {
		opts = append(opts, transport.WithMaxConcurrent(s.cfg.Limits.Concurrent, -1, s.cfg.Timeout))
	}
	if s.cfg.Limits.Rate > 0 {
		burst := s.cfg.Limits.Burst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, transport.WithRateLimit(rate.Limit(s.cfg.Limits.Rate), burst))
	}

	cl := client.New(s.cfg.URL, transport.NewHTTPTransport(opts...),
		client.WithLogger(s.logger), client.WithUser(s.cfg.Email))
	if err := cl.Init(); err != nil {
		return err
	}
	s.client = cl

	if s.cfg.Token != "" {
		cl.SetToken(s.cfg.Token)
		return nil
	}
	if autoLogin && s.cfg.Email != "" {
		if _, err := s.login(ctx, errw); err != nil {
			return err
		}
		s.autoLogout = true
	}
	return nil
}

// gatewayAuth returns the authenticator for the configured gateway scheme,
// or nil when none is configured.
func gatewayAuth(g config.GatewayConfig, logger *slog.Logger) (auth.Authenticator, error) {
	creds := auth.Credentials{Username: g.Username, Password: g.Password, Domain: g.Domain}
	switch g.Auth {
	case config.GatewayBasic, config.GatewayNTLM:
		if err := creds.Validate(); err != nil {
			return nil, fmt.Errorf("gateway: %w", err)
		}
	default:
		return nil, nil
	}
	logger.Debug("gateway authentication", "scheme", g.Auth, "creds", creds)
	if g.Auth == config.GatewayNTLM {
		return auth.NewNTLMAuth(creds), nil
	}
	return auth.NewBasicAuth(creds).WithLogger(logger), nil
}

// login authenticates with the configured e-mail and returns the token.
func (s *session) login(ctx context.Context, errw io.Writer) (string, error) {
	if s.cfg.Email == "" {
		return "", errors.New("no login e-mail: set --email or DSPACE_EMAIL")
	}
	password := s.cfg.Password
	if password == "" {
		var err error
		if password, err = readPassword(errw); err != nil {
			return "", err
		}
	}

	format := client.FormatJSON
	if s.cfg.Format == "xml" {
		format = client.FormatXML
	}
	token, err := s.client.Login(ctx, model.User{Email: s.cfg.Email, Password: password}, format)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("login rejected for %s", s.cfg.Email)
	}
	return token, nil
}

func (s *session) print(c *cli.Context, data any) error {
	return s.out.Format(c.App.Writer, data)
}
