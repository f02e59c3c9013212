package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/routemesh"
	"github.com/hupe1980/routemesh/agent"
	"github.com/hupe1980/routemesh/config"
	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/internal/tracer"
	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/model"
	"github.com/hupe1980/routemesh/model/middleware"
	"github.com/hupe1980/routemesh/orchestrator"
)

// app holds flag values and the state shared by every subcommand.
type app struct {
	configPath  string
	provider    string
	modelID     string
	roster      string
	onMiss      string
	logLevel    string
	metricsAddr string
	timeout     time.Duration

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg      *config.Config
	logger   logging.Logger
	registry *prometheus.Registry
	recorder *middleware.PrometheusRecorder

	// newModel builds the provider; tests swap it for a scripted model.
	newModel func(ctx context.Context, cfg *config.Config) (model.Model, error)

	cleanup []func(context.Context) error
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:      out,
		errOut:   errOut,
		logger:   logging.NoOpLogger{},
		newModel: newProviderModel,
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute(args []string) int {
	a := newApp(os.Stdout, os.Stderr)
	return a.execute(args)
}

func (a *app) execute(args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	if a.in != nil {
		root.SetIn(a.in)
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	err := root.ExecuteContext(context.Background())
	a.close()

	if err == nil {
		return 0
	}

	var credErr *config.CredentialError
	if errors.As(err, &credErr) {
		fmt.Fprintf(a.errOut, "%s %s\n", color.YellowString("⚠"), credErr.Guidance())
		return 0
	}

	fmt.Fprintf(a.errOut, "%s %v\n", color.RedString("✗"), err)
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "routemesh",
		Short: "Route queries to the best LLM persona",
		Long: `routemesh asks a model which registered persona should answer a query,
then forwards the query to that persona and prints its reply.

Configuration is read from --config, ./routemesh.yaml or
$XDG_CONFIG_HOME/routemesh/config.yaml, then ROUTEMESH_* environment
variables, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./routemesh.yaml)")
	flags.StringVar(&a.provider, "provider", "", "model provider: anthropic, openai, bedrock, gemini, ollama or mock")
	flags.StringVar(&a.modelID, "model", "", "provider model id")
	flags.StringVar(&a.roster, "roster", "", "roster YAML file (default built-in roster)")
	flags.StringVar(&a.onMiss, "on-miss", "", "classification miss policy: fallback or error")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.DurationVar(&a.timeout, "timeout", 0, "per-query timeout (0 disables)")

	root.AddCommand(
		newDemoCmd(a),
		newAskCmd(a),
		newChatCmd(a),
		newAgentsCmd(a),
		newEvalCmd(a),
		newVersionCmd(a),
	)

	return root
}

// overrides collects only the flags the user actually set.
func (a *app) overrides(cmd *cobra.Command) map[string]any {
	flags := cmd.Flags()
	set := map[string]any{}

	for flag, key := range map[string]string{
		"provider":     "provider.name",
		"model":        "provider.model",
		"roster":       "roster.path",
		"on-miss":      "routing.on_miss",
		"log-level":    "log.level",
		"metrics-addr": "metrics.addr",
	} {
		if flags.Changed(flag) {
			val, _ := flags.GetString(flag)
			set[key] = val
		}
	}

	if flags.Changed("timeout") {
		set["routing.timeout"] = a.timeout
	}

	return set
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, func(o *config.LoadOptions) {
		o.Overrides = a.overrides(cmd)
	})
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logger = logging.New(&logging.Config{Level: level, Format: cfg.Log.Format, Output: a.errOut})

	shutdown, err := tracer.Setup(cmd.Context(), tracer.Config{Exporter: cfg.Tracing.Exporter, Writer: a.errOut})
	if err != nil {
		return err
	}
	a.cleanup = append(a.cleanup, shutdown)

	a.registry = prometheus.NewRegistry()
	a.recorder = middleware.NewPrometheusRecorder(a.registry)

	if cfg.Metrics.Addr != "" {
		a.serveMetrics(cfg.Metrics.Addr)
	}

	return nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics.server.failed", "addr", addr, "error", err)
		}
	}()
	a.logger.Info("metrics.server.start", "addr", addr)

	a.cleanup = append(a.cleanup, srv.Shutdown)
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](ctx); err != nil {
			a.logger.Warn("cleanup.failed", "error", err)
		}
	}
	a.cleanup = nil
}

// rosterSpec returns the configured roster or the built-in one.
func (a *app) rosterSpec() (agent.RosterSpec, error) {
	if a.cfg.Roster.Path == "" {
		return agent.DefaultRoster(), nil
	}
	return agent.LoadRoster(a.cfg.Roster.Path)
}

// mesh checks the credential, builds the model chain and registers the roster.
func (a *app) mesh(ctx context.Context) (*routemesh.RouteMesh, error) {
	if err := a.cfg.RequireCredential(); err != nil {
		return nil, err
	}

	spec, err := a.rosterSpec()
	if err != nil {
		return nil, err
	}

	llm, err := a.buildModel(ctx)
	if err != nil {
		return nil, err
	}

	policy, err := orchestrator.ParseMissPolicy(a.cfg.Routing.OnMiss)
	if err != nil {
		return nil, err
	}

	mesh := routemesh.New(llm, func(o *routemesh.Options) {
		o.ClassifierModelID = a.cfg.Routing.ClassifierModel
		o.ClassifyMaxTokens = a.cfg.Routing.ClassifyMaxTokens
		o.MissPolicy = policy
		o.Observer = a.recorder
		o.Logger = a.logger
	})

	if err := mesh.AddRoster(spec); err != nil {
		return nil, err
	}

	return mesh, nil
}

// route applies the configured per-query timeout.
func (a *app) route(ctx context.Context, mesh *routemesh.RouteMesh, query string, history core.Conversation) (*orchestrator.Result, error) {
	if t := a.cfg.Routing.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	return mesh.Route(ctx, query, history)
}
