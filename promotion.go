package promotion

import (
	"context"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/IlyaEmelin/chatbot-promotion/internal/logging"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/adapters/file"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/adapters/memory"
	redisadapter "github.com/IlyaEmelin/chatbot-promotion/pkg/adapters/redis"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/engine"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/ports"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/profile"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/session"
)

// Version is the library version, stamped by the release build.
var Version = "0.1.0"

// App is the assembled survey application: graph, engine and session
// manager, wired and ready to be exposed over HTTP, MCP or the CLI.
type App struct {
	Graph    ports.GraphReader
	Engine   *engine.Engine
	Sessions *session.Manager

	graphPath string
	store     ports.SurveyStore
	locker    ports.DistributedLocker
	profiles  ports.ProfileWriter
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option configures the App.
type Option func(*App)

// WithGraph injects a prebuilt graph, bypassing the YAML loader.
func WithGraph(g ports.GraphReader) Option {
	return func(a *App) {
		a.Graph = g
	}
}

// WithGraphFile loads the questionnaire from the given YAML file.
func WithGraphFile(path string) Option {
	return func(a *App) {
		a.graphPath = path
	}
}

// WithStore overrides the survey store. Defaults to in-memory.
func WithStore(store ports.SurveyStore) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithRedis stores surveys in Redis and coordinates writes with a
// distributed lock, for multi-replica deployments.
func WithRedis(client *backend.Client) Option {
	return func(a *App) {
		a.store = redisadapter.NewFromClient(client)
		a.locker = redisadapter.NewLocker(client, redisadapter.DefaultPrefix)
	}
}

// WithProfileWriter overrides where accepted answers are mirrored.
// Defaults to an in-memory profile store.
func WithProfileWriter(w ports.ProfileWriter) Option {
	return func(a *App) {
		a.profiles = w
	}
}

// WithLifecycleHooks registers observability hooks on the engine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *App) {
		a.hooks = hooks
	}
}

// WithLogger sets a structured logger for all components.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// New assembles the application. External field references in the graph are
// checked up front so a questionnaire typo fails here, not mid-survey.
func New(opts ...Option) (*App, error) {
	a := &App{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Graph == nil {
		if a.graphPath == "" {
			return nil, fmt.Errorf("a graph is required: use WithGraph or WithGraphFile")
		}
		g, err := file.Load(a.graphPath)
		if err != nil {
			return nil, fmt.Errorf("load questionnaire %q: %w", a.graphPath, err)
		}
		a.Graph = g
	}

	if err := profile.CheckRefs(context.Background(), a.Graph); err != nil {
		return nil, err
	}

	if a.store == nil {
		a.store = memory.NewStore()
	}
	if a.profiles == nil {
		a.profiles = memory.NewProfileStore()
	}

	a.Engine = engine.New(a.Graph,
		engine.WithProjector(profile.NewProjector(a.profiles, profile.WithLogger(a.logger))),
		engine.WithLifecycleHooks(a.hooks),
		engine.WithLogger(a.logger),
	)

	sessionOpts := []session.Option{session.WithLogger(a.logger)}
	if a.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(a.locker))
	}
	a.Sessions = session.NewManager(a.Engine, a.store, sessionOpts...)

	return a, nil
}
