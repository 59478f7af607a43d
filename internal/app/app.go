package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskManager/internal/config"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/metrics"
	"taskManager/internal/middleware"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/repository/task/postgres"
	"taskManager/internal/service"
	"taskManager/internal/worker"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TaskRepository
	service    *service.TaskService
	metrics    *metrics.Metrics
	worker     *worker.StatisticsWorker
	shutdowns  []func() // run in reverse order on shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init builds every dependency once. On error the already-initialised parts are released.
func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging); err != nil {
		return nil, fmt.Errorf("initialising logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: flushing logs")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}

	a.service = service.NewTaskService(a.repository)
	a.metrics = metrics.New(a.config.Metrics.Namespace)
	interval := a.config.Worker.StatisticsInterval
	a.worker = worker.NewStatisticsWorker(a.service, a.metrics, &interval)

	a.initRouter()

	a.server = &http.Server{
		Addr: a.config.GetServerAddr(),
		Handler: otelhttp.NewHandler(a.router, "task-manager",
			otelhttp.WithTracerProvider(otel.GetTracerProvider()),
			otelhttp.WithPropagators(otel.GetTextMapPropagator()),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	return a, nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		storage, err := postgres.New(ctx, a.config.Database)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("App: closing database pool")
			storage.Close()
		})

		if a.config.Database.Migrate {
			if err := storage.Migrate(); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
		}
		a.repository = storage
	default:
		a.repository = inmemory.NewTaskStorage()
	}

	logger.Info("App: repository ready", zap.String("type", a.config.Repository.Type))
	return nil
}

func (a *App) initRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", middleware.UserHeader},
		ExposedHeaders:   []string{"Location", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if a.config.Metrics.Enabled {
		r.Use(middleware.Metrics(a.metrics))
	}
	r.Use(middleware.RateLimit(a.config.Server.RateLimitRPM))
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	r.Use(middleware.Actor)

	handlers.NewTaskHandler(a.service, a.config.Repository.Type).Mount(r)

	if a.config.Metrics.Enabled {
		r.Method(http.MethodGet, a.config.Metrics.Path, a.metrics.Handler())
	}

	a.router = r
}

// Run serves HTTP and runs the statistics worker until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.config.Metrics.Enabled {
		g.Go(func() error {
			a.worker.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
