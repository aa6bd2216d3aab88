package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	cleanups       []func() error
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	// ensure the logs folder exists and Setup the logging module.
	if err = os.MkdirAll(config.LogFolder, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	clock := NewClock(config.IsProduction)
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, clock)

	app := &App{
		logger:   logger,
		config:   config,
		cleanups: []func() error{flusher, logWriter.Close},
	}

	storage, err := app.setupStorage()
	if err != nil {
		app.Clean()
		return nil, err
	}

	queue, err := app.setupReplication()
	if err != nil {
		app.Clean()
		return nil, err
	}

	pages, err := LoadPages()
	if err != nil {
		app.Clean()
		return nil, fmt.Errorf("failed to load html pages: %s", err)
	}

	ids := NewIDsHandler()
	metrics := NewMetrics("book_manager")
	bookService := NewBookService(logger, config, clock, ids, storage, queue, metrics)
	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		ids,
		bookService,
		pages,
		metrics,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "Authorization"},
	}).Handler(router)

	// Wrap the router with the default http timeout handler.
	routerWithTimeout := http.TimeoutHandler(
		corsHandler,
		config.Server.RequestTimeout,
		"Timeout. Processing taking too long. Please reach out to support.")

	// Build the api server definition.
	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        routerWithTimeout,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}

	return app, nil
}

// setupStorage connects to the configured storage driver and registers its cleanup.
func (app *App) setupStorage() (BookStorage, error) {
	switch app.config.Storage.Driver {
	case StorageRedis:
		client, err := GetRedisClient(app.config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		app.cleanups = append([]func() error{client.Close}, app.cleanups...)
		return NewRedisBookStorage(app.logger, client), nil

	case StorageBolt:
		client, err := GetBoltDBClient(app.config.BoltDB.FilePath, app.config.BoltDB.BucketName, app.config.BoltDB.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to open boltDB file: %s", err)
		}
		app.cleanups = append([]func() error{client.Close}, app.cleanups...)
		return NewBoltBookStorage(app.logger, app.config.BoltDB.BucketName, client), nil

	default:
		db, err := GetSQLiteClient(app.config)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %s", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite connection: %s", err)
		}
		app.cleanups = append([]func() error{sqlDB.Close}, app.cleanups...)
		return NewGormBookStorage(app.logger, db), nil
	}
}

// setupReplication builds the redis queue and the boltDB backup consumer when
// replication is enabled. It returns a nil queue otherwise.
func (app *App) setupReplication() (Queuer, error) {
	if !app.config.Replication.Enable {
		return nil, nil
	}

	redisClient, err := GetRedisClient(app.config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis server: %s", err)
	}
	app.cleanups = append([]func() error{redisClient.Close}, app.cleanups...)

	boltDBClient, err := GetBoltDBClient(app.config.Replication.FilePath, app.config.Replication.BucketName, app.config.BoltDB.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup boltDB file: %s", err)
	}
	app.cleanups = append([]func() error{boltDBClient.Close}, app.cleanups...)

	queue := NewRedisQueue(redisClient)
	consumer := NewBackupConsumer(app.logger, queue, NewBoltBookStorage(app.logger, app.config.Replication.BucketName, boltDBClient))
	app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
		return consumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue)
	})
	return queue, nil
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions. Resources are
// released first and the logger is flushed and closed last.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		if err := f(); err != nil {
			fmt.Fprintln(os.Stderr, "error during app cleanup: ", err)
		}
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("storage.driver", app.config.Storage.Driver),
			zap.Bool("replication.enable", app.config.Replication.Enable),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
