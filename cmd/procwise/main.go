// Command procwise runs the workflow engine behind its HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"github.com/procwise/procwise"
	"github.com/procwise/procwise/api"
	"github.com/procwise/procwise/service/dao/sqlstore"
	templatefs "github.com/procwise/procwise/service/dao/template/fs"
	"github.com/procwise/procwise/service/event"
	"github.com/procwise/procwise/tracing"

	rsequence "github.com/procwise/procwise/service/allocator/redis"
)

func main() {
	configLocation := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if err = run(*configLocation, logger); err != nil {
		logger.Fatal("engine terminated", zap.Error(err))
	}
}

func run(configLocation string, logger *zap.Logger) error {
	config := procwise.DefaultConfig()
	if configLocation != "" {
		loaded, err := procwise.LoadConfig(configLocation)
		if err != nil {
			return err
		}
		config = loaded
	}
	if config.HTTP.AuthSecret == "" {
		config.HTTP.AuthSecret = os.Getenv("PROCWISE_AUTH_SECRET")
	}
	if config.HTTP.AuthSecret == "" {
		return errors.New("http.authSecret (or PROCWISE_AUTH_SECRET) is required")
	}

	if config.Tracing.Enabled {
		if err := tracing.Init("procwise", "1.0", config.Tracing.OutputFile); err != nil {
			return err
		}
	}

	options := []procwise.Option{procwise.WithConfig(config)}

	if config.Database.DSN != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(config.Database.DSN)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		store := sqlstore.New(db, sqlstore.WithLogger(logger))
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := store.Migrate(migrateCtx)
		cancel()
		if err != nil {
			return err
		}
		options = append(options,
			procwise.WithTemplateDAO(store.Templates()),
			procwise.WithProcessDAO(store.Processes()),
			procwise.WithStepDAO(store.Steps()),
			procwise.WithACL(store.ACL()),
			procwise.WithSequence(store.Sequence()),
		)
		logger.Info("using postgres store")
	} else if config.Templates.StoreURL != "" {
		options = append(options, procwise.WithTemplateDAO(templatefs.New(config.Templates.StoreURL)))
		logger.Info("using file-backed template store", zap.String("url", config.Templates.StoreURL))
	}

	if config.Database.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: config.Database.RedisAddr})
		defer client.Close()
		options = append(options, procwise.WithSequence(rsequence.New(client)))
		logger.Info("using redis process-number sequence", zap.String("addr", config.Database.RedisAddr))
	}

	service := procwise.New(options...)
	service.Events().SetListener(func(anEvent *event.Event) {
		logger.Info("lifecycle event",
			zap.String("type", anEvent.Type),
			zap.String("processId", anEvent.ProcessID),
			zap.String("templateId", anEvent.TemplateID),
			zap.String("stepId", anEvent.StepID),
			zap.String("actorId", anEvent.ActorID))
	})
	defer service.Events().Close()

	handler := api.New(service, []byte(config.HTTP.AuthSecret), api.WithLogger(logger))
	server := &http.Server{
		Addr:              config.HTTP.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", config.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
