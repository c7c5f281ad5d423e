package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"github.com/makkenzo/apikey-dashboard/internal/tasks"
	"go.uber.org/zap"
)

func RedisConnOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewServeMux(repo apikey.Repository, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	touchHandler := tasks.NewTouchAPIKeyHandler(repo, logger)
	mux.HandleFunc(tasks.TypeAPIKeyTouch, touchHandler.ProcessTask)
	return mux
}

// RunWorkers processes usage tasks until ctx is cancelled.
func RunWorkers(ctx context.Context, cfg *config.Config, repo apikey.Repository, logger *zap.Logger) error {
	log := logger.Named("Worker")

	srv := asynq.NewServer(
		RedisConnOpt(&cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				tasks.QueueUsage: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("Asynq task processing failed",
					zap.String("task_type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err),
				)
			}),
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqServer")),
		},
	)

	log.Info("Starting Asynq Server...")
	if err := srv.Start(NewServeMux(repo, logger)); err != nil {
		return fmt.Errorf("asynq server start: %w", err)
	}

	<-ctx.Done()

	log.Info("Shutting down Asynq Server...")
	srv.Shutdown()
	log.Info("Asynq Server stopped.")
	return nil
}

type asynqLoggerAdapter struct {
	logger *zap.Logger
}

func NewAsynqLoggerAdapter(logger *zap.Logger) *asynqLoggerAdapter {
	return &asynqLoggerAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (l *asynqLoggerAdapter) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
