// internal/workers/server.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// ServerConfig is what NewServer needs from the process configuration
type ServerConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Concurrency     int
	Queues          map[string]int
	StrictPriority  bool
	ShutdownTimeout time.Duration
}

// RedisOpt returns the asynq connection options for cfg
func (c ServerConfig) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// NewServer builds an asynq server with the shared error handling, backoff and logging
func NewServer(cfg ServerConfig, logger *slog.Logger) *asynq.Server {
	return asynq.NewServer(cfg.RedisOpt(), asynq.Config{
		Concurrency:     cfg.Concurrency,
		Queues:          cfg.Queues,
		StrictPriority:  cfg.StrictPriority,
		ErrorHandler:    errorHandler(logger),
		RetryDelayFunc:  ExponentialBackoff,
		ShutdownTimeout: cfg.ShutdownTimeout,
		HealthCheckFunc: func(err error) {
			if err != nil {
				logger.Error("worker health check failed", slog.String("error", err.Error()))
			}
		},
		Logger: NewAsynqLogger(logger),
	})
}

func errorHandler(logger *slog.Logger) asynq.ErrorHandler {
	return asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		logger.ErrorContext(ctx, "task processing failed",
			slog.String("type", task.Type()),
			slog.Int("retry", retried),
			slog.Int("max_retry", maxRetry),
			slog.String("error", err.Error()))
	})
}

// ExponentialBackoff doubles the delay per retry, capped at ten minutes
func ExponentialBackoff(n int, _ error, _ *asynq.Task) time.Duration {
	const (
		baseDelay = time.Second
		maxDelay  = 10 * time.Minute
	)
	if n > 20 {
		return maxDelay
	}
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// AsynqLogger adapts slog for asynq
type AsynqLogger struct {
	logger *slog.Logger
}

// NewAsynqLogger creates the adapter, tagging every line with the asynq component
func NewAsynqLogger(logger *slog.Logger) *AsynqLogger {
	return &AsynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *AsynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}

// NewLedgerMux routes the tasks that must run next to the ledger instance
func NewLedgerMux(restock *RestockProcessor, prune *PruneProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(taskContext)
	mux.HandleFunc(TypeRestockImportXLSX, restock.ProcessXLSX)
	mux.HandleFunc(TypeRestockImportPDF, restock.ProcessPDF)
	mux.HandleFunc(TypePruneReservations, prune.PruneReservations)
	return mux
}

// NewAlertMux routes stock alerts to p
func NewAlertMux(p *AlertProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(taskContext)
	mux.HandleFunc(TypeLowStockAlert, p.ProcessStockAlert)
	mux.HandleFunc(TypeOverstockAlert, p.ProcessStockAlert)
	return mux
}

// taskContext tags every log record written while handling a task with its type and id
func taskContext(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		ctx = logger.WithValue(ctx, logger.ContextKeyTaskType, t.Type())
		if id, ok := asynq.GetTaskID(ctx); ok {
			ctx = logger.WithValue(ctx, logger.ContextKeyTaskID, id)
		}
		return next.ProcessTask(ctx, t)
	})
}
