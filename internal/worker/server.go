package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"outreach-agent/pkg/logger"
)

type AsynqQueues map[string]int

type AsynqHandler struct {
	Pattern string
	Handle  func(context.Context, *asynq.Task) error
}

type Server struct {
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	// ShutdownTimeout bounds how long in-flight tasks may run after shutdown
	// starts; asynq requeues whatever is still running after that.
	ShutdownTimeout time.Duration
}

func (s Server) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     s.RedisAddress,
		Password: s.RedisPassword,
		DB:       s.RedisDB,
	}
}

// Run starts the asynq server in g and shuts it down when ctx is done.
func (s Server) Run(ctx context.Context, g *errgroup.Group, queues AsynqQueues, handlers ...AsynqHandler) {
	g.Go(func() error {
		log := logger.From(ctx)

		srv := asynq.NewServer(s.RedisOpt(), asynq.Config{
			BaseContext:     detached(ctx),
			Queues:          queues,
			Concurrency:     s.Concurrency,
			ShutdownTimeout: s.ShutdownTimeout,
		})

		mux := asynq.NewServeMux()
		for _, h := range handlers {
			mux.HandleFunc(h.Pattern, h.Handle)
		}

		if err := srv.Start(mux); err != nil {
			return fmt.Errorf("asynq server start: %w", err)
		}
		log.Info("asynq server started", slog.String("redis-address", s.RedisAddress), slog.Int("redis-db", s.RedisDB))

		<-ctx.Done()
		srv.Shutdown()

		log.Info("asynq server stopped", slog.String("redis-address", s.RedisAddress))
		return nil
	})
}

// detached keeps ctx values such as the logger but not its cancellation, so a
// SIGTERM does not abort tasks that are already running.
func detached(ctx context.Context) func() context.Context {
	base := context.WithoutCancel(ctx)
	return func() context.Context { return base }
}
