package daemon

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/spirequest/spire/internal/api"
	"github.com/spirequest/spire/internal/app/progression"
	"github.com/spirequest/spire/internal/app/quest"
	"github.com/spirequest/spire/internal/app/session"
	"github.com/spirequest/spire/internal/infra/auth"
	"github.com/spirequest/spire/internal/infra/planner"
	"github.com/spirequest/spire/internal/infra/sqlite"
)

// Run assembles the object graph and serves the HTTP API until ctx is
// canceled.
func Run(ctx context.Context, cfg Config) error {
	db, err := sqlite.Open(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	authSvc := auth.New(db, auth.Config{
		SessionTTL: cfg.SessionTTL(),
		BcryptCost: cfg.Auth.BcryptCost,
	})
	sessions := session.NewManager(db, db, db,
		progression.Config{SyncTimeout: cfg.SyncTimeout()},
		quest.Config{SyncTimeout: cfg.SyncTimeout()},
	)
	plan := planner.New(planner.Config{
		BaseURL: cfg.Planner.BaseURL,
		APIKey:  cfg.Planner.APIKey,
		Model:   cfg.Planner.Model,
	})

	server := api.NewServer(authSvc, sessions, plan)
	if cfg.Metrics.Enabled {
		server.EnableMetrics()
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: server.Handler(),
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("[daemon] listening on %s (data: %s)", cfg.ListenAddr(), cfg.Storage.DataDir)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
