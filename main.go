package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Civics/internal/config"
	"github.com/EmpoweredVote/EV-Civics/internal/db"
	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
	"github.com/EmpoweredVote/EV-Civics/internal/middleware"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	if err := run(); err != nil {
		zap.L().Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer zap.L().Sync()

	d, err := db.Connect(db.Options{URL: cfg.Database.URL, MaxOpenConns: cfg.Database.MaxOpenConns, LogSQL: cfg.Database.LogSQL})
	if err != nil {
		return err
	}
	if err := essentials.Migrate(d); err != nil {
		return err
	}
	store := essentials.NewStore(d)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS(middleware.DefaultOrigins))
	r.Get("/", RootHandler)

	r.Mount("/essentials", essentials.SetupRoutes(essentials.NewHandlers(store)))

	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	zap.L().Info("server listening", zap.String("component", "http"), zap.Int("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
