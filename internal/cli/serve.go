package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"cancer-diagnosis/internal/config"
	"cancer-diagnosis/internal/diagnosis"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the diagnosis form and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP port (overrides PORT)")
	if err := v.BindPFlag(config.KeyPort, serveCmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
}

func runServe(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	for _, warn := range diagnosis.ValidateSchemas() {
		slog.Warn("schema needs review", "warning", warn.Error())
	}

	handler := diagnosis.NewHandler(a.diagnosis, diagnosis.DefaultPageConfig())

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", a.cfg.Port, "model_backend", a.cfg.Model.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
		slog.Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	// pending doctor-chat deliveries
	a.reports.Wait()
	slog.Info("server stopped")
	return nil
}

// NewRouter mounts the form and API routes behind the standard middleware.
func NewRouter(h *diagnosis.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for API clients
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	diagnosis.RegisterRoutes(r, h)
	return r
}
