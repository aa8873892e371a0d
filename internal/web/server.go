package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/stablebuilds/quoter/internal/logger"
	"github.com/stablebuilds/quoter/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the quotation history UI.
func NewServer(svc *ops.Services, version, bind string, port int) (*http.Server, error) {
	handler, err := NewHandler(svc, version)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// NewHandler builds the routed handler with security headers applied.
func NewHandler(svc *ops.Services, version string) (http.Handler, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	h := &Handlers{
		svc:      svc,
		renderer: NewRenderer(templateSub, version),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/quotations", http.StatusFound)
	})
	mux.HandleFunc("GET /quotations", h.HandleQuotationList)
	mux.HandleFunc("GET /quotations/{folio}", h.HandleQuotationDetail)
	mux.HandleFunc("GET /quotations/{folio}/pdf", h.HandleQuotationPDF)
	mux.HandleFunc("DELETE /quotations/{folio}", h.HandleQuotationDelete)
	mux.HandleFunc("GET /clients", h.HandleClientList)
	mux.HandleFunc("GET /clients/export.csv", h.HandleClientExport)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return securityHeaders(refresh(svc, mux)), nil
}

// refresh makes every request read the current database state.
func refresh(svc *ops.Services, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		svc.Refresh()
		next.ServeHTTP(w, r)
	})
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Log.Info().Str("addr", srv.Addr).Msgf("quoter UI running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Log.Warn().Msg("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
