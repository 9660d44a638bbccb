package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/graphcfg/config"
	"github.com/c360/graphcfg/errors"
	"github.com/c360/graphcfg/store"
)

// runServe exposes the template store over HTTP: template listing and
// expansion on the API listener, Prometheus metrics on their own.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, registry, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	api := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           apiHandler(st, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(
			registry.PrometheusRegistry(),
			promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics listening", "addr", cfg.Metrics.Listen)
			if err := metricsSrv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening", "addr", cfg.HTTP.Listen)
		if err := api.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-signalCtx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := api.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown API server: %w", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

func apiHandler(st *store.Store, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /v1/templates", func(w http.ResponseWriter, r *http.Request) {
		tpls, err := st.List(r.Context())
		if err != nil {
			writeError(w, logger, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, logger, tpls)
	})

	mux.HandleFunc("GET /v1/templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		tpl, err := st.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, logger, statusFor(err), err)
			return
		}
		writeJSON(w, logger, tpl)
	})

	mux.HandleFunc("POST /v1/templates/{id}/expand", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !stderrors.Is(err, io.EOF) {
			writeError(w, logger, http.StatusBadRequest, err)
			return
		}
		raw, _ := json.Marshal(body)
		args, err := parseArgs(string(raw))
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, err)
			return
		}

		out, errs := st.Expand(r.Context(), id, args)
		if len(errs) > 0 {
			if len(errs) == 1 && stderrors.Is(errs[0], errors.ErrTemplateNotFound) {
				writeError(w, logger, http.StatusNotFound, errs[0])
				return
			}
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			if err := json.NewEncoder(w).Encode(map[string]any{"errors": msgs}); err != nil {
				logger.Error("write response", "error", err)
			}
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := w.Write(out); err != nil {
			logger.Error("write response", "error", err)
		}
	})

	return mux
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); encErr != nil {
		logger.Error("write response", "error", encErr)
	}
}
