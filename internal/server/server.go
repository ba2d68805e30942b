// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package server exposes the state of a modem over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status is the modem state reported by /status.
type Status struct {
	Power        string `json:"power"`
	Registration string `json:"registration"`
	RSSI         int    `json:"rssi"`
	BER          int    `json:"ber"`
	Operator     string `json:"operator,omitempty"`
	IMEI         string `json:"imei,omitempty"`
}

// StatusFunc returns the current modem status.
//
// It is called from the HTTP handler goroutines, so must serialise any access
// to the modem.
type StatusFunc func() (Status, error)

// NewHandler creates the HTTP handler serving /health, /status and /metrics.
func NewHandler(status StatusFunc, g prometheus.Gatherer, l *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		s, err := status()
		if err != nil {
			l.Warn("status", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, s)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
