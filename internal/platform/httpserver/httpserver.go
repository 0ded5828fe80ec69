package httpserver

import (
	"net/http"

	"sportsuid/internal/platform/config"
)

// New builds the listener for handler. Zero timeouts in cfg leave the
// corresponding net/http limit disabled, except ReadHeaderTimeout which
// falls back to ReadTimeout inside net/http.
func New(addr string, cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
