package api

import (
	"net"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/config"
)

// NewServer builds the HTTP server for the dispatch surface.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
