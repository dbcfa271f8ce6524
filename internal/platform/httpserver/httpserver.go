package httpserver

import (
	"net/http"
	"time"
)

// Timeouts sized for generation calls: the write timeout must outlast the
// provider timeout, and idle keep-alive connections are held for two minutes.
const (
	ReadHeaderTimeout = 5 * time.Second
	ReadTimeout       = 15 * time.Second
	IdleTimeout       = 120 * time.Second
	writeSlack        = 15 * time.Second
)

// New builds an HTTP server with sane defaults for this project. providerTimeout
// is the upper bound of a single generation call.
func New(addr string, handler http.Handler, providerTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      providerTimeout + writeSlack,
		IdleTimeout:       IdleTimeout,
	}
}
