// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/pires/go-proxyproto"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ava-labs/counterflood/utils/logging"
)

const (
	baseURL           = "/ext"
	readHeaderTimeout = 10 * time.Second

	DefaultShutdownTimeout = 10 * time.Second
)

var errNotListening = errors.New("server isn't listening")

type Config struct {
	Host            string        `json:"host"`
	Port            uint16        `json:"port"`
	AllowedOrigins  []string      `json:"allowedOrigins"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
	// ProxyProtocol makes the server read the client address from a PROXY
	// protocol header, for running behind a load balancer.
	ProxyProtocol bool `json:"proxyProtocol"`
}

// Server maintains the HTTP router
type Server struct {
	log             logging.Logger
	router          *router
	shutdownTimeout time.Duration

	listener net.Listener
	srv      *http.Server
}

// New returns a server listening on the configured address. Requests are
// only served once Dispatch is called.
func New(log logging.Logger, config Config) (*Server, error) {
	listenAddress := net.JoinHostPort(config.Host, fmt.Sprint(config.Port))
	listener, err := net.Listen("tcp", listenAddress)
	if err != nil {
		return nil, fmt.Errorf("couldn't listen on %q: %w", listenAddress, err)
	}
	if config.ProxyProtocol {
		listener = &proxyproto.Listener{Listener: listener}
	}

	router := newRouter()
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowCredentials: true,
	}).Handler(router)
	gzipHandler := gziphandler.GzipHandler(corsHandler)

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	log.Info("API created",
		zap.Strings("allowedOrigins", config.AllowedOrigins),
		zap.Bool("proxyProtocol", config.ProxyProtocol),
	)
	return &Server{
		log:             log,
		router:          router,
		shutdownTimeout: shutdownTimeout,
		listener:        listener,
		srv: &http.Server{
			Handler:           gzipHandler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Dispatch serves requests until Shutdown is called.
func (s *Server) Dispatch() error {
	if s.listener == nil {
		return errNotListening
	}
	s.log.Info("HTTP API server listening",
		zap.Stringer("address", s.listener.Addr()),
	)
	err := s.srv.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// AddRoute registers [handler] at /ext/[base][endpoint].
func (s *Server) AddRoute(handler http.Handler, base, endpoint string) error {
	url := fmt.Sprintf("%s/%s", baseURL, base)
	s.log.Info("adding route",
		zap.String("url", url),
		zap.String("endpoint", endpoint),
	)
	return s.router.AddRouter(url, endpoint, handler)
}

// Shutdown stops accepting requests and waits for the in-flight ones.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	// Close the listener in case Dispatch was never called.
	if closeErr := s.listener.Close(); err == nil && closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		err = closeErr
	}
	return err
}
