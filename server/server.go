package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/wilbur/internal/config"
	apperrors "github.com/jrsteele09/wilbur/internal/errors"
	"github.com/jrsteele09/wilbur/oauthmodel"
	"github.com/jrsteele09/wilbur/server/authflowrepo"
	"github.com/jrsteele09/wilbur/token"
	"github.com/rs/zerolog/log"
)

// Config is the configuration the callback server reads.
type Config interface {
	config.EnvConfig
	config.CallbackServerConfig
}

// OAuthClient is the subset of auth.Client the callback handlers drive.
type OAuthClient interface {
	BuildDiscordAuthURL(state string) string
	BuildRedditAuthURL(state string) string
	ExchangeDiscordCode(ctx context.Context, code string) (*oauthmodel.DiscordIdentity, error)
	ExchangeRedditCode(ctx context.Context, code string) (token.Pair, error)
}

// Server is the short-lived callback listener of the Reddit linking flow.
// It is started lazily by the first /redditauth invocation and stopping it
// abandons every in-flight flow.
type Server struct {
	env     string
	appName string
	addr    string
	mux     *http.ServeMux
	routes  []string
	pages   *pages
	flows   authflowrepo.Repo
	oauth   OAuthClient

	lifecycleLock sync.Mutex
	httpServer    *http.Server
	listener      net.Listener
}

func New(cfg Config, flows authflowrepo.Repo, oauth OAuthClient) (*Server, error) {
	p, err := parsePages()
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Server New] failed to parse templates")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		appName: cfg.GetAppName(),
		addr:    cfg.GetCallbackAddr(),
		mux:     http.NewServeMux(),
		pages:   p,
		flows:   flows,
		oauth:   oauth,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// GenerateAuthURL starts a flow for initiatorID and returns the Discord
// authorize URL the user must open.
func (s *Server) GenerateAuthURL(initiatorID string) (string, error) {
	flow, err := s.flows.Create(initiatorID)
	if err != nil {
		return "", apperrors.Wrapf(err, "[Server GenerateAuthURL] create flow")
	}

	log.Info().
		Str("flow_id", flow.FlowID.String()).
		Str("initiator_id", initiatorID).
		Msg("Reddit linking flow started")

	return s.oauth.BuildDiscordAuthURL(flow.StateToken), nil
}

// Start begins listening. Calling Start while already listening is a no-op.
func (s *Server) Start() error {
	s.lifecycleLock.Lock()
	defer s.lifecycleLock.Unlock()

	if s.httpServer != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return apperrors.Wrapf(err, "[Server Start] listen on %s", s.addr)
	}

	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpServer
	s.listener = listener

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Msg("OAuth callback server stopped unexpectedly")
		}
	}()

	log.Info().Str("addr", listener.Addr().String()).Msg("OAuth callback server listening")
	return nil
}

// Stop shuts the listener down and abandons every in-flight flow.
// Stopping a server that isn't running is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.lifecycleLock.Lock()
	defer s.lifecycleLock.Unlock()

	if s.httpServer == nil {
		return nil
	}

	err := s.httpServer.Shutdown(ctx)
	s.httpServer = nil
	s.listener = nil
	s.flows.Clear()

	if err != nil {
		return apperrors.Wrapf(err, "[Server Stop] shutdown")
	}
	log.Info().Msg("OAuth callback server stopped")
	return nil
}

// IsRunning reports whether the server is listening.
func (s *Server) IsRunning() bool {
	s.lifecycleLock.Lock()
	defer s.lifecycleLock.Unlock()
	return s.httpServer != nil
}

// Addr returns the bound address while running, otherwise the configured one.
func (s *Server) Addr() string {
	s.lifecycleLock.Lock()
	defer s.lifecycleLock.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
