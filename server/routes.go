package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex+"{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	s.RegisterRouteHandler("GET "+RouteDiscordCallback, ChainMiddleware(s.DiscordCallbackHandler(), s.HTMLMiddleWare(s.NoStoreMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteRedditCallback, ChainMiddleware(s.RedditCallbackHandler(), s.HTMLMiddleWare(s.NoStoreMiddleware)...))

	s.RegisterRouteHandler(RouteIndex, ChainMiddleware(s.notFoundHandler(), s.LoggingMiddleware))
}

func (s *Server) notFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}
