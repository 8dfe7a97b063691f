package server

import (
	"net/http"
)

// IndexHandler renders the informational landing page
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]interface{}{
			"AppName": s.appName,
		}
		render(w, http.StatusOK, s.pages.index, data)
	}
}
