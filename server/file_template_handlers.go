package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const contentTypeHTML = "text/html; charset=utf-8"

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.ParseFS(TemplateFilesFS(), "layout.html", name)
}

type pages struct {
	index   *template.Template
	success *template.Template
	failure *template.Template
}

func parsePages() (*pages, error) {
	index, err := ParseTemplate("index.html")
	if err != nil {
		return nil, err
	}
	success, err := ParseTemplate("success.html")
	if err != nil {
		return nil, err
	}
	failure, err := ParseTemplate("error.html")
	if err != nil {
		return nil, err
	}
	return &pages{index: index, success: success, failure: failure}, nil
}

// render executes tmpl into a buffer first so a template failure can still
// produce a clean 500 instead of a half-written page.
func render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("Failed to render template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

type errorPageData struct {
	AppName string
	Message string
}

func (s *Server) renderError(w http.ResponseWriter, status int, message string) {
	render(w, status, s.pages.failure, errorPageData{AppName: s.appName, Message: message})
}
