package httpapi

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"artd/internal/render"
)

// mountGenerator serves the HTML fragments the web console polls.
func mountGenerator(r chi.Router, svc Service) {
	r.Get("/workers", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		writeFragment(w, &buf, render.Workers(&buf, svc.Workers()))
	})

	r.Get("/prompt", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		writeFragment(w, &buf, render.Prompt(&buf, svc.PromptSource()))
	})

	r.Get("/prompts", func(w http.ResponseWriter, r *http.Request) {
		files, err := svc.ListPromptFiles()
		if err != nil {
			writeError(w, err)
			return
		}
		var buf bytes.Buffer
		writeFragment(w, &buf, render.PromptDropdown(&buf, files))
	})

	r.Get("/buffer", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		writeFragment(w, &buf, render.Buffer(&buf, svc.LogLines()))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		writeFragment(w, &buf, render.Status(&buf, svc.Status()))
	})
}

// writeFragment sends a rendered fragment, or a JSON error if rendering failed.
func writeFragment(w http.ResponseWriter, buf *bytes.Buffer, err error) {
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "render: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
