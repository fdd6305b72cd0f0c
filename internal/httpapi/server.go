package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"artd/internal/controller"
	"artd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *controller.Controller implements it.
type Service interface {
	State() controller.State
	Status() types.StatusResponse
	Workers() []types.WorkerStatus
	PromptSource() types.PromptSourceInfo
	ListPromptFiles() ([]types.PromptFile, error)
	SwitchPromptSource(path string) error
	LogLines() []string
	LogCapacity() int
	ResizeLog(n int) error
	ClearLog()
	Pause() bool
	Unpause() bool
	Shutdown() bool
	Ready() bool
}

// EventSource feeds /api/events. *controller.Broadcaster implements it.
type EventSource interface {
	Subscribe(buf int) (<-chan controller.Event, func())
}

// NewMux builds the router. events may be nil, in which case /api/events
// answers 404.
func NewMux(svc Service, events EventSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(MetricsMiddleware)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.Group(func(r chi.Router) {
		r.Use(trackInflight)
		r.Route("/api", func(r chi.Router) {
			mountAPI(r, svc)
			if events != nil {
				r.Get("/events", eventsHandler(events))
			}
		})
		r.Route("/generator", func(r chi.Router) {
			mountGenerator(r, svc)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("shutting down"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func mountAPI(r chi.Router, svc Service) {
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Get("/workers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.WorkersResponse{Workers: svc.Workers()})
	})

	r.Get("/log", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logResponse(svc))
	})

	r.Put("/log/length", func(w http.ResponseWriter, r *http.Request) {
		var req types.LogLengthRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Length == nil {
			writeJSONError(w, http.StatusBadRequest, "length is required")
			return
		}
		if err := svc.ResizeLog(*req.Length); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, logResponse(svc))
	})

	r.Post("/log/clear", func(w http.ResponseWriter, r *http.Request) {
		svc.ClearLog()
		writeJSON(w, logResponse(svc))
	})

	r.Post("/pause", control(svc, svc.Pause))
	r.Post("/unpause", control(svc, svc.Unpause))
	r.Post("/shutdown", control(svc, svc.Shutdown))

	r.Get("/prompts", func(w http.ResponseWriter, r *http.Request) {
		files, err := svc.ListPromptFiles()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, types.PromptFilesResponse{Files: files})
	})

	r.Get("/prompt-source", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.PromptSource())
	})

	r.Post("/prompt-source", func(w http.ResponseWriter, r *http.Request) {
		var req types.PromptSourceRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Path) == "" {
			writeJSONError(w, http.StatusBadRequest, "path is required")
			return
		}
		if err := svc.SwitchPromptSource(req.Path); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, svc.PromptSource())
	})
}

func control(svc Service, op func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changed := op()
		writeJSON(w, types.ControlResponse{State: string(svc.State()), Changed: changed})
	}
}

func logResponse(svc Service) types.LogResponse {
	lines := svc.LogLines()
	if lines == nil {
		lines = []string{}
	}
	return types.LogResponse{Lines: lines, Capacity: svc.LogCapacity()}
}

// decodeJSON reads a JSON body into v, writing the error response itself
// when it fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
