package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"codevid/pkg/middleware"
)

// Router handles HTTP routing
type Router struct {
	jobHandler    *JobHandler
	streamHandler *StreamHandler
	mediaHandler  *MediaHandler
	healthHandler *HealthHandler
	corsOptions   cors.Options
}

// NewRouter creates a new router
func NewRouter(
	jobHandler *JobHandler,
	streamHandler *StreamHandler,
	mediaHandler *MediaHandler,
	healthHandler *HealthHandler,
	corsOptions cors.Options,
) *Router {
	return &Router{
		jobHandler:    jobHandler,
		streamHandler: streamHandler,
		mediaHandler:  mediaHandler,
		healthHandler: healthHandler,
		corsOptions:   corsOptions,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", rt.healthHandler.Health).Methods("GET")

	r.HandleFunc("/api/generate", rt.jobHandler.Generate).Methods("POST")
	r.HandleFunc("/api/preview", rt.jobHandler.Preview).Methods("POST")
	r.HandleFunc("/api/jobs", rt.jobHandler.List).Methods("GET")
	r.HandleFunc("/api/jobs/{id}", rt.jobHandler.Get).Methods("GET")
	r.HandleFunc("/api/jobs/{id}", rt.jobHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/jobs/{id}/stream", rt.streamHandler.Stream).Methods("GET")
	r.HandleFunc("/api/videos/{id}", rt.mediaHandler.Video).Methods("GET")
	r.HandleFunc("/api/audio/{id}/{step}", rt.mediaHandler.Audio).Methods("GET")

	// CORS first so preflight requests are answered before anything else
	handler := cors.New(rt.corsOptions).Handler(r)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CorrelationID(handler)

	return handler
}
