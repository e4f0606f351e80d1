package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"exercisehub/internal/service"
	"exercisehub/internal/transport/rest/handler"
	"exercisehub/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Hooks          service.ExerciseHooks
	Submissions    *service.SubmissionService
	WSHub          *ws.Hub
	ControllerRole string
	CORS           CORSConfig
}

// CORSConfig holds the Access-Control-Allow-* header values
type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	exerciseHandler := handler.NewExerciseHandler(c.Hooks)
	sessionHandler := handler.NewSessionHandler(c.Submissions)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORS))

	v1 := r.PathPrefix("/v1").Subrouter()

	// Document and exercise lifecycle
	v1.HandleFunc("/presentations/{presentationId}/parse", exerciseHandler.Parse).Methods("POST", "OPTIONS")
	v1.HandleFunc("/exercises/{exerciseId}/settings", exerciseHandler.UpdateSettings).Methods("PUT", "OPTIONS")
	v1.HandleFunc("/exercises/{exerciseId}/submissions", exerciseHandler.Submit).Methods("POST", "OPTIONS")

	// Session projections
	v1.HandleFunc("/sessions/{sessionId}/exercises/{exerciseId}/progress", sessionHandler.Progress).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/presenter", sessionHandler.Presenter).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/viewers/{answereeId}", sessionHandler.Viewer).Methods("GET", "OPTIONS")

	// WebSocket route
	if c.WSHub != nil {
		wsHandler := ws.NewHandler(c.WSHub, c.Hooks, c.ControllerRole)
		v1.HandleFunc("/ws/sessions/{sessionId}", wsHandler.SessionWS).Methods("GET")
	}

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}

func corsMiddleware(cfg CORSConfig) mux.MiddlewareFunc {
	if cfg.AllowedOrigins == "" {
		cfg.AllowedOrigins = "*"
	}
	if cfg.AllowedMethods == "" {
		cfg.AllowedMethods = "GET, POST, PUT, OPTIONS"
	}
	if cfg.AllowedHeaders == "" {
		cfg.AllowedHeaders = "Content-Type"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.AllowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
