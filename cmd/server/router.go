package main

import (
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/doafter-api/internal/api"
	apiMiddleware "github.com/phrazzld/doafter-api/internal/api/middleware"
	"github.com/phrazzld/doafter-api/internal/api/shared"
)

// Version is reported by the service info endpoint.
const Version = "1.0.0"

// requestTimeout bounds the handling of a single request.
const requestTimeout = 30 * time.Second

// allowedOrigins matches browser origins on this machine or a private LAN.
var allowedOrigins = []*regexp.Regexp{
	regexp.MustCompile(`^http://localhost(:\d+)?$`),
	regexp.MustCompile(`^http://127\.0\.0\.1(:\d+)?$`),
	regexp.MustCompile(`^http://192\.168\.\d+\.\d+(:\d+)?$`),
	regexp.MustCompile(`^http://10\.\d+\.\d+\.\d+(:\d+)?$`),
	regexp.MustCompile(`^http://172\.(1[6-9]|2[0-9]|3[0-1])\.\d+\.\d+(:\d+)?$`),
}

func isAllowedOrigin(_ *http.Request, origin string) bool {
	for _, pattern := range allowedOrigins {
		if pattern.MatchString(origin) {
			return true
		}
	}
	return false
}

// serviceInfo is the body of GET /.
type serviceInfo struct {
	Message       string            `json:"message"`
	Version       string            `json:"version"`
	Database      string            `json:"database"`
	Authenticated bool              `json:"authenticated"`
	Endpoints     map[string]string `json:"endpoints"`
}

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  isAllowedOrigin,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlerOpts := []api.HandlerOption{api.WithErrorDetail(app.config.Server.IsDevelopment())}
	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.logger, handlerOpts...)
	todoHandler := api.NewTodoHandler(app.todoService, app.logger, handlerOpts...)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.userService)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Public
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Get("/me", authHandler.Me)
				r.Put("/change-password", authHandler.ChangePassword)
				r.Put("/profile", authHandler.UpdateProfile)
			})
		})

		r.Route("/todos", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/", todoHandler.List)
			r.Post("/", todoHandler.Create)
			// Static segments are registered ahead of {id}.
			r.Get("/stats/summary", todoHandler.Stats)
			r.Patch("/batch", todoHandler.Batch)
			r.Get("/{id}", todoHandler.Get)
			r.Put("/{id}", todoHandler.Update)
			r.Delete("/{id}", todoHandler.Delete)
		})
	})

	r.With(authMiddleware.Optional).Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, authenticated := shared.UserIDFromContext(r.Context())
		shared.RespondWithJSON(w, r, http.StatusOK, serviceInfo{
			Message:       "Todo API server is running",
			Version:       Version,
			Database:      app.config.Database.Driver,
			Authenticated: authenticated,
			Endpoints: map[string]string{
				"auth":  "/api/auth",
				"todos": "/api/todos",
				"stats": "/api/todos/stats/summary",
				"batch": "/api/todos/batch",
			},
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := app.db.PingContext(r.Context()); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
