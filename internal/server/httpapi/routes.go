package httpapi

import (
	"net/http"
	"slices"

	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	staticPath  = "/static/"
	uploadsPath = storage.LocalURLPrefix + "/"
)

// Handler builds the router with the full middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(s.corsHandler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
	})

	r.Get("/healthz", handleHealthCheck)

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Post("/register", s.makeHandler(s.handleRegister))
		r.Post("/login", s.makeHandler(s.handleLogin))
		r.Post("/forget-password", s.makeHandler(s.handleForgotPassword))
		r.Post("/reset_password", s.makeHandler(s.handleResetPassword))
		r.Post("/rest_password", s.makeHandler(s.handleResetPassword))
	})

	r.Get("/verify-email", s.handleVerifyEmail)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/logout", s.makeHandler(s.handleLogout))

		r.Get("/get_task", s.makeHandler(s.handleListTasks))
		r.Post("/create_task", s.makeHandler(s.handleCreateTask))
		r.Put("/update_task/{id}", s.makeHandler(s.handleUpdateTask))
		r.Delete("/delete_task", s.makeHandler(s.handleDeleteTask))
		r.Patch("/mark_done", s.makeHandler(s.handleMarkDone))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", s.makeHandler(s.handleGetProfile))
			r.Put("/update", s.makeHandler(s.handleUpdateProfile))
			r.Post("/profile_pic", s.makeHandler(s.handleProfilePicture))
			r.Put("/change_password", s.makeHandler(s.handleChangePassword))
		})
	})

	if s.config.StorageBackend == config.StorageBackendLocal && s.config.UploadDir != "" {
		r.Handle(uploadsPath+"*", http.StripPrefix(uploadsPath, http.FileServer(http.Dir(s.config.UploadDir))))
	}
	if s.config.StaticDir != "" {
		r.Handle(staticPath+"*", http.StripPrefix(staticPath, http.FileServer(http.Dir(s.config.StaticDir))))
	}

	return r
}

// corsHandler allows credentials only for an explicit origin list; browsers
// refuse credentials with a wildcard origin.
func (s *Server) corsHandler() func(http.Handler) http.Handler {
	origins := s.config.CORSAllowedOrigins
	wildcard := len(origins) == 0 || slices.Contains(origins, "*")
	if wildcard {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	})
}

func handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(headerContentType, contentTypeText)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
