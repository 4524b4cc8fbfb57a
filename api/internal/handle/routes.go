package handle

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes mounts the API with the shared middleware stack.
func (h *Handle) Routes(origins []string, timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	if len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Location"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", Healthz)
	r.Route("/exams", func(er chi.Router) {
		er.Post("/", h.CreateExam)
		er.Get("/{examID}", h.GetExam)
		er.Post("/{examID}/start", h.StartExam)
		er.Post("/{examID}/submit", h.SubmitExam)
	})
	r.Get("/results/{resultID}", h.GetResult)
	return r
}
