package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"aura/internal/http/handlers"
	"aura/internal/middleware"
)

func NewRouter(app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP, chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS([]string{"*"}))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/designs", func(r chi.Router) {
		r.With(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute)).
			Post("/", app.DesignsCreate)
		r.Get("/recent", app.DesignsRecent)
	})

	return r
}
