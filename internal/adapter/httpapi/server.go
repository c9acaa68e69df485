package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// NewRouter wires the HTTP surface: health is open, everything under /v1
// requires the service token.
func NewRouter(h *Handlers, apiToken string, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(Recoverer(log))
	r.Use(RequestLogger(log))

	r.Get("/healthz", h.Healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(Auth(apiToken, log))

		r.Post("/quotes", h.CreateQuote)
		r.Post("/campaigns", h.CreateCampaign)
		r.Get("/campaigns", h.ListCampaigns)
		r.Get("/breaches", h.ListBreaches)
	})

	return r
}

// NewServer builds the http.Server around the router.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: handler,
	}
}
