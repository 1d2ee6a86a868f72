package essentials

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Get("/zip/{zip}/people", h.GetPeopleByZip)
	r.Get("/person", h.GetPerson)
	r.Get("/areas", h.GetAreasAtPoint)

	return r
}
