package api

import (
	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/dekarrin/phrasegen/server/middle"
	"github.com/go-chi/chi/v5"
)

// Routes builds a chi.Router that serves every endpoint in this package
// under PathPrefix, wiring in the auth middleware backed by api's Secret and
// UnauthDelay.
func (api API) Routes() chi.Router {
	r := chi.NewRouter()

	required := middle.RequireAuth(api.Backend.DB.Users(), api.Secret, api.UnauthDelay, dao.User{})

	r.Get("/info", api.HTTPGetInfo())
	r.Post("/login", api.HTTPLogin())
	r.With(required).Delete("/login/{id}", api.HTTPLogout())
	r.With(required).Post("/token", api.HTTPGetToken())

	r.Route("/grammars", func(r chi.Router) {
		r.Use(required)
		r.Post("/", api.HTTPCreateGrammar())
		r.Get("/", api.HTTPListGrammars())
		r.Get("/{id}", api.HTTPGetGrammar())
		r.Put("/{id}", api.HTTPUpdateGrammar())
		r.Delete("/{id}", api.HTTPDeleteGrammar())
		r.Post("/{id}/generate", api.HTTPGenerate())
	})

	return r
}
