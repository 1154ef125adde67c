package api

import (
	"net/http"

	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/dekarrin/phrasegen/server/middle"
	"github.com/dekarrin/phrasegen/server/result"
	"github.com/dekarrin/phrasegen/server/serr"
)

type grammarStatsResponse struct {
	StartSymbols []string           `json:"start_symbols"`
	Combinations map[string]uint64  `json:"combinations"`
	Approximate  map[string]bool    `json:"approximate"`
	Weight       map[string]float64 `json:"weight"`
}

type grammarResponse struct {
	ID          string               `json:"id"`
	OwnerID     string               `json:"owner_id"`
	Name        string               `json:"name"`
	Source      string               `json:"source"`
	MatcherKind string               `json:"matcher_kind"`
	Stats       grammarStatsResponse `json:"stats"`
}

func grammarToResponse(g dao.Grammar) grammarResponse {
	return grammarResponse{
		ID:          g.ID.String(),
		OwnerID:     g.OwnerID.String(),
		Name:        g.Name,
		Source:      g.Source,
		MatcherKind: g.MatcherKind,
		Stats: grammarStatsResponse{
			StartSymbols: g.Stats.StartSymbols,
			Combinations: g.Stats.Combinations,
			Approximate:  g.Stats.Approximate,
			Weight:       g.Stats.Weight,
		},
	}
}

type grammarCreateRequest struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	MatcherKind string `json:"matcher_kind"`
}

// HTTPCreateGrammar returns the handler for the POST /grammars endpoint. The
// grammar is owned by the caller making the request.
func (api API) HTTPCreateGrammar() http.HandlerFunc {
	return Endpoint(api.UnauthDelay, func(req *http.Request) result.Result {
		user := req.Context().Value(middle.AuthUser).(dao.User)

		var body grammarCreateRequest
		if err := parseJSON(req, &body); err != nil {
			return result.BadRequest("malformed request body", err.Error())
		}

		if body.Name == "" || body.Source == "" {
			return result.BadRequest("name and source are required", "missing name or source")
		}

		g, err := api.Backend.CreateGrammar(req.Context(), user.ID, body.Name, body.Source, body.MatcherKind)
		if err != nil {
			if err == serr.ErrAlreadyExists {
				return result.Conflict("a grammar with that name already exists", err.Error())
			}
			if serrIsBadArgument(err) {
				return result.BadRequest(err.Error(), err.Error())
			}
			return result.InternalServerError(err.Error())
		}

		return result.Created(grammarToResponse(g), "created grammar %s for %s", g.Name, user.Username)
	})
}

// HTTPGetGrammar returns the handler for the GET /grammars/{id} endpoint.
func (api API) HTTPGetGrammar() http.HandlerFunc {
	return Endpoint(api.UnauthDelay, func(req *http.Request) result.Result {
		id := requireIDParam(req)

		g, err := api.Backend.GetGrammar(req.Context(), id)
		if err != nil {
			if err == serr.ErrNotFound {
				return result.NotFound()
			}
			return result.InternalServerError(err.Error())
		}

		user := req.Context().Value(middle.AuthUser).(dao.User)
		if g.OwnerID != user.ID && user.Role < dao.Admin {
			return result.Forbidden("grammar is not owned by caller")
		}

		return result.OK(grammarToResponse(g))
	})
}

// HTTPListGrammars returns the handler for the GET /grammars endpoint,
// listing all grammars owned by the caller.
func (api API) HTTPListGrammars() http.HandlerFunc {
	return Endpoint(api.UnauthDelay, func(req *http.Request) result.Result {
		user := req.Context().Value(middle.AuthUser).(dao.User)

		grammars, err := api.Backend.ListGrammarsByOwner(req.Context(), user.ID)
		if err != nil {
			return result.InternalServerError(err.Error())
		}

		resp := make([]grammarResponse, len(grammars))
		for i, g := range grammars {
			resp[i] = grammarToResponse(g)
		}

		return result.OK(resp, "listed %d grammars for %s", len(resp), user.Username)
	})
}

type grammarUpdateRequest struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	MatcherKind string `json:"matcher_kind"`
}

// HTTPUpdateGrammar returns the handler for the PUT /grammars/{id} endpoint.
func (api API) HTTPUpdateGrammar() http.HandlerFunc {
	return Endpoint(api.UnauthDelay, func(req *http.Request) result.Result {
		id := requireIDParam(req)
		user := req.Context().Value(middle.AuthUser).(dao.User)

		existing, err := api.Backend.GetGrammar(req.Context(), id)
		if err != nil {
			if err == serr.ErrNotFound {
				return result.NotFound()
			}
			return result.InternalServerError(err.Error())
		}
		if existing.OwnerID != user.ID && user.Role < dao.Admin {
			return result.Forbidden("grammar is not owned by caller")
		}

		var body grammarUpdateRequest
		if err := parseJSON(req, &body); err != nil {
			return result.BadRequest("malformed request body", err.Error())
		}

		if body.Name == "" || body.Source == "" {
			return result.BadRequest("name and source are required", "missing name or source")
		}

		updated, err := api.Backend.UpdateGrammar(req.Context(), id, body.Name, body.Source, body.MatcherKind)
		if err != nil {
			if err == serr.ErrAlreadyExists {
				return result.Conflict("a grammar with that name already exists", err.Error())
			}
			if serrIsBadArgument(err) {
				return result.BadRequest(err.Error(), err.Error())
			}
			return result.InternalServerError(err.Error())
		}

		return result.OK(grammarToResponse(updated), "updated grammar %s", updated.Name)
	})
}

// HTTPDeleteGrammar returns the handler for the DELETE /grammars/{id}
// endpoint.
func (api API) HTTPDeleteGrammar() http.HandlerFunc {
	return Endpoint(api.UnauthDelay, func(req *http.Request) result.Result {
		id := requireIDParam(req)
		user := req.Context().Value(middle.AuthUser).(dao.User)

		existing, err := api.Backend.GetGrammar(req.Context(), id)
		if err != nil {
			if err == serr.ErrNotFound {
				return result.NotFound()
			}
			return result.InternalServerError(err.Error())
		}
		if existing.OwnerID != user.ID && user.Role < dao.Admin {
			return result.Forbidden("grammar is not owned by caller")
		}

		deleted, err := api.Backend.DeleteGrammar(req.Context(), id)
		if err != nil {
			if err == serr.ErrNotFound {
				return result.NotFound()
			}
			return result.InternalServerError(err.Error())
		}

		return result.NoContent("deleted grammar %s", deleted.Name)
	})
}

// serrIsBadArgument reports whether err is (or wraps) serr.ErrBadArgument,
// the marker svc uses for a grammar source that failed to parse.
func serrIsBadArgument(err error) bool {
	type isser interface{ Is(error) bool }
	if ie, ok := err.(isser); ok {
		return ie.Is(serr.ErrBadArgument)
	}
	return err == serr.ErrBadArgument
}
