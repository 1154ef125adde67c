package api

import (
	"net/http"

	"github.com/dekarrin/phrasegen"
	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/dekarrin/phrasegen/server/middle"
	"github.com/dekarrin/phrasegen/server/result"
	"github.com/dekarrin/phrasegen/server/serr"
)

type generateRequest struct {
	Start   string            `json:"start"`
	Context map[string]string `json:"context"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// HTTPGenerate returns the handler for the POST /grammars/{id}/generate
// endpoint, which produces one sample phrase from the grammar with id,
// starting at the given start symbol and substituting the given external
// context values.
func (api API) HTTPGenerate() http.HandlerFunc {
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

		var body generateRequest
		if err := parseJSON(req, &body); err != nil {
			return result.BadRequest("malformed request body", err.Error())
		}

		if body.Start == "" {
			return result.BadRequest("start symbol is required", "missing start symbol")
		}

		extCtx := phrasegen.ExternalContext(body.Context)

		text, err := api.Backend.GeneratePhrase(req.Context(), id, body.Start, extCtx)
		if err != nil {
			if serrIsBadArgument(err) {
				return result.BadRequest(err.Error(), err.Error())
			}
			return result.InternalServerError(err.Error())
		}

		return result.OK(generateResponse{Text: text}, "generated phrase from grammar %s", existing.Name)
	})
}
