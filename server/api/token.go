package api

import (
	"net/http"

	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/dekarrin/phrasegen/server/middle"
	"github.com/dekarrin/phrasegen/server/result"
	"github.com/dekarrin/phrasegen/server/token"
)

type tokenResponse struct {
	Token string `json:"token"`
}

// HTTPGetToken returns the handler for the POST /token endpoint, which
// issues a fresh token for the already-authenticated caller without
// requiring them to resend their password. Useful for refreshing a token
// close to its expiry.
func (api API) HTTPGetToken() http.HandlerFunc {
	return Endpoint(api.UnauthDelay, func(req *http.Request) result.Result {
		loggedIn := req.Context().Value(middle.AuthLoggedIn).(bool)
		if !loggedIn {
			return result.Unauthorized("")
		}

		user := req.Context().Value(middle.AuthUser).(dao.User)

		tok, err := token.Generate(api.Secret, user)
		if err != nil {
			return result.InternalServerError("could not generate token: " + err.Error())
		}

		return result.OK(tokenResponse{Token: tok}, "issued refreshed token for %s", user.Username)
	})
}
