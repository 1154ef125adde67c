package api

import (
	"net/http"

	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/dekarrin/phrasegen/server/middle"
	"github.com/dekarrin/phrasegen/server/result"
	"github.com/dekarrin/phrasegen/server/serr"
	"github.com/dekarrin/phrasegen/server/token"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID     string `json:"id"`
	Token  string `json:"token"`
	Expiry string `json:"-"`
}

// HTTPLogin returns the handler for the POST /login endpoint, which accepts
// a username and password and returns a new JWT bound to that user.
func (api API) HTTPLogin() http.HandlerFunc {
	return Endpoint(api.UnauthDelay, func(req *http.Request) result.Result {
		var body loginRequest
		if err := parseJSON(req, &body); err != nil {
			return result.BadRequest("malformed request body", err.Error())
		}

		if body.Username == "" || body.Password == "" {
			return result.BadRequest("username and password are required", "missing username or password")
		}

		user, err := api.Backend.Login(req.Context(), body.Username, body.Password)
		if err != nil {
			if err == serr.ErrBadCredentials {
				return result.Unauthorized("", err.Error())
			}
			return result.InternalServerError(err.Error())
		}

		tok, err := token.Generate(api.Secret, user)
		if err != nil {
			return result.InternalServerError("could not generate token: " + err.Error())
		}

		resp := loginResponse{
			ID:    user.ID.String(),
			Token: tok,
		}

		return result.Created(resp, "user %s logged in", user.Username)
	})
}

// HTTPLogout returns the handler for the DELETE /login/{id} endpoint, which
// invalidates all existing tokens for the given user by bumping their
// LastLogoutTime.
func (api API) HTTPLogout() http.HandlerFunc {
	return Endpoint(api.UnauthDelay, func(req *http.Request) result.Result {
		id := requireIDParam(req)

		user := req.Context().Value(middle.AuthUser).(dao.User)
		if user.ID != id && user.Role < dao.Admin {
			return result.Forbidden("cannot log out another user")
		}

		loggedOut, err := api.Backend.Logout(req.Context(), id)
		if err != nil {
			if err == serr.ErrNotFound {
				return result.NotFound()
			}
			return result.InternalServerError(err.Error())
		}

		return result.NoContent("user %s logged out", loggedOut.Username)
	})
}
