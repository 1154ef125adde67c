package api

import (
	"net/http"

	"github.com/dekarrin/phrasegen/internal/version"
	"github.com/dekarrin/phrasegen/server/result"
)

type infoResponse struct {
	Version       string `json:"version"`
	ServerVersion string `json:"server_version"`
}

// HTTPGetInfo returns the handler for the GET /info endpoint, which reports
// the engine and server version strings. It requires no authentication.
func (api API) HTTPGetInfo() http.HandlerFunc {
	return Endpoint(api.UnauthDelay, func(req *http.Request) result.Result {
		resp := infoResponse{
			Version:       version.Current,
			ServerVersion: version.ServerCurrent,
		}
		return result.OK(resp)
	})
}
