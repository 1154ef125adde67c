// Package api provides HTTP API endpoints for the phrasegen server.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dekarrin/phrasegen/server/result"
	"github.com/dekarrin/phrasegen/server/serr"
	"github.com/dekarrin/phrasegen/server/svc"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PathPrefix is the prefix of all paths in the API. Routers should mount a
// sub-router that routes all requests to the API at this path.
const PathPrefix = "/api/v1"

// requireIDParam gets the ID of the main entity being referenced in the URI
// and returns it. It panics if the key is not there or is not parsable,
// which Endpoint's panic recovery turns into an HTTP-500.
func requireIDParam(r *http.Request) uuid.UUID {
	id, err := getURLParam(r, "id", uuid.Parse)
	if err != nil {
		panic(err.Error())
	}
	return id
}

func getURLParam[E any](r *http.Request, key string, parse func(string) (E, error)) (val E, err error) {
	valStr := chi.URLParam(r, key)
	if valStr == "" {
		return val, fmt.Errorf("parameter does not exist")
	}

	val, err = parse(valStr)
	if err != nil {
		return val, serr.New("", serr.ErrBadArgument)
	}
	return val, nil
}

// API holds parameters for endpoints needed to run and a service layer that
// performs most of the actual logic. To use API, create one and then assign
// the result of its HTTP* methods as handlers to a router.
//
// This is exclusively an API for serving external requests. For direct
// programmatic access into the backend of a phrasegen server via Go code,
// see [svc.Service].
type API struct {
	// Backend is the service that the API calls to perform the requested
	// actions.
	Backend svc.Service

	// UnauthDelay is the amount of time that a request will pause before
	// responding with an HTTP-403, HTTP-401, or HTTP-500, to deprioritize
	// such requests from processing and I/O.
	UnauthDelay time.Duration

	// Secret is the secret used to sign JWT tokens.
	Secret []byte
}

// parseJSON reads req's body into v, which must be a pointer to a type. The
// returned error, if non-nil, wraps serr.ErrBodyUnmarshal when the problem
// is with decoding the JSON itself.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")

	if strings.ToLower(contentType) != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	defer func() {
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyData))
	}()

	if err := json.Unmarshal(bodyData, v); err != nil {
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}

	return nil
}

// EndpointFunc is the signature every handler body in this package is
// written against; Endpoint adapts it to http.HandlerFunc.
type EndpointFunc func(req *http.Request) result.Result

// Endpoint adapts an EndpointFunc into an http.HandlerFunc, handling panic
// recovery, response marshaling, uniform logging, and the unauthorized-delay
// policy in one place so individual handlers only need to build a
// result.Result.
func Endpoint(unauthDelay time.Duration, ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)
		r := ep(req)

		if r.Status == 0 {
			r = result.InternalServerError("endpoint result was never populated")
		}

		if err := r.PrepareMarshaledResponse(); err != nil {
			r = result.Err(r.Status, "An internal server error occurred", "could not marshal JSON response: "+err.Error())
		}

		r.Log(req)

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			time.Sleep(unauthDelay)
		}

		r.WriteResponse(w)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) (panicVal interface{}) {
	if panicErr := recover(); panicErr != nil {
		r := result.TextErr(
			http.StatusInternalServerError,
			"An internal server error occurred",
			fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
		)
		r.WriteResponse(w)
		r.Log(req)
		return true
	}
	return false
}
