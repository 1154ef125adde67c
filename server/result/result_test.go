package result

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_OK_writesStatusAndJSONBody(t *testing.T) {
	assert := assert.New(t)

	r := OK(map[string]string{"hello": "world"})
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Equal(http.StatusOK, w.Code)
	assert.JSONEq(`{"hello":"world"}`, w.Body.String())
	assert.Equal("application/json", w.Header().Get("Content-Type"))
}

func Test_NotFound_writesErrorBody(t *testing.T) {
	assert := assert.New(t)

	r := NotFound("lookup failed: %s", "grammar missing")
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Equal(http.StatusNotFound, w.Code)
	assert.Contains(w.Body.String(), "The requested resource was not found")
	assert.Equal("lookup failed: grammar missing", r.InternalMsg)
}

func Test_Unauthorized_setsWWWAuthenticateHeader(t *testing.T) {
	assert := assert.New(t)

	r := Unauthorized("")
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Equal(http.StatusUnauthorized, w.Code)
	assert.Contains(w.Header().Get("WWW-Authenticate"), "phrasegen server")
}

func Test_NoContent_writesNoBody(t *testing.T) {
	assert := assert.New(t)

	r := NoContent()
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Equal(http.StatusNoContent, w.Code)
	assert.Empty(w.Body.Bytes())
}

func Test_TextErr_writesPlainText(t *testing.T) {
	assert := assert.New(t)

	r := TextErr(http.StatusInternalServerError, "boom", "internal detail")
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Equal(http.StatusInternalServerError, w.Code)
	assert.Equal("boom", w.Body.String())
	assert.Equal("text/plain; charset=utf-8", w.Header().Get("Content-Type"))
}

func Test_WithHeader_addsHeaderWithoutMutatingOriginal(t *testing.T) {
	assert := assert.New(t)

	base := OK(nil)
	withHdr := base.WithHeader("X-Test", "value")

	w := httptest.NewRecorder()
	withHdr.WriteResponse(w)
	assert.Equal("value", w.Header().Get("X-Test"))

	w2 := httptest.NewRecorder()
	base.WriteResponse(w2)
	assert.Empty(w2.Header().Get("X-Test"))
}

func Test_Log_usesErrorLevelForErrResults(t *testing.T) {
	assert := assert.New(t)

	req := httptest.NewRequest(http.MethodGet, "/grammars", nil)
	req.RemoteAddr = "10.0.0.1:54321"

	r := NotFound("missing")
	assert.True(r.IsErr)

	// Log writes to the standard logger; exercising it here confirms it
	// does not panic when given a populated Result and a real request.
	r.Log(req)
}
