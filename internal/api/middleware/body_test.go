package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/acquisitions/internal/api/requestctx"
)

// captureBody records what the body middlewares stored in the context.
type captureBody struct {
	called  bool
	body    any
	hasBody bool
	form    map[string]any
}

func (c *captureBody) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.body, c.hasBody = requestctx.Body(r.Context())
		c.form = requestctx.Form(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func serveBody(t *testing.T, mw func(http.Handler) http.Handler, contentType, payload string) (*httptest.ResponseRecorder, *captureBody) {
	t.Helper()
	capture := &captureBody{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	mw(capture.handler()).ServeHTTP(rec, req)
	return rec, capture
}

func TestJSONBodyParsesObject(t *testing.T) {
	rec, capture := serveBody(t, JSONBody(DefaultBodyConfig()), "application/json", `{"name":"Ann","tags":["a"]}`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, capture.hasBody)
	assert.Equal(t, map[string]any{"name": "Ann", "tags": []any{"a"}}, capture.body)
}

func TestJSONBodyEmptyBody(t *testing.T) {
	rec, capture := serveBody(t, JSONBody(DefaultBodyConfig()), "application/json; charset=utf-8", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, map[string]any{}, capture.body)
}

func TestJSONBodyMalformed(t *testing.T) {
	for _, payload := range []string{`{"name":`, `not json`, `"scalar"`, `{"a":1}}`} {
		rec, capture := serveBody(t, JSONBody(DefaultBodyConfig()), "application/json", payload)

		assert.Equal(t, http.StatusBadRequest, rec.Code, payload)
		assert.False(t, capture.called, payload)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, ErrMalformedJSON.Error(), body["error"])
	}
}

func TestJSONBodyLenientAcceptsScalars(t *testing.T) {
	rec, capture := serveBody(t, JSONBody(BodyConfig{Strict: false}), "application/json", `42`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, float64(42), capture.body)
}

func TestJSONBodyIgnoresOtherContentTypes(t *testing.T) {
	rec, capture := serveBody(t, JSONBody(DefaultBodyConfig()), "text/plain", `{"name":`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, capture.hasBody)
}

func TestJSONBodyVendorType(t *testing.T) {
	rec, capture := serveBody(t, JSONBody(DefaultBodyConfig()), "application/vnd.api+json", `[1,2]`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []any{float64(1), float64(2)}, capture.body)
}

func TestJSONBodyTooLarge(t *testing.T) {
	payload := `{"pad":"` + strings.Repeat("x", 64) + `"}`
	rec, capture := serveBody(t, JSONBody(BodyConfig{MaxBytes: 16, Strict: true}), "application/json", payload)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, capture.called)
}

func TestJSONBodyUnsupportedCharset(t *testing.T) {
	rec, capture := serveBody(t, JSONBody(DefaultBodyConfig()), "application/json; charset=latin1", `{}`)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.False(t, capture.called)
}

func TestURLEncodedBodyNested(t *testing.T) {
	rec, capture := serveBody(t, URLEncodedBody(DefaultBodyConfig()),
		"application/x-www-form-urlencoded",
		"user%5Bname%5D=Ann&user[roles][]=admin&user[roles][]=ops&tags=a&tags=b&q=hello+world")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, map[string]any{
		"user": map[string]any{
			"name":  "Ann",
			"roles": []any{"admin", "ops"},
		},
		"tags": []any{"a", "b"},
		"q":    "hello world",
	}, capture.form)
}

func TestURLEncodedBodyKeepsInvalidEscape(t *testing.T) {
	rec, capture := serveBody(t, URLEncodedBody(DefaultBodyConfig()), "application/x-www-form-urlencoded", "a[b]=%ZZ")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, capture.called)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": "%ZZ"}}, capture.form)
}

func TestURLEncodedBodyTooManyParameters(t *testing.T) {
	pairs := make([]string, formParameterLimit+1)
	for i := range pairs {
		pairs[i] = "k=v"
	}
	rec, _ := serveBody(t, URLEncodedBody(BodyConfig{MaxBytes: 1 << 20}), "application/x-www-form-urlencoded", strings.Join(pairs, "&"))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyMiddlewaresLeaveBodyReadable(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(data)
	})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")

	JSONBody(DefaultBodyConfig())(next).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, `{"a":1}`, seen)
}
