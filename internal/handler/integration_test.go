package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/middleware"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/testutil"
)

// envelopeRouter mounts small routes over the unexported response helpers so
// the success/fail/error envelope can be exercised over real HTTP rather
// than by calling writeSuccess/writeFail/writeError directly against a
// ResponseRecorder.
func envelopeRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.UserIDKey, int64(42))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/ping", func(w http.ResponseWriter, req *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]any{"who": userID(req), "pong": true})
	})
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, domain.ErrTripNotFound)
	})
	r.Post("/echo", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Known string `json:"known"`
		}
		if err := decodeJSON(req, &body); err != nil {
			writeFail(w, 0, err.Error(), http.StatusBadRequest)
			return
		}
		writeSuccess(w, http.StatusOK, body)
	})
	return r
}

func TestEnvelope_SuccessCarriesUserIDFromContext(t *testing.T) {
	assert := testutil.NewAssert(t)

	server := testutil.NewTestServer(envelopeRouter())
	defer server.Close()
	client := testutil.NewTestClient(server.BaseURL)

	resp, err := client.Get(context.Background(), "/ping")
	assert.NoError(err)

	parsed := testutil.ParseResponse(t, resp)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var body map[string]any
	assert.NoError(parsed.JSON(&body))
	assert.Equal("success", body["result"])

	data, ok := body["data"].(map[string]any)
	assert.True(ok)
	assert.Equal(float64(42), data["who"])
}

func TestEnvelope_WriteErrorMapsSentinelToFailEnvelope(t *testing.T) {
	assert := testutil.NewAssert(t)

	server := testutil.NewTestServer(envelopeRouter())
	defer server.Close()
	client := testutil.NewTestClient(server.BaseURL)

	resp, err := client.Get(context.Background(), "/boom")
	assert.NoError(err)
	testutil.AssertStatus(t, resp, http.StatusNotFound)

	parsed := testutil.ParseResponse(t, resp)
	testutil.AssertContains(t, parsed, `"result":"fail"`)
}

func TestEnvelope_DecodeJSONRejectsUnknownFields(t *testing.T) {
	assert := testutil.NewAssert(t)

	server := testutil.NewTestServer(envelopeRouter())
	defer server.Close()
	client := testutil.NewTestClient(server.BaseURL)

	resp, err := client.Post(context.Background(), "/echo", map[string]any{"surprise": true})
	assert.NoError(err)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
}

func TestEnvelope_EchoRoundTripsKnownFields(t *testing.T) {
	assert := testutil.NewAssert(t)

	server := testutil.NewTestServer(envelopeRouter())
	defer server.Close()
	client := testutil.NewTestClient(server.BaseURL)

	resp, err := client.Post(context.Background(), "/echo", map[string]any{"known": "ok"})
	assert.NoError(err)
	testutil.AssertStatus(t, resp, http.StatusOK)

	parsed := testutil.ParseResponse(t, resp)
	testutil.AssertContains(t, parsed, `"known":"ok"`)
}
