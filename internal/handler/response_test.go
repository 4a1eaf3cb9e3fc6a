package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/testutil"
)

func TestWriteSuccess_Envelope(t *testing.T) {
	assert := testutil.NewAssert(t)
	rec := httptest.NewRecorder()
	writeSuccess(rec, http.StatusOK, map[string]any{"balance": 12.5})

	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	assert.Equal("success", body["result"])
	data := body["data"].(map[string]any)
	assert.Equal(12.5, data["balance"])
}

func TestWriteFail_Envelope(t *testing.T) {
	assert := testutil.NewAssert(t)
	rec := httptest.NewRecorder()
	writeFail(rec, domain.CodeInsufficientCoins, "insufficient coin balance", http.StatusBadRequest)

	assert.Equal(http.StatusBadRequest, rec.Code)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	assert.Equal("fail", body["result"])
	errObj := body["error"].(map[string]any)
	assert.Equal(float64(domain.CodeInsufficientCoins), errObj["code"])
	assert.Equal("insufficient coin balance", errObj["msg"])
}

func TestWriteError_MappedSentinel(t *testing.T) {
	assert := testutil.NewAssert(t)
	rec := httptest.NewRecorder()
	writeError(rec, domain.ErrUserCoinSuspended)
	assert.Equal(403, rec.Code)

	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	errObj := body["error"].(map[string]any)
	assert.Equal(float64(domain.CodeUserCoinSuspended), errObj["code"])
}

func TestWriteError_UnmappedFallsBackTo500(t *testing.T) {
	assert := testutil.NewAssert(t)
	rec := httptest.NewRecorder()
	writeError(rec, errUnmappedTest)
	assert.Equal(http.StatusInternalServerError, rec.Code)

	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	assert.Equal("fail", body["result"])
}

var errUnmappedTest = &testError{"some unexpected failure"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	assert := testutil.NewAssert(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"known":"ok","unknown":"nope"}`))

	var dst struct {
		Known string `json:"known"`
	}
	err := decodeJSON(req, &dst)
	assert.NotNil(err)
}

func TestDecodeJSON_AcceptsKnownFields(t *testing.T) {
	assert := testutil.NewAssert(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"known":"ok"}`))

	var dst struct {
		Known string `json:"known"`
	}
	err := decodeJSON(req, &dst)
	assert.Nil(err)
	assert.Equal("ok", dst.Known)
}

func TestReadAll_ReturnsRawBody(t *testing.T) {
	assert := testutil.NewAssert(t)
	req := httptest.NewRequest(http.MethodPost, "/webhook/uber", bytes.NewReader([]byte(`{"event_id":"e1"}`)))
	body, err := readAll(req)
	assert.Nil(err)
	assert.Equal(`{"event_id":"e1"}`, string(body))
}

func TestUserID_NoneInContextReturnsZero(t *testing.T) {
	assert := testutil.NewAssert(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(int64(0), userID(req))
}
