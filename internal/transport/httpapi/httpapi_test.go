package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func postAnalyze(t *testing.T, a API, body AnalyzeRequest) (*httptest.ResponseRecorder, AnalyzeResponse) {
	t.Helper()

	raw, err := json.Marshal(body)
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	a.Router().ServeHTTP(rec, req)

	var resp AnalyzeResponse
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func Test_HandleAnalyze_ValidGrammar_NoErrors(t *testing.T) {
	assert := assert.New(t)
	a := API{}

	rec, resp := postAnalyze(t, a, AnalyzeRequest{
		Path:   "valid.llw",
		Source: "start s; token A='a'; s: A;",
	})

	assert.Equal(http.StatusOK, rec.Code)
	assert.False(resp.HasErrors)
	assert.False(resp.Truncated)
	assert.NotEmpty(resp.SessionID)
	if assert.Len(resp.Rules, 1) {
		assert.Equal("s", resp.Rules[0].Name)
	}
	assert.Equal("s", resp.StartRule)
}

func Test_HandleAnalyze_ConflictingGrammar_ReportsDiagnostic(t *testing.T) {
	assert := assert.New(t)
	a := API{}

	rec, resp := postAnalyze(t, a, AnalyzeRequest{
		Path:   "conflict.llw",
		Source: "start s; token A='a'; s: A | A;",
	})

	assert.Equal(http.StatusOK, rec.Code)
	assert.True(resp.HasErrors)
	if assert.NotEmpty(resp.Diagnostics) {
		assert.Equal("error", resp.Diagnostics[0].Severity)
	}
}

func Test_HandleAnalyze_WrongContentType_BadRequest(t *testing.T) {
	assert := assert.New(t)
	a := API{}

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	a.Router().ServeHTTP(rec, req)

	assert.Equal(http.StatusBadRequest, rec.Code)
}

func Test_HandleAnalyze_MalformedJSON_BadRequest(t *testing.T) {
	assert := assert.New(t)
	a := API{}

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	a.Router().ServeHTTP(rec, req)

	assert.Equal(http.StatusBadRequest, rec.Code)
}
