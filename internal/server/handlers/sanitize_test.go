package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mailcred/mailcred/internal/core"
)

type stubAnalyzer struct {
	lastEmail string
	result    *core.AnalysisResult
}

func (s *stubAnalyzer) Sanitize(ctx context.Context, email string) *core.AnalysisResult {
	s.lastEmail = email
	return s.result
}

func installStubAnalyzer(t *testing.T) *stubAnalyzer {
	t.Helper()

	stub := &stubAnalyzer{
		result: &core.AnalysisResult{
			Email:      "cliente@santander.com",
			Verdict:    core.VerdictValid,
			Confidence: 0.95,
			Labels:     []string{},
			Evidences:  []core.Evidence{},
		},
	}
	SetAnalyzer(stub)
	t.Cleanup(func() { SetAnalyzer(nil) })
	return stub
}

func decodeErrorEnvelope(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error.Code
}

func TestSanitizeHandlerGet(t *testing.T) {
	stub := installStubAnalyzer(t)

	req := httptest.NewRequest(http.MethodGet, "/sanitize?email=cliente%40santander.com", nil)
	rec := httptest.NewRecorder()

	SanitizeHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if stub.lastEmail != "cliente@santander.com" {
		t.Fatalf("expected analyzer to receive the query email, got %q", stub.lastEmail)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["veredict"] != "valid" {
		t.Fatalf("expected veredict valid, got %v", resp["veredict"])
	}
}

func TestSanitizeHandlerPost(t *testing.T) {
	stub := installStubAnalyzer(t)

	body := strings.NewReader(`{"email":"  info@caixabank.es "}`)
	req := httptest.NewRequest(http.MethodPost, "/sanitize", body)
	rec := httptest.NewRecorder()

	SanitizeHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if stub.lastEmail != "info@caixabank.es" {
		t.Fatalf("expected trimmed email, got %q", stub.lastEmail)
	}
}

func TestSanitizeHandlerMissingEmail(t *testing.T) {
	installStubAnalyzer(t)

	tests := []struct {
		name string
		req  *http.Request
	}{
		{name: "get without query", req: httptest.NewRequest(http.MethodGet, "/sanitize", nil)},
		{name: "post empty field", req: httptest.NewRequest(http.MethodPost, "/sanitize", strings.NewReader(`{"email":""}`))},
		{name: "post malformed body", req: httptest.NewRequest(http.MethodPost, "/sanitize", strings.NewReader("not json"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			SanitizeHandler(rec, tt.req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}

			if code := decodeErrorEnvelope(t, rec); code != "INVALID_INPUT" {
				t.Fatalf("expected INVALID_INPUT error code, got %s", code)
			}
		})
	}
}

func TestSanitizeHandlerRejectsUnsupportedMethod(t *testing.T) {
	installStubAnalyzer(t)

	req := httptest.NewRequest(http.MethodDelete, "/sanitize", nil)
	rec := httptest.NewRecorder()

	SanitizeHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}

	if code := decodeErrorEnvelope(t, rec); code != "METHOD_NOT_ALLOWED" {
		t.Fatalf("expected METHOD_NOT_ALLOWED error code, got %s", code)
	}
}

func TestSanitizeHandlerWithoutAnalyzer(t *testing.T) {
	SetAnalyzer(nil)

	req := httptest.NewRequest(http.MethodGet, "/sanitize?email=a%40b.com", nil)
	rec := httptest.NewRecorder()

	SanitizeHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	if code := decodeErrorEnvelope(t, rec); code != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR error code, got %s", code)
	}
}
