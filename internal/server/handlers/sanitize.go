package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mailcred/mailcred/internal/core"
	apperrors "github.com/mailcred/mailcred/internal/errors"
	"github.com/mailcred/mailcred/internal/metrics"
)

// Analyzer runs the email analysis pipeline.
type Analyzer interface {
	Sanitize(ctx context.Context, email string) *core.AnalysisResult
}

var analyzer Analyzer

// SetAnalyzer injects the analysis pipeline used by the sanitize endpoint.
func SetAnalyzer(a Analyzer) {
	analyzer = a
}

// SanitizeRequest is the POST request body.
type SanitizeRequest struct {
	Email string `json:"email"`
}

// SanitizeHandler analyzes one email address and returns the verdict.
// Accepts POST with a JSON body or GET with an `email` query parameter.
func SanitizeHandler(w http.ResponseWriter, r *http.Request) {
	if analyzer == nil {
		respondWithError(w, r, apperrors.NewInternalError("analysis pipeline not initialized"))
		return
	}

	email, err := extractEmail(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	start := time.Now()
	result := analyzer.Sanitize(r.Context(), email)
	metrics.RecordAnalysis(string(result.Verdict), time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

func extractEmail(r *http.Request) (string, error) {
	switch r.Method {
	case http.MethodGet:
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" {
			return "", apperrors.NewInvalidInputError("email query parameter is required")
		}
		return email, nil
	case http.MethodPost:
		var req SanitizeRequest
		if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 4096)).Decode(&req); err != nil {
			return "", apperrors.WrapInvalidInput(r.Context(), err, "invalid request body")
		}
		email := strings.TrimSpace(req.Email)
		if email == "" {
			return "", apperrors.NewInvalidInputError("email field is required")
		}
		return email, nil
	default:
		return "", apperrors.NewMethodNotAllowedError("sanitize supports GET and POST")
	}
}
