package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codr1/gotnext/internal/api/authz"
)

func TestMiddlewareChainSetsRequestAndParticipant(t *testing.T) {
	var (
		gotParticipant string
		gotRequestID   string
	)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotParticipant = authz.ParticipantFromContext(r.Context())
		gotRequestID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := ChainMiddleware(inner, WithParticipant, WithLogging, WithRecovery, WithRequestID, WithContentType)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gyms", nil)
	req.Header.Set(authz.ParticipantHeader, " alice ")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("status: %d", recorder.Code)
	}
	if gotParticipant != "alice" {
		t.Fatalf("expected participant alice, got %q", gotParticipant)
	}
	if gotRequestID == "" || recorder.Header().Get("X-Request-ID") != gotRequestID {
		t.Fatalf("expected request id header to match context, got %q / %q", gotRequestID, recorder.Header().Get("X-Request-ID"))
	}
}

func TestWithRecoveryReturns500(t *testing.T) {
	handler := ChainMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), WithRecovery, WithRequestID)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", recorder.Code)
	}
}
