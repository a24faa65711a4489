package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/depfused/depfused/orchestrate"
)

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(orchestrate.New(orchestrate.Config{SkipNpmCheck: true}), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestScanEndpointRejectsEmptyTargets(t *testing.T) {
	router := NewRouter(orchestrate.New(orchestrate.Config{SkipNpmCheck: true}), nil)

	body, _ := json.Marshal(scanRequest{})
	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestScanEndpointRejectsMalformedJSON(t *testing.T) {
	router := NewRouter(orchestrate.New(orchestrate.Config{SkipNpmCheck: true}), nil)

	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestNormalizeTarget(t *testing.T) {
	cases := map[string]string{
		"example.com":         "https://example.com",
		"http://example.com":  "http://example.com",
		"https://example.com": "https://example.com",
	}
	for in, want := range cases {
		if got := normalizeTarget(in); got != want {
			t.Errorf("normalizeTarget(%q) = %q, want %q", in, got, want)
		}
	}
}
