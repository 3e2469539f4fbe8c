package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := ClientIDFromContext(r.Context())
		if !ok {
			t.Error("handler reached without client ID in context")
		}
		w.Write([]byte(id))
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Generate("figma-plugin", time.Minute)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	handler := RequireAuth(ts)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodPost, "/api/render", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != "figma-plugin" {
		t.Errorf("client ID = %q, want %q", rr.Body.String(), "figma-plugin")
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	ts := newTestTokenService(t)
	handler := RequireAuth(ts)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodPost, "/api/render", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	ts := newTestTokenService(t)
	handler := RequireAuth(ts)(protectedEcho(t))

	for _, header := range []string{"Bearer", "Bearer ", "Basic abc", "garbage"} {
		req := httptest.NewRequest(http.MethodPost, "/api/render", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rr.Code)
		}
	}
}
