package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/platofoods/plato-backend/pkg/enums"
	"github.com/platofoods/plato-backend/pkg/logger"
)

func identityHandler(t *testing.T, wantID string, wantRole enums.ActorRole) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "identity-test", Output: io.Discard})
	return Identity(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantID, UserIDFromContext(r.Context()))
		assert.Equal(t, wantRole, RoleFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestIdentityPassesTrustedHeaders(t *testing.T) {
	userID := uuid.NewString()
	handler := identityHandler(t, userID, enums.ActorRoleAgent)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", userID)
	req.Header.Set("X-User-Role", "agent")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestIdentityRejectsMissingOrMalformed(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "identity-test", Output: io.Discard})
	handler := Identity(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without identity")
	}))

	cases := map[string]map[string]string{
		"no headers":   {},
		"bad user id":  {"X-User-Id": "not-a-uuid", "X-User-Role": "customer"},
		"unknown role": {"X-User-Id": uuid.NewString(), "X-User-Role": "admin"},
	}
	for name, headers := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestRequireRoleBlocksOtherRoles(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "identity-test", Output: io.Discard})
	handler := RequireRole(enums.ActorRoleAgent, logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), enums.ActorRoleCustomer))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), enums.ActorRoleAgent))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
