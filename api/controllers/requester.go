package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/platofoods/plato-backend/api/middleware"
	"github.com/platofoods/plato-backend/pkg/enums"
	pkgerrors "github.com/platofoods/plato-backend/pkg/errors"
)

// requester resolves the gateway-supplied identity from the request context.
func requester(r *http.Request) (uuid.UUID, enums.ActorRole, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "malformed identity")
	}
	role := middleware.RoleFromContext(r.Context())
	if !role.IsValid() {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown actor role")
	}
	return id, role, nil
}
