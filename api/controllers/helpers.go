package controllers

import (
	"net/http"

	"github.com/angelmondragon/grocer-backend/api/middleware"
	"github.com/angelmondragon/grocer-backend/api/responses"
	"github.com/angelmondragon/grocer-backend/api/validators"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/angelmondragon/grocer-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	paramSupermarketID = "supermarketId"
	paramCategoryID    = "categoryId"
	paramItemID        = "itemId"
	paramSessionID     = "sessionId"
)

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, name+" service unavailable"))
}

func requireUserID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return id, nil
}

// supermarketScope resolves the supermarket path parameter and tags the
// request logger with it.
func supermarketScope(r *http.Request, logg *logger.Logger) (uuid.UUID, *http.Request, error) {
	id, err := validators.ParseUUIDParam(r, paramSupermarketID)
	if err != nil {
		return uuid.Nil, r, err
	}
	if logg != nil {
		r = r.WithContext(logg.WithSupermarketID(r.Context(), id.String()))
	}
	return id, r, nil
}
