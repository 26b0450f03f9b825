package controllers

import (
	"net/http"

	"github.com/angelmondragon/grocer-backend/api/responses"
	"github.com/angelmondragon/grocer-backend/internal/address"
	"github.com/angelmondragon/grocer-backend/pkg/logger"
)

func AddressAutocomplete(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "address")
			return
		}

		suggestions, err := svc.Suggest(r.Context(), r.URL.Query().Get("input"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suggestions)
	}
}

func AddressGeocode(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "address")
			return
		}

		location, err := svc.Locate(r.Context(), r.URL.Query().Get("address"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, location)
	}
}
