package controllers

import (
	"net/http"

	"github.com/angelmondragon/fitcoach-backend/api/responses"
	"github.com/angelmondragon/fitcoach-backend/api/validators"
	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
)

// ActivitiesList returns one page of a client's timeline, newest first.
func ActivitiesList(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		clientID, err := validators.ParsePathID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), clientID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
