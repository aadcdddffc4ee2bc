package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/uniforum/shared/api"
	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	"github.com/itchan-dev/uniforum/shared/utils"
)

// RemoveForumsAt is called when a course, degree, centre or institution is
// deleted from the platform.
func (h *Handler) RemoveForumsAt(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	scope, found := domain.ParseScope(chi.URLParam(r, "scope"))
	if !found {
		utils.RequestError(w, r, internal_errors.Validation("Unknown scope"))
		return
	}
	location, err := idParam(r, "location")
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}

	removed, err := h.purge.RemoveForumsAt(r.Context(), user, scope, location)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	writeJSON(w, api.RemoveForumsResponse{ThreadsRemoved: removed})
}

// PurgeUserState drops the read marks and clipboard entry of a deleted user.
func (h *Handler) PurgeUserState(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	userId, err := idParam(r, "user")
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}

	if err := h.purge.PurgeUser(r.Context(), user, userId); err != nil {
		utils.RequestError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
