package handler

import (
	"net/http"

	"github.com/itchan-dev/uniforum/shared/api"
	"github.com/itchan-dev/uniforum/shared/utils"
)

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	postId, err := idParam(r, "post")
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}

	post, err := h.post.Get(r.Context(), user, postId)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	writeJSON(w, api.PostResponse{PostView: post})
}

// DeletePost removes the caller's own post while it is the last one of its thread.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	postId, err := idParam(r, "post")
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}

	result, err := h.post.RemoveTrailing(r.Context(), user, postId)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	writeJSON(w, api.RemovePostResponse{ThreadId: result.ThreadId, ThreadDeleted: result.ThreadDeleted})
}

func (h *Handler) BanPost(w http.ResponseWriter, r *http.Request) {
	h.toggleBan(w, r, true)
}

func (h *Handler) UnbanPost(w http.ResponseWriter, r *http.Request) {
	h.toggleBan(w, r, false)
}

func (h *Handler) toggleBan(w http.ResponseWriter, r *http.Request, ban bool) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	postId, err := idParam(r, "post")
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}

	if ban {
		err = h.moderation.BanPost(r.Context(), user, postId)
	} else {
		err = h.moderation.UnbanPost(r.Context(), user, postId)
	}
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
